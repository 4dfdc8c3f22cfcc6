package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/examforge/exam-service/internal/services"
	"github.com/examforge/exam-service/internal/utils"
	"github.com/examforge/exam-service/internal/validator"
)

type PoolHandler struct {
	BaseHandler
	poolService services.PoolService
	validator   *validator.Validator
}

func NewPoolHandler(poolService services.PoolService, validator *validator.Validator, logger utils.Logger) *PoolHandler {
	return &PoolHandler{
		BaseHandler: NewBaseHandler(logger),
		poolService: poolService,
		validator:   validator,
	}
}

// CreatePool creates a question pool within a course
func (h *PoolHandler) CreatePool(c *gin.Context) {
	h.LogRequest(c, "Creating question pool")

	var req services.CreatePoolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	pool, err := h.poolService.Create(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, pool)
}

// ListPoolsByCourse lists a course's pools with question counts
func (h *PoolHandler) ListPoolsByCourse(c *gin.Context) {
	courseID, ok := h.requireParam(c, "course_id")
	if !ok {
		return
	}

	h.LogRequest(c, "Listing question pools", "course_id", courseID)

	pools, err := h.poolService.ListByCourse(c.Request.Context(), courseID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, pools)
}

func (h *PoolHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrPoolNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Pool not found",
		})
	default:
		h.LogError(c, err, "Unexpected service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}
