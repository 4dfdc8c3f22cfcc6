package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/examforge/exam-service/internal/allocator"
	"github.com/examforge/exam-service/internal/services"
	"github.com/examforge/exam-service/internal/utils"
	"github.com/examforge/exam-service/internal/validator"
)

type TestHandler struct {
	BaseHandler
	testService services.TestService
	validator   *validator.Validator
}

func NewTestHandler(testService services.TestService, validator *validator.Validator, logger utils.Logger) *TestHandler {
	return &TestHandler{
		BaseHandler: NewBaseHandler(logger),
		testService: testService,
		validator:   validator,
	}
}

// AvailableTestsRequest scopes the student listing to one course
type AvailableTestsRequest struct {
	CourseID string `json:"courseId" validate:"required"`
}

// ReleaseRandomTest releases a randomized test from the selected pools
func (h *TestHandler) ReleaseRandomTest(c *gin.Context) {
	h.LogRequest(c, "Releasing randomized test")

	var req services.ReleaseRandomTestRequest
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

	test, err := h.testService.ReleaseRandom(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, test)
}

// ReleaseWholePoolTest releases a test containing every question of a pool
func (h *TestHandler) ReleaseWholePoolTest(c *gin.Context) {
	h.LogRequest(c, "Releasing whole-pool test")

	var req services.ReleaseWholePoolRequest
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

	test, err := h.testService.ReleaseWholePool(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, test)
}

// GetAvailableTests lists the active tests of a course the student has not
// yet completed
func (h *TestHandler) GetAvailableTests(c *gin.Context) {
	var req AvailableTestsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: err.Error(),
		})
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Listing available tests", "course_id", req.CourseID)

	tests, err := h.testService.AvailableTests(c.Request.Context(), req.CourseID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, tests)
}

// GetMissedTestDetails returns the question set of an expired test the
// student never took
func (h *TestHandler) GetMissedTestDetails(c *gin.Context) {
	testID, ok := h.requireParam(c, "id")
	if !ok {
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Getting missed test details", "test_id", testID)

	details, err := h.testService.MissedTestDetails(c.Request.Context(), testID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, details)
}

func (h *TestHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
		})
		return
	}

	// Allocation failures are client errors: bad policy or a pool that
	// cannot satisfy it. The typed error carries the bucket counts.
	var allocErr *allocator.Error
	if errors.As(err, &allocErr) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: allocErr.Message,
			Details: map[string]interface{}{
				"kind":       allocErr.Kind,
				"poolId":     allocErr.PoolID,
				"difficulty": allocErr.Difficulty,
				"required":   allocErr.Required,
				"available":  allocErr.Available,
			},
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrTestNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Test not found",
		})
	case errors.Is(err, services.ErrPoolNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Pool not found",
		})
	case errors.Is(err, services.ErrTestNotActive):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Test is not active",
		})
	case errors.Is(err, services.ErrAlreadyTaken):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Test already taken",
		})
	case errors.Is(err, services.ErrMissedDetailsUnavailable):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Missed test details are not available for this test",
		})
	default:
		h.LogError(c, err, "Unexpected service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}
