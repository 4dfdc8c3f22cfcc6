package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/examforge/exam-service/internal/utils"
)

// ErrorResponse is the uniform error payload
type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// SuccessResponse wraps operations that have no natural response body
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// BaseHandler carries the shared handler plumbing: request-scoped logging
// and the common context accessors.
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

// LogRequest logs an incoming request with the request-scoped logger
func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	utils.GetContextLogger(c, h.logger).Info(msg, args...)
}

// LogError logs an unexpected error with the request-scoped logger
func (h *BaseHandler) LogError(c *gin.Context, err error, msg string, args ...any) {
	utils.GetContextLogger(c, h.logger).Error(msg, append(args, "error", err)...)
}

// requireUserID pulls the authenticated user id from the context and writes
// the 401 itself when it is missing. The bool result tells the caller
// whether to continue.
func (h *BaseHandler) requireUserID(c *gin.Context) (string, bool) {
	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return "", false
	}
	return userID, true
}

// requireParam reads a non-empty path parameter and writes the 400 itself
// when it is missing.
func (h *BaseHandler) requireParam(c *gin.Context, name string) (string, bool) {
	value := c.Param(name)
	if value == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Missing path parameter: " + name,
		})
		return "", false
	}
	return value, true
}
