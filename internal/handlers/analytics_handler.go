package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/examforge/exam-service/internal/services"
	"github.com/examforge/exam-service/internal/utils"
)

type AnalyticsHandler struct {
	BaseHandler
	analyticsService services.AnalyticsService
}

func NewAnalyticsHandler(analyticsService services.AnalyticsService, logger utils.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		BaseHandler:      NewBaseHandler(logger),
		analyticsService: analyticsService,
	}
}

// GetCourseAnalysis returns the aggregated performance view of a course
func (h *AnalyticsHandler) GetCourseAnalysis(c *gin.Context) {
	courseID, ok := h.requireParam(c, "course_id")
	if !ok {
		return
	}

	h.LogRequest(c, "Getting course analysis", "course_id", courseID)

	analysis, err := h.analyticsService.CourseAnalysis(c.Request.Context(), courseID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, analysis)
}

// GetTestScores returns the scoreboard of one test
func (h *AnalyticsHandler) GetTestScores(c *gin.Context) {
	testID, ok := h.requireParam(c, "test_id")
	if !ok {
		return
	}

	h.LogRequest(c, "Getting test scores", "test_id", testID)

	scores, err := h.analyticsService.TestScores(c.Request.Context(), testID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, scores)
}

// GetStudentAnalysis returns one student's performance within a course
func (h *AnalyticsHandler) GetStudentAnalysis(c *gin.Context) {
	courseID, ok := h.requireParam(c, "course_id")
	if !ok {
		return
	}
	studentID, ok := h.requireParam(c, "student_id")
	if !ok {
		return
	}

	h.LogRequest(c, "Getting student analysis", "course_id", courseID, "student_id", studentID)

	analysis, err := h.analyticsService.StudentAnalysis(c.Request.Context(), courseID, studentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, analysis)
}

func (h *AnalyticsHandler) handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTestNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Test not found",
		})
	default:
		h.LogError(c, err, "Unexpected service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}
