package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/examforge/exam-service/internal/services"
	"github.com/examforge/exam-service/internal/utils"
	"github.com/examforge/exam-service/internal/validator"
)

type QuestionHandler struct {
	BaseHandler
	questionService services.QuestionService
	validator       *validator.Validator
}

func NewQuestionHandler(questionService services.QuestionService, validator *validator.Validator, logger utils.Logger) *QuestionHandler {
	return &QuestionHandler{
		BaseHandler:     NewBaseHandler(logger),
		questionService: questionService,
		validator:       validator,
	}
}

// CreateQuestion creates a single question in a pool
func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	h.LogRequest(c, "Creating question")

	var req services.CreateQuestionRequest
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

	question, err := h.questionService.Create(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, question)
}

// ImportQuestions bulk-imports questions from an uploaded XLSX workbook.
// The upload is multipart: course_id and pool_id form fields plus a "file"
// part. A report with row errors and HTTP 200 still means nothing was
// imported; the client checks the report.
func (h *QuestionHandler) ImportQuestions(c *gin.Context) {
	h.LogRequest(c, "Importing questions from spreadsheet")

	courseID := c.PostForm("course_id")
	poolID := c.PostForm("pool_id")
	if courseID == "" || poolID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "course_id and pool_id form fields are required",
		})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Missing file upload",
			Details: err.Error(),
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Failed to open uploaded file",
			Details: err.Error(),
		})
		return
	}
	defer file.Close()

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	report, err := h.questionService.ImportXLSX(c.Request.Context(), courseID, poolID, file, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	status := http.StatusCreated
	if len(report.Errors) > 0 {
		status = http.StatusBadRequest
	}
	c.JSON(status, report)
}

// ListQuestionsByCourse lists all questions of a course
func (h *QuestionHandler) ListQuestionsByCourse(c *gin.Context) {
	courseID, ok := h.requireParam(c, "course_id")
	if !ok {
		return
	}

	h.LogRequest(c, "Listing questions", "course_id", courseID)

	questions, err := h.questionService.ListByCourse(c.Request.Context(), courseID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, questions)
}

// DeleteQuestion deletes a question. Only the creator or an admin may.
func (h *QuestionHandler) DeleteQuestion(c *gin.Context) {
	id, ok := h.requireParam(c, "id")
	if !ok {
		return
	}

	h.LogRequest(c, "Deleting question", "question_id", id)

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	if err := h.questionService.Delete(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Question deleted successfully",
	})
}

func (h *QuestionHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
		})
		return
	}

	var permissionError *services.PermissionError
	if errors.As(err, &permissionError) {
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Access denied",
			Details: permissionError.Error(),
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrQuestionNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Question not found",
		})
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
