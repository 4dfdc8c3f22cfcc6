package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/examforge/exam-service/internal/config"
	"github.com/examforge/exam-service/internal/models"
	"github.com/examforge/exam-service/internal/repositories"
	"github.com/examforge/exam-service/internal/services"
	"github.com/examforge/exam-service/internal/utils"
	"github.com/examforge/exam-service/internal/validator"
)

type HandlerManager struct {
	poolHandler      *PoolHandler
	questionHandler  *QuestionHandler
	testHandler      *TestHandler
	attemptHandler   *AttemptHandler
	analyticsHandler *AnalyticsHandler
	authMiddleware   *CasdoorAuthMiddleware
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	validator *validator.Validator,
	logger utils.Logger,
	casdoorConfig config.CasdoorSettings,
	userRepo repositories.UserRepository,
) *HandlerManager {
	authMiddleware := NewCasdoorAuthMiddleware(casdoorConfig, userRepo)

	return &HandlerManager{
		poolHandler:      NewPoolHandler(serviceManager.Pool(), validator, logger),
		questionHandler:  NewQuestionHandler(serviceManager.Question(), validator, logger),
		testHandler:      NewTestHandler(serviceManager.Test(), validator, logger),
		attemptHandler:   NewAttemptHandler(serviceManager.Attempt(), validator, logger),
		analyticsHandler: NewAnalyticsHandler(serviceManager.Analytics(), logger),
		authMiddleware:   authMiddleware,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")
	v1.Use(hm.authMiddleware.AuthMiddleware())
	{
		facultyOnly := hm.authMiddleware.RequireRoleMiddleware(models.RoleFaculty, models.RoleAdmin)
		studentOnly := hm.authMiddleware.RequireRoleMiddleware(models.RoleStudent)

		// Pool routes - Faculty and Admins only
		pools := v1.Group("/pools")
		pools.Use(facultyOnly)
		{
			pools.POST("", hm.poolHandler.CreatePool)
			pools.GET("/course/:course_id", hm.poolHandler.ListPoolsByCourse)
		}

		// Question routes - Faculty and Admins only
		questions := v1.Group("/questions")
		questions.Use(facultyOnly)
		{
			questions.POST("", hm.questionHandler.CreateQuestion)
			questions.POST("/import", hm.questionHandler.ImportQuestions)
			questions.GET("/course/:course_id", hm.questionHandler.ListQuestionsByCourse)
			questions.DELETE("/:id", hm.questionHandler.DeleteQuestion)
		}

		// Test routes
		tests := v1.Group("/tests")
		{
			// Releasing - Faculty and Admins only
			tests.POST("/release-random", facultyOnly, hm.testHandler.ReleaseRandomTest)
			tests.POST("/release-whole-pool", facultyOnly, hm.testHandler.ReleaseWholePoolTest)

			// Student-facing views
			tests.POST("/available", studentOnly, hm.testHandler.GetAvailableTests)
			tests.GET("/:id/missed-details", studentOnly, hm.testHandler.GetMissedTestDetails)
		}

		// Attempt routes
		attempts := v1.Group("/attempts")
		{
			attempts.POST("/start", studentOnly, hm.attemptHandler.StartAttempt)
			attempts.POST("/submit", studentOnly, hm.attemptHandler.SubmitAttempt)
			attempts.POST("/history", studentOnly, hm.attemptHandler.GetHistory)

			// Result reads are open to all authenticated users; the service
			// rejects students reading other students' attempts.
			attempts.GET("/:id/result", hm.attemptHandler.GetResult)
		}

		// Analytics routes - Faculty and Admins only
		analytics := v1.Group("/analytics")
		analytics.Use(facultyOnly)
		{
			analytics.GET("/courses/:course_id", hm.analyticsHandler.GetCourseAnalysis)
			analytics.GET("/tests/:test_id/scores", hm.analyticsHandler.GetTestScores)
			analytics.GET("/courses/:course_id/students/:student_id", hm.analyticsHandler.GetStudentAnalysis)
		}
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "exam-service",
		})
	})
}
