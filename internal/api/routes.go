package api

import (
	"alcyxob/fitcoach/internal/domain"
	"alcyxob/fitcoach/internal/metrics"
	"alcyxob/fitcoach/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Services bundles what the HTTP layer needs.
type Services struct {
	Auth           service.AuthService
	Coach          service.CoachService
	Workout        service.WorkoutService
	Task           service.TaskService
	Template       service.TemplateService
	Assignment     service.AssignmentService
	Recommendation service.RecommendationService
	Media          service.MediaService
}

// SetupRoutes registers every endpoint on router. m may be nil, in which
// case no metrics route or middleware is installed.
func SetupRoutes(router *gin.Engine, jwtSecret string, svc Services, m *metrics.Metrics, metricsPath string) {
	if m != nil {
		router.Use(m.GinMiddleware())
		router.GET(metricsPath, gin.WrapH(m.Handler()))
	}

	authHandler := NewAuthHandler(svc.Auth)
	coachHandler := NewCoachHandler(svc.Coach)
	workoutHandler := NewWorkoutHandler(svc.Workout)
	taskHandler := NewTaskHandler(svc.Task)
	templateHandler := NewTemplateHandler(svc.Template, svc.Assignment)
	assignmentHandler := NewAssignmentHandler(svc.Assignment)
	recHandler := NewRecommendationHandler(svc.Recommendation)
	mediaHandler := NewMediaHandler(svc.Media)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(AuthMiddleware(jwtSecret))

	coachOnly := RoleMiddleware(domain.RoleCoach)
	traineeOnly := RoleMiddleware(domain.RoleTrainee)
	{
		protected.GET("/me", authHandler.Me)

		// --- Tasks ---
		tasks := protected.Group("/tasks")
		{
			tasks.GET("", taskHandler.GetTasks)
			tasks.GET("/stats", taskHandler.GetTaskStats)
			tasks.POST("/bulk", taskHandler.BulkTaskAction)
			tasks.GET("/:taskId", taskHandler.GetTask)
			tasks.GET("/:taskId/submissions", taskHandler.GetSubmissions)

			tasks.POST("", coachOnly, taskHandler.CreateTask)
			tasks.PATCH("/:taskId", coachOnly, taskHandler.UpdateTask)
			tasks.DELETE("/:taskId", coachOnly, taskHandler.DeleteTask)

			tasks.POST("/:taskId/submissions", traineeOnly, taskHandler.SubmitTask)
		}

		// --- Template assignments ---
		assignments := protected.Group("/assignments")
		{
			assignments.GET("", assignmentHandler.ListAssignments)
			assignments.GET("/:assignmentId", assignmentHandler.GetAssignment)
			assignments.PATCH("/:assignmentId/progress", assignmentHandler.UpdateProgress)
			assignments.POST("/:assignmentId/pause", assignmentHandler.Pause)
			assignments.POST("/:assignmentId/resume", assignmentHandler.Resume)
			assignments.POST("/:assignmentId/rate", traineeOnly, assignmentHandler.Rate)
		}

		protected.GET("/photos/:uploadId/download-url", mediaHandler.GetDownloadURL)

		// --- Coach Specific Routes ---
		coach := protected.Group("/coach")
		coach.Use(coachOnly)
		{
			coach.POST("/trainees", coachHandler.AddTraineeByEmail)
			coach.GET("/trainees", coachHandler.GetManagedTrainees)
			coach.POST("/trainees/:traineeId/recommendations", recHandler.Generate)
			coach.GET("/trainees/:traineeId/recommendations", recHandler.ListForTrainee)

			coach.POST("/workouts", workoutHandler.CreateWorkout)
			coach.GET("/workouts", workoutHandler.ListWorkouts)
			coach.GET("/workouts/:workoutId", workoutHandler.GetWorkout)
			coach.PUT("/workouts/:workoutId", workoutHandler.UpdateWorkout)
			coach.DELETE("/workouts/:workoutId", workoutHandler.DeleteWorkout)

			coach.POST("/templates", templateHandler.CreateTemplate)
			coach.GET("/templates", templateHandler.ListTemplates)
			coach.GET("/templates/:templateId", templateHandler.GetTemplate)
			coach.PUT("/templates/:templateId", templateHandler.UpdateTemplate)
			coach.DELETE("/templates/:templateId", templateHandler.DeleteTemplate)
			coach.POST("/templates/:templateId/publish", templateHandler.PublishTemplate)
			coach.POST("/templates/:templateId/archive", templateHandler.ArchiveTemplate)
			coach.POST("/templates/:templateId/assign", templateHandler.AssignTemplate)

			coach.POST("/assignments/:assignmentId/cancel", assignmentHandler.Cancel)

			coach.POST("/recommendations/:recommendationId/accept", recHandler.Accept)
			coach.POST("/recommendations/:recommendationId/dismiss", recHandler.Dismiss)

			coach.POST("/submissions/:submissionId/review", taskHandler.ReviewSubmission)
		}

		// --- Trainee Specific Routes ---
		trainee := protected.Group("/trainee")
		trainee.Use(traineeOnly)
		{
			trainee.GET("/profile", coachHandler.GetMyProfile)
			trainee.PUT("/profile", coachHandler.UpdateMyProfile)

			trainee.GET("/recommendations", recHandler.ListMine)
			trainee.POST("/recommendations/:recommendationId/view", recHandler.MarkViewed)
			trainee.POST("/recommendations/:recommendationId/dismiss", recHandler.Dismiss)

			trainee.GET("/templates/:templateId", templateHandler.GetTemplate)

			trainee.POST("/tasks/:taskId/photos/upload-url", mediaHandler.RequestUploadURL)
			trainee.POST("/tasks/:taskId/photos/confirm", mediaHandler.ConfirmUpload)
		}

		admin := protected.Group("/admin")
		admin.Use(RoleMiddleware(domain.RoleAdmin))
		{
			admin.POST("/tasks/mark-overdue", taskHandler.MarkOverdue)
		}
	}
}
