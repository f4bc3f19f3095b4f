package app

import (
	"exam_guardian_backend/docs"
	"exam_guardian_backend/internal/config"
	"exam_guardian_backend/internal/middleware"
	"exam_guardian_backend/internal/model"

	"exam_guardian_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	a.registerPublicRoutes(router, c)

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		a.registerStudentRoutes(authGroup, c)
		a.registerTeacherRoutes(authGroup, c)
	}
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
		public.POST("/logout", c.auth.Logout)

		// 考试列表对外可读，前端未登录也要展示
		public.GET("/exams", c.exam.ListExams)
	}
}

func (a *App) registerStudentRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.GET("/profile", c.auth.GetProfile)

	rg.GET("/exams/:examId", c.exam.GetExam)
	rg.GET("/questions/:examId", c.question.ListQuestions)

	// 答卷提交与成绩
	rg.POST("/submissions", c.submission.SubmitExam)
	rg.GET("/submissions/student/all", c.submission.GetAllStudentResults)
	rg.GET("/submissions/:examId", c.submission.GetStudentResult)

	// 监考上报
	rg.POST("/cheating-logs", c.cheatingLog.Record)
	rg.POST("/cheating-logs/screenshot", c.cheatingLog.UploadScreenshot)
}

func (a *App) registerTeacherRoutes(rg *gin.RouterGroup, c *controllers) {
	teacher := rg.Group("/")
	teacher.Use(middleware.RoleMiddleware(model.Teacher))
	{
		teacher.POST("/exams", c.exam.CreateExam)
		teacher.POST("/questions", c.question.CreateQuestion)
		teacher.DELETE("/questions/:questionId", c.question.DeleteQuestion)

		teacher.GET("/submissions/teacher/all-exams", c.submission.GetTeacherExamsOverview)
		teacher.GET("/submissions/exam/:examId/all", c.submission.GetExamSubmissions)
		teacher.GET("/submissions/exam/:examId/analytics", c.submission.GetExamAnalytics)

		teacher.GET("/cheating-logs/:examId", c.cheatingLog.ListByExam)
	}
}
