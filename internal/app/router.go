package app

import (
	"exam_sync_backend/docs"
	"exam_sync_backend/internal/config"
	"exam_sync_backend/internal/middleware"
	"exam_sync_backend/internal/model"
	"exam_sync_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 公共路由（无需登录）
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}

	// 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		authGroup.GET("/profile", c.auth.GetProfile)

		authGroup.POST("/sync", c.sync.StartSync)
		authGroup.GET("/sync/progress", c.sync.GetProgress)

		authGroup.GET("/exams", c.exam.ListExams)
		authGroup.GET("/exams/mine", c.exam.ListMyExams)
		authGroup.GET("/exams/:id", c.exam.GetExam)
		authGroup.GET("/exams/:id/peer-timings", c.exam.GetPeerTimings)

		authGroup.GET("/exams/:id/attempt", c.attempt.GetAttempt)
		authGroup.GET("/exams/:id/analysis", c.attempt.GetAnalysis)
	}

	// 管理员路由：答案键修订
	adminGroup := router.Group("/api/admin")
	adminGroup.Use(middleware.AuthMiddleware(cfg), middleware.RoleMiddleware(model.Admin))
	{
		adminGroup.PUT("/questions/:id/key", c.admin.UpdateQuestionKey)
		adminGroup.DELETE("/questions/:id/key", c.admin.ResetQuestionKey)
	}
}
