package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"portfolio/internal/api/middleware"
	"portfolio/internal/auth"
	"portfolio/internal/config"
	"portfolio/internal/mailer"
	"portfolio/internal/notify"
	"portfolio/internal/storage"
)

// Dependencies 汇总路由注册所需的外部资源。
type Dependencies struct {
	Config        *config.Config
	DB            *gorm.DB
	AsynqClient   *asynq.Client
	AuthService   *auth.Service
	RedisClient   *redis.Client
	StorageClient *storage.Client
	Mailer        *mailer.Client
	Logger        *slog.Logger
}

// RegisterRoutes 注册全部 API 路由。
func RegisterRoutes(router *gin.Engine, deps Dependencies) {
	cfg := deps.Config
	db := deps.DB

	guard := NewUploadGuard(cfg.Upload.MaxBytes, cfg.Upload.ClamdAddr)
	files := newFileWorkflow(deps.StorageClient, guard, deps.AsynqClient, cfg.API.PublicBaseURL)
	notifier := notify.NewRedisPublisher(deps.RedisClient)

	authHandler := NewAuthHandler(db, deps.AuthService, deps.RedisClient, cfg.Auth)
	wsHandler := NewWsHandler(db, deps.RedisClient, deps.AuthService, deps.Logger, cfg.Websocket.AllowedOrigins)
	settingsHandler := NewSettingsHandler(db, files)
	resumeHandler := NewResumeHandler(db, files, deps.AsynqClient)
	businessHandler := NewBusinessHandler(db, files)
	certificateHandler := NewCertificateHandler(db, files)
	automationHandler := NewAutomationHandler(db, files)
	projectHandler := NewProjectHandler(db, files)
	messageHandler := NewMessageHandler(db)
	contactHandler := NewContactHandler(db, deps.Mailer, notifier, deps.RedisClient, cfg.API.ContactRateLimit)
	dashboardHandler := NewDashboardHandler(db)
	publicHandler := NewPublicHandler(db, files)
	storageHandler := NewStorageHandler(db, deps.StorageClient)

	authMiddleware := middleware.AuthMiddleware(deps.AuthService)

	router.GET("/favicon.ico", storageHandler.Favicon)
	router.GET(storage.PublicPathPrefix+":bucket/*path", storageHandler.ServePublicObject)

	v1 := router.Group("/v1")

	authGroup := v1.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.Refresh)
		authGroup.POST("/logout", authHandler.Logout)
		authGroup.POST("/change-password", authMiddleware, authHandler.ChangePassword)
		authGroup.GET("/me", authMiddleware, authHandler.Me)
	}

	v1.POST("/contact", contactHandler.Submit)

	public := v1.Group("/public")
	{
		public.GET("/settings", publicHandler.Settings)
		public.GET("/resume", publicHandler.Resume)
		public.GET("/businesses", publicHandler.Businesses)
		public.GET("/businesses/:slug", publicHandler.BusinessBySlug)
		public.GET("/certificates", publicHandler.Certificates)
		public.GET("/automations", publicHandler.Automations)
		public.GET("/projects", publicHandler.Projects)
		public.GET("/projects/:id", publicHandler.Project)
	}

	// WebSocket 在首条消息中自行鉴权。
	v1.GET("/admin/ws", wsHandler.HandleConnection)

	admin := v1.Group("/admin")
	admin.Use(authMiddleware, middleware.RequireAdmin(db), middleware.RequirePasswordChangeCompletedMiddleware())
	{
		admin.GET("/dashboard", dashboardHandler.GetCounts)

		admin.GET("/settings", settingsHandler.GetSettings)
		admin.PUT("/settings", settingsHandler.UpdateSettings)
		admin.POST("/settings/logos/:kind", settingsHandler.UploadLogo)
		admin.DELETE("/settings/logos/:kind", settingsHandler.DeleteLogo)

		admin.GET("/resume/items", resumeHandler.ListItems)
		admin.POST("/resume/items", resumeHandler.CreateItem)
		admin.PUT("/resume/items/:id", resumeHandler.UpdateItem)
		admin.DELETE("/resume/items/:id", resumeHandler.DeleteItem)
		admin.GET("/resume/pdfs", resumeHandler.ListPDFs)
		admin.POST("/resume/pdfs", resumeHandler.UploadPDF)
		admin.POST("/resume/pdfs/render", resumeHandler.RenderPDF)
		admin.PATCH("/resume/pdfs/:id", resumeHandler.RenamePDF)
		admin.POST("/resume/pdfs/:id/toggle", resumeHandler.TogglePDF)
		admin.DELETE("/resume/pdfs/:id", resumeHandler.DeletePDF)

		admin.GET("/businesses", businessHandler.ListBusinesses)
		admin.POST("/businesses", businessHandler.CreateBusiness)
		admin.PUT("/businesses/:id", businessHandler.UpdateBusiness)
		admin.DELETE("/businesses/:id", businessHandler.DeleteBusiness)
		admin.GET("/businesses/:id/screenshots", businessHandler.ListScreenshots)
		admin.POST("/businesses/:id/screenshots", businessHandler.CreateScreenshot)
		admin.PUT("/businesses/:id/screenshots/:screenshotId", businessHandler.UpdateScreenshot)
		admin.DELETE("/businesses/:id/screenshots/:screenshotId", businessHandler.DeleteScreenshot)

		admin.GET("/certificates", certificateHandler.ListCertificates)
		admin.POST("/certificates", certificateHandler.CreateCertificate)
		admin.PUT("/certificates/:id", certificateHandler.UpdateCertificate)
		admin.DELETE("/certificates/:id", certificateHandler.DeleteCertificate)

		admin.GET("/automations", automationHandler.ListAutomations)
		admin.POST("/automations", automationHandler.CreateAutomation)
		admin.PUT("/automations/:id", automationHandler.UpdateAutomation)
		admin.DELETE("/automations/:id", automationHandler.DeleteAutomation)

		admin.GET("/projects", projectHandler.ListProjects)
		admin.POST("/projects", projectHandler.CreateProject)
		admin.PUT("/projects/:id", projectHandler.UpdateProject)
		admin.DELETE("/projects/:id", projectHandler.DeleteProject)
		admin.GET("/projects/:id/assets", projectHandler.ListAssets)
		admin.POST("/projects/:id/assets", projectHandler.CreateAsset)
		admin.DELETE("/projects/:id/assets/:assetId", projectHandler.DeleteAsset)

		admin.GET("/messages", messageHandler.ListMessages)
		admin.GET("/messages/:id", messageHandler.ViewMessage)
		admin.PATCH("/messages/:id/status", messageHandler.UpdateStatus)
	}
}
