package http

import (
	"github.com/gin-gonic/gin"

	"carching-assistant/internal/bootstrap"
	"carching-assistant/internal/transport/http/handler"
	"carching-assistant/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app.Config.App.Name, app.Config.App.Env, app.StartedAt, app.HealthChecks())
	webhookHandler := handler.NewWebhookHandler(app.Config.WhatsApp.VerifyToken, app.Reply, app.Logger.With("component", "webhook"))
	syncHandler := handler.NewSyncHandler(app.Sync)
	chatHandler := handler.NewChatHandler(app.Chat)

	router.GET("/healthz", healthHandler.Check)
	router.GET("/ping", chatHandler.Ping)
	router.POST("/sync", syncHandler.Sync)

	webhook := router.Group("/whatsapp/webhook")
	webhook.GET("", webhookHandler.Verify)
	webhook.POST("", middleware.WhatsAppSignature(app.Config.WhatsApp.AppSecret), webhookHandler.Receive)

	v1 := router.Group("/api/v1")
	v1.POST("/chat", chatHandler.Chat)

	return router
}
