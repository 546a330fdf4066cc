package http

import (
	"github.com/gin-gonic/gin"

	httpH "github.com/yungbote/support-bot-backend/internal/http/handlers"
	httpMW "github.com/yungbote/support-bot-backend/internal/http/middleware"
	"github.com/yungbote/support-bot-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log *logger.Logger

	WebhookHandler *httpH.WebhookHandler
	AdminHandler   *httpH.AdminHandler
	AdminAuth      *httpMW.AdminAuthMiddleware
	HealthHandler  *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpMW.AttachRequestContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS())

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/", cfg.HealthHandler.Root)
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/health", cfg.HealthHandler.HealthCheck)
		r.GET("/health/env", cfg.HealthHandler.EnvCheck)
	}

	// Telegram webhook (public; Telegram authenticates via the secret path
	// being unguessable and the bot token never appearing in responses)
	if cfg.WebhookHandler != nil {
		r.POST("/telegram/webhook", cfg.WebhookHandler.Receive)
	}

	// Admin API
	if cfg.AdminHandler != nil {
		admin := r.Group("/admin/api")
		if cfg.AdminAuth != nil {
			admin.Use(cfg.AdminAuth.RequireBasicAuth())
		}
		admin.GET("/conversations", cfg.AdminHandler.ListConversations)
		admin.GET("/conversations/:id/messages", cfg.AdminHandler.ListConversationMessages)
		admin.GET("/kb", cfg.AdminHandler.KBStats)
	}

	return r
}
