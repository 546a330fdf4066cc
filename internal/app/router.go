package app

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/support-bot-backend/internal/http"
	"github.com/yungbote/support-bot-backend/internal/platform/logger"
)

func wireRouter(log *logger.Logger, cfg Config, handlers Handlers, middleware Middleware) *gin.Engine {
	rc := http.RouterConfig{
		Log:            log,
		HealthHandler:  handlers.Health,
		WebhookHandler: handlers.Webhook,
	}
	if cfg.AdminEnabled() {
		rc.AdminHandler = handlers.Admin
		rc.AdminAuth = middleware.AdminAuth
	}
	return http.NewRouter(rc)
}
