package app

import (
	httpMW "github.com/yungbote/support-bot-backend/internal/http/middleware"
	"github.com/yungbote/support-bot-backend/internal/platform/logger"
)

type Middleware struct {
	AdminAuth *httpMW.AdminAuthMiddleware
}

func wireMiddleware(log *logger.Logger, cfg Config) Middleware {
	log.Info("Wiring middleware...")
	var adminAuth *httpMW.AdminAuthMiddleware
	if cfg.AdminEnabled() {
		adminAuth = httpMW.NewAdminAuthMiddleware(log, cfg.AdminUser, cfg.AdminPass)
	}
	return Middleware{AdminAuth: adminAuth}
}
