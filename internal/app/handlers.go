package app

import (
	"github.com/yungbote/support-bot-backend/internal/data/repos"
	httpH "github.com/yungbote/support-bot-backend/internal/http/handlers"
	"github.com/yungbote/support-bot-backend/internal/platform/logger"
)

type Handlers struct {
	Webhook *httpH.WebhookHandler
	Admin   *httpH.AdminHandler
	Health  *httpH.HealthHandler
}

func wireHandlers(log *logger.Logger, reposet repos.Set, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Webhook: httpH.NewWebhookHandler(log, services.Webhook),
		Admin:   httpH.NewAdminHandler(log, reposet),
		Health:  httpH.NewHealthHandler(),
	}
}
