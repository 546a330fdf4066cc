package app

import (
	"github.com/yungbote/support-bot-backend/internal/data/repos"
	"github.com/yungbote/support-bot-backend/internal/platform/logger"
	"github.com/yungbote/support-bot-backend/internal/rag"
	"github.com/yungbote/support-bot-backend/internal/services"
)

type Services struct {
	Retriever rag.Retriever
	Reply     services.ReplyService
	Webhook   services.WebhookService
}

func wireServices(log *logger.Logger, reposet repos.Set, clients Clients) Services {
	log.Info("Wiring services...")

	retriever := rag.NewRetriever(log, clients.OpenaiClient, reposet.KBChunks)
	reply := services.NewReplyService(log, clients.OpenaiClient)
	webhook := services.NewWebhookService(
		log,
		reposet.Conversations,
		reposet.Messages,
		retriever,
		reply,
		clients.Telegram,
		clients.RateLimiter,
	)

	return Services{
		Retriever: retriever,
		Reply:     reply,
		Webhook:   webhook,
	}
}
