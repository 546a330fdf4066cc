package app

import (
	"fmt"

	"github.com/yungbote/support-bot-backend/internal/clients/redis"
	"github.com/yungbote/support-bot-backend/internal/clients/telegram"
	"github.com/yungbote/support-bot-backend/internal/platform/logger"
	"github.com/yungbote/support-bot-backend/internal/platform/openai"
)

type Clients struct {
	OpenaiClient openai.Client
	Telegram     telegram.Client
	RateLimiter  redis.RateLimiter
}

func wireClients(log *logger.Logger) (Clients, error) {
	log.Info("Wiring clients...")

	openaiClient, err := openai.NewClient(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init openai client: %w", err)
	}

	tg, err := telegram.NewFromEnv(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init telegram client: %w", err)
	}

	limiter, err := redis.NewRateLimiter(log, redis.ConfigFromEnv())
	if err != nil {
		return Clients{}, fmt.Errorf("init rate limiter: %w", err)
	}

	return Clients{
		OpenaiClient: openaiClient,
		Telegram:     tg,
		RateLimiter:  limiter,
	}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.RateLimiter != nil {
		_ = c.RateLimiter.Close()
	}
}
