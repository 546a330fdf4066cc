package services

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/support-bot-backend/internal/clients/redis"
	"github.com/yungbote/support-bot-backend/internal/clients/telegram"
	"github.com/yungbote/support-bot-backend/internal/data/repos"
	types "github.com/yungbote/support-bot-backend/internal/domain"
	"github.com/yungbote/support-bot-backend/internal/moderation"
	"github.com/yungbote/support-bot-backend/internal/platform/ctxutil"
	"github.com/yungbote/support-bot-backend/internal/platform/dbctx"
	"github.com/yungbote/support-bot-backend/internal/platform/envutil"
	"github.com/yungbote/support-bot-backend/internal/platform/logger"
	"github.com/yungbote/support-bot-backend/internal/rag"
)

const welcomeMessage = "Hi! I'm your Casino Support Assistant. I can help with account access, KYC, deposits/withdrawals, bonus terms, technical issues, responsible gaming tools, and contacting support.\n" +
	"Please avoid asking for betting strategies or exploits — I'll have to refuse."

const helpMessage = "You can ask about account issues, KYC steps, deposits/withdrawals, bonus terms in our policy, troubleshooting, and responsible gaming options (limits/self-exclusion)."

const fallbackMessage = "Sorry, something went wrong. Please try again later or contact support."

const retrieveK = 5

type WebhookService interface {
	// HandleUpdate records the inbound message and schedules the reply
	// pipeline. It returns once the inbound row is durable; the reply runs
	// on a detached context so the Telegram webhook can be acknowledged
	// immediately. Updates without message text are ignored.
	HandleUpdate(ctx context.Context, upd *telegram.Update) error
	// Drain waits for in-flight reply pipelines. Called on shutdown.
	Drain()
}

type webhookService struct {
	log           *logger.Logger
	conversations repos.ConversationRepo
	messages      repos.MessageRepo
	retriever     rag.Retriever
	replies       ReplyService
	sender        telegram.Client
	limiter       redis.RateLimiter
	seq           *Sequencer
	stepTimeout   time.Duration
}

func NewWebhookService(
	baseLog *logger.Logger,
	conversationRepo repos.ConversationRepo,
	messageRepo repos.MessageRepo,
	retriever rag.Retriever,
	replies ReplyService,
	sender telegram.Client,
	limiter redis.RateLimiter,
) WebhookService {
	return &webhookService{
		log:           baseLog.With("service", "WebhookService"),
		conversations: conversationRepo,
		messages:      messageRepo,
		retriever:     retriever,
		replies:       replies,
		sender:        sender,
		limiter:       limiter,
		seq:           NewSequencer(),
		stepTimeout:   envutil.DurationSeconds("PIPELINE_STEP_TIMEOUT_SECONDS", 30*time.Second),
	}
}

func (s *webhookService) HandleUpdate(ctx context.Context, upd *telegram.Update) error {
	if upd == nil || upd.Message == nil || strings.TrimSpace(upd.Message.Text) == "" {
		return nil
	}

	chatID := upd.Message.Chat.ID
	chatKey := strconv.FormatInt(chatID, 10)
	log := s.log.With("update_id", upd.UpdateID, "chat_id", chatKey)

	convo, err := s.withTimeout(ctx, func(c context.Context) (*types.Conversation, error) {
		return s.conversations.Upsert(dbctx.Context{Ctx: c}, types.PlatformTelegram, chatKey, upd.Handle())
	})
	if err != nil {
		// Nothing durable exists yet and nothing was processed, so the
		// user sees no reply; Telegram will redeliver.
		log.Error("Conversation upsert failed", "error", err.Error())
		return err
	}

	inbound := &types.Message{
		ConversationID:    convo.ID,
		Direction:         types.DirectionIn,
		Role:              types.RoleUser,
		Text:              upd.Message.Text,
		ExternalMessageID: strconv.FormatInt(upd.Message.MessageID, 10),
	}
	inserted, err := func() (bool, error) {
		c, cancel := context.WithTimeout(ctx, s.stepTimeout)
		defer cancel()
		return s.messages.CreateInbound(dbctx.Context{Ctx: c}, inbound)
	}()
	if err != nil {
		// Same as above: the inbound row is not durable, stay silent.
		log.Error("Inbound record failed", "error", err.Error())
		return err
	}
	if !inserted {
		// Redelivery of a message already processed (or in flight). No
		// side effects beyond the durable row that already exists.
		log.Info("Duplicate inbound update, skipping")
		return nil
	}

	// The inbound row is durable; everything after this point survives the
	// webhook caller going away, serialized per conversation.
	detached := ctxutil.Detach(ctx)
	s.seq.Do(convo.ID.String(), func() {
		s.reply(detached, log, convo.ID, chatID, strings.TrimSpace(upd.Message.Text))
	})
	return nil
}

func (s *webhookService) Drain() {
	s.seq.Wait()
}

// reply runs the post-acknowledgment pipeline: commands, rate limit,
// moderation, retrieval, generation, send, outbound record. Any failure
// degrades to the fixed fallback message.
func (s *webhookService) reply(ctx context.Context, log *logger.Logger, convoID uuid.UUID, chatID int64, text string) {
	switch text {
	case "/start":
		s.sendAndRecord(ctx, log, convoID, chatID, welcomeMessage, nil)
		return
	case "/help":
		s.sendAndRecord(ctx, log, convoID, chatID, helpMessage, nil)
		return
	}

	allowed, err := s.limiter.Allow(ctx, chatID)
	if err != nil {
		log.Warn("Rate limit check degraded", "error", err.Error())
	}
	if !allowed {
		// Inbound stays recorded; the reply is dropped, not queued.
		log.Info("Rate limited, skipping reply")
		return
	}

	mod := moderation.Moderate(text)
	if mod.RGRisk {
		if err := s.setRiskFlag(ctx, convoID); err != nil {
			log.Error("Risk flag update failed", "error", err.Error())
		}
	}
	if mod.Disallowed {
		log.Info("Disallowed request refused", "terms", strings.Join(mod.DisallowedTerms, ","))
		s.sendAndRecord(ctx, log, convoID, chatID, moderation.RefusalMessage(), nil)
		return
	}

	hits, err := func() ([]rag.Hit, error) {
		c, cancel := context.WithTimeout(ctx, s.stepTimeout)
		defer cancel()
		return s.retriever.RetrieveTopK(c, text, retrieveK)
	}()
	if err != nil {
		log.Error("Retrieval failed", "error", err.Error())
		s.sendFallback(ctx, chatID)
		return
	}

	rgNote := ""
	if mod.RGRisk {
		rgNote = RGNote
	}
	gen, err := func() (res genResult, err error) {
		c, cancel := context.WithTimeout(ctx, s.stepTimeout)
		defer cancel()
		r, err := s.replies.Generate(c, text, hits, rgNote)
		return genResult{r.Text, r.Model, r.PromptTokens, r.CompletionTokens}, err
	}()
	if err != nil {
		log.Error("Reply generation failed", "error", err.Error())
		s.sendFallback(ctx, chatID)
		return
	}

	answer := gen.text
	if moderation.ShouldAddFooter(text, mod.RGRisk) {
		answer += "\n\n" + moderation.FooterText()
	}

	s.sendAndRecord(ctx, log, convoID, chatID, answer, &gen)
}

type genResult struct {
	text             string
	model            string
	promptTokens     int
	completionTokens int
}

// sendAndRecord delivers text to the chat and appends the outbound row. The
// send failing degrades to the fallback; the record failing is logged but
// the user already has the reply.
func (s *webhookService) sendAndRecord(ctx context.Context, log *logger.Logger, convoID uuid.UUID, chatID int64, text string, gen *genResult) {
	msgID, err := func() (int64, error) {
		c, cancel := context.WithTimeout(ctx, s.stepTimeout)
		defer cancel()
		return s.sender.SendMessage(c, chatID, text)
	}()
	if err != nil {
		log.Error("Telegram send failed", "error", err.Error())
		s.sendFallback(ctx, chatID)
		return
	}

	out := &types.Message{
		ConversationID: convoID,
		Direction:      types.DirectionOut,
		Role:           types.RoleAssistant,
		Text:           text,
	}
	if msgID != 0 {
		out.ExternalMessageID = strconv.FormatInt(msgID, 10)
	}
	if gen != nil {
		out.Model = gen.model
		out.PromptTokens = gen.promptTokens
		out.CompletionTokens = gen.completionTokens
	}

	c, cancel := context.WithTimeout(ctx, s.stepTimeout)
	defer cancel()
	if err := s.messages.Create(dbctx.Context{Ctx: c}, out); err != nil {
		log.Error("Outbound record failed", "error", err.Error())
	}
}

func (s *webhookService) setRiskFlag(ctx context.Context, convoID uuid.UUID) error {
	c, cancel := context.WithTimeout(ctx, s.stepTimeout)
	defer cancel()
	return s.conversations.SetRiskFlag(dbctx.Context{Ctx: c}, convoID)
}

// sendFallback is best effort: the update still resolves ok whether or not
// the apology lands.
func (s *webhookService) sendFallback(ctx context.Context, chatID int64) {
	c, cancel := context.WithTimeout(ctxutil.Detach(ctx), s.stepTimeout)
	defer cancel()
	if _, err := s.sender.SendMessage(c, chatID, fallbackMessage); err != nil {
		s.log.Warn("Fallback send failed", "error", err.Error())
	}
}

func (s *webhookService) withTimeout(ctx context.Context, fn func(context.Context) (*types.Conversation, error)) (*types.Conversation, error) {
	c, cancel := context.WithTimeout(ctx, s.stepTimeout)
	defer cancel()
	return fn(c)
}
