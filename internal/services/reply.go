package services

import (
	"context"
	"strings"

	pkgerrors "github.com/yungbote/support-bot-backend/internal/pkg/errors"
	"github.com/yungbote/support-bot-backend/internal/platform/logger"
	"github.com/yungbote/support-bot-backend/internal/platform/openai"
	"github.com/yungbote/support-bot-backend/internal/rag"
)

const systemPolicy = `You are "Casino Support Assistant" for customer support only.
Allowed topics: account help, KYC, deposits/withdrawals status and steps, bonus terms as written in KB, technical troubleshooting, contacting human support, responsible gaming tools (limits, self-exclusion).
Disallowed topics (REFUSE): betting strategy, "how to win", game manipulation, exploiting bonuses, bypassing KYC, fraud, chargebacks, laundering, evading limits.
If user requests disallowed content: politely refuse, offer legitimate support alternatives, and mention responsible gaming tools.
If user expresses distress/problem gambling: respond supportively, explain available responsible gaming tools (from KB if present), encourage seeking help from local professional resources, and offer to connect to human support.
Never ask for passwords, full card numbers, CVV, or full bank details. When asking for identifiers, request only minimal info: username, approximate timestamp, transaction reference, last 4 digits, masked email. Encourage official in-app channels for sensitive actions.`

// RGNote is appended to the system prompt when the inbound message tripped
// the at-risk keyword screen.
const RGNote = "User may be at risk; be supportive, mention limits/self-exclusion and professional help resources."

type ReplyService interface {
	// Generate produces an assistant reply for userText grounded in the
	// retrieved chunks. rgNote, when non-empty, is added to the system
	// prompt; it never reaches the user-visible text directly.
	Generate(ctx context.Context, userText string, retrieved []rag.Hit, rgNote string) (openai.GenerateResult, error)
}

type replyService struct {
	log *logger.Logger
	ai  openai.Client
}

func NewReplyService(baseLog *logger.Logger, ai openai.Client) ReplyService {
	return &replyService{
		log: baseLog.With("service", "ReplyService"),
		ai:  ai,
	}
}

func (s *replyService) Generate(ctx context.Context, userText string, retrieved []rag.Hit, rgNote string) (openai.GenerateResult, error) {
	system := systemPolicy
	if rgNote != "" {
		system += "\nResponsible gaming note: " + rgNote
	}

	referenceContext := "No KB context matched."
	if len(retrieved) > 0 {
		var refs []string
		for _, h := range retrieved {
			refs = append(refs, "- "+h.Text)
		}
		referenceContext = "Reference context (from KB):\n" + strings.Join(refs, "\n")
	}

	user := strings.Join([]string{
		"User request: " + userText,
		"",
		referenceContext,
		"",
		"Instructions:",
		"- Use KB as source of truth for policy/terms.",
		"- If unsure or missing info in KB, ask for clarifications or provide general guidance without making policy claims.",
		"- Do not include citations or source tags in the reply.",
		"- Keep responses concise, professional, and supportive.",
	}, "\n")

	res, err := s.ai.Generate(ctx, system, user)
	if err != nil {
		return openai.GenerateResult{}, &pkgerrors.GenerationError{Err: err}
	}
	s.log.Debug("Generated reply",
		"model", res.Model,
		"prompt_tokens", res.PromptTokens,
		"completion_tokens", res.CompletionTokens,
	)
	return res, nil
}
