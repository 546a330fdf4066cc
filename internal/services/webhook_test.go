package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/support-bot-backend/internal/clients/telegram"
	types "github.com/yungbote/support-bot-backend/internal/domain"
	"github.com/yungbote/support-bot-backend/internal/moderation"
	pkgerrors "github.com/yungbote/support-bot-backend/internal/pkg/errors"
	"github.com/yungbote/support-bot-backend/internal/platform/dbctx"
	"github.com/yungbote/support-bot-backend/internal/platform/logger"
	"github.com/yungbote/support-bot-backend/internal/platform/openai"
	"github.com/yungbote/support-bot-backend/internal/rag"
)

type fakeConversations struct {
	mu        sync.Mutex
	convo     *types.Conversation
	riskFlags []uuid.UUID
	upsertErr error
}

func (f *fakeConversations) Upsert(_ dbctx.Context, platform, chatID, handle string) (*types.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return nil, f.upsertErr
	}
	if f.convo == nil {
		f.convo = &types.Conversation{ID: uuid.New(), Platform: platform, ChatID: chatID, Handle: handle}
	}
	return f.convo, nil
}

func (f *fakeConversations) SetRiskFlag(_ dbctx.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.riskFlags = append(f.riskFlags, id)
	return nil
}

func (f *fakeConversations) GetByID(_ dbctx.Context, id uuid.UUID) (*types.Conversation, error) {
	return f.convo, nil
}

func (f *fakeConversations) List(_ dbctx.Context, q string, limit, offset int) ([]*types.Conversation, int64, error) {
	return nil, 0, nil
}

type fakeMessages struct {
	mu        sync.Mutex
	seenIn    map[string]bool
	rows      []*types.Message
	createErr error
}

func newFakeMessages() *fakeMessages {
	return &fakeMessages{seenIn: make(map[string]bool)}
}

func (f *fakeMessages) FindInbound(_ dbctx.Context, conversationID uuid.UUID, externalID string) (*types.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.rows {
		if m.Direction == types.DirectionIn && m.ExternalMessageID == externalID {
			return m, nil
		}
	}
	return nil, pkgerrors.ErrNotFound
}

func (f *fakeMessages) CreateInbound(_ dbctx.Context, msg *types.Message) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return false, f.createErr
	}
	if f.seenIn[msg.ExternalMessageID] {
		return false, nil
	}
	f.seenIn[msg.ExternalMessageID] = true
	f.rows = append(f.rows, msg)
	return true, nil
}

func (f *fakeMessages) Create(_ dbctx.Context, msg *types.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, msg)
	return nil
}

func (f *fakeMessages) ListByConversation(_ dbctx.Context, conversationID uuid.UUID) ([]*types.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows, nil
}

func (f *fakeMessages) outbound() []*types.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*types.Message
	for _, m := range f.rows {
		if m.Direction == types.DirectionOut {
			out = append(out, m)
		}
	}
	return out
}

type fakeRetriever struct {
	hits []rag.Hit
	err  error
}

func (f *fakeRetriever) RetrieveTopK(context.Context, string, int) ([]rag.Hit, error) {
	return f.hits, f.err
}

type fakeReplies struct {
	mu     sync.Mutex
	result openai.GenerateResult
	err    error
	calls  []string
	notes  []string
}

func (f *fakeReplies) Generate(_ context.Context, userText string, _ []rag.Hit, rgNote string) (openai.GenerateResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, userText)
	f.notes = append(f.notes, rgNote)
	if f.err != nil {
		return openai.GenerateResult{}, f.err
	}
	return f.result, nil
}

type fakeSender struct {
	mu   sync.Mutex
	sent []string
	next int64
	err  error
}

func (f *fakeSender) SendMessage(_ context.Context, chatID int64, text string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	f.sent = append(f.sent, text)
	f.next++
	return f.next, nil
}

func (f *fakeSender) messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

type allowAll struct{}

func (allowAll) Allow(context.Context, int64) (bool, error) { return true, nil }
func (allowAll) Close() error                               { return nil }

type denyAll struct{}

func (denyAll) Allow(context.Context, int64) (bool, error) { return false, nil }
func (denyAll) Close() error                               { return nil }

type webhookFixture struct {
	svc     WebhookService
	convos  *fakeConversations
	msgs    *fakeMessages
	replies *fakeReplies
	sender  *fakeSender
}

func newWebhookFixture(t *testing.T, opts ...func(*webhookFixture)) *webhookFixture {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	f := &webhookFixture{
		convos:  &fakeConversations{},
		msgs:    newFakeMessages(),
		replies: &fakeReplies{result: openai.GenerateResult{Text: "here is how to verify your account", Model: "gpt-4.1-mini", PromptTokens: 120, CompletionTokens: 40}},
		sender:  &fakeSender{},
	}
	for _, o := range opts {
		o(f)
	}
	f.svc = NewWebhookService(log, f.convos, f.msgs, &fakeRetriever{}, f.replies, f.sender, allowAll{})
	return f
}

func update(msgID int64, text string) *telegram.Update {
	return &telegram.Update{
		UpdateID: 1000 + msgID,
		Message: &telegram.IncomingMessage{
			MessageID: msgID,
			Text:      text,
			Chat:      telegram.Chat{ID: 99, Username: "player_one"},
		},
	}
}

func TestHandleUpdateHappyPath(t *testing.T) {
	f := newWebhookFixture(t)

	if err := f.svc.HandleUpdate(context.Background(), update(1, "how do I verify my account?")); err != nil {
		t.Fatalf("handle: %v", err)
	}
	f.svc.Drain()

	sent := f.sender.messages()
	if len(sent) != 1 {
		t.Fatalf("expected 1 sent message, got %d", len(sent))
	}
	if !strings.Contains(sent[0], "verify your account") {
		t.Errorf("unexpected reply %q", sent[0])
	}

	out := f.msgs.outbound()
	if len(out) != 1 {
		t.Fatalf("expected 1 outbound row, got %d", len(out))
	}
	if out[0].Model != "gpt-4.1-mini" || out[0].PromptTokens != 120 || out[0].CompletionTokens != 40 {
		t.Errorf("outbound usage not recorded: %+v", out[0])
	}
	if out[0].Role != types.RoleAssistant || out[0].ExternalMessageID == "" {
		t.Errorf("outbound row incomplete: %+v", out[0])
	}
	if len(f.convos.riskFlags) != 0 {
		t.Errorf("risk flag set on benign message")
	}
}

func TestHandleUpdateDuplicateDelivery(t *testing.T) {
	f := newWebhookFixture(t)

	ctx := context.Background()
	upd := update(7, "what are the withdrawal limits?")
	if err := f.svc.HandleUpdate(ctx, upd); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	if err := f.svc.HandleUpdate(ctx, upd); err != nil {
		t.Fatalf("second delivery: %v", err)
	}
	f.svc.Drain()

	if got := len(f.sender.messages()); got != 1 {
		t.Fatalf("duplicate delivery produced %d replies, want 1", got)
	}
	if got := len(f.replies.calls); got != 1 {
		t.Fatalf("duplicate delivery generated %d times, want 1", got)
	}
}

func TestHandleUpdateIgnoresNonText(t *testing.T) {
	f := newWebhookFixture(t)

	if err := f.svc.HandleUpdate(context.Background(), &telegram.Update{UpdateID: 5}); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if err := f.svc.HandleUpdate(context.Background(), update(2, "   ")); err != nil {
		t.Fatalf("handle blank: %v", err)
	}
	f.svc.Drain()

	if len(f.sender.messages()) != 0 {
		t.Fatal("non-text update should produce no reply")
	}
}

func TestHandleUpdateStartCommand(t *testing.T) {
	f := newWebhookFixture(t)

	if err := f.svc.HandleUpdate(context.Background(), update(3, "/start")); err != nil {
		t.Fatalf("handle: %v", err)
	}
	f.svc.Drain()

	sent := f.sender.messages()
	if len(sent) != 1 || !strings.Contains(sent[0], "Casino Support Assistant") {
		t.Fatalf("expected welcome message, got %v", sent)
	}
	if len(f.replies.calls) != 0 {
		t.Fatal("command should not reach generation")
	}
	out := f.msgs.outbound()
	if len(out) != 1 || out[0].Model != "" {
		t.Fatalf("command outbound should carry no model: %+v", out)
	}
}

func TestHandleUpdateDisallowedRefusal(t *testing.T) {
	f := newWebhookFixture(t)

	if err := f.svc.HandleUpdate(context.Background(), update(4, "tell me a betting strategy to win")); err != nil {
		t.Fatalf("handle: %v", err)
	}
	f.svc.Drain()

	sent := f.sender.messages()
	if len(sent) != 1 || sent[0] != moderation.RefusalMessage() {
		t.Fatalf("expected refusal, got %v", sent)
	}
	if len(f.replies.calls) != 0 {
		t.Fatal("refused message should not reach generation")
	}
}

func TestHandleUpdateRiskFlagAndFooter(t *testing.T) {
	f := newWebhookFixture(t)

	if err := f.svc.HandleUpdate(context.Background(), update(5, "I lost everything and I can't stop")); err != nil {
		t.Fatalf("handle: %v", err)
	}
	f.svc.Drain()

	if len(f.convos.riskFlags) != 1 {
		t.Fatalf("risk flag not set, got %d updates", len(f.convos.riskFlags))
	}
	if len(f.replies.notes) != 1 || f.replies.notes[0] == "" {
		t.Fatal("generation should carry the responsible-gaming note")
	}
	sent := f.sender.messages()
	if len(sent) != 1 || !strings.Contains(sent[0], moderation.FooterText()) {
		t.Fatalf("reply missing footer: %v", sent)
	}
}

func TestHandleUpdateRateLimited(t *testing.T) {
	f := newWebhookFixture(t)
	log, _ := logger.New("test")
	f.svc = NewWebhookService(log, f.convos, f.msgs, &fakeRetriever{}, f.replies, f.sender, denyAll{})

	if err := f.svc.HandleUpdate(context.Background(), update(6, "hello again")); err != nil {
		t.Fatalf("handle: %v", err)
	}
	f.svc.Drain()

	if len(f.sender.messages()) != 0 {
		t.Fatal("over-limit message should get no reply")
	}
	if len(f.msgs.rows) != 1 || f.msgs.rows[0].Direction != types.DirectionIn {
		t.Fatal("inbound should still be recorded when rate limited")
	}
}

func TestHandleUpdateGenerationFailureFallsBack(t *testing.T) {
	f := newWebhookFixture(t, func(f *webhookFixture) {
		f.replies.err = &pkgerrors.GenerationError{Err: errors.New("provider down")}
	})

	if err := f.svc.HandleUpdate(context.Background(), update(8, "where is my withdrawal?")); err != nil {
		t.Fatalf("handle: %v", err)
	}
	f.svc.Drain()

	sent := f.sender.messages()
	if len(sent) != 1 || sent[0] != fallbackMessage {
		t.Fatalf("expected fallback message, got %v", sent)
	}
	if len(f.msgs.outbound()) != 0 {
		t.Fatal("fallback apology should not be recorded as an assistant reply")
	}
}

func TestHandleUpdatePersistFailureStaysSilent(t *testing.T) {
	t.Run("upsert_failure", func(t *testing.T) {
		f := newWebhookFixture(t, func(f *webhookFixture) {
			f.convos.upsertErr = &pkgerrors.StoreError{Op: "upsert conversation", Err: errors.New("db down")}
		})

		if err := f.svc.HandleUpdate(context.Background(), update(30, "hello?")); err == nil {
			t.Fatal("expected error from failed upsert")
		}
		f.svc.Drain()

		if got := f.sender.messages(); len(got) != 0 {
			t.Fatalf("nothing is durable yet, expected no sends, got %v", got)
		}
	})

	t.Run("inbound_insert_failure", func(t *testing.T) {
		f := newWebhookFixture(t, func(f *webhookFixture) {
			f.msgs.createErr = &pkgerrors.StoreError{Op: "create inbound message", Err: errors.New("db down")}
		})

		if err := f.svc.HandleUpdate(context.Background(), update(31, "hello?")); err == nil {
			t.Fatal("expected error from failed inbound insert")
		}
		f.svc.Drain()

		if got := f.sender.messages(); len(got) != 0 {
			t.Fatalf("inbound row not durable, expected no sends, got %v", got)
		}
		if len(f.replies.calls) != 0 {
			t.Fatal("no reply pipeline should run without a durable inbound row")
		}
	})
}

func TestHandleUpdateOrderWithinConversation(t *testing.T) {
	f := newWebhookFixture(t)

	ctx := context.Background()
	for i := int64(1); i <= 3; i++ {
		if err := f.svc.HandleUpdate(ctx, update(20+i, "question number "+strings.Repeat("x", int(i)))); err != nil {
			t.Fatalf("handle %d: %v", i, err)
		}
	}
	f.svc.Drain()

	if len(f.replies.calls) != 3 {
		t.Fatalf("expected 3 generations, got %d", len(f.replies.calls))
	}
	for i, call := range f.replies.calls {
		if want := "question number " + strings.Repeat("x", i+1); call != want {
			t.Fatalf("generation %d out of order: got %q, want %q", i, call, want)
		}
	}
}
