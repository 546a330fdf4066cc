package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/support-bot-backend/internal/clients/telegram"
	"github.com/yungbote/support-bot-backend/internal/platform/logger"
)

type recordingWebhookService struct {
	updates []*telegram.Update
}

func (r *recordingWebhookService) HandleUpdate(_ context.Context, upd *telegram.Update) error {
	r.updates = append(r.updates, upd)
	return nil
}

func (r *recordingWebhookService) Drain() {}

func newWebhookRouter(t *testing.T, svc *recordingWebhookService) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	r := gin.New()
	r.POST("/telegram/webhook", NewWebhookHandler(log, svc).Receive)
	return r
}

func TestWebhookReceiveAcksValidUpdate(t *testing.T) {
	svc := &recordingWebhookService{}
	r := newWebhookRouter(t, svc)

	body := `{"update_id":77,"message":{"message_id":5,"text":"hi","chat":{"id":123,"username":"alice"}}}`
	req := httptest.NewRequest(http.MethodPost, "/telegram/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok":true`) {
		t.Fatalf("body = %s", rec.Body.String())
	}
	if len(svc.updates) != 1 || svc.updates[0].UpdateID != 77 {
		t.Fatalf("service saw %+v", svc.updates)
	}
	if svc.updates[0].Message == nil || svc.updates[0].Message.Chat.ID != 123 {
		t.Fatalf("message not decoded: %+v", svc.updates[0].Message)
	}
}

func TestWebhookReceiveMalformedBodyFailsClosed(t *testing.T) {
	svc := &recordingWebhookService{}
	r := newWebhookRouter(t, svc)

	req := httptest.NewRequest(http.MethodPost, "/telegram/webhook", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("malformed body should still ack, got %d", rec.Code)
	}
	if len(svc.updates) != 0 {
		t.Fatal("malformed body must not reach the service")
	}
}
