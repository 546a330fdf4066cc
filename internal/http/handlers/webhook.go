package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/support-bot-backend/internal/clients/telegram"
	"github.com/yungbote/support-bot-backend/internal/platform/ctxutil"
	"github.com/yungbote/support-bot-backend/internal/platform/logger"
	"github.com/yungbote/support-bot-backend/internal/services"
)

type WebhookHandler struct {
	log     *logger.Logger
	webhook services.WebhookService
}

func NewWebhookHandler(log *logger.Logger, webhook services.WebhookService) *WebhookHandler {
	return &WebhookHandler{
		log:     log.With("handler", "WebhookHandler"),
		webhook: webhook,
	}
}

// POST /telegram/webhook
//
// Always resolves {ok:true}. Telegram retries non-2xx deliveries, so a
// malformed or failing update must never surface as an error status; the
// idempotency contract absorbs genuine redeliveries.
func (wh *WebhookHandler) Receive(c *gin.Context) {
	var upd telegram.Update
	if err := c.ShouldBindJSON(&upd); err != nil {
		wh.log.Warn("Malformed webhook body", "error", err.Error())
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}

	ctx := c.Request.Context()
	if td := ctxutil.GetTraceData(ctx); td != nil {
		td.UpdateID = upd.UpdateID
	}

	if err := wh.webhook.HandleUpdate(ctx, &upd); err != nil {
		// Logged inside the service; the platform still gets its ack.
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
