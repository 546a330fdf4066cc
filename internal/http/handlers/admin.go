package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/support-bot-backend/internal/data/repos"
	"github.com/yungbote/support-bot-backend/internal/http/response"
	pkgerrors "github.com/yungbote/support-bot-backend/internal/pkg/errors"
	"github.com/yungbote/support-bot-backend/internal/platform/dbctx"
	"github.com/yungbote/support-bot-backend/internal/platform/logger"
)

type AdminHandler struct {
	log           *logger.Logger
	conversations repos.ConversationRepo
	messages      repos.MessageRepo
	kbChunks      repos.KBChunkRepo
}

func NewAdminHandler(log *logger.Logger, r repos.Set) *AdminHandler {
	return &AdminHandler{
		log:           log.With("handler", "AdminHandler"),
		conversations: r.Conversations,
		messages:      r.Messages,
		kbChunks:      r.KBChunks,
	}
}

// GET /admin/api/conversations?q=&limit=&offset=
func (ah *AdminHandler) ListConversations(c *gin.Context) {
	q := c.Query("q")
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)

	items, total, err := ah.conversations.List(dbctx.Context{Ctx: c.Request.Context()}, q, limit, offset)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "store_error", err)
		return
	}
	response.RespondOK(c, gin.H{"items": items, "total": total})
}

// GET /admin/api/conversations/:id/messages
func (ah *AdminHandler) ListConversationMessages(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}

	dbc := dbctx.Context{Ctx: c.Request.Context()}
	convo, err := ah.conversations.GetByID(dbc, id)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrNotFound) {
			response.RespondError(c, http.StatusNotFound, "not_found", err)
			return
		}
		response.RespondError(c, http.StatusInternalServerError, "store_error", err)
		return
	}

	messages, err := ah.messages.ListByConversation(dbc, convo.ID)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "store_error", err)
		return
	}
	response.RespondOK(c, gin.H{"conversation": convo, "messages": messages})
}

// GET /admin/api/kb
func (ah *AdminHandler) KBStats(c *gin.Context) {
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	total, err := ah.kbChunks.Count(dbc)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "store_error", err)
		return
	}
	sources, err := ah.kbChunks.Sources(dbc)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "store_error", err)
		return
	}
	response.RespondOK(c, gin.H{"total_chunks": total, "sources": sources})
}

func intQuery(c *gin.Context, key string, def int) int {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	return n
}
