package support

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/support-bot-backend/internal/domain"
	pkgerrors "github.com/yungbote/support-bot-backend/internal/pkg/errors"
	"github.com/yungbote/support-bot-backend/internal/platform/dbctx"
	"github.com/yungbote/support-bot-backend/internal/platform/logger"
)

type ConversationRepo interface {
	// Upsert resolves the conversation for (platform, chatID), creating it on
	// first contact. Atomic: concurrent calls for the same key never produce
	// two rows, and last_seen_at ends at the maximum timestamp any call
	// supplied. A non-empty handle replaces the stored one; an empty handle
	// never clears it.
	Upsert(dbc dbctx.Context, platform, chatID, handle string) (*types.Conversation, error)
	// SetRiskFlag flips the sticky at-risk indicator to true. There is no
	// reset path in this pipeline.
	SetRiskFlag(dbc dbctx.Context, id uuid.UUID) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Conversation, error)
	// List returns conversations ordered by last_seen_at descending, with an
	// optional substring match on chat_id or handle.
	List(dbc dbctx.Context, q string, limit, offset int) ([]*types.Conversation, int64, error)
}

type conversationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewConversationRepo(db *gorm.DB, log *logger.Logger) ConversationRepo {
	return &conversationRepo{db: db, log: log.With("repo", "ConversationRepo")}
}

func (r *conversationRepo) Upsert(dbc dbctx.Context, platform, chatID, handle string) (*types.Conversation, error) {
	platform = strings.TrimSpace(platform)
	chatID = strings.TrimSpace(chatID)
	if platform == "" || chatID == "" {
		return nil, fmt.Errorf("upsert conversation: %w: platform and chat_id required", pkgerrors.ErrInvalidArgument)
	}

	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}

	now := time.Now().UTC()
	row := &types.Conversation{
		ID:          uuid.New(),
		Platform:    platform,
		ChatID:      chatID,
		Handle:      strings.TrimSpace(handle),
		FirstSeenAt: now,
		LastSeenAt:  now,
	}

	err := txx.WithContext(dbc.Ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "platform"}, {Name: "chat_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"last_seen_at": gorm.Expr(
				"CASE WHEN excluded.last_seen_at > conversation.last_seen_at THEN excluded.last_seen_at ELSE conversation.last_seen_at END"),
			"handle": gorm.Expr(
				"CASE WHEN excluded.handle <> '' THEN excluded.handle ELSE conversation.handle END"),
		}),
	}).Create(row).Error
	if err != nil {
		return nil, &pkgerrors.StoreError{Op: "upsert conversation", Err: err}
	}

	// On conflict the insert's generated id is discarded; read back the
	// surviving row either way.
	var out types.Conversation
	err = txx.WithContext(dbc.Ctx).
		Where("platform = ? AND chat_id = ?", platform, chatID).
		First(&out).Error
	if err != nil {
		return nil, &pkgerrors.StoreError{Op: "reload conversation", Err: err}
	}
	return &out, nil
}

func (r *conversationRepo) SetRiskFlag(dbc dbctx.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return fmt.Errorf("set risk flag: %w: missing id", pkgerrors.ErrInvalidArgument)
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	err := txx.WithContext(dbc.Ctx).
		Model(&types.Conversation{}).
		Where("id = ?", id).
		Update("risk_flag", true).Error
	if err != nil {
		return &pkgerrors.StoreError{Op: "set risk flag", Err: err}
	}
	return nil
}

func (r *conversationRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Conversation, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("get conversation: %w: missing id", pkgerrors.ErrInvalidArgument)
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out types.Conversation
	err := txx.WithContext(dbc.Ctx).Where("id = ?", id).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.ErrNotFound
	}
	if err != nil {
		return nil, &pkgerrors.StoreError{Op: "get conversation", Err: err}
	}
	return &out, nil
}

func (r *conversationRepo) List(dbc dbctx.Context, q string, limit, offset int) ([]*types.Conversation, int64, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}

	query := txx.WithContext(dbc.Ctx).Model(&types.Conversation{})
	if s := strings.TrimSpace(q); s != "" {
		like := "%" + s + "%"
		query = query.Where("chat_id LIKE ? OR handle LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, &pkgerrors.StoreError{Op: "count conversations", Err: err}
	}

	var rows []*types.Conversation
	err := query.
		Order("last_seen_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, 0, &pkgerrors.StoreError{Op: "list conversations", Err: err}
	}
	return rows, total, nil
}
