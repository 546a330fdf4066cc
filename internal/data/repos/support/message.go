package support

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/support-bot-backend/internal/domain"
	pkgerrors "github.com/yungbote/support-bot-backend/internal/pkg/errors"
	"github.com/yungbote/support-bot-backend/internal/platform/dbctx"
	"github.com/yungbote/support-bot-backend/internal/platform/logger"
)

type MessageRepo interface {
	// FindInbound returns the stored inbound message for an external platform
	// message id, or ErrNotFound. Used by the orchestrator to skip
	// re-processing on redelivery.
	FindInbound(dbc dbctx.Context, conversationID uuid.UUID, externalMessageID string) (*types.Message, error)
	// CreateInbound inserts an inbound row with insert-if-absent semantics on
	// (conversation_id, external_message_id). Returns inserted=false when a
	// concurrent delivery won the race; no error in that case.
	CreateInbound(dbc dbctx.Context, msg *types.Message) (inserted bool, err error)
	// Create is the unconditional insert used for outbound rows.
	Create(dbc dbctx.Context, msg *types.Message) error
	// ListByConversation returns all messages ascending by (created_at, id).
	ListByConversation(dbc dbctx.Context, conversationID uuid.UUID) ([]*types.Message, error)
}

type messageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMessageRepo(db *gorm.DB, log *logger.Logger) MessageRepo {
	return &messageRepo{db: db, log: log.With("repo", "MessageRepo")}
}

func (r *messageRepo) FindInbound(dbc dbctx.Context, conversationID uuid.UUID, externalMessageID string) (*types.Message, error) {
	if conversationID == uuid.Nil || externalMessageID == "" {
		return nil, fmt.Errorf("find inbound: %w", pkgerrors.ErrInvalidArgument)
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out types.Message
	err := txx.WithContext(dbc.Ctx).
		Where("conversation_id = ? AND direction = ? AND external_message_id = ?",
			conversationID, types.DirectionIn, externalMessageID).
		First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.ErrNotFound
	}
	if err != nil {
		return nil, &pkgerrors.StoreError{Op: "find inbound message", Err: err}
	}
	return &out, nil
}

func (r *messageRepo) CreateInbound(dbc dbctx.Context, msg *types.Message) (bool, error) {
	if msg == nil || msg.ConversationID == uuid.Nil {
		return false, fmt.Errorf("create inbound: %w", pkgerrors.ErrInvalidArgument)
	}
	if msg.Direction != types.DirectionIn || msg.ExternalMessageID == "" {
		return false, fmt.Errorf("create inbound: %w: direction 'in' and external_message_id required",
			pkgerrors.ErrInvalidArgument)
	}
	fillDefaults(msg)

	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}

	res := txx.WithContext(dbc.Ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "conversation_id"}, {Name: "external_message_id"}},
		TargetWhere: clause.Where{Exprs: []clause.Expression{
			clause.Expr{SQL: "direction = 'in' AND external_message_id <> ''"},
		}},
		DoNothing: true,
	}).Create(msg)
	if res.Error != nil {
		return false, &pkgerrors.StoreError{Op: "create inbound message", Err: res.Error}
	}
	return res.RowsAffected > 0, nil
}

func (r *messageRepo) Create(dbc dbctx.Context, msg *types.Message) error {
	if msg == nil || msg.ConversationID == uuid.Nil {
		return fmt.Errorf("create message: %w", pkgerrors.ErrInvalidArgument)
	}
	fillDefaults(msg)

	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	if err := txx.WithContext(dbc.Ctx).Create(msg).Error; err != nil {
		return &pkgerrors.StoreError{Op: "create message", Err: err}
	}
	return nil
}

func (r *messageRepo) ListByConversation(dbc dbctx.Context, conversationID uuid.UUID) ([]*types.Message, error) {
	if conversationID == uuid.Nil {
		return nil, fmt.Errorf("list messages: %w", pkgerrors.ErrInvalidArgument)
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.Message
	err := txx.WithContext(dbc.Ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	if err != nil {
		return nil, &pkgerrors.StoreError{Op: "list messages", Err: err}
	}
	return out, nil
}

func fillDefaults(msg *types.Message) {
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
}
