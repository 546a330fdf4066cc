package support

import (
	"time"

	"github.com/google/uuid"
)

const (
	DirectionIn  = "in"
	DirectionOut = "out"

	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is one inbound or outbound message within a conversation.
// Append-only: rows are never mutated or deleted.
//
// The partial unique index on (conversation_id, external_message_id) for
// inbound rows is the idempotency contract: at-least-once webhook delivery
// can race two inserts for the same Telegram message id and the storage
// layer, not application locking, closes that race.
type Message struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ConversationID uuid.UUID `gorm:"type:uuid;not null;index;index:idx_message_inbound_dedup,unique,priority:1,where:direction = 'in' AND external_message_id <> ''" json:"conversation_id"`

	Direction string `gorm:"column:direction;not null;index" json:"direction"`
	Role      string `gorm:"column:role;not null" json:"role"`
	Text      string `gorm:"column:text;type:text;not null" json:"text"`

	// Platform message id. Inbound: dedup key. Outbound: audit linkage.
	ExternalMessageID string `gorm:"column:external_message_id;not null;default:'';index:idx_message_inbound_dedup,unique,priority:2,where:direction = 'in' AND external_message_id <> ''" json:"external_message_id,omitempty"`

	// Outbound only.
	Model            string `gorm:"column:model;not null;default:''" json:"model,omitempty"`
	PromptTokens     int    `gorm:"column:prompt_tokens;not null;default:0" json:"prompt_tokens,omitempty"`
	CompletionTokens int    `gorm:"column:completion_tokens;not null;default:0" json:"completion_tokens,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;not null;index" json:"created_at"`
}

func (Message) TableName() string { return "message" }
