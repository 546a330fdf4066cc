package support

import (
	"time"

	"github.com/google/uuid"
)

const PlatformTelegram = "telegram"

// Conversation is one chat thread with an end user, keyed by
// (platform, chat_id). Created on first contact and never deleted by the
// pipeline.
type Conversation struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	Platform string `gorm:"column:platform;not null;default:'telegram';uniqueIndex:idx_conversation_platform_chat,priority:1" json:"platform"`
	ChatID   string `gorm:"column:chat_id;not null;uniqueIndex:idx_conversation_platform_chat,priority:2" json:"chat_id"`

	// Display handle reported by the platform; replaced only by non-empty
	// values, never cleared.
	Handle string `gorm:"column:handle;not null;default:''" json:"handle,omitempty"`

	FirstSeenAt time.Time `gorm:"column:first_seen_at;not null" json:"first_seen_at"`
	LastSeenAt  time.Time `gorm:"column:last_seen_at;not null;index" json:"last_seen_at"`

	// Sticky once true. Set when the user shows at-risk language.
	RiskFlag bool `gorm:"column:risk_flag;not null;default:false;index" json:"risk_flag"`
}

func (Conversation) TableName() string { return "conversation" }
