package db

import (
	types "github.com/yungbote/support-bot-backend/internal/domain"
	"gorm.io/gorm"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&types.Conversation{},
		&types.Message{},
		&types.KBChunk{},
	)
}
