package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/support-bot-backend/internal/data/repos"
	"github.com/yungbote/support-bot-backend/internal/platform/logger"
)

func wireRepos(db *gorm.DB, log *logger.Logger) repos.Set {
	log.Info("Wiring repos...")
	return repos.Wire(db, log)
}
