package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/support-bot-backend/internal/data/repos/knowledge"
	"github.com/yungbote/support-bot-backend/internal/data/repos/support"
	"github.com/yungbote/support-bot-backend/internal/platform/logger"
)

type ConversationRepo = support.ConversationRepo
type MessageRepo = support.MessageRepo
type KBChunkRepo = knowledge.ChunkRepo

type Set struct {
	Conversations ConversationRepo
	Messages      MessageRepo
	KBChunks      KBChunkRepo
}

func Wire(db *gorm.DB, log *logger.Logger) Set {
	return Set{
		Conversations: support.NewConversationRepo(db, log),
		Messages:      support.NewMessageRepo(db, log),
		KBChunks:      knowledge.NewChunkRepo(db, log),
	}
}
