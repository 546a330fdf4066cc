package domain

import (
	"github.com/yungbote/support-bot-backend/internal/domain/support"
)

const (
	PlatformTelegram = support.PlatformTelegram

	DirectionIn  = support.DirectionIn
	DirectionOut = support.DirectionOut

	RoleUser      = support.RoleUser
	RoleAssistant = support.RoleAssistant
	RoleSystem    = support.RoleSystem
)

type (
	Conversation = support.Conversation
	Message      = support.Message
	KBChunk      = support.KBChunk
)
