package testutil

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/support-bot-backend/internal/domain"
)

func SeedConversation(tb testing.TB, ctx context.Context, tx *gorm.DB, chatID string) *types.Conversation {
	tb.Helper()
	now := time.Now().UTC()
	c := &types.Conversation{
		ID:          uuid.New(),
		Platform:    types.PlatformTelegram,
		ChatID:      chatID,
		Handle:      "seeded",
		FirstSeenAt: now,
		LastSeenAt:  now,
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed conversation: %v", err)
	}
	return c
}

func SeedMessage(tb testing.TB, ctx context.Context, tx *gorm.DB, conversationID uuid.UUID, direction, text, externalID string) *types.Message {
	tb.Helper()
	role := types.RoleUser
	if direction == types.DirectionOut {
		role = types.RoleAssistant
	}
	m := &types.Message{
		ID:                uuid.New(),
		ConversationID:    conversationID,
		Direction:         direction,
		Role:              role,
		Text:              text,
		ExternalMessageID: externalID,
		CreatedAt:         time.Now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(m).Error; err != nil {
		tb.Fatalf("seed message: %v", err)
	}
	return m
}

func SeedKBChunk(tb testing.TB, ctx context.Context, tx *gorm.DB, source string, index int, embedding []float32) *types.KBChunk {
	tb.Helper()
	raw, err := json.Marshal(embedding)
	if err != nil {
		tb.Fatalf("encode embedding: %v", err)
	}
	c := &types.KBChunk{
		ID:         uuid.New(),
		Source:     source,
		ChunkIndex: index,
		Text:       "chunk text",
		Embedding:  datatypes.JSON(raw),
		CreatedAt:  time.Now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed kb chunk: %v", err)
	}
	return c
}
