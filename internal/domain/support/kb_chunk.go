package support

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// KBChunk is a bounded slice of ingested source text with its embedding.
// Written only by the ingestion CLI (upsert by source+chunk_index), read by
// retrieval. The embedding is stored as a JSON float array so the table is
// portable across the postgres and sqlite drivers.
type KBChunk struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	Source     string `gorm:"column:source;not null;uniqueIndex:idx_kb_chunk_source_index,priority:1" json:"source"`
	ChunkIndex int    `gorm:"column:chunk_index;not null;uniqueIndex:idx_kb_chunk_source_index,priority:2" json:"chunk_index"`

	Text      string         `gorm:"column:text;type:text;not null" json:"text"`
	Embedding datatypes.JSON `gorm:"column:embedding;not null" json:"-"`

	CreatedAt time.Time `gorm:"column:created_at;not null" json:"created_at"`
}

func (KBChunk) TableName() string { return "kb_chunk" }
