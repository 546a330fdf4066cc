package knowledge

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/support-bot-backend/internal/domain"
	pkgerrors "github.com/yungbote/support-bot-backend/internal/pkg/errors"
	"github.com/yungbote/support-bot-backend/internal/platform/dbctx"
	"github.com/yungbote/support-bot-backend/internal/platform/logger"
)

type ChunkRepo interface {
	// Upsert replaces the chunk with the same (source, chunk_index), so
	// re-ingestion of a document is idempotent.
	Upsert(dbc dbctx.Context, source string, chunkIndex int, text string, embedding []float32) error
	// ListAll returns every stored chunk in insertion order with decoded
	// embeddings. The retriever full-scans this set.
	ListAll(dbc dbctx.Context) ([]*StoredChunk, error)
	Count(dbc dbctx.Context) (int64, error)
	Sources(dbc dbctx.Context) ([]SourceStat, error)
}

// StoredChunk is a KBChunk with its embedding decoded from JSON.
type StoredChunk struct {
	Source     string
	ChunkIndex int
	Text       string
	Embedding  []float32
}

type SourceStat struct {
	Source string `json:"source"`
	Chunks int64  `json:"chunks"`
}

type chunkRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChunkRepo(db *gorm.DB, log *logger.Logger) ChunkRepo {
	return &chunkRepo{db: db, log: log.With("repo", "KBChunkRepo")}
}

func (r *chunkRepo) Upsert(dbc dbctx.Context, source string, chunkIndex int, text string, embedding []float32) error {
	source = strings.TrimSpace(source)
	if source == "" || chunkIndex < 0 {
		return fmt.Errorf("upsert chunk: %w", pkgerrors.ErrInvalidArgument)
	}
	if len(embedding) == 0 {
		return fmt.Errorf("upsert chunk: %w: empty embedding", pkgerrors.ErrInvalidArgument)
	}

	raw, err := json.Marshal(embedding)
	if err != nil {
		return fmt.Errorf("upsert chunk: encode embedding: %w", err)
	}

	row := &types.KBChunk{
		ID:         uuid.New(),
		Source:     source,
		ChunkIndex: chunkIndex,
		Text:       text,
		Embedding:  datatypes.JSON(raw),
		CreatedAt:  time.Now().UTC(),
	}

	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	err = txx.WithContext(dbc.Ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "source"}, {Name: "chunk_index"}},
		DoUpdates: clause.AssignmentColumns([]string{"text", "embedding", "created_at"}),
	}).Create(row).Error
	if err != nil {
		return &pkgerrors.StoreError{Op: "upsert kb chunk", Err: err}
	}
	return nil
}

func (r *chunkRepo) ListAll(dbc dbctx.Context) ([]*StoredChunk, error) {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var rows []*types.KBChunk
	err := txx.WithContext(dbc.Ctx).
		Order("created_at ASC, source ASC, chunk_index ASC").
		Find(&rows).Error
	if err != nil {
		return nil, &pkgerrors.StoreError{Op: "list kb chunks", Err: err}
	}

	out := make([]*StoredChunk, 0, len(rows))
	for _, row := range rows {
		var emb []float32
		if err := json.Unmarshal(row.Embedding, &emb); err != nil {
			r.log.Warn("Skipping kb chunk with undecodable embedding",
				"source", row.Source,
				"chunk_index", row.ChunkIndex,
				"error", err.Error(),
			)
			continue
		}
		out = append(out, &StoredChunk{
			Source:     row.Source,
			ChunkIndex: row.ChunkIndex,
			Text:       row.Text,
			Embedding:  emb,
		})
	}
	return out, nil
}

func (r *chunkRepo) Count(dbc dbctx.Context) (int64, error) {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var n int64
	if err := txx.WithContext(dbc.Ctx).Model(&types.KBChunk{}).Count(&n).Error; err != nil {
		return 0, &pkgerrors.StoreError{Op: "count kb chunks", Err: err}
	}
	return n, nil
}

func (r *chunkRepo) Sources(dbc dbctx.Context) ([]SourceStat, error) {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []SourceStat
	err := txx.WithContext(dbc.Ctx).
		Model(&types.KBChunk{}).
		Select("source, COUNT(*) AS chunks").
		Group("source").
		Order("source ASC").
		Scan(&out).Error
	if err != nil {
		return nil, &pkgerrors.StoreError{Op: "kb sources", Err: err}
	}
	return out, nil
}
