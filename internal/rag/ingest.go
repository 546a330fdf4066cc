package rag

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/support-bot-backend/internal/data/repos/knowledge"
	"github.com/yungbote/support-bot-backend/internal/platform/dbctx"
	"github.com/yungbote/support-bot-backend/internal/platform/logger"
)

// embedBatchSize keeps each embeddings request well under provider input
// limits.
const embedBatchSize = 64

type IngestStats struct {
	Files  int
	Chunks int
}

type Ingestor struct {
	log      *logger.Logger
	embedder Embedder
	chunks   knowledge.ChunkRepo
}

func NewIngestor(log *logger.Logger, embedder Embedder, chunks knowledge.ChunkRepo) *Ingestor {
	return &Ingestor{
		log:      log.With("service", "Ingestor"),
		embedder: embedder,
		chunks:   chunks,
	}
}

// IngestDir walks dir for .txt and .md documents, chunks and embeds each,
// and upserts the results keyed by (relative path, chunk index). Re-running
// over the same tree replaces chunks in place. Files are processed
// concurrently; chunks within a file keep their order.
func (ing *Ingestor) IngestDir(ctx context.Context, dir string) (IngestStats, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return IngestStats{}, fmt.Errorf("kb folder not found: %s", dir)
	}

	var paths []string
	err = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".txt", ".md":
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return IngestStats{}, fmt.Errorf("walk %s: %w", dir, err)
	}
	sort.Strings(paths)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	results := make([]int, len(paths))
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			n, err := ing.ingestFile(gctx, dir, path)
			if err != nil {
				return fmt.Errorf("ingest %s: %w", path, err)
			}
			results[i] = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return IngestStats{}, err
	}

	stats := IngestStats{Files: len(paths)}
	for _, n := range results {
		stats.Chunks += n
	}
	return stats, nil
}

func (ing *Ingestor) ingestFile(ctx context.Context, root, path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	rel = filepath.ToSlash(rel)

	chunks := ChunkText(string(raw), DefaultChunkSize, DefaultChunkOverlap)
	if len(chunks) == 0 {
		ing.log.Warn("Skipping empty document", "source", rel)
		return 0, nil
	}

	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		inputs := make([]string, len(batch))
		for i, c := range batch {
			inputs[i] = c.EmbeddingInput()
		}
		vecs, err := ing.embedder.Embed(ctx, inputs)
		if err != nil {
			return 0, err
		}
		if len(vecs) != len(batch) {
			return 0, fmt.Errorf("embed: got %d vectors for %d inputs", len(vecs), len(batch))
		}

		for i, c := range batch {
			if err := ing.chunks.Upsert(dbctx.Context{Ctx: ctx}, rel, c.Index, c.Text, vecs[i]); err != nil {
				return 0, err
			}
		}
	}

	ing.log.Info("Ingested document", "source", rel, "chunks", len(chunks))
	return len(chunks), nil
}
