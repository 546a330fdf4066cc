package rag

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/yungbote/support-bot-backend/internal/data/repos/knowledge"
	pkgerrors "github.com/yungbote/support-bot-backend/internal/pkg/errors"
	"github.com/yungbote/support-bot-backend/internal/platform/dbctx"
	"github.com/yungbote/support-bot-backend/internal/platform/logger"
)

// Hit is one ranked retrieval result.
type Hit struct {
	Source     string  `json:"source"`
	ChunkIndex int     `json:"chunk_index"`
	Text       string  `json:"text"`
	Score      float64 `json:"score"`
}

// Embedder is the slice of the OpenAI client retrieval needs.
type Embedder interface {
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
}

type Retriever interface {
	// RetrieveTopK embeds query and ranks every stored chunk by cosine
	// similarity, descending, ties kept in storage order. A provider failure
	// is a RetrievalError, never an empty result.
	RetrieveTopK(ctx context.Context, query string, k int) ([]Hit, error)
}

type retriever struct {
	log      *logger.Logger
	embedder Embedder
	chunks   knowledge.ChunkRepo
}

func NewRetriever(log *logger.Logger, embedder Embedder, chunks knowledge.ChunkRepo) Retriever {
	return &retriever{
		log:      log.With("service", "Retriever"),
		embedder: embedder,
		chunks:   chunks,
	}
}

func (r *retriever) RetrieveTopK(ctx context.Context, query string, k int) ([]Hit, error) {
	if k <= 0 {
		k = 5
	}

	vecs, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, &pkgerrors.RetrievalError{Err: fmt.Errorf("embed query: %w", err)}
	}
	if len(vecs) != 1 {
		return nil, &pkgerrors.RetrievalError{Err: fmt.Errorf("embed query: got %d vectors", len(vecs))}
	}
	qVec := vecs[0]

	stored, err := r.chunks.ListAll(dbctx.Context{Ctx: ctx})
	if err != nil {
		return nil, &pkgerrors.RetrievalError{Err: err}
	}

	// Full scan. Fine at a few thousand chunks; an index can replace this
	// behind the same contract if the corpus outgrows it.
	hits := make([]Hit, 0, len(stored))
	for _, c := range stored {
		hits = append(hits, Hit{
			Source:     c.Source,
			ChunkIndex: c.ChunkIndex,
			Text:       c.Text,
			Score:      CosineSimilarity(qVec, c.Embedding),
		})
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// CosineSimilarity computes dot(a,b) / (|a|*|b| + eps) over the shared
// prefix of the two vectors. The epsilon keeps zero vectors from dividing
// by zero.
func CosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	return dot / (math.Sqrt(na)*math.Sqrt(nb) + 1e-8)
}
