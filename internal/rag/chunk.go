package rag

import (
	"strings"
	"unicode/utf8"
)

// Chunk is one bounded slice of a normalized source document. Text slices
// are disjoint and cover the document; Context carries the tail of the
// preceding chunk so the embedding input overlaps across boundaries while
// the stored text does not.
type Chunk struct {
	Text    string
	Context string
	Index   int
}

const (
	DefaultChunkSize    = 800
	DefaultChunkOverlap = 100
)

// ChunkText splits text into disjoint chunks of at most chunkSize bytes,
// snapping boundaries to rune starts so chunk text stays valid UTF-8. Each
// chunk after the first receives up to overlap trailing bytes of its
// predecessor as Context. Whitespace runs are collapsed to
// single spaces first, so boundaries are stable across reformatting of the
// source document.
func ChunkText(text string, chunkSize, overlap int) []Chunk {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = DefaultChunkOverlap
	}

	clean := strings.Join(strings.Fields(text), " ")
	if clean == "" {
		return nil
	}

	var chunks []Chunk
	idx := 0
	for i := 0; i < len(clean); {
		end := i + chunkSize
		if end >= len(clean) {
			end = len(clean)
		} else {
			// Never split a multibyte rune across chunks.
			for end > i && !utf8.RuneStart(clean[end]) {
				end--
			}
			if end == i {
				_, w := utf8.DecodeRuneInString(clean[i:])
				end = i + w
			}
		}
		c := Chunk{Text: clean[i:end], Index: idx}
		if i > 0 && overlap > 0 {
			start := i - overlap
			if start < 0 {
				start = 0
			}
			for start < i && !utf8.RuneStart(clean[start]) {
				start++
			}
			c.Context = clean[start:i]
		}
		chunks = append(chunks, c)
		idx++
		i = end
	}
	return chunks
}

// EmbeddingInput is the text embedded for a chunk: the overlap context
// followed by the chunk body.
func (c Chunk) EmbeddingInput() string {
	if c.Context == "" {
		return c.Text
	}
	return c.Context + c.Text
}
