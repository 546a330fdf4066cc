package rag

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestChunkTextFixedSize(t *testing.T) {
	text := strings.Repeat("a", 1700)
	chunks := ChunkText(text, 800, 100)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	wantLens := []int{800, 800, 100}
	for i, c := range chunks {
		if len(c.Text) != wantLens[i] {
			t.Errorf("chunk %d: text length = %d, want %d", i, len(c.Text), wantLens[i])
		}
		if c.Index != i {
			t.Errorf("chunk %d: index = %d", i, c.Index)
		}
	}
	if chunks[0].Context != "" {
		t.Errorf("first chunk should have no context, got %q", chunks[0].Context)
	}
	for i := 1; i < len(chunks); i++ {
		if len(chunks[i].Context) != 100 {
			t.Errorf("chunk %d: context length = %d, want 100", i, len(chunks[i].Context))
		}
		if !strings.HasSuffix(chunks[i-1].Text, chunks[i].Context) {
			t.Errorf("chunk %d: context is not the tail of the previous chunk", i)
		}
	}
}

func TestChunkTextReassembles(t *testing.T) {
	text := strings.Repeat("casino support faq entry. ", 200)
	normalized := strings.Join(strings.Fields(text), " ")
	chunks := ChunkText(text, 800, 100)
	var sb strings.Builder
	for _, c := range chunks {
		sb.WriteString(c.Text)
	}
	if sb.String() != normalized {
		t.Fatal("concatenated chunk text does not reassemble the normalized input")
	}
}

func TestChunkTextRuneBoundaries(t *testing.T) {
	// "é" is 2 bytes, so byte offsets that are multiples of 5 land inside
	// runes and must snap back.
	text := strings.Repeat("héllo ", 300)
	chunks := ChunkText(text, 800, 100)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	var sb strings.Builder
	for i, c := range chunks {
		if !utf8.ValidString(c.Text) {
			t.Errorf("chunk %d: text is not valid UTF-8", i)
		}
		if !utf8.ValidString(c.Context) {
			t.Errorf("chunk %d: context is not valid UTF-8", i)
		}
		if len(c.Text) > 800 {
			t.Errorf("chunk %d: %d bytes exceeds the chunk size", i, len(c.Text))
		}
		sb.WriteString(c.Text)
	}
	if normalized := strings.Join(strings.Fields(text), " "); sb.String() != normalized {
		t.Fatal("rune snapping lost or duplicated bytes")
	}
}

func TestChunkTextSmallInput(t *testing.T) {
	chunks := ChunkText("short note", 800, 100)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != "short note" || chunks[0].Context != "" {
		t.Fatalf("unexpected chunk %+v", chunks[0])
	}
}

func TestChunkTextEmpty(t *testing.T) {
	if got := ChunkText("   \n\t ", 800, 100); len(got) != 0 {
		t.Fatalf("expected no chunks for blank input, got %d", len(got))
	}
}

func TestChunkEmbeddingInput(t *testing.T) {
	c := Chunk{Text: "body", Context: "tail "}
	if got := c.EmbeddingInput(); got != "tail body" {
		t.Fatalf("embedding input = %q", got)
	}
	c.Context = ""
	if got := c.EmbeddingInput(); got != "body" {
		t.Fatalf("embedding input without context = %q", got)
	}
}
