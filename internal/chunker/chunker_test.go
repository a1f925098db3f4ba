package chunker_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/valpere/bhasha/internal/chunker"
)

func TestChunk_ShortText(t *testing.T) {
	text := "Hello, world!"
	chunks := chunker.Chunk(text, 100)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0] != text {
		t.Errorf("expected %q, got %q", text, chunks[0])
	}
}

func TestChunk_Unlimited(t *testing.T) {
	text := strings.Repeat("word ", 500)
	chunks := chunker.Chunk(text, 0)
	if len(chunks) != 1 {
		t.Errorf("expected 1 chunk when maxRunes=0, got %d", len(chunks))
	}
}

func TestChunk_EmptyText(t *testing.T) {
	if chunks := chunker.Chunk("", 100); len(chunks) != 0 {
		t.Errorf("expected no chunks, got %q", chunks)
	}
	if chunks := chunker.Chunk("  \n\t ", 100); len(chunks) != 0 {
		t.Errorf("expected no chunks for whitespace, got %q", chunks)
	}
}

func TestChunk_RespectsLimit(t *testing.T) {
	tests := []struct {
		name string
		text string
		max  int
	}{
		{"english sentences", strings.Repeat("The quick brown fox jumps over the lazy dog. ", 10), 100},
		{"hindi danda", strings.Repeat("मैं ठीक हूँ। आप कैसे हैं? ", 12), 40},
		{"japanese no spaces", strings.Repeat("今日はいい天気ですね。", 20), 30},
		{"no boundaries", strings.Repeat("x", 250), 100},
		{"commas only", strings.Repeat("alpha, beta, gamma, delta, ", 8), 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := chunker.Chunk(tt.text, tt.max)
			if len(chunks) < 2 {
				t.Fatalf("expected several chunks, got %d", len(chunks))
			}
			for i, c := range chunks {
				if n := utf8.RuneCountInString(c); n > tt.max {
					t.Errorf("chunk %d has %d runes, limit %d: %q", i, n, tt.max, c)
				}
				if c == "" || c != strings.TrimSpace(c) {
					t.Errorf("chunk %d is empty or untrimmed: %q", i, c)
				}
			}
		})
	}
}

func TestChunk_SentenceBoundary(t *testing.T) {
	text := "First sentence ends here. Second sentence follows. Third sentence."
	chunks := chunker.Chunk(text, 40)
	if len(chunks) < 2 {
		t.Fatalf("expected ≥2 chunks, got %d", len(chunks))
	}
	if chunks[0] != "First sentence ends here." {
		t.Errorf("expected split after first sentence, got %q", chunks[0])
	}
}

func TestChunk_DandaBoundary(t *testing.T) {
	text := "नमस्ते दोस्तों। आज मौसम बहुत अच्छा है।"
	chunks := chunker.Chunk(text, 20)
	if chunks[0] != "नमस्ते दोस्तों।" {
		t.Errorf("expected split after danda, got %q", chunks[0])
	}
}

func TestChunk_DecimalNotSplit(t *testing.T) {
	text := "The price rose to 3.14 dollars today and kept rising"
	chunks := chunker.Chunk(text, 22)
	for _, c := range chunks {
		if strings.HasSuffix(c, "3.") {
			t.Errorf("split inside a decimal number: %q", chunks)
		}
	}
}

func TestChunk_WordBoundary(t *testing.T) {
	text := "one two three four five six seven eight nine ten"
	chunks := chunker.Chunk(text, 20)
	if len(chunks) < 2 {
		t.Fatalf("expected ≥2 chunks, got %d", len(chunks))
	}
	if got := strings.Join(chunks, " "); got != text {
		t.Errorf("words lost or reordered: %q", got)
	}
}

func TestChunk_HardCut(t *testing.T) {
	text := strings.Repeat("a", 250)
	chunks := chunker.Chunk(text, 100)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if strings.Join(chunks, "") != text {
		t.Error("hard cut lost characters")
	}
}
