// Package chunker splits text into pieces short enough for a speech endpoint
// that caps each request, preferring natural pause points so the joined
// audio does not break words or clauses apart.
package chunker

import (
	"strings"
	"unicode"
)

// DefaultMaxRunes is the per-request limit of the Google TTS endpoint.
const DefaultMaxRunes = 100

// Chunk splits text into pieces each no longer than maxRunes code points.
// Splits are attempted (in order of preference) at:
//  1. Line breaks
//  2. Sentence-ending punctuation (. ! ? and the Devanagari/CJK stops)
//  3. Clause punctuation (, ; : and their Arabic/CJK forms)
//  4. Whitespace (word boundary)
//  5. Hard cut at maxRunes if no suitable boundary is found
//
// Whitespace-only text yields no chunks. If maxRunes ≤ 0 the trimmed text is
// returned as a single chunk.
func Chunk(text string, maxRunes int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	remaining := []rune(text)
	if maxRunes <= 0 || len(remaining) <= maxRunes {
		return []string{text}
	}

	var chunks []string
	for len(remaining) > maxRunes {
		split := findSplit(remaining, maxRunes)
		if chunk := strings.TrimSpace(string(remaining[:split])); chunk != "" {
			chunks = append(chunks, chunk)
		}
		remaining = trimLeftSpace(remaining[split:])
	}

	if tail := strings.TrimSpace(string(remaining)); tail != "" {
		chunks = append(chunks, tail)
	}

	return chunks
}

// findSplit returns the rune count to consume from runes, at most maxRunes.
func findSplit(runes []rune, maxRunes int) int {
	candidate := runes[:maxRunes]
	// A boundary sitting right at maxRunes still counts.
	next := func(i int) (rune, bool) {
		if i+1 < len(runes) {
			return runes[i+1], true
		}
		return 0, false
	}

	for i := len(candidate) - 1; i > 0; i-- {
		if candidate[i] == '\n' {
			return i + 1
		}
	}

	for i := len(candidate) - 1; i > 0; i-- {
		r := candidate[i]
		if isFullStop(r) {
			return i + 1
		}
		if r == '.' || r == '!' || r == '?' {
			if n, ok := next(i); !ok || unicode.IsSpace(n) {
				return i + 1
			}
		}
	}

	for i := len(candidate) - 1; i > 0; i-- {
		if isClauseMark(candidate[i]) {
			return i + 1
		}
	}

	for i := len(candidate) - 1; i > 0; i-- {
		if unicode.IsSpace(candidate[i]) {
			return i
		}
	}

	return maxRunes
}

// isFullStop reports sentence terminators that need no trailing space.
func isFullStop(r rune) bool {
	switch r {
	case '।', '॥', '。', '！', '？', '؟':
		return true
	}
	return false
}

func isClauseMark(r rune) bool {
	switch r {
	case ',', ';', ':', '،', '、', '，', '；', '：':
		return true
	}
	return false
}

func trimLeftSpace(runes []rune) []rune {
	for len(runes) > 0 && unicode.IsSpace(runes[0]) {
		runes = runes[1:]
	}
	return runes
}
