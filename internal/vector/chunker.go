package vector

import (
	"strings"
	"unicode/utf8"
)

const (
	// maxChunkSize bounds a chunk's size in bytes. Oversized paragraphs
	// are split on sentence boundaries, then hard-wrapped as a last
	// resort, never inside a multi-byte rune.
	maxChunkSize = 1200
	// minChunkSize is the byte threshold below which adjacent paragraphs
	// are merged into one chunk.
	minChunkSize = 200
)

// Chunk splits text into retrieval-sized pieces. Paragraph boundaries
// (blank lines) are the primary split points; short paragraphs are
// merged and long ones subdivided so each chunk lands between
// minChunkSize and maxChunkSize bytes where the text allows it.
func Chunk(text string) []string {
	paragraphs := splitParagraphs(text)

	var chunks []string
	var current strings.Builder
	for _, para := range paragraphs {
		for _, piece := range splitOversized(para) {
			if current.Len() > 0 && current.Len()+len(piece) > maxChunkSize {
				chunks = append(chunks, current.String())
				current.Reset()
			}
			if current.Len() > 0 {
				current.WriteString("\n\n")
			}
			current.WriteString(piece)
			if current.Len() >= minChunkSize && len(piece) >= minChunkSize {
				chunks = append(chunks, current.String())
				current.Reset()
			}
		}
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}

func splitParagraphs(text string) []string {
	var out []string
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para != "" {
			out = append(out, para)
		}
	}
	return out
}

// splitOversized breaks a paragraph larger than maxChunkSize on
// sentence boundaries, falling back to a hard split when a single
// sentence exceeds the bound.
func splitOversized(para string) []string {
	if len(para) <= maxChunkSize {
		return []string{para}
	}

	var pieces []string
	var current strings.Builder
	for _, sentence := range splitSentences(para) {
		if current.Len() > 0 && current.Len()+len(sentence) > maxChunkSize {
			pieces = append(pieces, strings.TrimSpace(current.String()))
			current.Reset()
		}
		for len(sentence) > maxChunkSize {
			cut := runeCut(sentence, maxChunkSize)
			pieces = append(pieces, sentence[:cut])
			sentence = sentence[cut:]
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(sentence)
	}
	if current.Len() > 0 {
		pieces = append(pieces, strings.TrimSpace(current.String()))
	}
	return pieces
}

// runeCut returns the largest split point <= max that does not land
// inside a multi-byte UTF-8 sequence.
func runeCut(s string, max int) int {
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	if cut == 0 {
		// Only possible for invalid UTF-8; fall back to the raw bound
		// rather than looping forever.
		return max
	}
	return cut
}

func splitSentences(text string) []string {
	var out []string
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '.', '!', '?':
			if i+1 == len(text) || text[i+1] == ' ' || text[i+1] == '\n' {
				s := strings.TrimSpace(text[start : i+1])
				if s != "" {
					out = append(out, s)
				}
				start = i + 1
			}
		}
	}
	if tail := strings.TrimSpace(text[start:]); tail != "" {
		out = append(out, tail)
	}
	return out
}
