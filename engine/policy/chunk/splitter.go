// Package chunk splits raw policy text into overlapping windows sized for
// the embedding model. Splitting is deterministic: the same text and
// settings always yield the same chunk sequence, which re-ingestion relies
// on for stable point ids.
package chunk

import (
	"errors"
	"fmt"
	"strings"
)

// Settings configures window size and overlap, both in characters.
type Settings struct {
	Size    int
	Overlap int
}

// Chunk is one exact substring of the source text. Start and End are rune
// offsets into the original; chunks after the first begin Overlap runes
// before the previous chunk's end.
type Chunk struct {
	Index int
	Text  string
	Start int
	End   int
}

// Splitter performs greedy forward splitting, preferring paragraph then
// sentence boundaries inside the window and hard-splitting at the limit
// when no boundary exists.
type Splitter struct {
	size    int
	overlap int
}

// NewSplitter validates the settings up front; misconfiguration is rejected
// before any document is processed, never recovered from at runtime.
func NewSplitter(settings Settings) (*Splitter, error) {
	if settings.Size <= 0 {
		return nil, errors.New("chunk: size must be greater than zero")
	}
	if settings.Overlap < 0 {
		return nil, errors.New("chunk: overlap cannot be negative")
	}
	if settings.Overlap >= settings.Size {
		return nil, fmt.Errorf("chunk: overlap %d must be smaller than size %d", settings.Overlap, settings.Size)
	}
	return &Splitter{size: settings.Size, overlap: settings.Overlap}, nil
}

// Split breaks text into ordered chunks. Every chunk except possibly the
// last spans more than the overlap, so consecutive starts strictly advance.
// Chunks are exact substrings: concatenating the first chunk with each
// subsequent chunk's suffix past the overlap reconstructs the input.
func (s *Splitter) Split(text string) []Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	runes := []rune(text)
	var chunks []Chunk
	start := 0
	for index := 0; start < len(runes); index++ {
		end := start + s.size
		if end >= len(runes) {
			end = len(runes)
		} else {
			end = s.cutPoint(runes, start, end)
		}
		chunks = append(chunks, Chunk{
			Index: index,
			Text:  string(runes[start:end]),
			Start: start,
			End:   end,
		})
		if end == len(runes) {
			break
		}
		start = end - s.overlap
	}
	return chunks
}

// cutPoint picks where to end the chunk beginning at start, given the hard
// window limit. Paragraph breaks win over sentence ends; both must leave the
// next start strictly past the current one.
func (s *Splitter) cutPoint(runes []rune, start, limit int) int {
	minEnd := start + s.overlap + 1
	if cut := lastParagraphBreak(runes, minEnd, limit); cut > 0 {
		return cut
	}
	if cut := lastSentenceEnd(runes, minEnd, limit); cut > 0 {
		return cut
	}
	return limit
}

// lastParagraphBreak returns the position just after the last blank line in
// runes[min:limit], or 0 when there is none.
func lastParagraphBreak(runes []rune, min, limit int) int {
	for i := limit - 1; i > min; i-- {
		if runes[i-1] == '\n' && runes[i] == '\n' {
			return i + 1
		}
	}
	return 0
}

// lastSentenceEnd returns the position just after the last sentence
// terminator followed by whitespace in runes[min:limit], or 0 when there is
// none.
func lastSentenceEnd(runes []rune, min, limit int) int {
	for i := limit - 1; i > min; i-- {
		if !isSentenceTerminator(runes[i-1]) {
			continue
		}
		if runes[i] == ' ' || runes[i] == '\n' || runes[i] == '\t' {
			return i + 1
		}
	}
	return 0
}

func isSentenceTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}
