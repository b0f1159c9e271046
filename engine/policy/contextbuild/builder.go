// Package contextbuild assembles retrieved chunks into one bounded context
// block for the language model.
package contextbuild

import (
	"errors"
	"strings"

	"github.com/skywise-ai/skywise/engine/policy"
)

const separator = "\n\n"

// Builder deduplicates and concatenates retrieved chunks in descending
// score order, keeping the result under a character budget. Truncation
// drops whole lowest-scoring chunks; it never cuts mid-chunk.
type Builder struct {
	maxChars int
}

// NewBuilder validates the character budget.
func NewBuilder(maxChars int) (*Builder, error) {
	if maxChars <= 0 {
		return nil, errors.New("contextbuild: max chars must be greater than zero")
	}
	return &Builder{maxChars: maxChars}, nil
}

// Build produces the context block. Chunks must already be ordered by
// descending score, as the retriever returns them. An empty input yields an
// explicitly empty block, not an error: downstream generation treats "no
// context" as a first-class case.
func (b *Builder) Build(chunks []policy.RetrievedChunk) policy.ContextBlock {
	seen := make(map[string]struct{}, len(chunks))
	var parts []string
	length := 0
	for i := range chunks {
		text := strings.TrimSpace(chunks[i].Text)
		if text == "" {
			continue
		}
		if _, dup := seen[text]; dup {
			// Overlapping chunks can surface the same text twice; the
			// higher-scoring occurrence already won.
			continue
		}
		cost := len(text)
		if len(parts) > 0 {
			cost += len(separator)
		}
		if length+cost > b.maxChars {
			break
		}
		seen[text] = struct{}{}
		parts = append(parts, text)
		length += cost
	}
	if len(parts) == 0 {
		return policy.ContextBlock{}
	}
	return policy.ContextBlock{
		Text:      strings.Join(parts, separator),
		Fragments: len(parts),
	}
}
