// Package policy holds the domain model shared by the airline policy
// retrieval pipeline: airlines, question categories, documents, retrieved
// chunks, and the error taxonomy every stage reports through.
package policy

import (
	"fmt"
	"strings"
)

// Airline enumerates the carriers the assistant has policies for.
type Airline string

const (
	AirlineAmericanAirlines Airline = "AmericanAirlines"
	AirlineDelta            Airline = "Delta"
	AirlineUnited           Airline = "United"
)

// Airlines lists every supported carrier.
func Airlines() []Airline {
	return []Airline{AirlineAmericanAirlines, AirlineDelta, AirlineUnited}
}

// ParseAirline resolves a caller-supplied airline name case-insensitively.
// Unknown values are rejected so a query never silently searches unfiltered.
func ParseAirline(value string) (Airline, error) {
	trimmed := strings.TrimSpace(value)
	for _, airline := range Airlines() {
		if strings.EqualFold(trimmed, string(airline)) {
			return airline, nil
		}
	}
	return "", fmt.Errorf("%w: unknown airline %q", ErrInvalidFilter, value)
}

// Category selects the prompt template used for generation.
type Category string

const (
	CategoryBaggage  Category = "baggage"
	CategoryChildren Category = "children"
	CategoryGeneral  Category = "general"
)

// ParseCategory maps free-form input onto a known category, falling back to
// general when unmatched or unspecified.
func ParseCategory(value string) Category {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case string(CategoryBaggage):
		return CategoryBaggage
	case string(CategoryChildren), "minors":
		return CategoryChildren
	default:
		return CategoryGeneral
	}
}

// Format identifies how a policy document's bytes are encoded.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatText     Format = "text"
	FormatPDF      Format = "pdf"
)

// Document is one loaded policy file. It is immutable once loaded and is
// discarded after chunking.
type Document struct {
	Path    string
	Airline Airline
	Format  Format
	Text    string
}

// RetrievedChunk is a search hit: a stored chunk's payload plus its
// similarity score. It lives only for the duration of one query.
type RetrievedChunk struct {
	Text    string
	Score   float64
	Source  string
	Airline string
}

// ContextBlock is the deduplicated, budget-bounded context handed to the
// generation stage. An empty block is a valid, meaningful value.
type ContextBlock struct {
	Text      string
	Fragments int
}

// Empty reports whether retrieval produced no usable context.
func (b ContextBlock) Empty() bool {
	return b.Fragments == 0 || strings.TrimSpace(b.Text) == ""
}

// Answer is the generated response together with the context it was
// grounded in.
type Answer struct {
	Text    string
	Context ContextBlock
}

// Payload keys persisted with every indexed point. The schema is stable;
// downstream consumers depend on these exact names.
const (
	PayloadSource     = "source"
	PayloadText       = "page_content"
	PayloadAirline    = "airline"
	PayloadCategory   = "category"
	PayloadChunkIndex = "chunk_index"
	PayloadSHA256     = "sha256"
)
