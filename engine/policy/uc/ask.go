// Package uc exposes the application use cases: answering a policy
// question and ingesting an airline's policy set.
package uc

import (
	"context"
	"errors"

	"github.com/skywise-ai/skywise/engine/policy"
	"github.com/skywise-ai/skywise/engine/policy/contextbuild"
	"github.com/skywise-ai/skywise/engine/policy/generate"
	"github.com/skywise-ai/skywise/engine/policy/retriever"
	"github.com/skywise-ai/skywise/pkg/logger"
)

// AskInput is one policy question as received from the caller.
type AskInput struct {
	Question string
	Airline  string
	Category string
	TopK     int
}

// AskOutput is the generated answer plus the context it was grounded in.
type AskOutput struct {
	Question string
	Answer   string
	Context  string
	Sources  []string
}

// Ask runs the linear, stateless query pipeline:
// retrieve -> build context -> generate. Requests share no mutable state
// and are safe to run fully in parallel.
type Ask struct {
	retriever *retriever.Service
	builder   *contextbuild.Builder
	generator *generate.Service
}

func NewAsk(
	ret *retriever.Service,
	builder *contextbuild.Builder,
	gen *generate.Service,
) (*Ask, error) {
	if ret == nil {
		return nil, errors.New("uc: retriever is required")
	}
	if builder == nil {
		return nil, errors.New("uc: context builder is required")
	}
	if gen == nil {
		return nil, errors.New("uc: generation service is required")
	}
	return &Ask{retriever: ret, builder: builder, generator: gen}, nil
}

func (a *Ask) Execute(ctx context.Context, input AskInput) (*AskOutput, error) {
	airline, err := policy.ParseAirline(input.Airline)
	if err != nil {
		return nil, err
	}
	category := policy.ParseCategory(input.Category)
	log := logger.With("airline", airline, "category", category)
	chunks, err := a.retriever.Retrieve(ctx, input.Question, retriever.Query{
		Airline:  airline,
		Category: category,
		TopK:     input.TopK,
	})
	if err != nil {
		return nil, err
	}
	block := a.builder.Build(chunks)
	log.Debug("context built", "fragments", block.Fragments, "length", len(block.Text))
	answer, err := a.generator.Generate(ctx, input.Question, block, airline, category)
	if err != nil {
		return nil, err
	}
	return &AskOutput{
		Question: input.Question,
		Answer:   answer.Text,
		Context:  block.Text,
		Sources:  collectSources(chunks),
	}, nil
}

func collectSources(chunks []policy.RetrievedChunk) []string {
	seen := make(map[string]struct{}, len(chunks))
	sources := make([]string, 0, len(chunks))
	for i := range chunks {
		source := chunks[i].Source
		if source == "" {
			continue
		}
		if _, dup := seen[source]; dup {
			continue
		}
		seen[source] = struct{}{}
		sources = append(sources, source)
	}
	return sources
}
