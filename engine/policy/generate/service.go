// Package generate produces the grounded answer: it selects a prompt
// template by category, fills in the question and retrieved context, and
// calls the language model. Transport failures surface unretried; retry
// policy belongs to the boundary layer.
package generate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/skywise-ai/skywise/engine/policy"
	"github.com/skywise-ai/skywise/pkg/logger"
)

// Provider enumerates supported language-model backends.
type Provider string

const (
	ProviderOpenAI Provider = "openai"
)

// Config holds the language-model settings.
type Config struct {
	Provider    Provider
	Model       string
	APIKey      string
	Temperature float64
}

// Service turns a question and its context block into an answer.
type Service struct {
	model       llms.Model
	modelName   string
	temperature float64
}

// NewService constructs a provider-backed generation service via an
// explicit factory switch.
func NewService(cfg *Config) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("generate: config is required")
	}
	model, err := buildProviderModel(cfg)
	if err != nil {
		return nil, err
	}
	return NewServiceWithModel(cfg, model)
}

// NewServiceWithModel wraps an existing model. Used by tests and by callers
// that manage their own client.
func NewServiceWithModel(cfg *Config, model llms.Model) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("generate: config is required")
	}
	if model == nil {
		return nil, errors.New("generate: model is required")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, errors.New("generate: model name is required")
	}
	return &Service{
		model:       model,
		modelName:   cfg.Model,
		temperature: cfg.Temperature,
	}, nil
}

// Generate answers the question grounded in block. An empty block is a
// first-class case: the prompt instructs an insufficient-information reply
// instead of free generation.
func (s *Service) Generate(
	ctx context.Context,
	question string,
	block policy.ContextBlock,
	airline policy.Airline,
	category policy.Category,
) (policy.Answer, error) {
	prompt, err := buildPrompt(question, block, airline, category)
	if err != nil {
		return policy.Answer{}, err
	}
	log := logger.With("airline", airline, "model", s.modelName)
	log.Debug("generating answer", "prompt_length", len(prompt), "context_empty", block.Empty())
	text, err := llms.GenerateFromSinglePrompt(ctx, s.model, prompt,
		llms.WithTemperature(s.temperature),
	)
	if err != nil {
		return policy.Answer{}, fmt.Errorf("%w: model %s: %v", policy.ErrGeneration, s.modelName, err)
	}
	answer := strings.TrimSpace(text)
	log.Info("answer generated", "answer_length", len(answer))
	return policy.Answer{Text: answer, Context: block}, nil
}

func buildProviderModel(cfg *Config) (llms.Model, error) {
	switch cfg.Provider {
	case ProviderOpenAI:
		opts := []openai.Option{
			openai.WithModel(cfg.Model),
		}
		if cfg.APIKey != "" {
			opts = append(opts, openai.WithToken(cfg.APIKey))
		}
		model, err := openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("generate: failed to initialize openai client: %w", err)
		}
		return model, nil
	default:
		return nil, fmt.Errorf("generate: provider %q is not supported", cfg.Provider)
	}
}
