package generate

import (
	"fmt"

	"github.com/tmc/langchaingo/prompts"

	"github.com/skywise-ai/skywise/engine/policy"
)

const systemInstructions = `You are a professional airline travel assistant for {{.airline}}.
Answer questions about airline policies using only the provided context.
Be clear, accurate, and customer-service oriented.

Guidelines:
- Only use information from the provided context
- Never invent policy details that are not in the context
- If the context does not contain enough information, say so politely
- Use clear, easy-to-understand language`

const baggageInstructions = `Focus on baggage rules: allowances, size and weight limits,
fees, and special items. Quote limits exactly as stated in the context.`

const childrenInstructions = `Focus on policies for children and minors: unaccompanied
minor rules, age brackets, required documents, and accompanying-adult requirements.
Quote age limits exactly as stated in the context.`

const answerTemplate = systemInstructions + `

{{.focus}}Context:
{{.context}}

Question: {{.question}}

Answer:`

const insufficientTemplate = systemInstructions + `

No relevant policy text was retrieved for this question. Reply that you do
not have enough information about {{.airline}}'s policy to answer, and
suggest contacting the airline directly. Do not guess or invent any policy.

Question: {{.question}}

Answer:`

var answerPrompt = prompts.NewPromptTemplate(
	answerTemplate,
	[]string{"airline", "focus", "context", "question"},
)

var insufficientPrompt = prompts.NewPromptTemplate(
	insufficientTemplate,
	[]string{"airline", "question"},
)

func categoryFocus(category policy.Category) string {
	switch category {
	case policy.CategoryBaggage:
		return baggageInstructions + "\n\n"
	case policy.CategoryChildren:
		return childrenInstructions + "\n\n"
	default:
		return ""
	}
}

// buildPrompt renders the prompt for a grounded answer. The category picks
// extra focus instructions; anything unmatched falls back to the general
// template.
func buildPrompt(question string, block policy.ContextBlock, airline policy.Airline, category policy.Category) (string, error) {
	if block.Empty() {
		rendered, err := insufficientPrompt.Format(map[string]any{
			"airline":  string(airline),
			"question": question,
		})
		if err != nil {
			return "", fmt.Errorf("generate: render insufficient-information prompt: %w", err)
		}
		return rendered, nil
	}
	rendered, err := answerPrompt.Format(map[string]any{
		"airline":  string(airline),
		"focus":    categoryFocus(category),
		"context":  block.Text,
		"question": question,
	})
	if err != nil {
		return "", fmt.Errorf("generate: render answer prompt: %w", err)
	}
	return rendered, nil
}
