package providers

import "context"

// TextGenerator produces free text from a prompt. Callers ask for JSON in the
// prompt but must not assume the reply is valid JSON.
type TextGenerator interface {
	Generate(ctx context.Context, systemPrompt, prompt string) (string, error)
}
