package port

import (
	"context"

	"cmsrag/internal/domain"
)

// LLM represents a language model for text generation.
type LLM interface {
	// Chat generates the next assistant message. The system prompt is sent
	// first, followed by the turns in order.
	Chat(ctx context.Context, systemPrompt string, turns []domain.Turn) (string, error)

	// ModelName returns the name of the model.
	ModelName() string
}
