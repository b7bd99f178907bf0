package port

import (
	"context"

	"supportagent/internal/domain"
)

// LLM represents a chat language model.
type LLM interface {
	// Chat sends the system context followed by the ordered turns and
	// returns the assistant reply.
	Chat(ctx context.Context, system string, turns []domain.Turn) (string, error)

	// ModelName returns the name of the model.
	ModelName() string
}
