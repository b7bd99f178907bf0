package port

import (
	"context"

	"supportagent/internal/domain"
)

// DocumentLoader turns one source file into documents.
type DocumentLoader interface {
	Supports(path string) bool
	Load(ctx context.Context, path string) ([]domain.Document, error)
}
