package port

import (
	"context"

	"supportagent/internal/domain"
)

// Embedder generates vector embeddings for text.
type Embedder interface {
	// Embed generates embeddings for the given texts.
	// Returns a slice of vectors, one per input text. Identical input must
	// always produce the identical vector.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the embedding vector dimension.
	Dimension() int

	// ModelName returns the name of the embedding model.
	ModelName() string
}

// VectorStore stores and searches embedding vectors.
type VectorStore interface {
	// Add upserts entries by ID. Re-adding an existing ID keeps its original
	// insertion position.
	Add(ctx context.Context, entries []domain.IndexEntry) error

	// SimilaritySearch returns up to k entries ordered by ascending cosine
	// distance, ties broken by insertion order.
	SimilaritySearch(ctx context.Context, query []float32, k int, filter *domain.Filter) ([]VectorMatch, error)

	// GetAllIDs returns the IDs of every stored entry.
	GetAllIDs(ctx context.Context) ([]string, error)

	// DeleteCollection drops every entry. The store stays usable afterwards.
	DeleteCollection(ctx context.Context) error
}

// VectorMatch represents a search hit.
type VectorMatch struct {
	ID       string
	Text     string
	Metadata domain.Metadata
	Distance float64 // cosine distance, lower is closer
}
