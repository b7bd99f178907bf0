package loader

import (
	"context"
	"fmt"
	"path/filepath"

	"supportagent/internal/domain"
	"supportagent/internal/port"
)

// Registry dispatches to the first loader that supports a path.
type Registry struct {
	loaders []port.DocumentLoader
}

var _ port.DocumentLoader = (*Registry)(nil)

func NewRegistry(loaders ...port.DocumentLoader) *Registry {
	return &Registry{loaders: loaders}
}

// Default returns the text and PDF loaders.
func Default() *Registry {
	return NewRegistry(NewTextLoader(), NewPDFLoader())
}

func (r *Registry) Supports(path string) bool {
	return r.find(path) != nil
}

func (r *Registry) Load(ctx context.Context, path string) ([]domain.Document, error) {
	l := r.find(path)
	if l == nil {
		return nil, fmt.Errorf("unsupported file type %q", filepath.Ext(path))
	}
	return l.Load(ctx, path)
}

func (r *Registry) find(path string) port.DocumentLoader {
	for _, l := range r.loaders {
		if l.Supports(path) {
			return l
		}
	}
	return nil
}
