package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"supportagent/internal/domain"
	"supportagent/internal/port"
)

// TextLoader reads plain text and markdown files as a single page.
type TextLoader struct {
	extensions map[string]bool
}

var _ port.DocumentLoader = (*TextLoader)(nil)

func NewTextLoader() *TextLoader {
	return &TextLoader{extensions: map[string]bool{".txt": true, ".md": true}}
}

func (l *TextLoader) Supports(path string) bool {
	return l.extensions[strings.ToLower(filepath.Ext(path))]
}

func (l *TextLoader) Load(ctx context.Context, path string) ([]domain.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%s is not valid UTF-8 text", filepath.Base(path))
	}

	return []domain.Document{{
		Source: filepath.Base(path),
		Path:   path,
		Page:   1,
		Text:   string(data),
	}}, nil
}
