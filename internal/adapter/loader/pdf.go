package loader

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"supportagent/internal/domain"
	"supportagent/internal/port"
)

// ErrPDFToolNotFound is returned when pdftotext is not installed.
var ErrPDFToolNotFound = errors.New("pdftotext not found: install poppler-utils (apt install poppler-utils / brew install poppler)")

// CommandRunner runs an external command and returns its stdout.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return nil, fmt.Errorf("%w: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, err
	}
	return out, nil
}

// PDFLoader extracts text with pdftotext and yields one document per page.
type PDFLoader struct {
	runner   CommandRunner
	checkBin bool
}

var _ port.DocumentLoader = (*PDFLoader)(nil)

func NewPDFLoader() *PDFLoader {
	return &PDFLoader{runner: execRunner{}, checkBin: true}
}

// NewPDFLoaderWithRunner swaps the command runner, mainly for tests.
func NewPDFLoaderWithRunner(runner CommandRunner) *PDFLoader {
	return &PDFLoader{runner: runner}
}

// CheckAvailable reports whether pdftotext is on PATH.
func CheckAvailable() error {
	if _, err := exec.LookPath("pdftotext"); err != nil {
		return ErrPDFToolNotFound
	}
	return nil
}

func (l *PDFLoader) Supports(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}

func (l *PDFLoader) Load(ctx context.Context, path string) ([]domain.Document, error) {
	if l.checkBin {
		if err := CheckAvailable(); err != nil {
			return nil, err
		}
	}

	out, err := l.runner.Run(ctx, "pdftotext", "-layout", "-enc", "UTF-8", path, "-")
	if err != nil {
		return nil, fmt.Errorf("pdftotext %s: %w", filepath.Base(path), err)
	}

	docs := SplitPages(string(out), filepath.Base(path), path)
	if len(docs) == 0 {
		return nil, fmt.Errorf("%s has no extractable text", filepath.Base(path))
	}
	return docs, nil
}

// SplitPages cuts pdftotext output on form feeds. Page numbers are 1-based
// and blank pages are skipped without renumbering the rest.
func SplitPages(text, source, path string) []domain.Document {
	pages := strings.Split(text, "\f")
	docs := make([]domain.Document, 0, len(pages))
	for i, page := range pages {
		if strings.TrimSpace(page) == "" {
			continue
		}
		docs = append(docs, domain.Document{
			Source: source,
			Path:   path,
			Page:   i + 1,
			Text:   page,
		})
	}
	return docs
}
