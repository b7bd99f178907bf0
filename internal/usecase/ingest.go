package usecase

import (
	"context"
	"fmt"
	"path/filepath"

	"supportagent/internal/domain"
	"supportagent/internal/logger"
	"supportagent/internal/metrics"
	"supportagent/internal/port"
)

const moduleIngest = "ingest"

// ChunkIndexer receives the chunks of an ingestion run.
type ChunkIndexer interface {
	Add(ctx context.Context, chunks []domain.Chunk) error
}

// ProgressFunc is called after each file with the number of files done so
// far and the total.
type ProgressFunc func(done, total int, path string)

// IngestUseCase loads source files, chunks them and hands the chunks to the
// index in one call. Bad files are skipped and reported.
type IngestUseCase struct {
	walker  port.FileWalker
	loader  port.DocumentLoader
	chunker port.Chunker
	index   ChunkIndexer
	log     logger.ILogger
	metrics *metrics.Metrics
}

func NewIngestUseCase(
	walker port.FileWalker,
	loader port.DocumentLoader,
	chunker port.Chunker,
	index ChunkIndexer,
	log logger.ILogger,
	m *metrics.Metrics,
) *IngestUseCase {
	return &IngestUseCase{
		walker:  walker,
		loader:  loader,
		chunker: chunker,
		index:   index,
		log:     log,
		metrics: m,
	}
}

// IngestDir ingests every supported file under root.
func (u *IngestUseCase) IngestDir(ctx context.Context, root string, progress ProgressFunc) (*domain.IngestResult, error) {
	files, err := u.walker.Walk(root)
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	return u.Ingest(ctx, paths, progress)
}

// Ingest loads and chunks paths. Only an index write failure is returned as
// an error; per-file failures end up in the result.
func (u *IngestUseCase) Ingest(ctx context.Context, paths []string, progress ProgressFunc) (*domain.IngestResult, error) {
	result := &domain.IngestResult{}
	var docs []domain.Document

	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		loaded, err := u.load(ctx, path)
		if err != nil {
			result.FilesFailed++
			result.Errors = append(result.Errors, err.Error())
			u.metrics.RecordIngestFile(metrics.StatusError)
			u.log.Warn(moduleIngest, "skipping file", map[string]interface{}{
				"file":  path,
				"error": err,
			})
		} else {
			result.FilesLoaded++
			docs = append(docs, loaded...)
			u.metrics.RecordIngestFile(metrics.StatusSuccess)
			u.log.Info(moduleIngest, "file loaded", map[string]interface{}{
				"file":      filepath.Base(path),
				"documents": len(loaded),
			})
		}

		if progress != nil {
			progress(i+1, len(paths), path)
		}
	}

	return u.finish(ctx, docs, result)
}

// IngestDocuments chunks and indexes documents that are already loaded.
func (u *IngestUseCase) IngestDocuments(ctx context.Context, docs []domain.Document) (*domain.IngestResult, error) {
	return u.finish(ctx, docs, &domain.IngestResult{})
}

func (u *IngestUseCase) load(ctx context.Context, path string) ([]domain.Document, error) {
	if !u.loader.Supports(path) {
		return nil, fmt.Errorf("%w: %s: unsupported file type", domain.ErrIngestion, filepath.Base(path))
	}
	docs, err := u.loader.Load(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrIngestion, err)
	}
	return docs, nil
}

func (u *IngestUseCase) finish(ctx context.Context, docs []domain.Document, result *domain.IngestResult) (*domain.IngestResult, error) {
	result.DocumentsLoaded = len(docs)

	var chunks []domain.Chunk
	for _, doc := range docs {
		cs, err := u.chunker.Chunk(doc)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s page %d: %v", doc.Source, doc.Page, err))
			continue
		}
		chunks = append(chunks, cs...)
	}
	result.ChunksCreated = len(chunks)

	if err := u.index.Add(ctx, chunks); err != nil {
		u.log.Error(moduleIngest, "index write failed", map[string]interface{}{
			"error":  err,
			"chunks": len(chunks),
		})
		return result, err
	}

	u.log.Info(moduleIngest, "ingestion finished", map[string]interface{}{
		"files_loaded":     result.FilesLoaded,
		"files_failed":     result.FilesFailed,
		"documents_loaded": result.DocumentsLoaded,
		"chunks_created":   result.ChunksCreated,
	})
	return result, nil
}
