package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"supportagent/internal/adapter/cache"
	"supportagent/internal/domain"
	"supportagent/internal/logger"
	"supportagent/internal/metrics"
	"supportagent/internal/port"
)

const moduleIndex = "index"

// KnowledgeIndex embeds chunks into a vector store and answers similarity
// queries with normalized scores. Searches run concurrently; Add and Clear
// are exclusive.
type KnowledgeIndex struct {
	mu        sync.RWMutex
	embedder  port.Embedder
	store     port.VectorStore
	cache     *cache.QueryCache
	log       logger.ILogger
	metrics   *metrics.Metrics
	batchSize int
}

type IndexOption func(*KnowledgeIndex)

func WithQueryCache(c *cache.QueryCache) IndexOption {
	return func(ix *KnowledgeIndex) { ix.cache = c }
}

func WithIndexMetrics(m *metrics.Metrics) IndexOption {
	return func(ix *KnowledgeIndex) { ix.metrics = m }
}

func WithEmbedBatchSize(n int) IndexOption {
	return func(ix *KnowledgeIndex) {
		if n > 0 {
			ix.batchSize = n
		}
	}
}

func NewKnowledgeIndex(embedder port.Embedder, store port.VectorStore, log logger.ILogger, opts ...IndexOption) *KnowledgeIndex {
	ix := &KnowledgeIndex{
		embedder:  embedder,
		store:     store,
		log:       log,
		batchSize: 64,
	}
	for _, o := range opts {
		o(ix)
	}
	return ix
}

// Add embeds and upserts chunks. Chunks share ids when their source, page
// and text match, so adding the same content twice leaves one entry.
func (ix *KnowledgeIndex) Add(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	entries := make([]domain.IndexEntry, 0, len(chunks))
	for start := 0; start < len(chunks); start += ix.batchSize {
		end := start + ix.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}
		vectors, err := ix.embedder.Embed(ctx, texts)
		if err != nil {
			return fmt.Errorf("%w: embedding chunks: %w", domain.ErrIndexWrite, err)
		}
		if len(vectors) != len(batch) {
			return fmt.Errorf("%w: embedder returned %d vectors for %d chunks", domain.ErrIndexWrite, len(vectors), len(batch))
		}

		for i, c := range batch {
			entries = append(entries, domain.IndexEntry{
				ID:       c.ID,
				Vector:   vectors[i],
				Text:     c.Text,
				Metadata: c.Metadata,
			})
		}
	}

	if err := ix.store.Add(ctx, entries); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrIndexWrite, err)
	}
	ix.invalidate()

	ix.metrics.AddChunksIndexed(len(entries))
	ix.log.Info(moduleIndex, "chunks indexed", map[string]interface{}{
		"chunks": len(entries),
		"model":  ix.embedder.ModelName(),
	})
	return nil
}

// Search returns up to k results by descending similarity. Failures are
// logged and yield an empty slice.
func (ix *KnowledgeIndex) Search(ctx context.Context, query string, k int, filter *domain.Filter) []domain.SearchResult {
	results := []domain.SearchResult{}
	if strings.TrimSpace(query) == "" || k <= 0 {
		return results
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	start := time.Now()

	var gen uint64
	if ix.cache != nil {
		if cached, ok := ix.cache.Get(query, k, filter); ok {
			ix.metrics.RecordSearch(metrics.StatusSuccess, time.Since(start))
			return cached
		}
		gen = ix.cache.Generation()
	}

	vectors, err := ix.embedder.Embed(ctx, []string{query})
	if err == nil && len(vectors) != 1 {
		err = fmt.Errorf("embedder returned %d vectors for 1 query", len(vectors))
	}
	if err != nil {
		ix.searchFailed(query, fmt.Errorf("%w: embedding query: %w", domain.ErrIndexSearch, err), start)
		return results
	}

	matches, err := ix.store.SimilaritySearch(ctx, vectors[0], k, filter)
	if err != nil {
		ix.searchFailed(query, fmt.Errorf("%w: %w", domain.ErrIndexSearch, err), start)
		return results
	}

	for _, m := range matches {
		results = append(results, domain.SearchResult{
			Text:       m.Text,
			Metadata:   m.Metadata,
			Similarity: domain.SimilarityFromDistance(m.Distance),
		})
	}

	if ix.cache != nil {
		ix.cache.Put(query, k, filter, gen, results)
	}
	ix.metrics.RecordSearch(metrics.StatusSuccess, time.Since(start))
	ix.log.Debug(moduleIndex, "search completed", map[string]interface{}{
		"results":  len(results),
		"k":        k,
		"duration": time.Since(start).String(),
	})
	return results
}

func (ix *KnowledgeIndex) searchFailed(query string, err error, start time.Time) {
	ix.metrics.RecordSearch(metrics.StatusError, time.Since(start))
	ix.log.Warn(moduleIndex, "search failed, returning no context", map[string]interface{}{
		"error": err,
		"query": truncateRunes(query, 100),
	})
}

func (ix *KnowledgeIndex) Count(ctx context.Context) (int, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	ids, err := ix.store.GetAllIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", domain.ErrIndexSearch, err)
	}
	return len(ids), nil
}

// Clear drops every entry.
func (ix *KnowledgeIndex) Clear(ctx context.Context) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if err := ix.store.DeleteCollection(ctx); err != nil {
		return fmt.Errorf("%w: clearing collection: %w", domain.ErrIndexWrite, err)
	}
	ix.invalidate()
	ix.log.Info(moduleIndex, "collection cleared", nil)
	return nil
}

func (ix *KnowledgeIndex) invalidate() {
	if ix.cache != nil {
		ix.cache.Invalidate()
	}
}

func (ix *KnowledgeIndex) EmbeddingModel() string {
	return ix.embedder.ModelName()
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
