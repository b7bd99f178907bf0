package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"supportagent/config"
	"supportagent/internal/adapter/analyzer"
	"supportagent/internal/adapter/cache"
	"supportagent/internal/adapter/chunker"
	"supportagent/internal/adapter/embedding"
	"supportagent/internal/adapter/fs"
	"supportagent/internal/adapter/llm"
	"supportagent/internal/adapter/loader"
	"supportagent/internal/adapter/retriever"
	"supportagent/internal/adapter/session"
	"supportagent/internal/adapter/store"
	"supportagent/internal/adapter/ticket"
	"supportagent/internal/logger"
	"supportagent/internal/metrics"
	"supportagent/internal/port"
	"supportagent/internal/usecase"
)

const moduleBootstrap = "bootstrap"

// Container owns every long-lived component of the assistant.
type Container struct {
	Config  *config.Config
	Log     logger.ILogger
	Metrics *metrics.Metrics

	Index        *usecase.KnowledgeIndex
	Ingest       *usecase.IngestUseCase
	Orchestrator *usecase.Orchestrator
	Service      *usecase.SupportService
	Tickets      port.TicketStore

	closers []func() error
}

// Option replaces a component before wiring, mainly for tests.
type Option func(*overrides)

type overrides struct {
	llm      port.LLM
	embedder port.Embedder
}

func WithLLM(l port.LLM) Option {
	return func(o *overrides) { o.llm = l }
}

func WithEmbedder(e port.Embedder) Option {
	return func(o *overrides) { o.embedder = e }
}

// NewContainer builds the components selected by cfg. On error everything
// opened so far is closed again.
func NewContainer(ctx context.Context, cfg *config.Config, log logger.ILogger, opts ...Option) (_ *Container, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	var ov overrides
	for _, o := range opts {
		o(&ov)
	}

	c := &Container{
		Config:  cfg,
		Log:     log,
		Metrics: metrics.New(),
	}
	defer func() {
		if err != nil {
			c.Close()
		}
	}()

	embedder := ov.embedder
	if embedder == nil {
		if embedder, err = newEmbedder(cfg.Embedding); err != nil {
			return nil, err
		}
	}

	chk, err := chunker.NewRecursiveChunker(cfg.Index.ChunkSize, cfg.Index.ChunkOverlap)
	if err != nil {
		return nil, err
	}

	vectors, err := c.openVectorStore(ctx, embedder)
	if err != nil {
		return nil, err
	}

	indexOpts := []usecase.IndexOption{
		usecase.WithIndexMetrics(c.Metrics),
		usecase.WithEmbedBatchSize(cfg.Embedding.BatchSize),
	}
	if cfg.Retrieve.CacheSize > 0 {
		ttl := time.Duration(cfg.Retrieve.CacheTTLSeconds) * time.Second
		indexOpts = append(indexOpts, usecase.WithQueryCache(cache.NewQueryCache(cfg.Retrieve.CacheSize, ttl)))
	}
	c.Index = usecase.NewKnowledgeIndex(embedder, vectors, log, indexOpts...)

	if err := loader.CheckAvailable(); err != nil {
		log.Warn(moduleBootstrap, "PDF files will be skipped", map[string]interface{}{"error": err})
	}
	c.Ingest = usecase.NewIngestUseCase(
		fs.NewWalker(cfg.Index.Includes, cfg.Index.Excludes),
		loader.Default(),
		chk,
		c.Index,
		log,
		c.Metrics,
	)

	if c.Tickets, err = c.openTickets(); err != nil {
		return nil, err
	}

	model := ov.llm
	if model == nil {
		if cfg.LLM.APIKey == "" {
			log.Warn(moduleBootstrap, "no API key configured, chat replies will fall back", map[string]interface{}{
				"env": cfg.LLM.APIKeyEnv,
			})
		}
		model = llm.NewOpenAIClient(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.Model,
			llm.WithTemperature(cfg.LLM.Temperature),
			llm.WithMaxTokens(cfg.LLM.MaxTokens),
		)
	}

	sessions := session.NewCacheStore(time.Duration(cfg.Session.TimeoutMinutes) * time.Minute)
	c.Orchestrator = usecase.NewOrchestrator(
		c.Index,
		usecase.NewTicketContext(c.Tickets, log),
		model,
		sessions,
		usecase.OrchestratorConfig{
			TopK:       cfg.Retrieve.TopK,
			MaxPairs:   cfg.MaxPairs(),
			LLMTimeout: time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
		},
		log,
		c.Metrics,
	)

	reranker := retriever.NewMMRReranker(cfg.Retrieve.MMRLambda, cfg.Retrieve.DedupJaccard, analyzer.NewTokenizer())
	c.Service = usecase.NewSupportService(c.Index, c.Ingest, c.Orchestrator,
		cfg.Index.DataFolder, cfg.Index.Collection, cfg.Retrieve.TopK, log,
		usecase.WithReranker(reranker))

	log.Info(moduleBootstrap, "components ready", map[string]interface{}{
		"store":     cfg.Store.Backend,
		"embedder":  embedder.ModelName(),
		"llm_model": model.ModelName(),
		"tickets":   cfg.Tickets.Backend,
	})
	return c, nil
}

func newEmbedder(cfg config.EmbeddingConfig) (port.Embedder, error) {
	switch cfg.Provider {
	case "hashing":
		return embedding.NewHashingEmbedder(cfg.Dimension), nil
	case "openai":
		if cfg.BaseURL != "" {
			return embedding.NewOpenAICompatibleEmbedder(cfg.APIKeyEnv, cfg.Model, cfg.BaseURL)
		}
		return embedding.NewOpenAIEmbedder(cfg.APIKeyEnv, cfg.Model)
	case "ollama":
		return embedding.NewOllamaEmbedder(cfg.Model, cfg.BaseURL), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
}

func (c *Container) openVectorStore(ctx context.Context, embedder port.Embedder) (port.VectorStore, error) {
	cfg := c.Config
	switch cfg.Store.Backend {
	case "memory":
		return store.NewMemoryVectorStore(), nil

	case "postgres":
		db, err := store.OpenPostgres(cfg.Store.DatabaseURL)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, sqlDB.Close)
		return store.NewPgVectorStore(db, cfg.Index.Collection), nil

	default:
		if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create index directory: %w", err)
		}
		db, err := store.OpenBolt(cfg.Store.Path)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, db.Close)

		bs, err := store.NewBoltVectorStore(db, cfg.Index.Collection)
		if err != nil {
			return nil, err
		}
		fp := store.NewFingerprint(embedder.ModelName(), embedder.Dimension(), cfg.Index.ChunkSize, cfg.Index.ChunkOverlap)
		cleared, reason, err := bs.EnsureFingerprint(ctx, fp)
		if err != nil {
			return nil, err
		}
		if cleared {
			c.Log.Warn(moduleBootstrap, "index cleared, re-ingestion required", map[string]interface{}{
				"reason": reason,
				"path":   cfg.Store.Path,
			})
		}
		return bs, nil
	}
}

func (c *Container) openTickets() (port.TicketStore, error) {
	if c.Config.Tickets.Backend != "sqlite" {
		return ticket.NewMemoryStore(ticket.SampleTickets()), nil
	}
	path := c.Config.Tickets.Path
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create ticket directory: %w", err)
	}
	st, err := ticket.NewSQLiteStore(path, ticket.SampleTickets())
	if err != nil {
		return nil, err
	}
	c.closers = append(c.closers, st.Close)
	return st, nil
}

// Close releases databases in reverse opening order.
func (c *Container) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	if c.Log != nil {
		_ = c.Log.Sync()
	}
	return errors.Join(errs...)
}
