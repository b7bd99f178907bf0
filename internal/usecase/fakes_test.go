package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"supportagent/internal/adapter/chunker"
	"supportagent/internal/adapter/embedding"
	"supportagent/internal/adapter/fs"
	"supportagent/internal/adapter/loader"
	"supportagent/internal/adapter/session"
	"supportagent/internal/adapter/store"
	"supportagent/internal/adapter/ticket"
	"supportagent/internal/domain"
	"supportagent/internal/logger"
	"supportagent/internal/port"
)

const passwordDoc = "Reset your password by clicking Forgot Password on the login page.\n\n" +
	"Our support team is available Monday through Friday from nine until five."

type chatFunc func(ctx context.Context, system string, turns []domain.Turn) (string, error)

// fakeLLM records every call and delegates the answer to fn.
type fakeLLM struct {
	mu      sync.Mutex
	fn      chatFunc
	systems []string
	calls   [][]domain.Turn
}

func (f *fakeLLM) Chat(ctx context.Context, system string, turns []domain.Turn) (string, error) {
	f.mu.Lock()
	f.systems = append(f.systems, system)
	f.calls = append(f.calls, append([]domain.Turn(nil), turns...))
	f.mu.Unlock()
	return f.fn(ctx, system, turns)
}

func (f *fakeLLM) ModelName() string { return "fake" }

func (f *fakeLLM) lastSystem() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.systems) == 0 {
		return ""
	}
	return f.systems[len(f.systems)-1]
}

func echoLLM() *fakeLLM {
	return &fakeLLM{fn: func(_ context.Context, _ string, turns []domain.Turn) (string, error) {
		return "re: " + turns[len(turns)-1].Content, nil
	}}
}

func failingLLM(err error) *fakeLLM {
	return &fakeLLM{fn: func(context.Context, string, []domain.Turn) (string, error) {
		return "", err
	}}
}

type brokenEmbedder struct{}

func (brokenEmbedder) Embed(context.Context, []string) ([][]float32, error) {
	return nil, errors.New("embedding service unavailable")
}
func (brokenEmbedder) Dimension() int    { return 8 }
func (brokenEmbedder) ModelName() string { return "broken" }

// readOnlyStore rejects writes and serves an empty collection.
type readOnlyStore struct{}

func (readOnlyStore) Add(context.Context, []domain.IndexEntry) error {
	return errors.New("disk full")
}
func (readOnlyStore) SimilaritySearch(context.Context, []float32, int, *domain.Filter) ([]port.VectorMatch, error) {
	return nil, nil
}
func (readOnlyStore) GetAllIDs(context.Context) ([]string, error) { return nil, nil }
func (readOnlyStore) DeleteCollection(context.Context) error      { return nil }

type brokenTickets struct{}

func (brokenTickets) Get(context.Context, string) (*domain.Ticket, error) {
	return nil, errors.New("connection reset")
}
func (brokenTickets) List(context.Context) ([]domain.Ticket, error) { return nil, nil }

type fixture struct {
	dir          string
	index        *KnowledgeIndex
	ingest       *IngestUseCase
	orchestrator *Orchestrator
	service      *SupportService
	llm          *fakeLLM
	sessions     *session.CacheStore
}

func newFixture(t *testing.T, llm *fakeLLM, cfg OrchestratorConfig) *fixture {
	t.Helper()

	log := logger.NewNopLogger()
	ch, err := chunker.NewRecursiveChunker(120, 20)
	require.NoError(t, err)

	index := NewKnowledgeIndex(embedding.NewHashingEmbedder(512), store.NewMemoryVectorStore(), log)
	ingest := NewIngestUseCase(fs.NewWalker(nil, nil), loader.NewRegistry(loader.NewTextLoader()), ch, index, log, nil)
	sessions := session.NewCacheStore(0)
	tickets := NewTicketContext(ticket.NewMemoryStore(ticket.SampleTickets()), log)
	orch := NewOrchestrator(index, tickets, llm, sessions, cfg, log, nil)

	dir := t.TempDir()
	return &fixture{
		dir:          dir,
		index:        index,
		ingest:       ingest,
		orchestrator: orch,
		service:      NewSupportService(index, ingest, orch, dir, "customer_support_kb", cfg.TopK, log),
		llm:          llm,
		sessions:     sessions,
	}
}

func (f *fixture) writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(f.dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func defaultConfig() OrchestratorConfig {
	return OrchestratorConfig{TopK: 5, MaxPairs: 25, LLMTimeout: time.Second}
}
