package usecase

import (
	"context"
	"strings"

	"supportagent/internal/domain"
	"supportagent/internal/logger"
	"supportagent/internal/port"
)

const (
	StatusSuccess = "success"
	StatusReady   = "ready"
	StatusEmpty   = "empty"
	StatusError   = "error"
)

// InitResult reports an index (re)build.
type InitResult struct {
	Status         string   `json:"status"`
	DocsLoaded     int      `json:"documents_loaded"`
	DocsChunked    int      `json:"documents_chunked"`
	CollectionSize int      `json:"collection_size"`
	FilesFailed    int      `json:"files_failed"`
	Errors         []string `json:"errors,omitempty"`
}

type CollectionInfo struct {
	Name           string `json:"collection_name"`
	DocumentCount  int    `json:"document_count"`
	Status         string `json:"status"`
	EmbeddingModel string `json:"embedding_model"`
}

// SupportService is the entry point used by the HTTP API and the CLI.
type SupportService struct {
	index        *KnowledgeIndex
	ingest       *IngestUseCase
	orchestrator *Orchestrator
	reranker     port.DiversityReranker
	dataFolder   string
	collection   string
	topK         int
	log          logger.ILogger
}

type ServiceOption func(*SupportService)

// WithReranker enables SearchDiverse.
func WithReranker(r port.DiversityReranker) ServiceOption {
	return func(s *SupportService) { s.reranker = r }
}

func NewSupportService(
	index *KnowledgeIndex,
	ingest *IngestUseCase,
	orchestrator *Orchestrator,
	dataFolder, collection string,
	topK int,
	log logger.ILogger,
	opts ...ServiceOption,
) *SupportService {
	if topK <= 0 {
		topK = 5
	}
	s := &SupportService{
		index:        index,
		ingest:       ingest,
		orchestrator: orchestrator,
		dataFolder:   dataFolder,
		collection:   collection,
		topK:         topK,
		log:          log,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// InitializeIndex ingests the data folder, optionally clearing the
// collection first.
func (s *SupportService) InitializeIndex(ctx context.Context, clearExisting bool, progress ProgressFunc) (*InitResult, error) {
	if clearExisting {
		if err := s.index.Clear(ctx); err != nil {
			return nil, err
		}
	}

	res, err := s.ingest.IngestDir(ctx, s.dataFolder, progress)
	if err != nil {
		return nil, err
	}

	size, err := s.index.Count(ctx)
	if err != nil {
		return nil, err
	}

	return &InitResult{
		Status:         StatusSuccess,
		DocsLoaded:     res.DocumentsLoaded,
		DocsChunked:    res.ChunksCreated,
		CollectionSize: size,
		FilesFailed:    res.FilesFailed,
		Errors:         res.Errors,
	}, nil
}

// Search queries the knowledge base. k <= 0 uses the configured default.
func (s *SupportService) Search(ctx context.Context, query string, k int) []domain.SearchResult {
	if k <= 0 {
		k = s.topK
	}
	return s.index.Search(ctx, query, k, nil)
}

// SearchFiltered is Search restricted by metadata.
func (s *SupportService) SearchFiltered(ctx context.Context, query string, k int, filter *domain.Filter) []domain.SearchResult {
	if k <= 0 {
		k = s.topK
	}
	return s.index.Search(ctx, query, k, filter)
}

// SearchDiverse over-fetches candidates and lets the reranker drop
// near-duplicate chunks. Without a reranker it is SearchFiltered.
func (s *SupportService) SearchDiverse(ctx context.Context, query string, k int, filter *domain.Filter) []domain.SearchResult {
	if k <= 0 {
		k = s.topK
	}
	if s.reranker == nil {
		return s.index.Search(ctx, query, k, filter)
	}
	candidates := s.index.Search(ctx, query, k*3, filter)
	if out := s.reranker.Rerank(candidates, k); out != nil {
		return out
	}
	return []domain.SearchResult{}
}

func (s *SupportService) ProcessMessage(ctx context.Context, text, sessionID, ticketID string) domain.Reply {
	return s.orchestrator.Process(ctx, strings.TrimSpace(text), sessionID, strings.TrimSpace(ticketID))
}

func (s *SupportService) ClearHistory(sessionID string) bool {
	return s.orchestrator.ClearHistory(sessionID)
}

func (s *SupportService) History(sessionID string) ([]domain.Turn, bool) {
	return s.orchestrator.History(sessionID)
}

func (s *SupportService) ActiveSessions() int {
	return s.orchestrator.ActiveSessions()
}

// ClearIndex drops every indexed chunk.
func (s *SupportService) ClearIndex(ctx context.Context) error {
	return s.index.Clear(ctx)
}

// CollectionInfo never fails; a store error is reported as status "error".
func (s *SupportService) CollectionInfo(ctx context.Context) CollectionInfo {
	info := CollectionInfo{
		Name:           s.collection,
		EmbeddingModel: s.index.EmbeddingModel(),
	}

	count, err := s.index.Count(ctx)
	switch {
	case err != nil:
		s.log.Warn(moduleIndex, "collection count failed", map[string]interface{}{"error": err})
		info.Status = StatusError
	case count == 0:
		info.Status = StatusEmpty
	default:
		info.Status = StatusReady
	}
	info.DocumentCount = count
	return info
}
