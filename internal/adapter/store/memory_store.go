package store

import (
	"context"
	"sync"

	"supportagent/internal/domain"
	"supportagent/internal/port"
)

// MemoryVectorStore keeps entries in process memory. Nothing survives a
// restart.
type MemoryVectorStore struct {
	mu        sync.RWMutex
	records   []record
	byID      map[string]int
	nextSeq   uint64
	dimension int
}

var _ port.VectorStore = (*MemoryVectorStore)(nil)

func NewMemoryVectorStore() *MemoryVectorStore {
	return &MemoryVectorStore{byID: make(map[string]int)}
}

func (s *MemoryVectorStore) Add(ctx context.Context, entries []domain.IndexEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dim, err := checkDimension(entries, s.dimension)
	if err != nil {
		return err
	}
	s.dimension = dim

	for _, e := range entries {
		if i, ok := s.byID[e.ID]; ok {
			s.records[i].entry = e
			continue
		}
		s.nextSeq++
		s.byID[e.ID] = len(s.records)
		s.records = append(s.records, record{entry: e, seq: s.nextSeq})
	}
	return nil
}

func (s *MemoryVectorStore) SimilaritySearch(ctx context.Context, query []float32, k int, filter *domain.Filter) ([]port.VectorMatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.dimension != 0 && len(query) != s.dimension {
		return nil, errDimension(s.dimension, len(query))
	}
	return rank(s.records, query, k, filter), nil
}

func (s *MemoryVectorStore) GetAllIDs(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, len(s.records))
	for i, r := range s.records {
		ids[i] = r.entry.ID
	}
	return ids, nil
}

func (s *MemoryVectorStore) DeleteCollection(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = nil
	s.byID = make(map[string]int)
	s.dimension = 0
	return nil
}
