package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"go.etcd.io/bbolt"

	"supportagent/internal/domain"
	"supportagent/internal/port"
)

var bucketMeta = []byte("meta")

// BoltVectorStore persists one named collection in a bbolt bucket and keeps
// a copy in memory for brute-force search.
type BoltVectorStore struct {
	db         *bbolt.DB
	collection []byte
	mu         sync.RWMutex
	records    []record
	byID       map[string]int
	dimension  int
}

var _ port.VectorStore = (*BoltVectorStore)(nil)

type storedEntry struct {
	Vector   []float32       `json:"v"`
	Text     string          `json:"text"`
	Metadata domain.Metadata `json:"meta"`
	Seq      uint64          `json:"seq"`
}

// OpenBolt opens (creating if needed) the database file at path.
func OpenBolt(path string) (*bbolt.DB, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}
	return db, nil
}

func NewBoltVectorStore(db *bbolt.DB, collection string) (*BoltVectorStore, error) {
	if collection == "" || collection == string(bucketMeta) {
		return nil, fmt.Errorf("invalid collection name %q", collection)
	}

	err := db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(collection)); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(bucketMeta)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create collection bucket: %w", err)
	}

	s := &BoltVectorStore{
		db:         db,
		collection: []byte(collection),
		byID:       make(map[string]int),
	}
	if err := s.load(); err != nil {
		return nil, fmt.Errorf("failed to load vectors: %w", err)
	}
	return s, nil
}

func (s *BoltVectorStore) Collection() string {
	return string(s.collection)
}

func (s *BoltVectorStore) load() error {
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(s.collection)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var stored storedEntry
			if err := json.Unmarshal(v, &stored); err != nil {
				return nil // skip corrupted entries
			}
			s.records = append(s.records, record{
				entry: domain.IndexEntry{
					ID:       string(k),
					Vector:   stored.Vector,
					Text:     stored.Text,
					Metadata: stored.Metadata,
				},
				seq: stored.Seq,
			})
			return nil
		})
	})
	if err != nil {
		return err
	}

	// Keys iterate in byte order; restore insertion order.
	sort.Slice(s.records, func(i, j int) bool { return s.records[i].seq < s.records[j].seq })
	for i, r := range s.records {
		s.byID[r.entry.ID] = i
		if s.dimension == 0 {
			s.dimension = len(r.entry.Vector)
		}
	}
	return nil
}

// Add upserts entries. An existing ID keeps its sequence number.
func (s *BoltVectorStore) Add(ctx context.Context, entries []domain.IndexEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dim, err := checkDimension(entries, s.dimension)
	if err != nil {
		return err
	}

	pending := make([]record, 0, len(entries))
	err = s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(s.collection)
		if b == nil {
			return fmt.Errorf("collection bucket %s not found", s.collection)
		}

		seen := make(map[string]uint64)
		for _, e := range entries {
			seq, ok := seen[e.ID]
			if !ok {
				if i, exists := s.byID[e.ID]; exists {
					seq = s.records[i].seq
				} else {
					next, err := b.NextSequence()
					if err != nil {
						return err
					}
					seq = next
				}
				seen[e.ID] = seq
			}

			data, err := json.Marshal(storedEntry{
				Vector:   e.Vector,
				Text:     e.Text,
				Metadata: e.Metadata,
				Seq:      seq,
			})
			if err != nil {
				return err
			}
			if err := b.Put([]byte(e.ID), data); err != nil {
				return err
			}
			pending = append(pending, record{entry: e, seq: seq})
		}
		return nil
	})
	if err != nil {
		return err
	}

	// Only touch the cache once the transaction committed.
	s.dimension = dim
	for _, r := range pending {
		if i, ok := s.byID[r.entry.ID]; ok {
			s.records[i] = r
			continue
		}
		s.byID[r.entry.ID] = len(s.records)
		s.records = append(s.records, r)
	}
	return nil
}

func (s *BoltVectorStore) SimilaritySearch(ctx context.Context, query []float32, k int, filter *domain.Filter) ([]port.VectorMatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.dimension != 0 && len(query) != s.dimension {
		return nil, errDimension(s.dimension, len(query))
	}
	return rank(s.records, query, k, filter), nil
}

func (s *BoltVectorStore) GetAllIDs(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, len(s.records))
	for i, r := range s.records {
		ids[i] = r.entry.ID
	}
	return ids, nil
}

// DeleteCollection drops and recreates the collection bucket, which also
// resets its sequence.
func (s *BoltVectorStore) DeleteCollection(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.db.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket(s.collection) != nil {
			if err := tx.DeleteBucket(s.collection); err != nil {
				return err
			}
		}
		_, err := tx.CreateBucket(s.collection)
		return err
	})
	if err != nil {
		return err
	}

	s.records = nil
	s.byID = make(map[string]int)
	s.dimension = 0
	return nil
}
