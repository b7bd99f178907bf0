package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"
)

// CurrentSchemaVersion is bumped on breaking changes to the stored entry
// format.
const CurrentSchemaVersion = 1

// Fingerprint captures everything that makes stored vectors comparable with
// new queries. A change means the collection has to be rebuilt.
type Fingerprint struct {
	SchemaVersion  int    `json:"schema_version"`
	EmbeddingModel string `json:"embedding_model"`
	Dimension      int    `json:"dimension"`
	ChunkSize      int    `json:"chunk_size"`
	ChunkOverlap   int    `json:"chunk_overlap"`
}

func NewFingerprint(model string, dimension, chunkSize, overlap int) Fingerprint {
	return Fingerprint{
		SchemaVersion:  CurrentSchemaVersion,
		EmbeddingModel: model,
		Dimension:      dimension,
		ChunkSize:      chunkSize,
		ChunkOverlap:   overlap,
	}
}

func (f Fingerprint) Hash() string {
	data, _ := json.Marshal(f)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8])
}

func (s *BoltVectorStore) fingerprintKey() []byte {
	return append([]byte("fingerprint:"), s.collection...)
}

// StoredFingerprint returns the hash recorded for the collection, or "" if
// none was recorded yet.
func (s *BoltVectorStore) StoredFingerprint() (string, error) {
	var hash string
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketMeta)
		if b == nil {
			return nil
		}
		hash = string(b.Get(s.fingerprintKey()))
		return nil
	})
	return hash, err
}

// EnsureFingerprint compares fp with the recorded fingerprint. On mismatch
// the collection is cleared. The new fingerprint is recorded either way.
// It reports whether the collection was cleared and why.
func (s *BoltVectorStore) EnsureFingerprint(ctx context.Context, fp Fingerprint) (bool, string, error) {
	old, err := s.StoredFingerprint()
	if err != nil {
		return false, "", fmt.Errorf("failed to read fingerprint: %w", err)
	}

	newHash := fp.Hash()
	cleared, reason := false, ""
	if old != "" && old != newHash {
		if err := s.DeleteCollection(ctx); err != nil {
			return false, "", fmt.Errorf("failed to clear stale collection: %w", err)
		}
		cleared, reason = true, "index configuration changed"
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketMeta)
		if err != nil {
			return err
		}
		return b.Put(s.fingerprintKey(), []byte(newHash))
	})
	if err != nil {
		return cleared, reason, fmt.Errorf("failed to record fingerprint: %w", err)
	}
	return cleared, reason, nil
}
