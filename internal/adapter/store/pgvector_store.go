package store

import (
	"context"
	"fmt"

	"github.com/pgvector/pgvector-go"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"supportagent/internal/domain"
	"supportagent/internal/port"
)

// KBEmbedding is one chunk row in Postgres. Seq records insertion order and
// is left untouched by upserts.
type KBEmbedding struct {
	Collection string          `gorm:"primaryKey;type:varchar(128)"`
	ID         string          `gorm:"primaryKey;type:varchar(64)"`
	Seq        int64           `gorm:"autoIncrement;not null;index"`
	Source     string          `gorm:"type:text;index"`
	Page       int             `gorm:"default:0"`
	ChunkIndex int             `gorm:"default:0"`
	Document   string          `gorm:"type:text"`
	Embedding  pgvector.Vector `gorm:"type:vector"`
}

func (KBEmbedding) TableName() string {
	return "kb_embeddings"
}

// PgVectorStore keeps a collection in Postgres with the pgvector extension
// and lets the database rank by cosine distance.
type PgVectorStore struct {
	db         *gorm.DB
	collection string
}

var _ port.VectorStore = (*PgVectorStore)(nil)

// OpenPostgres connects with gorm and prepares the pgvector schema.
func OpenPostgres(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return nil, fmt.Errorf("failed to enable pgvector: %w", err)
	}
	if err := db.AutoMigrate(&KBEmbedding{}); err != nil {
		return nil, fmt.Errorf("failed to migrate kb_embeddings: %w", err)
	}
	return db, nil
}

func NewPgVectorStore(db *gorm.DB, collection string) *PgVectorStore {
	return &PgVectorStore{db: db, collection: collection}
}

func (s *PgVectorStore) Add(ctx context.Context, entries []domain.IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}
	existing, err := s.dimension(ctx)
	if err != nil {
		return err
	}
	if _, err := checkDimension(entries, existing); err != nil {
		return err
	}

	// Postgres rejects duplicate keys within one upsert statement.
	rows := make([]KBEmbedding, 0, len(entries))
	pos := make(map[string]int, len(entries))
	for _, e := range entries {
		row := KBEmbedding{
			Collection: s.collection,
			ID:         e.ID,
			Source:     e.Metadata.Source,
			Page:       e.Metadata.Page,
			ChunkIndex: e.Metadata.ChunkIndex,
			Document:   e.Text,
			Embedding:  pgvector.NewVector(e.Vector),
		}
		if i, ok := pos[e.ID]; ok {
			rows[i] = row
			continue
		}
		pos[e.ID] = len(rows)
		rows = append(rows, row)
	}

	return s.db.WithContext(ctx).
		Omit("Seq").
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "collection"}, {Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"source", "page", "chunk_index", "document", "embedding"}),
		}).
		CreateInBatches(rows, 100).Error
}

// dimension returns the vector size already stored in the collection, or 0.
func (s *PgVectorStore) dimension(ctx context.Context) (int, error) {
	var dims []int
	err := s.db.WithContext(ctx).
		Model(&KBEmbedding{}).
		Where("collection = ?", s.collection).
		Limit(1).
		Pluck("vector_dims(embedding)", &dims).Error
	if err != nil || len(dims) == 0 {
		return 0, err
	}
	return dims[0], nil
}

func (s *PgVectorStore) SimilaritySearch(ctx context.Context, query []float32, k int, filter *domain.Filter) ([]port.VectorMatch, error) {
	if k <= 0 {
		return nil, nil
	}

	type scoredRow struct {
		KBEmbedding
		Distance float64
	}
	var rows []scoredRow

	queryVector := pgvector.NewVector(query)
	q := s.db.WithContext(ctx).
		Table(KBEmbedding{}.TableName()).
		Select("*, (embedding <=> ?) AS distance", queryVector).
		Where("collection = ?", s.collection)
	if filter != nil {
		if filter.Source != "" {
			q = q.Where("source = ?", filter.Source)
		}
		if filter.Page != 0 {
			q = q.Where("page = ?", filter.Page)
		}
	}

	err := q.Order("distance ASC").Order("seq ASC").Limit(k).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	matches := make([]port.VectorMatch, len(rows))
	for i, r := range rows {
		matches[i] = port.VectorMatch{
			ID:   r.ID,
			Text: r.Document,
			Metadata: domain.Metadata{
				Source:     r.Source,
				Page:       r.Page,
				ChunkIndex: r.ChunkIndex,
			},
			// NaN for zero vectors; the index clamps it.
			Distance: r.Distance,
		}
	}
	return matches, nil
}

func (s *PgVectorStore) GetAllIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).
		Model(&KBEmbedding{}).
		Where("collection = ?", s.collection).
		Order("seq ASC").
		Pluck("id", &ids).Error
	return ids, err
}

func (s *PgVectorStore) DeleteCollection(ctx context.Context) error {
	return s.db.WithContext(ctx).
		Where("collection = ?", s.collection).
		Delete(&KBEmbedding{}).Error
}
