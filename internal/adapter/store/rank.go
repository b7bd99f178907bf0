package store

import (
	"math"
	"sort"

	"supportagent/internal/domain"
	"supportagent/internal/port"
)

// record is an entry plus its insertion sequence, shared by the in-process
// stores.
type record struct {
	entry domain.IndexEntry
	seq   uint64
}

// rank scores records by cosine distance to query and returns the top k,
// ties broken by insertion sequence.
func rank(records []record, query []float32, k int, filter *domain.Filter) []port.VectorMatch {
	if k <= 0 {
		return nil
	}

	type scored struct {
		rec  record
		dist float64
	}
	scores := make([]scored, 0, len(records))
	for _, r := range records {
		if !filter.Matches(r.entry.Metadata) {
			continue
		}
		scores = append(scores, scored{rec: r, dist: cosineDistance(query, r.entry.Vector)})
	}

	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].dist != scores[j].dist {
			return scores[i].dist < scores[j].dist
		}
		return scores[i].rec.seq < scores[j].rec.seq
	})

	if k > len(scores) {
		k = len(scores)
	}
	matches := make([]port.VectorMatch, k)
	for i := 0; i < k; i++ {
		e := scores[i].rec.entry
		matches[i] = port.VectorMatch{
			ID:       e.ID,
			Text:     e.Text,
			Metadata: e.Metadata,
			Distance: scores[i].dist,
		}
	}
	return matches
}

// cosineDistance is 1 - cosine similarity. Zero or mismatched vectors are at
// distance 1.
func cosineDistance(a, b []float32) float64 {
	if len(a) != len(b) {
		return 1
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}

func checkDimension(entries []domain.IndexEntry, want int) (int, error) {
	for _, e := range entries {
		if len(e.Vector) == 0 {
			return want, errEmptyVector(e.ID)
		}
		if want == 0 {
			want = len(e.Vector)
		}
		if len(e.Vector) != want {
			return want, errDimension(want, len(e.Vector))
		}
	}
	return want, nil
}
