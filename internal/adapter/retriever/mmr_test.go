package retriever

import (
	"testing"

	"supportagent/internal/adapter/analyzer"
	"supportagent/internal/domain"
)

func result(text string, similarity float64) domain.SearchResult {
	return domain.SearchResult{Text: text, Similarity: similarity}
}

func TestMMRReranking(t *testing.T) {
	reranker := NewMMRReranker(0.7, 0.9, analyzer.NewTokenizer())

	candidates := []domain.SearchResult{
		result("auth login user password", 1.0),
		result("auth login user session", 0.9),
		result("database query sql connection", 0.8),
		result("auth jwt token oauth", 0.7),
	}

	results := reranker.Rerank(candidates, 3)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	if results[0].Text != candidates[0].Text {
		t.Errorf("expected the most relevant result first, got %q", results[0].Text)
	}

	c2Idx, c3Idx := -1, -1
	for i, r := range results {
		switch r.Text {
		case candidates[1].Text:
			c2Idx = i
		case candidates[2].Text:
			c3Idx = i
		}
	}
	if c3Idx == -1 || (c2Idx != -1 && c2Idx < c3Idx) {
		t.Error("expected the unrelated passage to rank above the near-duplicate")
	}
}

func TestMMRDeduplication(t *testing.T) {
	reranker := NewMMRReranker(0.5, 0.3, analyzer.NewTokenizer())

	candidates := []domain.SearchResult{
		{Text: "refund within thirty days", Similarity: 1.0, Metadata: domain.Metadata{ChunkIndex: 0}},
		{Text: "refund within thirty days", Similarity: 0.9, Metadata: domain.Metadata{ChunkIndex: 1}},
	}

	results := reranker.Rerank(candidates, 2)
	if len(results) != 1 {
		t.Fatalf("expected 1 result after dedup, got %d", len(results))
	}
	if results[0].Metadata.ChunkIndex != 0 {
		t.Errorf("expected the higher scored chunk, got chunk %d", results[0].Metadata.ChunkIndex)
	}
}

func TestMMREmptyCandidates(t *testing.T) {
	reranker := NewMMRReranker(0.7, 0.8, analyzer.NewTokenizer())

	if results := reranker.Rerank(nil, 10); results != nil {
		t.Errorf("expected nil for empty candidates, got %v", results)
	}
	if results := reranker.Rerank([]domain.SearchResult{result("x", 1)}, 0); results != nil {
		t.Errorf("expected nil for k=0, got %v", results)
	}
}

func TestJaccardSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a        []string
		b        []string
		expected float64
	}{
		{"identical", []string{"a", "b", "c"}, []string{"a", "b", "c"}, 1.0},
		{"no overlap", []string{"a", "b", "c"}, []string{"d", "e", "f"}, 0.0},
		{"half overlap", []string{"a", "b"}, []string{"b", "c"}, 1.0 / 3.0},
		{"empty a", []string{}, []string{"a", "b"}, 0.0},
		{"empty b", []string{"a", "b"}, []string{}, 0.0},
		{"both empty", []string{}, []string{}, 1.0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := jaccardSimilarity(tc.a, tc.b)
			if !floatEquals(result, tc.expected, 0.001) {
				t.Errorf("jaccardSimilarity(%v, %v) = %f, expected %f", tc.a, tc.b, result, tc.expected)
			}
		})
	}
}

func floatEquals(a, b, tolerance float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < tolerance
}
