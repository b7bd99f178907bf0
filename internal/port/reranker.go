package port

import "supportagent/internal/domain"

// DiversityReranker reorders search candidates, keeping at most k.
type DiversityReranker interface {
	Rerank(candidates []domain.SearchResult, k int) []domain.SearchResult
}
