package retriever

import (
	"supportagent/internal/domain"
	"supportagent/internal/port"
)

// MMRReranker diversifies search results with Maximal Marginal Relevance.
type MMRReranker struct {
	lambda       float64
	dedupJaccard float64
	tokenizer    port.Tokenizer
}

// NewMMRReranker creates a new MMR reranker. Results whose term overlap
// with an already selected result exceeds dedupJaccard are dropped.
func NewMMRReranker(lambda, dedupJaccard float64, tokenizer port.Tokenizer) *MMRReranker {
	return &MMRReranker{
		lambda:       lambda,
		dedupJaccard: dedupJaccard,
		tokenizer:    tokenizer,
	}
}

// Rerank picks up to k results from candidates.
// MMR(c) = λ * relevance(c) - (1-λ) * max_similarity(c, selected)
func (r *MMRReranker) Rerank(candidates []domain.SearchResult, k int) []domain.SearchResult {
	if len(candidates) == 0 || k <= 0 {
		return nil
	}
	if k > len(candidates) {
		k = len(candidates)
	}

	maxScore := candidates[0].Similarity
	for _, c := range candidates {
		if c.Similarity > maxScore {
			maxScore = c.Similarity
		}
	}
	if maxScore == 0 {
		maxScore = 1
	}

	type candidate struct {
		result domain.SearchResult
		tokens []string
	}
	remaining := make([]candidate, len(candidates))
	for i, c := range candidates {
		remaining[i] = candidate{result: c, tokens: r.tokenizer.Tokenize(c.Text)}
	}

	selected := make([]candidate, 0, k)
	for len(selected) < k && len(remaining) > 0 {
		bestIdx := -1
		bestMMR := -1e9

		for i, c := range remaining {
			relevance := c.result.Similarity / maxScore

			maxSim := 0.0
			for _, sel := range selected {
				if sim := jaccardSimilarity(c.tokens, sel.tokens); sim > maxSim {
					maxSim = sim
				}
			}
			if maxSim > r.dedupJaccard {
				continue
			}

			if mmr := r.lambda*relevance - (1-r.lambda)*maxSim; mmr > bestMMR {
				bestMMR = mmr
				bestIdx = i
			}
		}

		if bestIdx == -1 {
			// everything left duplicates a selected result
			break
		}

		selected = append(selected, remaining[bestIdx])
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}

	out := make([]domain.SearchResult, len(selected))
	for i, s := range selected {
		out[i] = s.result
	}
	return out
}

// jaccardSimilarity computes the Jaccard similarity between two token sets.
func jaccardSimilarity(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	setA := make(map[string]struct{}, len(a))
	for _, t := range a {
		setA[t] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, t := range b {
		setB[t] = struct{}{}
	}

	intersection := 0
	for t := range setA {
		if _, exists := setB[t]; exists {
			intersection++
		}
	}

	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}
