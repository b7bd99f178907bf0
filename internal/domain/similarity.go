package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Relevance buckets used when presenting search hits.
const (
	RelevanceHigh   = "high"
	RelevanceMedium = "medium"
	RelevanceLow    = "low"
)

// ClampSimilarity forces v into [0,1]. NaN maps to 0.
func ClampSimilarity(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// SimilarityFromDistance converts a vector distance into a similarity score.
func SimilarityFromDistance(distance float64) float64 {
	return ClampSimilarity(1 - distance)
}

// ParseSimilarity normalizes a loosely typed score ("85%", "0.85", 0.85, 1.2)
// into [0,1]. Anything unparseable is 0.
func ParseSimilarity(v any) float64 {
	switch s := v.(type) {
	case float64:
		return ClampSimilarity(s)
	case float32:
		return ClampSimilarity(float64(s))
	case int:
		return ClampSimilarity(float64(s))
	case int64:
		return ClampSimilarity(float64(s))
	case string:
		str := strings.TrimSpace(s)
		percent := strings.HasSuffix(str, "%")
		str = strings.TrimSuffix(str, "%")
		f, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
		if err != nil {
			return 0
		}
		if percent {
			f /= 100
		}
		return ClampSimilarity(f)
	default:
		return 0
	}
}

// FormatSimilarity renders a score as a percentage with one decimal.
func FormatSimilarity(v float64) string {
	return fmt.Sprintf("%.1f%%", ClampSimilarity(v)*100)
}

func RelevanceOf(v float64) string {
	switch {
	case v >= 0.7:
		return RelevanceHigh
	case v >= 0.4:
		return RelevanceMedium
	default:
		return RelevanceLow
	}
}
