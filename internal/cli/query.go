package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"supportagent/internal/domain"
)

var (
	queryText    string
	queryTopK    int
	queryJSON    bool
	querySource  string
	queryDiverse bool
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Search the knowledge base",
	Long: `Search the knowledge base by semantic similarity.

Examples:
  supportagent query -q "reset password"
  supportagent query -q "refund policy" -k 10 --json
  supportagent query -q "shipping" --source faq.pdf
  supportagent query -q "warranty" --diverse`,
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVarP(&queryText, "query", "q", "", "search query (required)")
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "number of results (default from config)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output as JSON")
	queryCmd.Flags().StringVar(&querySource, "source", "", "only search chunks from this file")
	queryCmd.Flags().BoolVar(&queryDiverse, "diverse", false, "drop near-duplicate chunks with MMR reranking")
	queryCmd.MarkFlagRequired("query")
}

type queryResult struct {
	Source     string  `json:"source"`
	Page       int     `json:"page"`
	Similarity float64 `json:"similarity"`
	Relevance  string  `json:"relevance"`
	Text       string  `json:"text"`
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	c, err := openContainer(ctx, false)
	if err != nil {
		return err
	}
	defer c.Close()

	var filter *domain.Filter
	if querySource != "" {
		filter = &domain.Filter{Source: querySource}
	}
	var hits []domain.SearchResult
	if queryDiverse {
		hits = c.Service.SearchDiverse(ctx, queryText, queryTopK, filter)
	} else {
		hits = c.Service.SearchFiltered(ctx, queryText, queryTopK, filter)
	}

	results := make([]queryResult, 0, len(hits))
	for _, h := range hits {
		results = append(results, queryResult{
			Source:     h.Metadata.Source,
			Page:       h.Metadata.Page,
			Similarity: h.Similarity,
			Relevance:  domain.RelevanceOf(h.Similarity),
			Text:       h.Text,
		})
	}

	if queryJSON {
		output, _ := json.MarshalIndent(results, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}
	fmt.Printf("Found %d results for: %s\n\n", len(results), queryText)
	for i, r := range results {
		fmt.Printf("--- [%d] %s (page %d) %s, %s ---\n", i+1, r.Source, r.Page,
			domain.FormatSimilarity(r.Similarity), r.Relevance)
		text := []rune(r.Text)
		if len(text) > 500 {
			fmt.Println(string(text[:500]) + "...")
		} else {
			fmt.Println(r.Text)
		}
		fmt.Println()
	}
	return nil
}
