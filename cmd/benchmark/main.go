package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"

	"supportagent/config"
	"supportagent/internal/bootstrap"
	"supportagent/internal/logger"
)

func main() {
	dir := flag.String("dir", ".", "Directory holding support.yaml")
	query := flag.String("q", "", "Query to test")
	topK := flag.Int("k", 10, "Number of results")
	diverse := flag.Bool("diverse", false, "Rerank with MMR")
	flag.Parse()

	if *query == "" {
		fmt.Println("Usage: go run cmd/benchmark/main.go -dir . -q \"query\"")
		fmt.Println("\nTests:")
		fmt.Println("  1. Embedding infrastructure (embedder, vector store)")
		fmt.Println("  2. Retrieval quality (query vs knowledge base chunks)")
		os.Exit(1)
	}

	cfg, err := config.LoadFromDir(*dir)
	if err != nil {
		color.Red("Error loading config: %v", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log := logger.NewZapLogger(logger.Options{Level: "error"})
	c, err := bootstrap.NewContainer(ctx, cfg, log)
	if err != nil {
		color.Red("Error opening index: %v", err)
		os.Exit(1)
	}
	defer c.Close()

	count, err := c.Index.Count(ctx)
	if err != nil {
		color.Red("Error counting chunks: %v", err)
		os.Exit(1)
	}
	if count == 0 {
		color.Red("Knowledge base is empty - run 'supportagent ingest' first")
		os.Exit(1)
	}

	color.Cyan("RETRIEVAL BENCHMARK")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Chunks indexed: %d\n", count)
	fmt.Printf("Model: %s (%s)\n", c.Index.EmbeddingModel(), cfg.Embedding.Provider)
	fmt.Printf("Store: %s\n", cfg.Store.Backend)
	fmt.Println()

	fmt.Printf("Query: \"%s\"\n", *query)
	fmt.Println(strings.Repeat("-", 70))

	results := c.Service.SearchFiltered(ctx, *query, *topK, nil)
	if *diverse {
		results = c.Service.SearchDiverse(ctx, *query, *topK, nil)
	}
	if len(results) == 0 {
		fmt.Println("No matches.")
		os.Exit(1)
	}

	fmt.Printf("Top %d matches:\n\n", len(results))

	totalScore := 0.0
	for i, r := range results {
		preview := []rune(r.Text)
		if len(preview) > 150 {
			preview = append(preview[:150], []rune("...")...)
		}
		text := strings.ReplaceAll(string(preview), "\n", " ")

		similarity := r.Similarity
		totalScore += similarity

		rating, paint := "LOW", color.RedString
		if similarity > 0.7 {
			rating, paint = "HIGH", color.GreenString
		} else if similarity > 0.5 {
			rating, paint = "GOOD", color.CyanString
		} else if similarity > 0.3 {
			rating, paint = "OK", color.YellowString
		}

		fmt.Printf("%d. %s %s p.%d\n", i+1, paint("[%s %.3f]", rating, similarity), filepath.Base(r.Metadata.Source), r.Metadata.Page)
		fmt.Printf("   %s\n\n", text)
	}

	avgScore := totalScore / float64(len(results))
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("QUALITY METRICS:\n")
	fmt.Printf("  Average similarity: %.3f\n", avgScore)
	fmt.Printf("  Top-1 similarity:   %.3f\n", results[0].Similarity)

	if avgScore > 0.5 {
		color.Green("  Status: GOOD - retrieval working well")
	} else if avgScore > 0.3 {
		color.Yellow("  Status: OK - results are somewhat related")
	} else {
		color.Red("  Status: POOR - may need better embeddings or re-ingestion")
	}
}
