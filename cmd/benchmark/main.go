package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"cmsrag/config"
	"cmsrag/internal/adapter/embedding"
	"cmsrag/internal/adapter/retriever"
	"cmsrag/internal/adapter/store"
	"cmsrag/internal/port"
)

func main() {
	baseDir := flag.String("dir", ".", "Directory holding cmsrag.yaml")
	query := flag.String("q", "", "Query to test")
	topK := flag.Int("k", 10, "Number of results")
	flag.Parse()

	if *query == "" {
		fmt.Println("Usage: go run ./cmd/benchmark -dir . -q \"query\"")
		fmt.Println("\nReports how closely the indexed passages match a query:")
		fmt.Println("  1. Embedding setup (model, dimension, index size)")
		fmt.Println("  2. Similarity of each retrieved passage")
		fmt.Println("  3. Average and top-1 similarity")
		os.Exit(1)
	}

	cfg, err := config.LoadFromDir(*baseDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	idx, err := store.Open(config.ResolvePath(*baseDir, cfg.Index.Dir))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening index: %v\n", err)
		os.Exit(1)
	}

	embedder, err := setupEmbedder(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Embedder init failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("RETRIEVAL BENCHMARK")
	fmt.Println(strings.Repeat("=", 70))

	info := idx.Info()
	fmt.Printf("Chunks indexed: %d\n", idx.Count())
	fmt.Printf("Index model: %s (%d dimensions)\n", info.EmbeddingModel, info.Dimension)
	fmt.Printf("Query model: %s\n", embedder.ModelName())
	fmt.Println()

	fmt.Printf("Query: \"%s\"\n", *query)
	fmt.Println(strings.Repeat("-", 70))

	r := retriever.NewSemanticRetriever(idx, embedder, retriever.Options{
		AllowModelMismatch: cfg.Retrieve.AllowModelMismatch,
	})

	start := time.Now()
	results, err := r.Retrieve(context.Background(), *query, *topK)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Retrieved %d passages in %s\n\n", len(results), time.Since(start).Round(time.Millisecond))
	if len(results) == 0 {
		fmt.Println("No passages found.")
		return
	}

	totalScore := 0.0
	for i, sc := range results {
		preview := []rune(strings.ReplaceAll(sc.Chunk.Text, "\n", " "))
		if len(preview) > 150 {
			preview = append(preview[:150], []rune("...")...)
		}

		totalScore += sc.Score
		fmt.Printf("%d. [%s %.3f] %s p.%d\n", i+1, rating(sc.Score), sc.Score, sc.Chunk.Metadata.FileName, sc.Chunk.Metadata.Page)
		fmt.Printf("   %s\n\n", string(preview))
	}

	avgScore := totalScore / float64(len(results))
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("QUALITY METRICS:\n")
	fmt.Printf("  Average similarity: %.3f\n", avgScore)
	fmt.Printf("  Top-1 similarity:   %.3f\n", results[0].Score)

	switch {
	case avgScore > 0.5:
		fmt.Println("  Status: GOOD - passages closely match the query")
	case avgScore > 0.3:
		fmt.Println("  Status: OK - passages are somewhat related")
	default:
		fmt.Println("  Status: POOR - the report may not cover this, or the index needs rebuilding")
	}
}

func rating(score float64) string {
	switch {
	case score > 0.7:
		return "HIGH"
	case score > 0.5:
		return "GOOD"
	case score > 0.3:
		return "OK"
	}
	return "LOW"
}

func setupEmbedder(cfg *config.Config) (port.Embedder, error) {
	switch cfg.Embedding.Provider {
	case "openai", "":
		timeout := time.Duration(cfg.Embedding.TimeoutSecs) * time.Second
		e, err := embedding.NewOpenAIEmbedder(cfg.Embedding.APIKeyEnv, cfg.Embedding.Model, cfg.Embedding.BaseURL, timeout)
		if err != nil {
			return nil, err
		}
		e.SetRateLimit(cfg.Embedding.RateLimit)
		return e, nil
	case "local":
		return embedding.NewHashingEmbedder(cfg.Embedding.Dimension), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Embedding.Provider)
	}
}
