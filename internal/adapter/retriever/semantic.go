package retriever

import (
	"context"
	"fmt"

	"cmsrag/internal/domain"
	"cmsrag/internal/logger"
	"cmsrag/internal/port"
)

// Options tune a SemanticRetriever.
type Options struct {
	MinScore           float64 // drop results scoring below this (0 = keep all)
	AllowModelMismatch bool
}

// SemanticRetriever embeds the query and searches the vector index.
type SemanticRetriever struct {
	index    port.VectorIndex
	embedder port.Embedder
	opts     Options
}

func NewSemanticRetriever(index port.VectorIndex, embedder port.Embedder, opts Options) *SemanticRetriever {
	return &SemanticRetriever{
		index:    index,
		embedder: embedder,
		opts:     opts,
	}
}

// Retrieve returns at most k chunks, most similar first.
func (r *SemanticRetriever) Retrieve(ctx context.Context, query string, k int) (domain.RetrievalResult, error) {
	if r.index == nil || r.embedder == nil {
		return nil, fmt.Errorf("semantic search not available: index or embedder not configured")
	}
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidInput, k)
	}

	info := r.index.Info()
	if info.EmbeddingModel != "" && info.EmbeddingModel != r.embedder.ModelName() {
		if !r.opts.AllowModelMismatch {
			return nil, fmt.Errorf("%w: index built with %q, querying with %q", domain.ErrModelMismatch, info.EmbeddingModel, r.embedder.ModelName())
		}
		logger.Warn("index built with %q, querying with %q", info.EmbeddingModel, r.embedder.ModelName())
	}

	if r.index.Count() == 0 {
		return domain.RetrievalResult{}, nil
	}

	embeddings, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to embed query: %w", domain.ErrEmbeddingService, err)
	}
	if len(embeddings) == 0 || len(embeddings[0]) == 0 {
		return nil, fmt.Errorf("%w: embedding returned empty result", domain.ErrEmbeddingService)
	}

	results, err := r.index.Search(embeddings[0], k)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	out := make(domain.RetrievalResult, 0, len(results))
	for _, sc := range results {
		if r.opts.MinScore > 0 && sc.Score < r.opts.MinScore {
			continue
		}
		out = append(out, sc)
	}

	logger.Debug("retrieved %d of %d chunks for %q", len(out), r.index.Count(), query)
	return out, nil
}
