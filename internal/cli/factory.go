package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"cmsrag/config"
	"cmsrag/internal/adapter/cache"
	"cmsrag/internal/adapter/embedding"
	"cmsrag/internal/adapter/llm"
	"cmsrag/internal/adapter/retriever"
	"cmsrag/internal/adapter/store"
	"cmsrag/internal/logger"
	"cmsrag/internal/port"
	"cmsrag/internal/usecase"
)

func newEmbedder(cfg *config.Config) (port.Embedder, error) {
	timeout := time.Duration(cfg.Embedding.TimeoutSecs) * time.Second

	switch cfg.Embedding.Provider {
	case "openai", "":
		e, err := embedding.NewOpenAIEmbedder(cfg.Embedding.APIKeyEnv, cfg.Embedding.Model, cfg.Embedding.BaseURL, timeout)
		if err != nil {
			return nil, err
		}
		e.SetRateLimit(cfg.Embedding.RateLimit)
		return e, nil
	case "local":
		return embedding.NewHashingEmbedder(cfg.Embedding.Dimension), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", cfg.Embedding.Provider)
	}
}

func newLLM(ctx context.Context, cfg *config.Config) (port.LLM, error) {
	opts := llm.Options{
		Temperature: cfg.Generation.Temperature,
		MaxTokens:   cfg.Generation.MaxTokens,
		Timeout:     time.Duration(cfg.Generation.TimeoutSecs) * time.Second,
	}

	switch cfg.Generation.Provider {
	case "openai", "":
		return llm.NewOpenAIChat(cfg.Generation.APIKeyEnv, cfg.Generation.Model, cfg.Generation.BaseURL, opts)
	case "gemini":
		return llm.NewGeminiChat(ctx, cfg.Generation.APIKeyEnv, cfg.Generation.Model, opts)
	default:
		return nil, fmt.Errorf("unknown generation provider: %s", cfg.Generation.Provider)
	}
}

// queryStack is everything a question needs, built once per command.
type queryStack struct {
	handle    *store.Handle
	cache     *cache.QueryCache
	assistant *usecase.Assistant
	model     port.LLM
}

// reload picks up a rebuilt index and forgets results from the old one.
func (q *queryStack) reload() error {
	if err := q.handle.Reload(); err != nil {
		return err
	}
	if q.cache != nil {
		q.cache.Invalidate()
	}
	logger.Info("reloaded index with %d chunks", q.handle.Count())
	return nil
}

func (q *queryStack) Close() {
	if c, ok := q.model.(io.Closer); ok {
		c.Close()
	}
}

func openQueryStack(ctx context.Context, cfg *config.Config) (*queryStack, error) {
	handle, err := store.OpenHandle(indexDir())
	if err != nil {
		return nil, fmt.Errorf("failed to open index (run 'cmsrag ingest' first): %w", err)
	}
	if reason := store.StaleReason(handle.Info(), cfg); reason != "" {
		logger.Warn("index may be out of date (%s); re-run 'cmsrag ingest'", reason)
	}

	embedder, err := newEmbedder(cfg)
	if err != nil {
		return nil, err
	}
	model, err := newLLM(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var r port.Retriever = retriever.NewSemanticRetriever(handle, embedder, retriever.Options{
		MinScore:           cfg.Retrieve.MinScore,
		AllowModelMismatch: cfg.Retrieve.AllowModelMismatch,
	})
	var qc *cache.QueryCache
	if cfg.Retrieve.CacheSize > 0 {
		qc = cache.NewQueryCache(cfg.Retrieve.CacheSize, 0)
		r = cache.NewCachedRetriever(r, qc)
	}
	g := usecase.NewAnswerGenerator(model, cfg.Source.Name, cfg.Generation.HistoryTurns)

	return &queryStack{
		handle:    handle,
		cache:     qc,
		assistant: usecase.NewAssistant(r, g, cfg.Retrieve.TopK, cfg.Retrieve.HistoryQueries),
		model:     model,
	}, nil
}
