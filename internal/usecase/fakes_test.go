package usecase

import (
	"context"
	"errors"
	"sync"

	"cmsrag/internal/adapter/embedding"
	"cmsrag/internal/domain"
)

// countingEmbedder wraps the hashing embedder, counts calls and can fail
// from a given call onwards.
type countingEmbedder struct {
	*embedding.HashingEmbedder
	mu     sync.Mutex
	calls  int
	failAt int // 1-based call that starts failing, 0 = never
}

func newCountingEmbedder(dimension int) *countingEmbedder {
	return &countingEmbedder{HashingEmbedder: embedding.NewHashingEmbedder(dimension)}
}

func (e *countingEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.calls++
	call := e.calls
	e.mu.Unlock()

	if e.failAt > 0 && call >= e.failAt {
		return nil, errors.New("embedding endpoint unavailable")
	}
	return e.HashingEmbedder.Embed(ctx, texts)
}

func (e *countingEmbedder) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

// scriptedLLM answers through a script function and records each request.
type scriptedLLM struct {
	script  func(system string, turns []domain.Turn) (string, error)
	systems []string
	turns   [][]domain.Turn
}

func (l *scriptedLLM) Chat(_ context.Context, system string, turns []domain.Turn) (string, error) {
	l.systems = append(l.systems, system)
	l.turns = append(l.turns, append([]domain.Turn(nil), turns...))
	return l.script(system, turns)
}

func (l *scriptedLLM) ModelName() string { return "scripted" }

func (l *scriptedLLM) Calls() int { return len(l.turns) }

// staticRetriever returns a fixed result and records the queries it saw.
type staticRetriever struct {
	result  domain.RetrievalResult
	err     error
	queries []string
}

func (r *staticRetriever) Retrieve(_ context.Context, query string, _ int) (domain.RetrievalResult, error) {
	r.queries = append(r.queries, query)
	return r.result, r.err
}
