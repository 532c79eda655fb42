package usecase

import (
	"context"
	"fmt"
	"strings"

	"cmsrag/internal/adapter/analyzer"
	"cmsrag/internal/domain"
	"cmsrag/internal/logger"
	"cmsrag/internal/port"
	"cmsrag/internal/prompt"
)

// AnswerGenerator produces answers grounded in retrieved chunks.
type AnswerGenerator struct {
	llm          port.LLM
	source       string
	historyTurns int
	tokenizer    *analyzer.Tokenizer
}

// NewAnswerGenerator creates a generator. historyTurns caps how many prior
// turns are sent to the model; 0 sends none.
func NewAnswerGenerator(llm port.LLM, source string, historyTurns int) *AnswerGenerator {
	return &AnswerGenerator{
		llm:          llm,
		source:       source,
		historyTurns: historyTurns,
		tokenizer:    analyzer.NewTokenizer(false),
	}
}

// Answer asks the model to answer query from chunks only. history holds the
// turns before query. The returned chunks are exactly the ones passed in.
func (g *AnswerGenerator) Answer(ctx context.Context, query string, history domain.History, chunks domain.RetrievalResult) (string, domain.RetrievalResult, error) {
	if len(chunks) == 0 {
		logger.Debug("no context retrieved, skipping generation")
		return prompt.NotFoundAnswer, chunks, nil
	}

	system, err := prompt.System(g.source, chunks.Chunks())
	if err != nil {
		return "", chunks, err
	}

	turns := make([]domain.Turn, 0, g.historyTurns+1)
	turns = append(turns, g.recent(history)...)
	turns = append(turns, domain.Turn{Role: domain.RoleUser, Content: query})

	logger.Debug("generating with %d context chunks, %d history turns, ~%d prompt tokens",
		len(chunks), len(turns)-1, g.tokenizer.CountTokens(system))

	answer, err := g.llm.Chat(ctx, system, turns)
	if err != nil {
		return "", chunks, fmt.Errorf("%w: %w", domain.ErrGenerationService, err)
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "", chunks, fmt.Errorf("%w: empty response from %s", domain.ErrGenerationService, g.llm.ModelName())
	}

	return answer, chunks, nil
}

// recent returns the last historyTurns turns, starting on a user turn so
// the model never sees an orphaned assistant reply.
func (g *AnswerGenerator) recent(history domain.History) []domain.Turn {
	if g.historyTurns <= 0 || len(history) == 0 {
		return nil
	}
	start := max(len(history)-g.historyTurns, 0)
	for start < len(history) && history[start].Role != domain.RoleUser {
		start++
	}
	return history[start:]
}
