package usecase

import (
	"context"
	"fmt"
	"strings"

	"cmsrag/internal/domain"
	"cmsrag/internal/port"
)

// Assistant answers questions about the indexed document.
type Assistant struct {
	retriever      port.Retriever
	generator      *AnswerGenerator
	topK           int
	historyQueries int
}

// NewAssistant creates an assistant. historyQueries prior user questions are
// folded into the retrieval query so follow-ups find the same passages.
func NewAssistant(retriever port.Retriever, generator *AnswerGenerator, topK, historyQueries int) *Assistant {
	if topK <= 0 {
		topK = 5
	}
	return &Assistant{
		retriever:      retriever,
		generator:      generator,
		topK:           topK,
		historyQueries: historyQueries,
	}
}

// AnswerQuestion retrieves context for question and answers it. prior is the
// conversation before question; it is not modified.
func (a *Assistant) AnswerQuestion(ctx context.Context, question string, prior domain.History) (string, domain.RetrievalResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", nil, fmt.Errorf("%w: empty question", domain.ErrInvalidInput)
	}

	retrieved, err := a.retriever.Retrieve(ctx, a.retrievalQuery(question, prior), a.topK)
	if err != nil {
		return "", nil, err
	}

	return a.generator.Answer(ctx, question, prior, retrieved)
}

func (a *Assistant) retrievalQuery(question string, prior domain.History) string {
	if a.historyQueries <= 0 {
		return question
	}

	var previous []string
	for i := len(prior) - 1; i >= 0 && len(previous) < a.historyQueries; i-- {
		if prior[i].Role == domain.RoleUser {
			previous = append(previous, prior[i].Content)
		}
	}
	if len(previous) == 0 {
		return question
	}

	parts := make([]string, 0, len(previous)+1)
	for i := len(previous) - 1; i >= 0; i-- {
		parts = append(parts, previous[i])
	}
	parts = append(parts, question)
	return strings.Join(parts, "\n")
}
