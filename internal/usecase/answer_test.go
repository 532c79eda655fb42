package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cmsrag/internal/domain"
	"cmsrag/internal/prompt"
)

func retrieved(texts ...string) domain.RetrievalResult {
	out := make(domain.RetrievalResult, len(texts))
	for i, text := range texts {
		out[i] = domain.ScoredChunk{
			Chunk: domain.Chunk{Seq: i, Text: text, Metadata: domain.Metadata{FileName: "report.pdf", Page: i + 1}},
			Score: 1 - float64(i)*0.1,
		}
	}
	return out
}

func TestAnswer_EmptyContextSkipsModel(t *testing.T) {
	llm := &scriptedLLM{script: func(string, []domain.Turn) (string, error) {
		return "should not be called", nil
	}}
	g := NewAnswerGenerator(llm, "CMS measure", 10)

	answer, chunks, err := g.Answer(context.Background(), "anything?", nil, domain.RetrievalResult{})
	require.NoError(t, err)
	assert.Equal(t, prompt.NotFoundAnswer, answer)
	assert.Empty(t, chunks)
	assert.Zero(t, llm.Calls())
}

func TestAnswer_ReturnsInputChunksAndGroundsPrompt(t *testing.T) {
	llm := &scriptedLLM{script: func(string, []domain.Turn) (string, error) {
		return "  Planned readmissions are excluded (page 1).  ", nil
	}}
	g := NewAnswerGenerator(llm, "CMS measure", 10)
	in := retrieved("The measure excludes planned readmissions.", "Other text.")

	answer, out, err := g.Answer(context.Background(), "Are planned readmissions counted?", nil, in)
	require.NoError(t, err)
	assert.Equal(t, "Planned readmissions are excluded (page 1).", answer)
	assert.Equal(t, in, out)

	require.Equal(t, 1, llm.Calls())
	assert.Contains(t, llm.systems[0], "The measure excludes planned readmissions.")
	assert.Contains(t, llm.systems[0], prompt.NotFoundAnswer)
	assert.Equal(t, []domain.Turn{{Role: domain.RoleUser, Content: "Are planned readmissions counted?"}}, llm.turns[0])
}

func TestAnswer_PassesTruncatedHistory(t *testing.T) {
	llm := &scriptedLLM{script: func(string, []domain.Turn) (string, error) { return "ok", nil }}
	g := NewAnswerGenerator(llm, "", 3)

	history := domain.History{
		{Role: domain.RoleUser, Content: "q1"},
		{Role: domain.RoleAssistant, Content: "a1"},
		{Role: domain.RoleUser, Content: "q2"},
		{Role: domain.RoleAssistant, Content: "a2"},
	}
	_, _, err := g.Answer(context.Background(), "q3", history, retrieved("ctx"))
	require.NoError(t, err)

	// the last three turns start on an assistant reply, which is dropped
	want := []domain.Turn{
		{Role: domain.RoleUser, Content: "q2"},
		{Role: domain.RoleAssistant, Content: "a2"},
		{Role: domain.RoleUser, Content: "q3"},
	}
	assert.Equal(t, want, llm.turns[0])
}

func TestAnswer_NoHistoryTurns(t *testing.T) {
	llm := &scriptedLLM{script: func(string, []domain.Turn) (string, error) { return "ok", nil }}
	g := NewAnswerGenerator(llm, "", 0)

	history := domain.History{{Role: domain.RoleUser, Content: "q1"}, {Role: domain.RoleAssistant, Content: "a1"}}
	_, _, err := g.Answer(context.Background(), "q2", history, retrieved("ctx"))
	require.NoError(t, err)
	assert.Len(t, llm.turns[0], 1)
}

func TestAnswer_ModelFailure(t *testing.T) {
	llm := &scriptedLLM{script: func(string, []domain.Turn) (string, error) {
		return "", errors.New("rate limited")
	}}
	g := NewAnswerGenerator(llm, "", 10)

	_, _, err := g.Answer(context.Background(), "q", nil, retrieved("ctx"))
	assert.ErrorIs(t, err, domain.ErrGenerationService)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestAnswer_EmptyModelReply(t *testing.T) {
	llm := &scriptedLLM{script: func(string, []domain.Turn) (string, error) { return "   ", nil }}
	g := NewAnswerGenerator(llm, "", 10)

	_, _, err := g.Answer(context.Background(), "q", nil, retrieved("ctx"))
	assert.ErrorIs(t, err, domain.ErrGenerationService)
}
