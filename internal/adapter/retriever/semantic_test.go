package retriever

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cmsrag/internal/adapter/embedding"
	"cmsrag/internal/adapter/memstore"
	"cmsrag/internal/domain"
)

type failingEmbedder struct {
	calls int
}

func (f *failingEmbedder) Embed(context.Context, []string) ([][]float32, error) {
	f.calls++
	return nil, errors.New("service unavailable")
}
func (f *failingEmbedder) Dimension() int    { return 8 }
func (f *failingEmbedder) ModelName() string { return "local-hashing-64" }

var corpus = []string{
	"The hospital-wide readmission measure excludes planned readmissions.",
	"Risk adjustment uses a hierarchical logistic regression model.",
	"Index admissions are followed for thirty days after discharge.",
}

func buildIndex(t *testing.T, e *embedding.HashingEmbedder) *memstore.MemoryIndex {
	t.Helper()
	idx := memstore.NewMemoryIndex(e.ModelName())

	chunks := make([]domain.Chunk, len(corpus))
	for i, text := range corpus {
		chunks[i] = domain.Chunk{Seq: i, Text: text, Metadata: domain.Metadata{Page: i + 1}}
	}
	vectors, err := e.Embed(context.Background(), corpus)
	require.NoError(t, err)
	require.NoError(t, idx.Add(chunks, vectors))
	return idx
}

func TestRetrieve_RanksRelevantChunkFirst(t *testing.T) {
	e := embedding.NewHashingEmbedder(64)
	r := NewSemanticRetriever(buildIndex(t, e), e, Options{})

	result, err := r.Retrieve(context.Background(), "Does the measure count planned readmissions?", 2)
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Contains(t, result[0].Chunk.Text, "planned readmissions")
	assert.GreaterOrEqual(t, result[0].Score, result[1].Score)
}

func TestRetrieve_KLargerThanIndex(t *testing.T) {
	e := embedding.NewHashingEmbedder(64)
	r := NewSemanticRetriever(buildIndex(t, e), e, Options{})

	result, err := r.Retrieve(context.Background(), "thirty days", 10)
	require.NoError(t, err)
	assert.Len(t, result, len(corpus))
}

func TestRetrieve_InvalidK(t *testing.T) {
	e := embedding.NewHashingEmbedder(64)
	r := NewSemanticRetriever(buildIndex(t, e), e, Options{})

	_, err := r.Retrieve(context.Background(), "anything", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRetrieve_EmptyIndex(t *testing.T) {
	e := embedding.NewHashingEmbedder(64)
	r := NewSemanticRetriever(memstore.NewMemoryIndex(e.ModelName()), e, Options{})

	result, err := r.Retrieve(context.Background(), "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestRetrieve_EmbeddingFailure(t *testing.T) {
	e := embedding.NewHashingEmbedder(64)
	idx := buildIndex(t, e)
	failing := &failingEmbedder{}
	r := NewSemanticRetriever(idx, failing, Options{})

	_, err := r.Retrieve(context.Background(), "anything", 3)
	assert.ErrorIs(t, err, domain.ErrEmbeddingService)
	assert.Equal(t, 1, failing.calls)
}

func TestRetrieve_ModelMismatch(t *testing.T) {
	e := embedding.NewHashingEmbedder(64)
	idx := buildIndex(t, e)
	other := embedding.NewHashingEmbedder(128)

	r := NewSemanticRetriever(idx, other, Options{})
	_, err := r.Retrieve(context.Background(), "planned readmissions", 3)
	assert.ErrorIs(t, err, domain.ErrModelMismatch)
}

func TestRetrieve_ModelMismatchAllowed(t *testing.T) {
	e := embedding.NewHashingEmbedder(64)
	idx := buildIndex(t, e)
	// same dimension, different reported model
	renamed := &renamedEmbedder{HashingEmbedder: e, name: "text-embedding-3-large"}

	r := NewSemanticRetriever(idx, renamed, Options{AllowModelMismatch: true})
	result, err := r.Retrieve(context.Background(), "planned readmissions", 1)
	require.NoError(t, err)
	assert.Len(t, result, 1)
}

func TestRetrieve_MinScore(t *testing.T) {
	e := embedding.NewHashingEmbedder(64)
	r := NewSemanticRetriever(buildIndex(t, e), e, Options{MinScore: 0.99})

	result, err := r.Retrieve(context.Background(), "hierarchical logistic", 3)
	require.NoError(t, err)
	assert.Empty(t, result)
}

type renamedEmbedder struct {
	*embedding.HashingEmbedder
	name string
}

func (r *renamedEmbedder) ModelName() string { return r.name }
