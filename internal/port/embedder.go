package port

import (
	"context"

	"cmsrag/internal/domain"
)

// Embedder generates vector embeddings for text.
type Embedder interface {
	// Embed generates embeddings for the given texts.
	// Returns a slice of vectors, one per input text.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the embedding vector dimension.
	Dimension() int

	// ModelName returns the name of the embedding model.
	ModelName() string
}

// VectorIndex searches stored chunk embeddings.
type VectorIndex interface {
	// Search finds the k chunks nearest to the query vector,
	// highest similarity first.
	Search(query []float32, k int) ([]domain.ScoredChunk, error)

	// Count returns the number of indexed chunks.
	Count() int

	// Info returns the metadata recorded when the index was built.
	Info() domain.IndexInfo
}
