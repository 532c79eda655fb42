package domain

import "errors"

var (
	// ErrNotFound indicates the source document does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed arguments or an unsupported file.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmbeddingService indicates the embedding call failed.
	ErrEmbeddingService = errors.New("embedding service error")

	// ErrGenerationService indicates the answer generation call failed.
	// The conversation is left as it was before the question.
	ErrGenerationService = errors.New("generation service error")

	// ErrIndexNotFound indicates no index exists at the configured location.
	ErrIndexNotFound = errors.New("index not found")

	// ErrModelMismatch indicates the query embedder differs from the one
	// the index was built with.
	ErrModelMismatch = errors.New("embedding model mismatch")
)
