package port

import (
	"context"

	"cmsrag/internal/domain"
)

// Retriever defines the interface for searching indexed content.
type Retriever interface {
	// Retrieve returns at most k chunks matching the query.
	Retrieve(ctx context.Context, query string, k int) (domain.RetrievalResult, error)
}
