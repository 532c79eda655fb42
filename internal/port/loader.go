package port

import (
	"context"

	"cmsrag/internal/domain"
)

// DocumentLoader reads a source document into page units.
type DocumentLoader interface {
	Load(ctx context.Context, path string) ([]domain.Page, error)
}
