package usecase

import (
	"context"
	"fmt"
	"time"

	"cmsrag/internal/domain"
	"cmsrag/internal/logger"
	"cmsrag/internal/port"
)

// IngestProgress receives ingestion milestones. Nil fields are skipped.
type IngestProgress struct {
	Loaded   func(pages int)
	Chunked  func(chunks int)
	Embedded ProgressFunc
}

// IngestResult contains the results of an ingestion run.
type IngestResult struct {
	Pages     int
	Chunks    int
	Dimension int
	Dir       string
	BuildID   string
	Duration  time.Duration
}

// IngestUseCase runs load, chunk and build as one full rebuild.
type IngestUseCase struct {
	loader  port.DocumentLoader
	chunker port.Chunker
	builder *BuildUseCase
}

// NewIngestUseCase creates a new ingest use case.
func NewIngestUseCase(loader port.DocumentLoader, chunker port.Chunker, builder *BuildUseCase) *IngestUseCase {
	return &IngestUseCase{
		loader:  loader,
		chunker: chunker,
		builder: builder,
	}
}

// Ingest rebuilds the index from the document at path.
func (u *IngestUseCase) Ingest(ctx context.Context, path string, progress IngestProgress) (*IngestResult, error) {
	start := time.Now()

	pages, err := u.loader.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	if progress.Loaded != nil {
		progress.Loaded(len(pages))
	}

	chunks, err := u.chunker.Chunk(pages)
	if err != nil {
		return nil, fmt.Errorf("failed to chunk document: %w", err)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: no text extracted from %s", domain.ErrInvalidInput, path)
	}
	if progress.Chunked != nil {
		progress.Chunked(len(chunks))
	}

	idx, err := u.builder.Build(ctx, chunks, progress.Embedded)
	if err != nil {
		return nil, err
	}

	info := idx.Info()
	result := &IngestResult{
		Pages:     len(pages),
		Chunks:    idx.Count(),
		Dimension: info.Dimension,
		Dir:       u.builder.Dir(),
		BuildID:   info.BuildID,
		Duration:  time.Since(start),
	}
	logger.Debug("ingested %d pages into %d chunks in %s", result.Pages, result.Chunks, result.Duration.Round(time.Millisecond))
	return result, nil
}
