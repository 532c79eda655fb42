package usecase

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"cmsrag/internal/adapter/store"
	"cmsrag/internal/domain"
	"cmsrag/internal/logger"
	"cmsrag/internal/port"
)

// ProgressFunc is called after each embedded batch.
type ProgressFunc func(done, total int)

// BuildOptions configure an index build.
type BuildOptions struct {
	BatchSize  int
	Source     string // recorded in the index info
	ConfigHash string
}

// BuildUseCase embeds chunks and replaces the index at dir in one step.
type BuildUseCase struct {
	embedder port.Embedder
	dir      string
	opts     BuildOptions
}

// NewBuildUseCase creates a new build use case.
func NewBuildUseCase(embedder port.Embedder, dir string, opts BuildOptions) *BuildUseCase {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	return &BuildUseCase{
		embedder: embedder,
		dir:      dir,
		opts:     opts,
	}
}

// Build writes a complete index next to dir and swaps it in only after every
// chunk is stored. Any failure removes the partial build and leaves the
// previous index, if any, untouched.
func (u *BuildUseCase) Build(ctx context.Context, chunks []domain.Chunk, progress ProgressFunc) (*store.Index, error) {
	stale, err := store.RemoveStale(u.dir)
	if err != nil {
		logger.Warn("%v", err)
	}
	for _, path := range stale {
		logger.Info("removed leftover index directory %s", path)
	}

	buildID := uuid.NewString()
	buildDir := store.BuildDir(u.dir, buildID)

	w, err := store.CreateWriter(buildDir)
	if err != nil {
		return nil, err
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		w.Abort()
		if err := os.RemoveAll(buildDir); err != nil {
			logger.Warn("failed to remove partial index %s: %v", buildDir, err)
		}
	}()

	total := len(chunks)
	for start := 0; start < total; start += u.opts.BatchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := min(start+u.opts.BatchSize, total)
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}

		vectors, err := u.embedder.Embed(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("%w: batch %d-%d: %w", domain.ErrEmbeddingService, start, end, err)
		}
		if len(vectors) != len(batch) {
			return nil, fmt.Errorf("%w: expected %d vectors, got %d", domain.ErrEmbeddingService, len(batch), len(vectors))
		}

		if err := w.PutBatch(batch, vectors); err != nil {
			return nil, err
		}
		logger.Debug("embedded chunks %d-%d of %d", start, end, total)
		if progress != nil {
			progress(end, total)
		}
	}

	info := domain.IndexInfo{
		BuildID:        buildID,
		EmbeddingModel: u.embedder.ModelName(),
		ChunkCount:     total,
		Source:         u.opts.Source,
		ConfigHash:     u.opts.ConfigHash,
		CreatedAt:      time.Now().UTC(),
	}
	if err := w.Finish(info); err != nil {
		return nil, fmt.Errorf("failed to finalize index: %w", err)
	}

	if err := store.Swap(buildDir, u.dir); err != nil {
		return nil, err
	}
	committed = true

	idx, err := store.Open(u.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open new index: %w", err)
	}
	if idx.Count() != total {
		return nil, fmt.Errorf("index holds %d chunks, expected %d", idx.Count(), total)
	}
	return idx, nil
}

// Dir returns the live index directory.
func (u *BuildUseCase) Dir() string {
	return u.dir
}
