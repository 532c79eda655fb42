package store

import (
	"fmt"

	"cmsrag/internal/adapter/vector"
	"cmsrag/internal/domain"
)

type vectorEntry struct {
	chunk  domain.Chunk
	vector []float32
}

// Index is a loaded, read-only index. Search is brute force over all
// vectors, which is plenty for a single methodology report.
type Index struct {
	info    domain.IndexInfo
	entries []vectorEntry
}

// Search returns the k chunks most similar to query by cosine similarity,
// ties broken by chunk order. An empty index yields an empty result.
func (idx *Index) Search(query []float32, k int) ([]domain.ScoredChunk, error) {
	if len(idx.entries) == 0 || k <= 0 {
		return []domain.ScoredChunk{}, nil
	}
	if idx.info.Dimension > 0 && len(query) != idx.info.Dimension {
		return nil, fmt.Errorf("%w: query dimension %d, index dimension %d", domain.ErrInvalidInput, len(query), idx.info.Dimension)
	}

	chunks := make([]domain.Chunk, len(idx.entries))
	vectors := make([][]float32, len(idx.entries))
	for i, e := range idx.entries {
		chunks[i] = e.chunk
		vectors[i] = e.vector
	}
	return vector.Rank(query, chunks, vectors, k), nil
}

// Count returns the number of stored chunks.
func (idx *Index) Count() int {
	return len(idx.entries)
}

// Info returns the metadata recorded when the index was built.
func (idx *Index) Info() domain.IndexInfo {
	return idx.info
}

// Chunks returns the stored chunks in insertion order.
func (idx *Index) Chunks() []domain.Chunk {
	chunks := make([]domain.Chunk, len(idx.entries))
	for i, e := range idx.entries {
		chunks[i] = e.chunk
	}
	return chunks
}
