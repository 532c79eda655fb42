package memstore

import (
	"fmt"
	"sync"

	"cmsrag/internal/adapter/vector"
	"cmsrag/internal/domain"
)

// MemoryIndex is a mutable in-memory vector index. It backs tests and
// throwaway sessions that never touch disk.
type MemoryIndex struct {
	mu      sync.RWMutex
	info    domain.IndexInfo
	chunks  []domain.Chunk
	vectors [][]float32
}

func NewMemoryIndex(embeddingModel string) *MemoryIndex {
	return &MemoryIndex{
		info: domain.IndexInfo{
			EmbeddingModel: embeddingModel,
		},
	}
}

// Add appends chunks with their vectors.
func (m *MemoryIndex) Add(chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("%w: %d chunks but %d vectors", domain.ErrInvalidInput, len(chunks), len(vectors))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for i, v := range vectors {
		if m.info.Dimension == 0 {
			m.info.Dimension = len(v)
		}
		if len(v) != m.info.Dimension {
			return fmt.Errorf("vector dimension mismatch: expected %d, got %d", m.info.Dimension, len(v))
		}
		m.chunks = append(m.chunks, chunks[i])
		m.vectors = append(m.vectors, v)
	}
	m.info.ChunkCount = len(m.chunks)
	return nil
}

func (m *MemoryIndex) Search(query []float32, k int) ([]domain.ScoredChunk, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.chunks) == 0 || k <= 0 {
		return []domain.ScoredChunk{}, nil
	}
	if len(query) != m.info.Dimension {
		return nil, fmt.Errorf("%w: query dimension %d, index dimension %d", domain.ErrInvalidInput, len(query), m.info.Dimension)
	}
	return vector.Rank(query, m.chunks, m.vectors, k), nil
}

func (m *MemoryIndex) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.chunks)
}

func (m *MemoryIndex) Info() domain.IndexInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.info
}

// Clear drops every entry.
func (m *MemoryIndex) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chunks = nil
	m.vectors = nil
	m.info.Dimension = 0
	m.info.ChunkCount = 0
}
