package store

import (
	"sync"

	"cmsrag/internal/domain"
)

// Handle shares one loaded index between readers and lets a rebuilt index
// be swapped in without restarting. Reads may run concurrently; Reload
// waits for them.
type Handle struct {
	mu  sync.RWMutex
	dir string
	idx *Index
}

// OpenHandle loads the index at dir.
func OpenHandle(dir string) (*Handle, error) {
	idx, err := Open(dir)
	if err != nil {
		return nil, err
	}
	return &Handle{dir: dir, idx: idx}, nil
}

func (h *Handle) Search(query []float32, k int) ([]domain.ScoredChunk, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.idx.Search(query, k)
}

func (h *Handle) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.idx.Count()
}

func (h *Handle) Info() domain.IndexInfo {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.idx.Info()
}

// Reload loads the index currently at the directory. On failure the
// previously loaded index stays in use.
func (h *Handle) Reload() error {
	idx, err := Open(h.dir)
	if err != nil {
		return err
	}

	h.mu.Lock()
	h.idx = idx
	h.mu.Unlock()
	return nil
}

// Dir returns the index directory.
func (h *Handle) Dir() string {
	return h.dir
}
