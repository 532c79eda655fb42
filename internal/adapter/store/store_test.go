package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"cmsrag/config"
	"cmsrag/internal/domain"
)

func testChunks(n int) []domain.Chunk {
	chunks := make([]domain.Chunk, n)
	for i := range chunks {
		chunks[i] = domain.Chunk{
			ID:   string(rune('a' + i)),
			Seq:  i,
			Text: "chunk text",
			Metadata: domain.Metadata{
				FileName: "report.pdf",
				Page:     i + 1,
			},
		}
	}
	return chunks
}

func writeIndex(t *testing.T, dir string, chunks []domain.Chunk, vectors [][]float32) {
	t.Helper()
	w, err := CreateWriter(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) > 0 {
		if err := w.PutBatch(chunks, vectors); err != nil {
			t.Fatal(err)
		}
	}
	info := domain.IndexInfo{
		BuildID:        "build-1",
		EmbeddingModel: "test-model",
		ChunkCount:     len(chunks),
		Source:         "report.pdf",
		CreatedAt:      time.Now(),
	}
	if err := w.Finish(info); err != nil {
		t.Fatal(err)
	}
}

func TestWriteAndOpen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "index")
	chunks := testChunks(3)
	vectors := [][]float32{{1, 0}, {0, 1}, {1, 1}}
	writeIndex(t, dir, chunks, vectors)

	idx, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}

	if idx.Count() != 3 {
		t.Errorf("expected 3 chunks, got %d", idx.Count())
	}
	info := idx.Info()
	if info.Dimension != 2 {
		t.Errorf("expected dimension 2, got %d", info.Dimension)
	}
	if info.SchemaVersion != CurrentSchemaVersion {
		t.Errorf("expected schema v%d, got v%d", CurrentSchemaVersion, info.SchemaVersion)
	}
	if info.EmbeddingModel != "test-model" {
		t.Errorf("unexpected model %q", info.EmbeddingModel)
	}
	stored := idx.Chunks()
	if stored[2].Metadata.Page != 3 {
		t.Errorf("metadata not preserved: %+v", stored[2].Metadata)
	}
}

func TestPutBatch_Validation(t *testing.T) {
	w, err := CreateWriter(filepath.Join(t.TempDir(), "index"))
	if err != nil {
		t.Fatal(err)
	}
	defer w.Abort()

	if err := w.PutBatch(testChunks(2), [][]float32{{1}}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for count mismatch, got %v", err)
	}
	if err := w.PutBatch(testChunks(2), [][]float32{{1, 0}, {1, 0, 0}}); err == nil {
		t.Error("expected error for mixed dimensions")
	}
	if w.Count() != 0 {
		t.Errorf("failed batches must not count, got %d", w.Count())
	}
}

func TestFinish_CountMismatch(t *testing.T) {
	w, err := CreateWriter(filepath.Join(t.TempDir(), "index"))
	if err != nil {
		t.Fatal(err)
	}
	if err := w.PutBatch(testChunks(1), [][]float32{{1}}); err != nil {
		t.Fatal(err)
	}
	if err := w.Finish(domain.IndexInfo{ChunkCount: 2}); err == nil {
		t.Error("expected error when count differs")
	}
}

func TestOpen_Missing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nothing"))
	if !errors.Is(err, domain.ErrIndexNotFound) {
		t.Errorf("expected ErrIndexNotFound, got %v", err)
	}
}

func TestOpen_Unfinished(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "index")
	w, err := CreateWriter(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.PutBatch(testChunks(1), [][]float32{{1}}); err != nil {
		t.Fatal(err)
	}
	w.Abort()

	if _, err := Open(dir); !errors.Is(err, domain.ErrIndexNotFound) {
		t.Errorf("unfinished index must not be queryable, got %v", err)
	}
}

func TestSearch_OrderAndTies(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "index")
	chunks := testChunks(4)
	vectors := [][]float32{
		{0, 1},
		{1, 0},
		{1, 0},
		{1, 1},
	}
	writeIndex(t, dir, chunks, vectors)

	idx, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}

	results, err := idx.Search([]float32{1, 0}, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	// seq 1 and 2 tie at 1.0, lower seq first
	if results[0].Chunk.Seq != 1 || results[1].Chunk.Seq != 2 || results[2].Chunk.Seq != 3 {
		t.Errorf("unexpected order: %d %d %d", results[0].Chunk.Seq, results[1].Chunk.Seq, results[2].Chunk.Seq)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Error("results not sorted by descending score")
		}
	}

	all, err := idx.Search([]float32{1, 0}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 4 {
		t.Errorf("k larger than index should return everything, got %d", len(all))
	}

	if _, err := idx.Search([]float32{1, 0, 0}, 3); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for wrong dimension, got %v", err)
	}
}

func TestSearch_EmptyIndex(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "index")
	writeIndex(t, dir, nil, nil)

	idx, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	results, err := idx.Search([]float32{1, 0}, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("expected empty result, got %d", len(results))
	}
}

func TestSwap_ReplacesExisting(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, "index")
	writeIndex(t, dir, testChunks(1), [][]float32{{1}})

	build := BuildDir(dir, "next")
	writeIndex(t, build, testChunks(2), [][]float32{{1}, {0.5}})

	if err := Swap(build, dir); err != nil {
		t.Fatal(err)
	}

	idx, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	if idx.Count() != 2 {
		t.Errorf("expected swapped index with 2 chunks, got %d", idx.Count())
	}
	if _, err := os.Stat(build); !os.IsNotExist(err) {
		t.Error("build directory should be gone after swap")
	}

	entries, err := os.ReadDir(base)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the live index to remain, got %d entries", len(entries))
	}
}

func TestSwap_NoPreviousIndex(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "index")
	build := BuildDir(dir, "first")
	writeIndex(t, build, testChunks(1), [][]float32{{1}})

	if err := Swap(build, dir); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(dir); err != nil {
		t.Errorf("expected index after swap, got %v", err)
	}
}

func TestSwap_MissingBuildKeepsOld(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "index")
	writeIndex(t, dir, testChunks(1), [][]float32{{1}})

	if err := Swap(BuildDir(dir, "missing"), dir); err == nil {
		t.Fatal("expected error for missing build directory")
	}
	idx, err := Open(dir)
	if err != nil {
		t.Fatalf("previous index should be restored: %v", err)
	}
	if idx.Count() != 1 {
		t.Errorf("expected restored index with 1 chunk, got %d", idx.Count())
	}
}

func TestHandle_Reload(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "index")
	writeIndex(t, dir, testChunks(1), [][]float32{{1}})

	h, err := OpenHandle(dir)
	if err != nil {
		t.Fatal(err)
	}
	if h.Count() != 1 {
		t.Fatalf("expected 1 chunk, got %d", h.Count())
	}

	build := BuildDir(dir, "b2")
	writeIndex(t, build, testChunks(3), [][]float32{{1}, {1}, {1}})
	if err := Swap(build, dir); err != nil {
		t.Fatal(err)
	}

	if err := h.Reload(); err != nil {
		t.Fatal(err)
	}
	if h.Count() != 3 {
		t.Errorf("expected 3 chunks after reload, got %d", h.Count())
	}
}

func TestHandle_ReloadFailureKeepsIndex(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "index")
	writeIndex(t, dir, testChunks(2), [][]float32{{1}, {1}})

	h, err := OpenHandle(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := Delete(dir); err != nil {
		t.Fatal(err)
	}

	if err := h.Reload(); !errors.Is(err, domain.ErrIndexNotFound) {
		t.Errorf("expected ErrIndexNotFound, got %v", err)
	}
	if h.Count() != 2 {
		t.Errorf("previous index should stay loaded, got %d", h.Count())
	}
}

func TestReadInfo(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "index")
	writeIndex(t, dir, testChunks(2), [][]float32{{1, 2, 3}, {4, 5, 6}})

	info, err := ReadInfo(dir)
	if err != nil {
		t.Fatal(err)
	}
	if info.ChunkCount != 2 || info.Dimension != 3 {
		t.Errorf("unexpected info %+v", info)
	}
}

func TestConfigHashAndStaleness(t *testing.T) {
	cfg := config.DefaultConfig()
	hash := ComputeConfigHash(cfg)
	if hash != ComputeConfigHash(config.DefaultConfig()) {
		t.Error("hash must be deterministic")
	}

	info := domain.IndexInfo{SchemaVersion: CurrentSchemaVersion, ConfigHash: hash}
	if reason := StaleReason(info, cfg); reason != "" {
		t.Errorf("expected current index, got %q", reason)
	}

	cfg.Index.ChunkSize = 500
	if reason := StaleReason(info, cfg); reason == "" {
		t.Error("changing chunk size should mark the index stale")
	}

	// generation settings do not affect the index
	cfg2 := config.DefaultConfig()
	cfg2.Generation.Model = "other"
	if ComputeConfigHash(cfg2) != hash {
		t.Error("generation settings must not change the index hash")
	}
}

func TestRemoveStale(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, "index")
	writeIndex(t, dir, testChunks(1), [][]float32{{1}})

	leftovers := []string{
		BuildDir(dir, "crashed"),
		dir + ".old-interrupted",
	}
	for _, p := range leftovers {
		if err := os.MkdirAll(p, 0755); err != nil {
			t.Fatal(err)
		}
	}
	unrelated := filepath.Join(base, "index-notes")
	if err := os.MkdirAll(unrelated, 0755); err != nil {
		t.Fatal(err)
	}

	removed, err := RemoveStale(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(removed) != 2 {
		t.Errorf("expected 2 removed directories, got %v", removed)
	}
	for _, p := range leftovers {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Errorf("%s should be removed", p)
		}
	}
	if _, err := Open(dir); err != nil {
		t.Errorf("live index must survive: %v", err)
	}
	if _, err := os.Stat(unrelated); err != nil {
		t.Errorf("unrelated directory must survive: %v", err)
	}
}
