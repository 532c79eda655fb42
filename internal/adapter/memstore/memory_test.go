package memstore

import (
	"errors"
	"testing"

	"cmsrag/internal/domain"
)

func TestMemoryIndex_AddAndSearch(t *testing.T) {
	m := NewMemoryIndex("test-model")

	chunks := []domain.Chunk{{Seq: 0, Text: "x"}, {Seq: 1, Text: "y"}}
	if err := m.Add(chunks, [][]float32{{1, 0}, {0, 1}}); err != nil {
		t.Fatal(err)
	}
	if m.Count() != 2 {
		t.Errorf("expected 2, got %d", m.Count())
	}
	if info := m.Info(); info.Dimension != 2 || info.ChunkCount != 2 || info.EmbeddingModel != "test-model" {
		t.Errorf("unexpected info %+v", info)
	}

	results, err := m.Search([]float32{0, 1}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Chunk.Text != "y" {
		t.Errorf("unexpected results %+v", results)
	}
}

func TestMemoryIndex_Validation(t *testing.T) {
	m := NewMemoryIndex("test-model")

	if err := m.Add([]domain.Chunk{{}}, nil); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
	if err := m.Add([]domain.Chunk{{Seq: 0}}, [][]float32{{1, 0}}); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Search([]float32{1}, 1); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for wrong dimension, got %v", err)
	}
}

func TestMemoryIndex_EmptyAndClear(t *testing.T) {
	m := NewMemoryIndex("test-model")

	results, err := m.Search([]float32{1}, 3)
	if err != nil || len(results) != 0 {
		t.Errorf("expected empty result without error, got %v, %v", results, err)
	}

	if err := m.Add([]domain.Chunk{{Seq: 0}}, [][]float32{{1}}); err != nil {
		t.Fatal(err)
	}
	m.Clear()
	if m.Count() != 0 {
		t.Errorf("expected empty index after Clear, got %d", m.Count())
	}
}
