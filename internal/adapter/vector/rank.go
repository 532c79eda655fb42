// Package vector ranks embeddings by cosine similarity. It has no storage
// dependencies so in-memory and browser builds can use it.
package vector

import (
	"math"
	"sort"

	"cmsrag/internal/domain"
)

// Rank scores every vector against query and returns the best k,
// descending by score and then ascending by Seq.
func Rank(query []float32, chunks []domain.Chunk, vectors [][]float32, k int) []domain.ScoredChunk {
	scored := make([]domain.ScoredChunk, len(chunks))
	for i := range chunks {
		scored[i] = domain.ScoredChunk{
			Chunk: chunks[i],
			Score: CosineSimilarity(query, vectors[i]),
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Chunk.Seq < scored[j].Chunk.Seq
	})

	if k > len(scored) {
		k = len(scored)
	}
	if k < 0 {
		k = 0
	}
	return scored[:k]
}

// CosineSimilarity returns 0 for vectors of different length or zero norm.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
