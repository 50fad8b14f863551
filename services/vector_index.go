package services

import (
	"fmt"
	"math"
	"sort"

	"pdf-chat-backend/models"
)

// VectorIndex holds the (chunk, vector) pairs of the currently loaded
// document and answers brute-force cosine similarity queries. An index is
// immutable once built; ingestion builds a fresh one and swaps it into the
// pipeline, so concurrent readers never observe a partially built state.
type VectorIndex struct {
	dim     int
	chunks  []models.Chunk
	vectors [][]float32
}

// BuildVectorIndex pairs chunks with their embedding vectors. Counts must
// match and all vectors must share one dimensionality; either mismatch
// means the embedding step broke its order-preserving contract and reports
// models.ErrDimensionMismatch.
func BuildVectorIndex(chunks []models.Chunk, vectors [][]float32) (*VectorIndex, error) {
	if len(chunks) != len(vectors) {
		return nil, fmt.Errorf("%w: %d chunks but %d vectors", models.ErrDimensionMismatch, len(chunks), len(vectors))
	}

	dim := 0
	if len(vectors) > 0 {
		dim = len(vectors[0])
	}
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("%w: vector %d has dimension %d, expected %d", models.ErrDimensionMismatch, i, len(v), dim)
		}
	}

	idx := &VectorIndex{
		dim:     dim,
		chunks:  make([]models.Chunk, len(chunks)),
		vectors: make([][]float32, len(vectors)),
	}
	copy(idx.chunks, chunks)
	copy(idx.vectors, vectors)
	return idx, nil
}

// Search returns up to k chunks ranked by descending cosine similarity to
// the query vector. Equal scores rank the lower chunk ID first, keeping
// result order reproducible. An empty index or non-positive k yields an
// empty result rather than an error.
func (idx *VectorIndex) Search(query []float32, k int) ([]models.ScoredChunk, error) {
	if len(idx.chunks) == 0 || k <= 0 {
		return []models.ScoredChunk{}, nil
	}
	if len(query) != idx.dim {
		return nil, fmt.Errorf("%w: query has dimension %d, index has %d", models.ErrDimensionMismatch, len(query), idx.dim)
	}

	scored := make([]models.ScoredChunk, len(idx.chunks))
	for i, vec := range idx.vectors {
		scored[i] = models.ScoredChunk{
			Chunk: idx.chunks[i],
			Score: cosineSimilarity(query, vec),
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score == scored[j].Score {
			return scored[i].Chunk.ID < scored[j].Chunk.ID
		}
		return scored[i].Score > scored[j].Score
	})

	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k], nil
}

// Size returns the number of indexed chunks.
func (idx *VectorIndex) Size() int {
	return len(idx.chunks)
}

// Dimension returns the embedding dimensionality the index was built with.
func (idx *VectorIndex) Dimension() int {
	return idx.dim
}

// cosineSimilarity accumulates in float64 so float32 rounding does not
// reorder close scores. Zero-norm input scores 0 rather than NaN.
func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
