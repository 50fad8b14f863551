package services

import (
	"errors"
	"testing"

	"pdf-chat-backend/models"
)

func indexChunks(texts ...string) []models.Chunk {
	chunks := make([]models.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = models.Chunk{ID: i, Text: text}
	}
	return chunks
}

func TestBuildVectorIndexCountMismatch(t *testing.T) {
	chunks := indexChunks("one", "two")
	vectors := [][]float32{{1, 0}}

	_, err := BuildVectorIndex(chunks, vectors)
	if !errors.Is(err, models.ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestBuildVectorIndexRaggedVectors(t *testing.T) {
	chunks := indexChunks("one", "two")
	vectors := [][]float32{{1, 0}, {1, 0, 0}}

	_, err := BuildVectorIndex(chunks, vectors)
	if !errors.Is(err, models.ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestVectorIndexSearchOrdering(t *testing.T) {
	chunks := indexChunks("exact", "diagonal", "orthogonal", "opposite")
	vectors := [][]float32{
		{1, 0},
		{1, 1},
		{0, 1},
		{-1, 0},
	}

	index, err := BuildVectorIndex(chunks, vectors)
	if err != nil {
		t.Fatalf("BuildVectorIndex: %v", err)
	}

	results, err := index.Search([]float32{1, 0}, 4)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}

	wantOrder := []string{"exact", "diagonal", "orthogonal", "opposite"}
	for i, want := range wantOrder {
		if results[i].Chunk.Text != want {
			t.Errorf("result %d = %q, want %q", i, results[i].Chunk.Text, want)
		}
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Errorf("scores not descending: %f before %f", results[i-1].Score, results[i].Score)
		}
	}
}

// Chunks with identical scores come back ordered by chunk ID, regardless of
// the order they were indexed in.
func TestVectorIndexSearchTieBreak(t *testing.T) {
	chunks := []models.Chunk{
		{ID: 2, Text: "second tie"},
		{ID: 0, Text: "loser"},
		{ID: 1, Text: "first tie"},
	}
	vectors := [][]float32{
		{1, 0},
		{0, 1},
		{2, 0}, // same direction as {1, 0}, so the same cosine score
	}

	index, err := BuildVectorIndex(chunks, vectors)
	if err != nil {
		t.Fatalf("BuildVectorIndex: %v", err)
	}

	results, err := index.Search([]float32{1, 0}, 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	wantIDs := []int{1, 2, 0}
	for i, want := range wantIDs {
		if results[i].Chunk.ID != want {
			t.Fatalf("result %d has ID %d, want %d (order: %v)", i, results[i].Chunk.ID, want, results)
		}
	}
}

func TestVectorIndexSearchClampsK(t *testing.T) {
	chunks := indexChunks("a", "b", "c")
	vectors := [][]float32{{1, 0}, {0, 1}, {1, 1}}

	index, err := BuildVectorIndex(chunks, vectors)
	if err != nil {
		t.Fatalf("BuildVectorIndex: %v", err)
	}

	results, err := index.Search([]float32{1, 0}, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected all 3 results, got %d", len(results))
	}

	results, err = index.Search([]float32{1, 0}, 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	results, err = index.Search([]float32{1, 0}, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results for k=0, got %d", len(results))
	}
}

func TestVectorIndexSearchQueryDimensionMismatch(t *testing.T) {
	chunks := indexChunks("a")
	vectors := [][]float32{{1, 0}}

	index, err := BuildVectorIndex(chunks, vectors)
	if err != nil {
		t.Fatalf("BuildVectorIndex: %v", err)
	}

	_, err = index.Search([]float32{1, 0, 0}, 1)
	if !errors.Is(err, models.ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestVectorIndexSearchEmptyIndex(t *testing.T) {
	index, err := BuildVectorIndex(nil, nil)
	if err != nil {
		t.Fatalf("BuildVectorIndex: %v", err)
	}
	if index.Size() != 0 {
		t.Fatalf("empty index has size %d", index.Size())
	}

	results, err := index.Search([]float32{1, 0}, 3)
	if err != nil {
		t.Fatalf("Search on empty index: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results, got %d", len(results))
	}
}

// A zero vector has no direction; its score is defined as zero rather
// than NaN.
func TestVectorIndexSearchZeroVector(t *testing.T) {
	chunks := indexChunks("zero", "unit")
	vectors := [][]float32{{0, 0}, {1, 0}}

	index, err := BuildVectorIndex(chunks, vectors)
	if err != nil {
		t.Fatalf("BuildVectorIndex: %v", err)
	}

	results, err := index.Search([]float32{1, 0}, 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if results[0].Chunk.Text != "unit" {
		t.Fatalf("expected unit vector chunk first, got %q", results[0].Chunk.Text)
	}
	if results[1].Score != 0 {
		t.Fatalf("zero vector score = %f, want 0", results[1].Score)
	}
}
