// models/chunk.go
package models

import "time"

// Chunk is a contiguous slice of the cleaned document text, the unit of
// retrieval. ID is the zero-based position in the chunking sequence; equal
// similarity scores are ranked by ascending ID so search results stay
// deterministic. Start and End are rune offsets into the cleaned text.
type Chunk struct {
	ID    int    `json:"id"`
	Text  string `json:"text"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// ScoredChunk pairs a chunk with its cosine similarity against a query.
type ScoredChunk struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}

// Source describes one retrieved chunk in a chat response. Text is a short
// preview rather than the full chunk, Score is rounded for display.
type Source struct {
	ChunkID int     `json:"chunk_id"`
	Text    string  `json:"text"`
	Score   float64 `json:"score"`
}

// AnswerResult is what the pipeline hands back per question: the generated
// answer plus the chunks it was grounded on.
type AnswerResult struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources"`
}

// IngestStats summarizes one successful document ingestion.
type IngestStats struct {
	DocumentID   string `json:"document_id"`
	NumChunks    int    `json:"num_chunks"`
	CleanedChars int    `json:"cleaned_chars"`
	Dimension    int    `json:"dimension"`
}

// IndexStats reports the state of the live index for the status endpoint.
type IndexStats struct {
	Ready      bool      `json:"ready"`
	DocumentID string    `json:"document_id,omitempty"`
	NumChunks  int       `json:"num_chunks"`
	NumVectors int       `json:"num_vectors"`
	Dimension  int       `json:"dimension"`
	IngestedAt time.Time `json:"ingested_at"`
}
