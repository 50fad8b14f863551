package services

import (
	"fmt"

	"pdf-chat-backend/models"
)

// Chunker splits cleaned document text into overlapping fixed-size passages.
// Sizes are counted in runes, not bytes, so multi-byte text never splits
// mid-character. Chunking is deterministic: the same text and configuration
// always yield the same sequence of chunks.
type Chunker struct {
	chunkSize int
	overlap   int
}

// NewChunker validates the window configuration. Both values must be
// positive and the overlap smaller than the chunk size, otherwise the
// window could never advance.
func NewChunker(chunkSize, overlap int) (*Chunker, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", models.ErrInvalidChunkConfig, chunkSize)
	}
	if overlap <= 0 {
		return nil, fmt.Errorf("%w: overlap must be positive, got %d", models.ErrInvalidChunkConfig, overlap)
	}
	if overlap >= chunkSize {
		return nil, fmt.Errorf("%w: overlap %d must be smaller than chunk size %d", models.ErrInvalidChunkConfig, overlap, chunkSize)
	}
	return &Chunker{chunkSize: chunkSize, overlap: overlap}, nil
}

// Split slides a window of chunkSize runes across text, advancing by
// chunkSize-overlap per step. The window that reaches the end of the text
// is the last one, so the final chunk may be shorter and text no longer
// than one window yields exactly one chunk. Empty text yields none.
func (c *Chunker) Split(text string) []models.Chunk {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	step := c.chunkSize - c.overlap
	var chunks []models.Chunk
	for start := 0; ; start += step {
		end := start + c.chunkSize
		if end > len(runes) {
			end = len(runes)
		}

		chunks = append(chunks, models.Chunk{
			ID:    len(chunks),
			Text:  string(runes[start:end]),
			Start: start,
			End:   end,
		})

		if end == len(runes) {
			break
		}
	}

	return chunks
}
