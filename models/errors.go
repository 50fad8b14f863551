package models

import "errors"

// Pipeline error taxonomy. Services wrap these with %w to attach detail,
// handlers map them onto HTTP responses with errors.Is. None of them are
// retried internally; transient failures are the caller's call.
var (
	ErrInvalidChunkConfig = errors.New("invalid chunking configuration")
	ErrEmptyDocument      = errors.New("document text is empty")
	ErrDimensionMismatch  = errors.New("embedding dimension mismatch")
	ErrModelUnavailable   = errors.New("model unavailable")
	ErrNoDocumentLoaded   = errors.New("no document loaded")
)
