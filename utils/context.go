package utils

import (
	"context"
	"time"
)

const (
	// DefaultTimeout bounds a single question round trip (embed, search, generate)
	DefaultTimeout = 30 * time.Second

	// IngestTimeout bounds full document ingestion (extraction plus batch embedding)
	IngestTimeout = 2 * time.Minute
)

// WithTimeout creates a context with the default request timeout
func WithTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, DefaultTimeout)
}

// WithIngestTimeout creates a context sized for document ingestion
func WithIngestTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, IngestTimeout)
}
