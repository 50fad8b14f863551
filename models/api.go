// models/api.go
package models

import "time"

// ChatRequest is one user turn against the loaded document.
type ChatRequest struct {
	Question string `json:"question" binding:"required,min=1,max=2000"`
}

// ChatResponse carries the synthesized answer and the chunks behind it.
type ChatResponse struct {
	Answer    string    `json:"answer"`
	Sources   []Source  `json:"sources"`
	LatencyMs int       `json:"latency_ms"`
	Timestamp time.Time `json:"timestamp"`
}

// UploadResponse is returned after a PDF was extracted, chunked, embedded
// and indexed. RawChars/CleanedChars show how much the cleaning pass cut.
type UploadResponse struct {
	DocumentID   string `json:"document_id"`
	Filename     string `json:"filename"`
	Pages        int    `json:"pages"`
	NumChunks    int    `json:"num_chunks"`
	RawChars     int    `json:"raw_chars"`
	CleanedChars int    `json:"cleaned_chars"`
	Method       string `json:"extraction_method"`
	Status       string `json:"status"`
}

// StatusResponse mirrors the service state: which models are wired, whether
// a document is loaded, and how much of the generation budget was spent.
type StatusResponse struct {
	Status          string     `json:"status"`
	Ready           bool       `json:"ready"`
	EmbeddingsModel string     `json:"embeddings_model"`
	GenerationModel string     `json:"generation_model"`
	TopK            int        `json:"top_k"`
	Index           IndexStats `json:"index"`
	Usage           UsageStats `json:"usage"`
	UptimeSeconds   int64      `json:"uptime_seconds"`
}

// UsageStats is the generation client's request/token ledger.
type UsageStats struct {
	Requests        int64 `json:"requests"`
	EstimatedTokens int64 `json:"estimated_tokens"`
}
