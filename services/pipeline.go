package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"pdf-chat-backend/internal/config"
	"pdf-chat-backend/internal/logger"
	"pdf-chat-backend/internal/telemetry"
	"pdf-chat-backend/models"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// Embedder turns texts into fixed-dimension vectors, one per input and in
// input order. A single-item batch must embed identically to the same text
// inside a larger batch. Implementations may load their model lazily on
// first use and hold it until Close.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Generator produces an answer string for one assembled prompt.
type Generator interface {
	GenerateAnswer(ctx context.Context, prompt string) (string, error)
}

// FallbackAnswer is returned when retrieval produces nothing to ground an
// answer on; generation is skipped entirely in that case.
const FallbackAnswer = "I couldn't find relevant content in the document to answer that question."

// sourcePreviewLen caps the chunk text echoed back in chat sources.
const sourcePreviewLen = 200

// RetrievalPipeline orchestrates ingestion (chunk, embed, index) and
// answering (embed question, search, assemble prompt, generate) for the
// single active document. Re-ingesting replaces the previous index as one
// atomic pointer swap: in-flight Answer calls see either the old index or
// the new one, never a partial build. Embedding and generation failures
// are never retried here; they propagate typed so handlers can map them.
type RetrievalPipeline struct {
	chunker        *Chunker
	embedder       Embedder
	generator      Generator
	topK           int
	maxPromptChars int
	metrics        *telemetry.Metrics

	mu         sync.RWMutex
	index      *VectorIndex
	docID      string
	ingestedAt time.Time
}

// NewRetrievalPipeline wires the pipeline with its collaborators. All
// tuning (top-k, prompt budget) is fixed at construction; metrics may be
// nil when telemetry is disabled.
func NewRetrievalPipeline(cfg *config.Config, chunker *Chunker, embedder Embedder, generator Generator, metrics *telemetry.Metrics) *RetrievalPipeline {
	return &RetrievalPipeline{
		chunker:        chunker,
		embedder:       embedder,
		generator:      generator,
		topK:           cfg.RetrievalTopK,
		maxPromptChars: cfg.MaxPromptChars,
		metrics:        metrics,
	}
}

// Ingest chunks the document text, embeds every chunk in one batch call,
// builds a fresh index and swaps it in. Any previously loaded document is
// discarded entirely. The build is all-or-nothing: on any failure the
// previous index stays live and untouched. Empty (or whitespace-only)
// text reports models.ErrEmptyDocument since indexing zero chunks would
// make every later question unanswerable.
func (p *RetrievalPipeline) Ingest(ctx context.Context, documentText string) (*models.IngestStats, error) {
	tracer := otel.Tracer("retrieval-pipeline")
	ctx, span := tracer.Start(ctx, "pipeline.ingest")
	defer span.End()

	if strings.TrimSpace(documentText) == "" {
		return nil, fmt.Errorf("%w: nothing to index", models.ErrEmptyDocument)
	}

	start := time.Now()
	chunks := p.chunker.Split(documentText)

	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}

	vectors, err := p.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		span.SetAttributes(attribute.Bool("rag.error", true))
		return nil, fmt.Errorf("embedding document chunks: %w", err)
	}

	index, err := BuildVectorIndex(chunks, vectors)
	if err != nil {
		return nil, err
	}

	docID := uuid.NewString()

	p.mu.Lock()
	p.index = index
	p.docID = docID
	p.ingestedAt = time.Now()
	p.mu.Unlock()

	span.SetAttributes(
		attribute.String("rag.document_id", docID),
		attribute.Int("rag.chunks", len(chunks)),
		attribute.Int("rag.dimension", index.Dimension()),
	)

	if p.metrics != nil {
		p.metrics.RecordIngestion(len(chunks), time.Since(start).Seconds())
	}

	logger.Info("document ingested",
		"document_id", docID,
		"chunks", len(chunks),
		"dimension", index.Dimension(),
		"duration_ms", time.Since(start).Milliseconds())

	return &models.IngestStats{
		DocumentID:   docID,
		NumChunks:    len(chunks),
		CleanedChars: utf8.RuneCountInString(documentText),
		Dimension:    index.Dimension(),
	}, nil
}

// Answer embeds the question, retrieves the top-k most similar chunks and
// hands the assembled prompt to the generator. Asking before any document
// was ingested reports models.ErrNoDocumentLoaded. The generator's output
// is returned unmodified.
func (p *RetrievalPipeline) Answer(ctx context.Context, question string) (*models.AnswerResult, error) {
	tracer := otel.Tracer("retrieval-pipeline")
	ctx, span := tracer.Start(ctx, "pipeline.answer")
	defer span.End()

	// Snapshot the index once; a concurrent Ingest swapping it mid-call
	// must not mix two documents within one answer.
	p.mu.RLock()
	index := p.index
	p.mu.RUnlock()

	if index == nil {
		return nil, fmt.Errorf("%w: upload a PDF before asking questions", models.ErrNoDocumentLoaded)
	}

	retrievalStart := time.Now()
	queryVectors, err := p.embedder.EmbedTexts(ctx, []string{question})
	if err != nil {
		span.SetAttributes(attribute.Bool("rag.error", true))
		return nil, fmt.Errorf("embedding question: %w", err)
	}
	if len(queryVectors) != 1 {
		return nil, fmt.Errorf("%w: expected one query vector, got %d", models.ErrDimensionMismatch, len(queryVectors))
	}

	results, err := index.Search(queryVectors[0], p.topK)
	if err != nil {
		return nil, err
	}
	retrievalSecs := time.Since(retrievalStart).Seconds()

	span.SetAttributes(attribute.Int("rag.retrieved_chunks", len(results)))

	if len(results) == 0 {
		// A live index always holds at least one chunk, but keep the guard
		// so generation never runs with empty context.
		logger.Warn("retrieval returned no chunks", "question_len", len(question))
		return &models.AnswerResult{Answer: FallbackAnswer, Sources: []models.Source{}}, nil
	}

	prompt, truncated := p.buildPrompt(question, results)
	span.SetAttributes(
		attribute.Int("rag.prompt_chars", utf8.RuneCountInString(prompt)),
		attribute.Bool("rag.prompt_truncated", truncated),
	)

	generationStart := time.Now()
	answer, err := p.generator.GenerateAnswer(ctx, prompt)
	if err != nil {
		span.SetAttributes(attribute.Bool("rag.error", true))
		return nil, fmt.Errorf("generating answer: %w", err)
	}
	generationSecs := time.Since(generationStart).Seconds()

	if p.metrics != nil {
		p.metrics.RecordAnswer(retrievalSecs, generationSecs, truncated)
	}

	return &models.AnswerResult{
		Answer:  answer,
		Sources: buildSources(results),
	}, nil
}

// Ready reports whether a document has been successfully ingested.
func (p *RetrievalPipeline) Ready() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.index != nil
}

// Stats snapshots the live index for the status endpoint.
func (p *RetrievalPipeline) Stats() models.IndexStats {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.index == nil {
		return models.IndexStats{}
	}

	return models.IndexStats{
		Ready:      true,
		DocumentID: p.docID,
		NumChunks:  p.index.Size(),
		NumVectors: p.index.Size(),
		Dimension:  p.index.Dimension(),
		IngestedAt: p.ingestedAt,
	}
}

// buildPrompt concatenates the retrieved chunks in ranked order, each
// labeled with its chunk id, followed by the question. The whole prompt
// stays within maxPromptChars: chunks that do not fit are dropped from the
// bottom of the ranking, and only the top chunk is ever partially cut. The
// question itself is never truncated.
func (p *RetrievalPipeline) buildPrompt(question string, results []models.ScoredChunk) (string, bool) {
	header := "Based on the following context:\n\n"
	footer := fmt.Sprintf("\nPlease answer this question: %s", question)

	budget := p.maxPromptChars - utf8.RuneCountInString(header) - utf8.RuneCountInString(footer)

	var b strings.Builder
	truncated := false
	for i, res := range results {
		block := fmt.Sprintf("Context [chunk %d]:\n%s\n\n", res.Chunk.ID, res.Chunk.Text)
		blockLen := utf8.RuneCountInString(block)

		if blockLen > budget {
			if i == 0 && budget > 0 {
				// Even the best chunk overflows: keep its head so the prompt
				// still carries document content.
				scaffold := fmt.Sprintf("Context [chunk %d]:\n\n\n", res.Chunk.ID)
				keep := budget - utf8.RuneCountInString(scaffold)
				if keep > 0 {
					runes := []rune(res.Chunk.Text)
					if keep > len(runes) {
						keep = len(runes)
					}
					b.WriteString(fmt.Sprintf("Context [chunk %d]:\n%s\n\n", res.Chunk.ID, string(runes[:keep])))
				}
			}
			truncated = true
			break
		}

		b.WriteString(block)
		budget -= blockLen
	}

	return header + b.String() + footer, truncated
}

// buildSources converts ranked results into the chat response shape: a
// bounded text preview per chunk with the score rounded to 3 decimals.
func buildSources(results []models.ScoredChunk) []models.Source {
	sources := make([]models.Source, len(results))
	for i, res := range results {
		preview := res.Chunk.Text
		if runes := []rune(preview); len(runes) > sourcePreviewLen {
			preview = string(runes[:sourcePreviewLen]) + "..."
		}
		sources[i] = models.Source{
			ChunkID: res.Chunk.ID,
			Text:    preview,
			Score:   math.Round(res.Score*1000) / 1000,
		}
	}
	return sources
}
