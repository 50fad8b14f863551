package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all application metrics
type Metrics struct {
	RequestCounter     metric.Int64Counter
	RequestDuration    metric.Float64Histogram
	DocumentsIngested  metric.Int64Counter
	ChunksIndexed      metric.Int64Counter
	QuestionsAnswered  metric.Int64Counter
	RetrievalDuration  metric.Float64Histogram
	EmbeddingDuration  metric.Float64Histogram
	GenerationDuration metric.Float64Histogram
	TokensUsed         metric.Int64Counter
	PromptTruncations  metric.Int64Counter
}

// InitMetrics initializes all application metrics
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter("pdf-chat-backend")

	requestCounter, err := meter.Int64Counter(
		"http.requests.total",
		metric.WithDescription("Total HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"http.request.duration",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	documentsIngested, err := meter.Int64Counter(
		"rag.documents.ingested",
		metric.WithDescription("Documents chunked, embedded and indexed"),
	)
	if err != nil {
		return nil, err
	}

	chunksIndexed, err := meter.Int64Counter(
		"rag.chunks.indexed",
		metric.WithDescription("Chunks added to the vector index"),
	)
	if err != nil {
		return nil, err
	}

	questionsAnswered, err := meter.Int64Counter(
		"rag.questions.answered",
		metric.WithDescription("Questions answered against the loaded document"),
	)
	if err != nil {
		return nil, err
	}

	retrievalDuration, err := meter.Float64Histogram(
		"rag.retrieval.duration",
		metric.WithDescription("Similarity search duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	embeddingDuration, err := meter.Float64Histogram(
		"rag.embedding.duration",
		metric.WithDescription("Embedding call duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	generationDuration, err := meter.Float64Histogram(
		"rag.generation.duration",
		metric.WithDescription("Answer generation duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	tokensUsed, err := meter.Int64Counter(
		"gemini.tokens.used",
		metric.WithDescription("Total Gemini tokens used"),
	)
	if err != nil {
		return nil, err
	}

	promptTruncations, err := meter.Int64Counter(
		"rag.prompt.truncations",
		metric.WithDescription("Prompts where retrieved context was cut to fit the budget"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		RequestCounter:     requestCounter,
		RequestDuration:    requestDuration,
		DocumentsIngested:  documentsIngested,
		ChunksIndexed:      chunksIndexed,
		QuestionsAnswered:  questionsAnswered,
		RetrievalDuration:  retrievalDuration,
		EmbeddingDuration:  embeddingDuration,
		GenerationDuration: generationDuration,
		TokensUsed:         tokensUsed,
		PromptTruncations:  promptTruncations,
	}, nil
}

// RecordRequest records HTTP request metrics
func (m *Metrics) RecordRequest(method, path, status string, duration float64) {
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("http.path", path),
		attribute.String("http.status", status),
	}

	m.RequestCounter.Add(context.Background(), 1, metric.WithAttributes(attrs...))
	m.RequestDuration.Record(context.Background(), duration, metric.WithAttributes(attrs...))
}

// RecordIngestion records one successful document ingestion
func (m *Metrics) RecordIngestion(chunks int, duration float64) {
	m.DocumentsIngested.Add(context.Background(), 1)
	m.ChunksIndexed.Add(context.Background(), int64(chunks))
	m.EmbeddingDuration.Record(context.Background(), duration,
		metric.WithAttributes(attribute.String("rag.operation", "ingest")))
}

// RecordAnswer records one answered question with its phase timings
func (m *Metrics) RecordAnswer(retrievalSecs, generationSecs float64, truncated bool) {
	m.QuestionsAnswered.Add(context.Background(), 1)
	m.RetrievalDuration.Record(context.Background(), retrievalSecs)
	m.GenerationDuration.Record(context.Background(), generationSecs)
	if truncated {
		m.PromptTruncations.Add(context.Background(), 1)
	}
}

// RecordTokensUsed records Gemini token usage
func (m *Metrics) RecordTokensUsed(tokens int64, model string) {
	attrs := []attribute.KeyValue{
		attribute.String("gemini.model", model),
		attribute.String("service", "gemini"),
	}

	m.TokensUsed.Add(context.Background(), tokens, metric.WithAttributes(attrs...))
}
