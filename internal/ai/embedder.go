package ai

import (
	"context"
	"fmt"
	"sync"

	"pdf-chat-backend/internal/config"
	"pdf-chat-backend/models"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/api/option"

	genai "github.com/google/generative-ai-go/genai"
)

// maxEmbedBatch is the Gemini API ceiling per BatchEmbedContents call.
const maxEmbedBatch = 100

// GeminiEmbedder maps texts to fixed-dimension vectors with the Gemini
// embeddings API. The underlying client is created lazily on first use and
// held until Close, so ingestion and querying share one loaded model.
type GeminiEmbedder struct {
	cfg *config.Config

	initOnce sync.Once
	client   *genai.Client
	initErr  error
}

// NewGeminiEmbedder wires the embedder; no network work happens until the
// first EmbedTexts call.
func NewGeminiEmbedder(cfg *config.Config) *GeminiEmbedder {
	return &GeminiEmbedder{cfg: cfg}
}

// ensureClient creates the genai client exactly once. A failed creation
// sticks: the embedding capability counts as unavailable for the rest of
// the process.
func (e *GeminiEmbedder) ensureClient(ctx context.Context) (*genai.Client, error) {
	e.initOnce.Do(func() {
		if e.cfg.GeminiAPIKey == "" {
			e.initErr = fmt.Errorf("%w: missing GEMINI_API_KEY for embeddings", models.ErrModelUnavailable)
			return
		}

		client, err := genai.NewClient(ctx, option.WithAPIKey(e.cfg.GeminiAPIKey))
		if err != nil {
			e.initErr = fmt.Errorf("%w: creating embeddings client: %v", models.ErrModelUnavailable, err)
			return
		}
		e.client = client
	})

	return e.client, e.initErr
}

// EmbedTexts embeds all inputs in order, paging through the API batch
// limit transparently. The result always has one vector per input; any
// shortfall from the API is reported rather than padded over.
func (e *GeminiEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	client, err := e.ensureClient(ctx)
	if err != nil {
		return nil, err
	}

	tracer := otel.Tracer("gemini-embedder")
	ctx, span := tracer.Start(ctx, "gemini.embed_texts")
	defer span.End()
	span.SetAttributes(
		attribute.Int("gemini.batch_size", len(texts)),
		attribute.String("gemini.model", e.cfg.EmbeddingsModel),
	)

	em := client.EmbeddingModel(e.cfg.EmbeddingsModel)

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += maxEmbedBatch {
		end := start + maxEmbedBatch
		if end > len(texts) {
			end = len(texts)
		}

		batch := em.NewBatch()
		for _, text := range texts[start:end] {
			batch.AddContent(genai.Text(text))
		}

		resp, err := em.BatchEmbedContents(ctx, batch)
		if err != nil {
			span.SetAttributes(attribute.Bool("gemini.error", true))
			return nil, fmt.Errorf("%w: batch embedding failed: %v", models.ErrModelUnavailable, err)
		}

		if len(resp.Embeddings) != end-start {
			return nil, fmt.Errorf("%w: got %d embeddings for %d inputs", models.ErrDimensionMismatch, len(resp.Embeddings), end-start)
		}

		for i, emb := range resp.Embeddings {
			if emb == nil || len(emb.Values) == 0 {
				return nil, fmt.Errorf("%w: empty embedding for input %d", models.ErrModelUnavailable, start+i)
			}
			if e.cfg.EmbeddingDimensions > 0 && len(emb.Values) != e.cfg.EmbeddingDimensions {
				return nil, fmt.Errorf("%w: model returned dimension %d, configured %d", models.ErrDimensionMismatch, len(emb.Values), e.cfg.EmbeddingDimensions)
			}
			vectors = append(vectors, emb.Values)
		}
	}

	return vectors, nil
}

// Close releases the underlying client at process teardown.
func (e *GeminiEmbedder) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}
