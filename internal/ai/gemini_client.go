package ai

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"pdf-chat-backend/internal/config"
	"pdf-chat-backend/internal/telemetry"
	"pdf-chat-backend/models"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	genai "github.com/google/generative-ai-go/genai"
)

// GeminiClient is the generation capability behind the pipeline: one prompt
// in, one answer out. Calls go through a client-side rate limiter and a
// circuit breaker so a degraded API fails fast instead of queueing; the
// pipeline itself never retries.
type GeminiClient struct {
	cfg          *config.Config
	breaker      *gobreaker.CircuitBreaker
	rateLimiter  *rate.Limiter
	usageCounter *UsageCounter
	metrics      *telemetry.Metrics
	client       *genai.Client
}

// UsageCounter tracks cumulative generation usage for the status endpoint.
type UsageCounter struct {
	mu              sync.Mutex
	requests        int64
	estimatedTokens int64
}

// NewGeminiClient builds the generation client. metrics may be nil when
// telemetry is disabled.
func NewGeminiClient(cfg *config.Config, metrics *telemetry.Metrics) (*GeminiClient, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, fmt.Errorf("%w: creating generation client: %v", models.ErrModelUnavailable, err)
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "GeminiAPI",
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Printf("Circuit breaker %s: %s -> %s", name, from, to)
			if to == gobreaker.StateOpen {
				alertOps("Gemini API circuit breaker opened - service degraded")
			}
		},
	})

	// RPM limit with some buffer
	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 10
	}
	burst := rpm / 10
	if burst < 1 {
		burst = 1
	}
	rateLimiter := rate.NewLimiter(rate.Limit(float64(rpm)*0.9/60.0), burst)

	return &GeminiClient{
		cfg:          cfg,
		breaker:      breaker,
		rateLimiter:  rateLimiter,
		usageCounter: &UsageCounter{},
		metrics:      metrics,
		client:       client,
	}, nil
}

// GenerateAnswer sends the assembled prompt to Gemini and returns the
// response text unmodified. An open breaker or API failure surfaces as
// models.ErrModelUnavailable for the handler to map.
func (gc *GeminiClient) GenerateAnswer(ctx context.Context, prompt string) (string, error) {
	tracer := otel.Tracer("gemini-client")
	ctx, span := tracer.Start(ctx, "gemini.generate_content")
	defer span.End()

	estimatedTokens := estimateTokens(prompt)
	span.SetAttributes(
		attribute.Int("gemini.estimated_tokens", estimatedTokens),
		attribute.String("gemini.model", gc.cfg.GenerationModel),
	)

	if err := gc.rateLimiter.Wait(ctx); err != nil {
		span.SetAttributes(attribute.Bool("gemini.rate_limited", true))
		return "", fmt.Errorf("%w: rate limiter: %v", models.ErrModelUnavailable, err)
	}

	result, err := gc.breaker.Execute(func() (interface{}, error) {
		model := gc.configureModel()

		resp, err := model.GenerateContent(ctx, genai.Text(prompt))
		if err != nil {
			span.SetAttributes(attribute.Bool("gemini.error", true))
			span.SetAttributes(attribute.String("gemini.error_message", err.Error()))
			return nil, err
		}

		actualTokens := extractTokenUsage(resp)
		gc.usageCounter.Record(int64(actualTokens))
		if gc.metrics != nil {
			gc.metrics.RecordTokensUsed(int64(actualTokens), gc.cfg.GenerationModel)
		}
		span.SetAttributes(attribute.Int("gemini.actual_tokens", actualTokens))

		return resp, nil
	})

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			span.SetAttributes(attribute.Bool("gemini.circuit_breaker_open", true))
			return "", fmt.Errorf("%w: generation temporarily unavailable (circuit open)", models.ErrModelUnavailable)
		}
		span.SetAttributes(attribute.Bool("gemini.error", true))
		return "", fmt.Errorf("%w: %v", models.ErrModelUnavailable, err)
	}

	span.SetAttributes(attribute.Bool("gemini.success", true))
	return extractResponseText(result.(*genai.GenerateContentResponse)), nil
}

// configureModel applies safety settings and generation tuning.
func (gc *GeminiClient) configureModel() *genai.GenerativeModel {
	model := gc.client.GenerativeModel(gc.cfg.GenerationModel)

	model.SafetySettings = []*genai.SafetySetting{
		{
			Category:  genai.HarmCategoryHarassment,
			Threshold: genai.HarmBlockMediumAndAbove,
		},
		{
			Category:  genai.HarmCategoryHateSpeech,
			Threshold: genai.HarmBlockMediumAndAbove,
		},
		{
			Category:  genai.HarmCategoryDangerousContent,
			Threshold: genai.HarmBlockMediumAndAbove,
		},
		{
			Category:  genai.HarmCategorySexuallyExplicit,
			Threshold: genai.HarmBlockMediumAndAbove,
		},
	}

	model.GenerationConfig = genai.GenerationConfig{
		Temperature:     float32Ptr(float32(gc.cfg.GenerationTemp)),
		TopP:            float32Ptr(0.8),
		TopK:            int32Ptr(40),
		MaxOutputTokens: int32Ptr(int32(gc.cfg.MaxOutputTokens)),
	}

	return model
}

// Usage snapshots the cumulative request/token counters.
func (gc *GeminiClient) Usage() models.UsageStats {
	gc.usageCounter.mu.Lock()
	defer gc.usageCounter.mu.Unlock()

	return models.UsageStats{
		Requests:        gc.usageCounter.requests,
		EstimatedTokens: gc.usageCounter.estimatedTokens,
	}
}

// Record adds one request with its token count to the running totals.
func (uc *UsageCounter) Record(tokens int64) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	uc.requests++
	uc.estimatedTokens += tokens
}

// estimateTokens falls back to the rough 1 token ≈ 4 characters rule.
func estimateTokens(prompt string) int {
	return len(prompt) / 4
}

// extractTokenUsage prefers the actual usage metadata from the response.
func extractTokenUsage(resp *genai.GenerateContentResponse) int {
	if resp.UsageMetadata != nil {
		return int(resp.UsageMetadata.TotalTokenCount)
	}

	totalText := ""
	for _, candidate := range resp.Candidates {
		if candidate.Content != nil {
			for _, part := range candidate.Content.Parts {
				if text, ok := part.(genai.Text); ok {
					totalText += string(text)
				}
			}
		}
	}

	estimated := len(totalText) / 4
	if estimated < 1 {
		estimated = 1
	}

	return estimated
}

// extractResponseText flattens the first candidate's parts. Gemini can
// return an empty candidate on safety blocks; answer with an apology
// instead of an empty string.
func extractResponseText(resp *genai.GenerateContentResponse) string {
	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil || resp.Candidates[0].Content == nil {
		return "I apologize, but I couldn't generate a proper response. Please try again."
	}

	var reply strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			reply.WriteString(string(txt))
		}
	}

	replyText := strings.TrimSpace(reply.String())
	if replyText == "" {
		replyText = "I apologize, but I couldn't generate a proper response. Please try again."
	}

	return replyText
}

// Alert operations team
func alertOps(message string) {
	log.Printf("🚨 ALERT: %s", message)
}

func float32Ptr(f float32) *float32 {
	return &f
}

func int32Ptr(i int32) *int32 {
	return &i
}

// Close the client
func (gc *GeminiClient) Close() error {
	if gc.client != nil {
		return gc.client.Close()
	}
	return nil
}
