package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"pdf-chat-backend/internal/config"
	"pdf-chat-backend/models"
	"pdf-chat-backend/services"

	"github.com/gin-gonic/gin"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// stubEmbedder maps every text to the same unit vector; route tests only
// care about the HTTP contract, not ranking.
type stubEmbedder struct{}

func (stubEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{1}
	}
	return vectors, nil
}

type stubGenerator struct {
	answer string
	err    error
}

func (g stubGenerator) GenerateAnswer(ctx context.Context, prompt string) (string, error) {
	return g.answer, g.err
}

func testConfig() *config.Config {
	return &config.Config{
		MaxFileSize:     1 << 20,
		RetrievalTopK:   3,
		MaxPromptChars:  8000,
		EmbeddingsModel: "text-embedding-004",
		GenerationModel: "gemini-2.0-flash",
	}
}

func newChatRouter(t *testing.T, generator services.Generator) (*gin.Engine, *services.RetrievalPipeline) {
	t.Helper()

	cfg := testConfig()
	chunker, err := services.NewChunker(1000, 200)
	if err != nil {
		t.Fatalf("NewChunker: %v", err)
	}
	pipeline := services.NewRetrievalPipeline(cfg, chunker, stubEmbedder{}, generator, nil)

	router := gin.New()
	SetupChatRoutes(router, cfg, pipeline)
	return router, pipeline
}

func postJSON(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		ErrorCode string `json:"error_code"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding error body %q: %v", rec.Body.String(), err)
	}
	return body.ErrorCode
}

func TestChatRejectsMalformedJSON(t *testing.T) {
	router, _ := newChatRouter(t, stubGenerator{answer: "x"})

	rec := postJSON(router, "/api/chat", "{not json")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if code := errorCode(t, rec); code != "invalid_input" {
		t.Fatalf("error_code = %q", code)
	}
}

func TestChatRejectsMissingQuestion(t *testing.T) {
	router, _ := newChatRouter(t, stubGenerator{answer: "x"})

	rec := postJSON(router, "/api/chat", `{"question": ""}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if code := errorCode(t, rec); code != "invalid_input" {
		t.Fatalf("error_code = %q", code)
	}
}

func TestChatBeforeUpload(t *testing.T) {
	router, _ := newChatRouter(t, stubGenerator{answer: "x"})

	rec := postJSON(router, "/api/chat", `{"question": "What is this about?"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if code := errorCode(t, rec); code != "no_document_loaded" {
		t.Fatalf("error_code = %q", code)
	}
}

func TestChatAnswersLoadedDocument(t *testing.T) {
	router, pipeline := newChatRouter(t, stubGenerator{answer: "It is about birds."})

	if _, err := pipeline.Ingest(context.Background(), "A short document about birds and their habits."); err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	rec := postJSON(router, "/api/chat", `{"question": "What is this about?"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp models.ChatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Answer != "It is about birds." {
		t.Fatalf("answer = %q", resp.Answer)
	}
	if len(resp.Sources) == 0 {
		t.Fatal("expected at least one source")
	}
	if resp.Timestamp.IsZero() {
		t.Fatal("missing timestamp")
	}
}

func TestChatModelUnavailable(t *testing.T) {
	router, pipeline := newChatRouter(t, stubGenerator{err: models.ErrModelUnavailable})

	if _, err := pipeline.Ingest(context.Background(), "A short document about birds and their habits."); err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	rec := postJSON(router, "/api/chat", `{"question": "What is this about?"}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503, body = %s", rec.Code, rec.Body.String())
	}
	if code := errorCode(t, rec); code != "service_unavailable" {
		t.Fatalf("error_code = %q", code)
	}
}

func TestChatRejectsOverlongQuestion(t *testing.T) {
	router, pipeline := newChatRouter(t, stubGenerator{answer: "x"})

	if _, err := pipeline.Ingest(context.Background(), "A short document about birds and their habits."); err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	question := strings.Repeat("why ", 600) // over the 2000 character bound
	rec := postJSON(router, "/api/chat", `{"question": "`+question+`"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
