package config

import (
	"strings"
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.ChunkSize != 1000 || cfg.ChunkOverlap != 200 {
		t.Errorf("chunk window defaults = %d/%d", cfg.ChunkSize, cfg.ChunkOverlap)
	}
	if cfg.RetrievalTopK != 3 {
		t.Errorf("RetrievalTopK = %d", cfg.RetrievalTopK)
	}
	if cfg.EmbeddingsModel != "text-embedding-004" {
		t.Errorf("EmbeddingsModel = %q", cfg.EmbeddingsModel)
	}
	if cfg.TelemetryEnabled {
		t.Error("telemetry enabled by default")
	}
}

func TestLoadConfigRequiresAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error without GEMINI_API_KEY")
	}
}

func TestLoadConfigRejectsBadChunkWindow(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")

	cases := []struct {
		name    string
		size    string
		overlap string
	}{
		{"overlap equals size", "100", "100"},
		{"overlap exceeds size", "100", "150"},
		{"zero overlap", "100", "0"},
		{"negative overlap", "100", "-5"},
		{"negative size", "-1", "10"},
	}

	for _, tc := range cases {
		t.Setenv("CHUNK_SIZE", tc.size)
		t.Setenv("CHUNK_OVERLAP", tc.overlap)
		if _, err := LoadConfig(); err == nil {
			t.Errorf("%s: expected error for size=%s overlap=%s", tc.name, tc.size, tc.overlap)
		}
	}
}

func TestLoadConfigParsesOverrides(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("CHUNK_SIZE", "500")
	t.Setenv("CHUNK_OVERLAP", "50")
	t.Setenv("RETRIEVAL_TOP_K", "5")
	t.Setenv("CORS_ORIGINS", "https://app.example.com,https://admin.example.com")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.ChunkSize != 500 || cfg.ChunkOverlap != 50 {
		t.Errorf("chunk window = %d/%d", cfg.ChunkSize, cfg.ChunkOverlap)
	}
	if cfg.RetrievalTopK != 5 {
		t.Errorf("RetrievalTopK = %d", cfg.RetrievalTopK)
	}
	if len(cfg.CORSOrigins) != 2 || !strings.HasPrefix(cfg.CORSOrigins[0], "https://app.") {
		t.Errorf("CORSOrigins = %v", cfg.CORSOrigins)
	}
}
