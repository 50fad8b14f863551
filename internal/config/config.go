package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	GeminiAPIKey string
	Port         string
	GinMode      string
	CORSOrigins  []string
	MaxFileSize  int64

	// Retrieval pipeline tuning. ChunkSize and ChunkOverlap are rune counts,
	// MaxPromptChars bounds the assembled prompt handed to generation.
	ChunkSize      int
	ChunkOverlap   int
	RetrievalTopK  int
	MaxPromptChars int

	// Model selection
	GenerationModel     string
	EmbeddingsModel     string
	EmbeddingDimensions int
	GenerationTemp      float64
	MaxOutputTokens     int
	RequestsPerMinute   int

	// Telemetry
	TelemetryEnabled bool
	OTLPEndpoint     string
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		Port:         getEnv("PORT", "8080"),
		GinMode:      getEnv("GIN_MODE", "debug"),
		CORSOrigins:  strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:8080"), ","),
		MaxFileSize:  getEnvInt64("MAX_FILE_SIZE", 26214400), // 25MB, plenty for a single chat document

		ChunkSize:      getEnvInt("CHUNK_SIZE", 1000),
		ChunkOverlap:   getEnvInt("CHUNK_OVERLAP", 200),
		RetrievalTopK:  getEnvInt("RETRIEVAL_TOP_K", 3),
		MaxPromptChars: getEnvInt("MAX_PROMPT_CHARS", 8000),

		GenerationModel:     getEnv("GENERATION_MODEL", "gemini-2.0-flash"),
		EmbeddingsModel:     getEnv("EMBEDDINGS_MODEL", "text-embedding-004"),
		EmbeddingDimensions: getEnvInt("EMBEDDING_DIMENSIONS", 768),
		GenerationTemp:      getEnvFloat64("GENERATION_TEMPERATURE", 0.7),
		MaxOutputTokens:     getEnvInt("MAX_OUTPUT_TOKENS", 2048),
		RequestsPerMinute:   getEnvInt("GEMINI_RPM", 15),

		TelemetryEnabled: getEnvBool("TELEMETRY_ENABLED", false),
		OTLPEndpoint:     getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
	}

	// Validate required fields
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required - set it in .env file")
	}

	if cfg.ChunkSize <= 0 {
		return nil, fmt.Errorf("CHUNK_SIZE must be positive, got %d", cfg.ChunkSize)
	}

	if cfg.ChunkOverlap <= 0 || cfg.ChunkOverlap >= cfg.ChunkSize {
		return nil, fmt.Errorf("CHUNK_OVERLAP must be positive and smaller than CHUNK_SIZE, got overlap=%d size=%d", cfg.ChunkOverlap, cfg.ChunkSize)
	}

	if cfg.RetrievalTopK <= 0 {
		return nil, fmt.Errorf("RETRIEVAL_TOP_K must be positive, got %d", cfg.RetrievalTopK)
	}

	if cfg.MaxPromptChars <= 0 {
		return nil, fmt.Errorf("MAX_PROMPT_CHARS must be positive, got %d", cfg.MaxPromptChars)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
