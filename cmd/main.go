package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pdf-chat-backend/internal/ai"
	"pdf-chat-backend/internal/config"
	"pdf-chat-backend/internal/logger"
	"pdf-chat-backend/internal/telemetry"
	"pdf-chat-backend/middleware"
	"pdf-chat-backend/routes"
	"pdf-chat-backend/services"
	"pdf-chat-backend/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)

	// Telemetry is optional; the service runs fine without a collector
	var metrics *telemetry.Metrics
	if cfg.TelemetryEnabled {
		shutdownTracer, err := telemetry.InitTracer("pdf-chat-backend", cfg.OTLPEndpoint)
		if err != nil {
			logger.Warn("tracing disabled", "error", err.Error())
		} else {
			defer shutdownTracer()
		}

		metrics, err = telemetry.InitMetrics()
		if err != nil {
			logger.Warn("metrics disabled", "error", err.Error())
			metrics = nil
		}
	}

	// Wire the retrieval pipeline
	chunker, err := services.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		log.Fatal("Failed to create chunker:", err)
	}

	embedder := ai.NewGeminiEmbedder(cfg)
	defer embedder.Close()

	geminiClient, err := ai.NewGeminiClient(cfg, metrics)
	if err != nil {
		log.Fatal("Failed to create Gemini client:", err)
	}
	defer geminiClient.Close()

	extractor := services.NewPDFExtractor()
	pipeline := services.NewRetrievalPipeline(cfg, chunker, embedder, geminiClient, metrics)

	// Initialize Gin router
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	// Allow some slack over the file cap for multipart framing
	router.Use(middleware.RequestSizeLimit(cfg.MaxFileSize + 1<<20))

	if cfg.TelemetryEnabled {
		router.Use(middleware.TracingMiddleware())
		router.Use(middleware.EnrichTrace())
	}
	if metrics != nil {
		router.Use(middleware.MetricsMiddleware(metrics))
	}

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "X-Requested-With", "X-Request-ID"}
	corsConfig.AllowCredentials = true
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
	})

	router.NoRoute(func(c *gin.Context) {
		utils.RespondWithNotFound(c, "Route not found")
	})

	// Setup routes
	startTime := time.Now()
	routes.SetupUploadRoutes(router, cfg, extractor, pipeline)
	routes.SetupChatRoutes(router, cfg, pipeline)
	routes.SetupStatusRoutes(router, cfg, pipeline, geminiClient, startTime)

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
