package routes

import (
	"net/http"
	"time"

	"pdf-chat-backend/internal/ai"
	"pdf-chat-backend/internal/config"
	"pdf-chat-backend/models"
	"pdf-chat-backend/services"

	"github.com/gin-gonic/gin"
)

// SetupStatusRoutes registers the service status endpoint.
func SetupStatusRoutes(router *gin.Engine, cfg *config.Config, pipeline *services.RetrievalPipeline, client *ai.GeminiClient, startTime time.Time) {
	router.GET("/api/status", func(c *gin.Context) {
		index := pipeline.Stats()

		status := "waiting_for_document"
		if index.Ready {
			status = "ready"
		}

		c.JSON(http.StatusOK, models.StatusResponse{
			Status:          status,
			Ready:           index.Ready,
			EmbeddingsModel: cfg.EmbeddingsModel,
			GenerationModel: cfg.GenerationModel,
			TopK:            cfg.RetrievalTopK,
			Index:           index,
			Usage:           client.Usage(),
			UptimeSeconds:   int64(time.Since(startTime).Seconds()),
		})
	})
}
