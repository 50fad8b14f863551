package routes

import (
	"errors"
	"net/http"
	"time"

	"pdf-chat-backend/internal/config"
	"pdf-chat-backend/internal/logger"
	"pdf-chat-backend/middleware"
	"pdf-chat-backend/models"
	"pdf-chat-backend/services"
	"pdf-chat-backend/utils"

	"github.com/gin-gonic/gin"
)

// SetupChatRoutes registers the question answering endpoint.
func SetupChatRoutes(router *gin.Engine, cfg *config.Config, pipeline *services.RetrievalPipeline) {
	router.POST("/api/chat", HandleChat(cfg, pipeline))
}

// HandleChat answers a question against the currently loaded document.
func HandleChat(cfg *config.Config, pipeline *services.RetrievalPipeline) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.ChatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error_code": "invalid_input",
				"message":    "Invalid request data",
				"details":    gin.H{"error": err.Error()},
			})
			return
		}

		ctx, cancel := utils.WithTimeout(c.Request.Context())
		defer cancel()

		start := time.Now()
		result, err := pipeline.Answer(ctx, req.Question)
		latency := time.Since(start)

		if err != nil {
			switch {
			case errors.Is(err, models.ErrNoDocumentLoaded):
				c.JSON(http.StatusBadRequest, gin.H{
					"error_code": "no_document_loaded",
					"message":    "No document is loaded, please upload a PDF first",
				})
			case errors.Is(err, models.ErrModelUnavailable):
				utils.RespondWithServiceUnavailable(c, "Model is unavailable, please retry later")
			default:
				logger.Error("failed to answer question", "error", err.Error())
				utils.RespondWithInternalError(c, "Failed to generate an answer", nil)
			}
			return
		}

		logger.Info("question answered",
			"request_id", middleware.GetRequestID(c),
			"sources", len(result.Sources),
			"latency_ms", latency.Milliseconds())

		c.JSON(http.StatusOK, models.ChatResponse{
			Answer:    result.Answer,
			Sources:   result.Sources,
			LatencyMs: int(latency.Milliseconds()),
			Timestamp: time.Now(),
		})
	}
}
