package routes

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"pdf-chat-backend/internal/config"
	"pdf-chat-backend/internal/logger"
	"pdf-chat-backend/middleware"
	"pdf-chat-backend/models"
	"pdf-chat-backend/services"
	"pdf-chat-backend/utils"

	"github.com/gin-gonic/gin"
)

// SetupUploadRoutes registers the document upload endpoint.
func SetupUploadRoutes(router *gin.Engine, cfg *config.Config, extractor *services.PDFExtractor, pipeline *services.RetrievalPipeline) {
	router.POST("/api/upload", HandlePDFUpload(cfg, extractor, pipeline))
}

// HandlePDFUpload validates the multipart upload, extracts and cleans the
// document text, and ingests it into the retrieval pipeline. A successful
// upload replaces whatever document was loaded before.
func HandlePDFUpload(cfg *config.Config, extractor *services.PDFExtractor, pipeline *services.RetrievalPipeline) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := c.Request.ParseMultipartForm(cfg.MaxFileSize); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error_code": "file_too_large",
				"message":    "File size exceeds maximum limit",
			})
			return
		}

		file, header, err := c.Request.FormFile("pdf")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error_code": "no_file",
				"message":    "No PDF file provided",
			})
			return
		}
		defer file.Close()

		// Validate file type
		ct := header.Header.Get("Content-Type")
		if !strings.Contains(ct, "pdf") && !strings.HasSuffix(strings.ToLower(header.Filename), ".pdf") {
			c.JSON(http.StatusBadRequest, gin.H{
				"error_code": "invalid_file_type",
				"message":    "Only PDF files are allowed",
			})
			return
		}

		if header.Size > cfg.MaxFileSize {
			c.JSON(http.StatusBadRequest, gin.H{
				"error_code": "file_too_large",
				"message":    "File size exceeds maximum limit",
			})
			return
		}

		// Basic PDF header validation without loading whole file
		headerBuf := make([]byte, 5)
		if _, err := io.ReadFull(file, headerBuf); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error_code": "invalid_file",
				"message":    "Cannot read file header",
			})
			return
		}
		if string(headerBuf[:4]) != "%PDF" {
			c.JSON(http.StatusBadRequest, gin.H{
				"error_code": "invalid_pdf",
				"message":    "File does not appear to be a valid PDF",
			})
			return
		}
		if _, err := file.Seek(0, io.SeekStart); err != nil {
			utils.RespondWithInternalError(c, "Failed to reset file for reading", nil)
			return
		}

		content, err := io.ReadAll(io.LimitReader(file, cfg.MaxFileSize))
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to read uploaded file", nil)
			return
		}

		ctx, cancel := utils.WithIngestTimeout(c.Request.Context())
		defer cancel()

		extraction, err := extractor.ExtractText(ctx, content)
		if err != nil {
			logger.Warn("PDF extraction failed", "filename", header.Filename, "error", err.Error())
			c.JSON(http.StatusBadRequest, gin.H{
				"error_code": "extraction_failed",
				"message":    "Could not extract text from the PDF",
				"details":    gin.H{"error": err.Error()},
			})
			return
		}

		cleaned := services.CleanText(extraction.Text)

		stats, err := pipeline.Ingest(ctx, cleaned)
		if err != nil {
			switch {
			case errors.Is(err, models.ErrEmptyDocument):
				c.JSON(http.StatusBadRequest, gin.H{
					"error_code": "empty_document",
					"message":    "The PDF contains no usable text",
				})
			case errors.Is(err, models.ErrModelUnavailable):
				utils.RespondWithServiceUnavailable(c, "Embedding service is unavailable, please retry later")
			default:
				logger.Error("document ingestion failed", "filename", header.Filename, "error", err.Error())
				utils.RespondWithInternalError(c, "Failed to index the document", nil)
			}
			return
		}

		logger.Info("document ingested",
			"request_id", middleware.GetRequestID(c),
			"document_id", stats.DocumentID,
			"filename", header.Filename,
			"pages", extraction.Pages,
			"chunks", stats.NumChunks,
			"method", extraction.Method)

		c.JSON(http.StatusOK, models.UploadResponse{
			DocumentID:   stats.DocumentID,
			Filename:     header.Filename,
			Pages:        extraction.Pages,
			NumChunks:    stats.NumChunks,
			RawChars:     extraction.CharacterCount,
			CleanedChars: stats.CleanedChars,
			Method:       extraction.Method,
			Status:       "indexed",
		})
	}
}
