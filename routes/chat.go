package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rag-chatbot-backend/internal/logger"
	"rag-chatbot-backend/middleware"
	"rag-chatbot-backend/models"
	"rag-chatbot-backend/services"
	"rag-chatbot-backend/utils"
)

// SetupChatRoutes wires the two public endpoints. Every failure - malformed
// body, crawl error, upstream model error - is logged with its cause and
// collapsed into a uniform 500 {"error": ...}; callers cannot distinguish
// failure kinds from the response.
func SetupChatRoutes(router *gin.Engine, chatSvc *services.ChatService, ingestor *services.Ingestor) {
	api := router.Group("/api")

	api.POST("/chat", func(c *gin.Context) {
		var req models.ChatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			internalError(c, "chat", err)
			return
		}

		identity := utils.GetClientIP(c.Request)

		answer, err := chatSvc.Chat(c.Request.Context(), identity, req.Question)
		if err != nil {
			internalError(c, "chat", err)
			return
		}

		c.JSON(http.StatusOK, models.ChatResponse{Response: answer})
	})

	api.POST("/load-documents", func(c *gin.Context) {
		var req models.LoadDocumentsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			internalError(c, "load-documents", err)
			return
		}

		result, err := ingestor.Ingest(c.Request.Context(), req.URL)
		if err != nil {
			internalError(c, "load-documents", err)
			return
		}

		logger.Info("documents loaded", "url", req.URL, "chunks", result.ChunkCount)
		c.JSON(http.StatusOK, models.LoadDocumentsResponse{Success: true})
	})
}

func internalError(c *gin.Context, op string, err error) {
	logger.Error("request failed",
		"op", op,
		"request_id", middleware.GetRequestID(c),
		"client_ip", c.ClientIP(),
		"err", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
}
