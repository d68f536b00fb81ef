package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/askdrk-backend/internal/core"
	"github.com/example/askdrk-backend/internal/models"
)

// AIHandler handles the generative-text proxy.
type AIHandler struct {
	aiService core.AIService
	logger    *zap.Logger
}

// NewAIHandler creates a new AIHandler.
func NewAIHandler(s core.AIService, logger *zap.Logger) *AIHandler {
	return &AIHandler{aiService: s, logger: logger}
}

// Generate handles POST /api/v1/ai/generate
func (h *AIHandler) Generate(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		writeUnauthenticated(c)
		return
	}
	var req models.GenerateTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err.Error())
		return
	}

	res, err := h.aiService.Generate(c.Request.Context(), req)
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
