package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/askdrk-backend/internal/core"
	"github.com/example/askdrk-backend/internal/models"
)

// ceDocumentHeader is the CloudEvents extension Eventarc sets to the changed document's path.
const ceDocumentHeader = "ce-document"

// EventHandler receives Firestore document events pushed by Eventarc.
type EventHandler struct {
	notificationService core.NotificationService
	logger              *zap.Logger
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(s core.NotificationService, logger *zap.Logger) *EventHandler {
	return &EventHandler{notificationService: s, logger: logger}
}

// ChatMessageUpdated handles POST /events/chat-messages. A non-2xx response makes Eventarc retry.
func (h *EventHandler) ChatMessageUpdated(c *gin.Context) {
	var evt models.DocumentEventData
	if err := c.ShouldBindJSON(&evt); err != nil {
		writeBadRequest(c, err.Error())
		return
	}

	res, err := h.notificationService.HandleChatMessageUpdate(c.Request.Context(), evt, c.GetHeader(ceDocumentHeader))
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
