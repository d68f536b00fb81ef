package api

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/askdrk-backend/internal/core"
)

const (
	razorpaySignatureHeader = "X-Razorpay-Signature"
	razorpayEventIDHeader   = "X-Razorpay-Event-Id"
	maxWebhookBodyBytes     = 1 << 20
)

// WebhookHandler handles gateway webhooks. It is public; deliveries authenticate by signature.
type WebhookHandler struct {
	webhookService core.WebhookService
	logger         *zap.Logger
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(s core.WebhookService, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{webhookService: s, logger: logger}
}

// HandleRazorpayWebhook handles POST /webhooks/razorpay. The raw body is read unparsed because
// the signature covers the exact bytes.
func (h *WebhookHandler) HandleRazorpayWebhook(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBodyBytes))
	if err != nil {
		writeBadRequest(c, "failed to read webhook payload")
		return
	}

	res, err := h.webhookService.HandleRazorpayWebhook(
		c.Request.Context(),
		c.GetHeader(razorpaySignatureHeader),
		c.GetHeader(razorpayEventIDHeader),
		payload,
	)
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "ok", Data: res})
}
