package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/askdrk-backend/internal/core"
	"github.com/example/askdrk-backend/internal/models"
)

// SubscriptionHandler handles the subscription endpoints.
type SubscriptionHandler struct {
	subscriptionService core.SubscriptionService
	logger              *zap.Logger
}

// NewSubscriptionHandler creates a new SubscriptionHandler.
func NewSubscriptionHandler(s core.SubscriptionService, logger *zap.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptionService: s, logger: logger}
}

// bindOptionalJSON binds the body when present. An empty body leaves dst untouched.
func bindOptionalJSON(c *gin.Context, dst interface{}) error {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// CreateSubscription handles POST /api/v1/subscriptions
func (h *SubscriptionHandler) CreateSubscription(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		writeUnauthenticated(c)
		return
	}
	var req models.CreateSubscriptionRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		writeBadRequest(c, err.Error())
		return
	}

	res, err := h.subscriptionService.Create(c.Request.Context(), userID, req.Kind)
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// VerifySubscription handles POST /api/v1/subscriptions/verify
func (h *SubscriptionHandler) VerifySubscription(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		writeUnauthenticated(c)
		return
	}
	var req models.VerifySubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err.Error())
		return
	}

	res, err := h.subscriptionService.Verify(c.Request.Context(), userID, req)
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// CancelSubscription handles POST /api/v1/subscriptions/cancel
func (h *SubscriptionHandler) CancelSubscription(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		writeUnauthenticated(c)
		return
	}
	var req models.CancelSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err.Error())
		return
	}
	atCycleEnd := req.CancelAtCycleEnd != nil && *req.CancelAtCycleEnd

	res, err := h.subscriptionService.Cancel(c.Request.Context(), userID, req.SubscriptionID, atCycleEnd)
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GetMySubscription handles GET /api/v1/users/me/subscription
func (h *SubscriptionHandler) GetMySubscription(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		writeUnauthenticated(c)
		return
	}
	snap, err := h.subscriptionService.GetSnapshot(c.Request.Context(), userID)
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}
