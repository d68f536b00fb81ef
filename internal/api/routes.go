package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/askdrk-backend/internal/core"
	"github.com/example/askdrk-backend/internal/middleware"
)

// SetupRoutes configures all application routes. Global middleware (logging, recovery, CORS,
// timeout) is expected on router before this is called.
func SetupRoutes(
	router *gin.Engine,
	logger *zap.Logger,
	verifier middleware.TokenVerifier,
	subscriptionService core.SubscriptionService,
	webhookService core.WebhookService,
	notificationService core.NotificationService,
	aiService core.AIService,
) {
	authMW := middleware.NewAuthMiddleware(verifier, logger)

	subscriptionHandler := NewSubscriptionHandler(subscriptionService, logger)
	webhookHandler := NewWebhookHandler(webhookService, logger)
	eventHandler := NewEventHandler(notificationService, logger)
	aiHandler := NewAIHandler(aiService, logger)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP"})
	})

	apiV1 := router.Group("/api/v1", authMW.VerifyToken())
	{
		subs := apiV1.Group("/subscriptions")
		{
			subs.POST("", subscriptionHandler.CreateSubscription)
			subs.POST("/verify", subscriptionHandler.VerifySubscription)
			subs.POST("/cancel", subscriptionHandler.CancelSubscription)
		}

		apiV1.GET("/users/me/subscription", subscriptionHandler.GetMySubscription)
		apiV1.POST("/ai/generate", aiHandler.Generate)
	}

	// Public: authenticated by the gateway signature.
	router.POST("/webhooks/razorpay", webhookHandler.HandleRazorpayWebhook)

	// Public at the application level; Cloud Run IAM restricts the caller to Eventarc.
	router.POST("/events/chat-messages", eventHandler.ChatMessageUpdated)

	logger.Info("Routes configured")
}
