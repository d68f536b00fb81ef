// Package bootstrap builds the clients, repositories and services shared by the binaries.
package bootstrap

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/example/askdrk-backend/internal/ai"
	"github.com/example/askdrk-backend/internal/cache"
	"github.com/example/askdrk-backend/internal/config"
	"github.com/example/askdrk-backend/internal/core"
	"github.com/example/askdrk-backend/internal/db"
	"github.com/example/askdrk-backend/internal/gateway"
	"github.com/example/askdrk-backend/internal/notify"
)

// NewLogger returns a production logger in release mode and a development logger otherwise.
func NewLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg != nil && cfg.IsRelease() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// App holds everything a binary may need. Optional pieces are nil when not configured.
type App struct {
	Config  *config.Config
	Logger  *zap.Logger
	Clients *db.Clients

	Users         db.UserRepository
	Subscriptions db.SubscriptionRepository
	Tips          db.TipRepository

	Push core.PushSender

	SubscriptionService core.SubscriptionService
	WebhookService      core.WebhookService
	NotificationService core.NotificationService
	TipService          core.TipService
	AIService           core.AIService

	closers []func() error
}

// New initializes Firebase and wires the services. Redis and Gemini are optional: an empty
// REDIS_ADDR disables webhook dedup and an empty GEMINI_API_KEY makes the AI proxy report invalid-config.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	clients, err := db.InitFirebase(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init firebase: %w", err)
	}
	a := &App{Config: cfg, Logger: logger, Clients: clients}
	a.closers = append(a.closers, clients.Close)

	a.Users = db.NewFirestoreUserRepository(clients.Firestore)
	a.Subscriptions = db.NewFirestoreSubscriptionRepository(clients.Firestore)
	a.Tips = db.NewFirestoreTipRepository(clients.Firestore)
	a.Push = notify.NewFCMSender(clients.Messaging, logger)

	var dedup core.EventDeduplicator
	if cfg.RedisAddr != "" {
		rdb, err := cache.NewRedisClient(ctx, cache.RedisConfig{Address: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}, logger)
		if err != nil {
			logger.Warn("Redis unavailable; webhook duplicate detection disabled", zap.Error(err))
		} else {
			dedup = cache.NewWebhookDeduplicator(rdb, cfg.WebhookDedupTTL)
			a.closers = append(a.closers, rdb.Close)
		}
	}

	var generator core.TextGenerator
	if cfg.GeminiAPIKey != "" {
		g, err := ai.NewGeminiGenerator(ctx, cfg.GeminiAPIKey, logger)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("init gemini: %w", err)
		}
		generator = g
	}

	var payments core.PaymentGateway
	if cfg.RazorpayKeyID != "" && cfg.RazorpayKeySecret != "" {
		payments = gateway.NewRazorpayGateway(cfg.RazorpayKeyID, cfg.RazorpayKeySecret, logger)
	} else {
		logger.Warn("Razorpay keys are not configured; subscription endpoints will report invalid-config")
	}

	a.SubscriptionService = core.NewSubscriptionService(a.Subscriptions, a.Users, payments, cfg, logger)
	a.WebhookService = core.NewWebhookService(a.Subscriptions, dedup, cfg, logger)
	a.NotificationService = core.NewNotificationService(a.Users, a.Push, cfg, logger)
	a.TipService = core.NewTipService(a.Tips, a.Push, cfg, logger)
	a.AIService = core.NewAIService(generator, cfg, logger)
	return a, nil
}

// Close releases clients in reverse order of creation.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.Logger.Warn("Error closing client", zap.Error(err))
		}
	}
	a.closers = nil
}
