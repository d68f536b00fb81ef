package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const webhookKeyPrefix = "askdrk:webhook:razorpay:"

// RedisConfig contains options for connecting to Redis.
type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

// NewRedisClient connects to Redis and verifies the connection with PING.
func NewRedisClient(ctx context.Context, cfg RedisConfig, logger *zap.Logger) (*redis.Client, error) {
	if cfg.Address == "" {
		return nil, errors.New("redis address is empty")
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Address, err)
	}
	logger.Info("Connected to Redis", zap.String("addr", cfg.Address), zap.Int("db", cfg.DB))
	return rdb, nil
}

// WebhookDeduplicator implements core.EventDeduplicator with SET NX keys that expire after ttl.
type WebhookDeduplicator struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewWebhookDeduplicator creates a deduplicator on an existing client.
func NewWebhookDeduplicator(client redis.Cmdable, ttl time.Duration) *WebhookDeduplicator {
	return &WebhookDeduplicator{client: client, ttl: ttl}
}

// Claim stores the event id if absent and reports whether this call stored it.
func (d *WebhookDeduplicator) Claim(ctx context.Context, eventID string) (bool, error) {
	ok, err := d.client.SetNX(ctx, webhookKeyPrefix+eventID, time.Now().Unix(), d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis claim %s: %w", eventID, err)
	}
	return ok, nil
}

// Release deletes a claim.
func (d *WebhookDeduplicator) Release(ctx context.Context, eventID string) error {
	if err := d.client.Del(ctx, webhookKeyPrefix+eventID).Err(); err != nil {
		return fmt.Errorf("redis release %s: %w", eventID, err)
	}
	return nil
}
