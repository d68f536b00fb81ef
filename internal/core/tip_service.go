package core

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/example/askdrk-backend/internal/config"
	"github.com/example/askdrk-backend/internal/db"
	"github.com/example/askdrk-backend/internal/models"
)

const tipsRoute = "/tips"

// NextTipDay returns the day after day in a cycle of totalDays. Out-of-range days restart at 1.
func NextTipDay(day, totalDays int) int {
	if day < 1 || day >= totalDays {
		return 1
	}
	return day + 1
}

// tipService implements TipService.
type tipService struct {
	tips   db.TipRepository
	push   PushSender
	cfg    *config.Config
	logger *zap.Logger
}

// NewTipService creates a new tipService.
func NewTipService(tips db.TipRepository, push PushSender, cfg *config.Config, logger *zap.Logger) TipService {
	return &tipService{tips: tips, push: push, cfg: cfg, logger: logger}
}

// RunDaily advances the rotation and broadcasts that day's tip to the topic.
func (s *tipService) RunDaily(ctx context.Context) (*TipBroadcastResult, error) {
	total := s.cfg.TipsTotalDays
	day, err := s.tips.AdvanceDay(ctx, func(current int) int { return NextTipDay(current, total) })
	if err != nil {
		return nil, fmt.Errorf("advance tip day: %w", err)
	}

	tip, err := s.tips.GetByDay(ctx, day)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: tip for day %d", ErrNotFound, day)
		}
		return nil, fmt.Errorf("load tip %d: %w", day, err)
	}

	id, err := s.push.SendTopic(ctx, s.cfg.TipsTopic, PushMessage{
		Title: tip.Title,
		Body:  tip.Body,
		Data:  map[string]string{"route": tipsRoute, "day": strconv.Itoa(day)},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: broadcast tip %d: %v", ErrUpstream, day, err)
	}

	s.logger.Info("Daily tip broadcast", zap.Int("day", day), zap.String("topic", s.cfg.TipsTopic), zap.String("messageId", id))
	return &TipBroadcastResult{Day: day, Title: tip.Title, MessageID: id}, nil
}

// Seed stores the given tips, replacing existing days.
func (s *tipService) Seed(ctx context.Context, tips []models.Tip) error {
	if err := s.tips.PutAll(ctx, tips); err != nil {
		return fmt.Errorf("seed tips: %w", err)
	}
	s.logger.Info("Tips seeded", zap.Int("count", len(tips)))
	return nil
}
