package core

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/example/askdrk-backend/internal/config"
	"github.com/example/askdrk-backend/internal/crypto"
	"github.com/example/askdrk-backend/internal/db"
	"github.com/example/askdrk-backend/internal/models"
)

// webhookStatus maps gateway events to the status they set. Other events are acknowledged untouched.
var webhookStatus = map[string]string{
	"subscription.activated": models.StatusActive,
	"subscription.charged":   models.StatusActive,
	"invoice.paid":           models.StatusActive,
	"subscription.halted":    models.StatusInactive,
	"subscription.cancelled": models.StatusInactive,
}

// webhookService implements WebhookService.
type webhookService struct {
	subs   db.SubscriptionRepository
	dedup  EventDeduplicator
	cfg    *config.Config
	logger *zap.Logger
	now    func() time.Time
}

// NewWebhookService creates a new webhookService. dedup may be nil to disable duplicate detection.
func NewWebhookService(subs db.SubscriptionRepository, dedup EventDeduplicator, cfg *config.Config, logger *zap.Logger) WebhookService {
	return &webhookService{subs: subs, dedup: dedup, cfg: cfg, logger: logger, now: time.Now}
}

// HandleRazorpayWebhook authenticates the delivery, then applies the mapped transition to the
// subscription record and the owner's snapshot.
func (s *webhookService) HandleRazorpayWebhook(ctx context.Context, signature, eventID string, payload []byte) (*WebhookResult, error) {
	if s.cfg.RazorpayWebhookSecret == "" {
		return nil, fmt.Errorf("%w: webhook secret is not configured", ErrInvalidConfig)
	}
	if signature == "" {
		return nil, fmt.Errorf("%w: missing webhook signature", ErrInvalidArgument)
	}
	if err := crypto.VerifyWebhook(s.cfg.RazorpayWebhookSecret, payload, signature); err != nil {
		s.logger.Warn("Webhook signature mismatch", zap.String("eventId", eventID))
		return nil, fmt.Errorf("%w: invalid webhook signature", ErrUnauthenticated)
	}

	var evt models.RazorpayWebhookEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		return nil, fmt.Errorf("%w: webhook body is not valid JSON: %v", ErrInvalidArgument, err)
	}

	subscriptionID, userID := evt.SubscriptionID(), evt.UserID()
	result := &WebhookResult{Event: evt.Event, SubscriptionID: subscriptionID}
	log := s.logger.With(zap.String("event", evt.Event), zap.String("eventId", eventID), zap.String("subscriptionId", subscriptionID), zap.String("uid", userID))

	if subscriptionID == "" || userID == "" {
		log.Info("Webhook without subscription or uid; ignoring")
		result.Ignored = "missing identifiers"
		return result, nil
	}
	status, ok := webhookStatus[evt.Event]
	if !ok {
		log.Debug("Unhandled webhook event; ignoring")
		result.Ignored = "unhandled event"
		return result, nil
	}
	result.Status = status

	claimed := false
	if eventID != "" && s.dedup != nil {
		first, err := s.dedup.Claim(ctx, eventID)
		switch {
		case err != nil:
			log.Warn("Webhook dedup unavailable; processing anyway", zap.Error(err))
		case !first:
			log.Info("Duplicate webhook delivery")
			result.Duplicate = true
			return result, nil
		default:
			claimed = true
		}
	}

	applied, err := s.subs.ApplyTransition(ctx, userID, subscriptionID, s.transitionFor(&evt, status))
	if err != nil {
		if claimed {
			if relErr := s.dedup.Release(context.WithoutCancel(ctx), eventID); relErr != nil {
				log.Warn("Failed to release webhook claim", zap.Error(relErr))
			}
		}
		log.Error("Failed to apply webhook transition", zap.Error(err))
		return nil, fmt.Errorf("apply webhook %s: %w", evt.Event, err)
	}
	result.Applied = applied
	if !applied {
		log.Info("Stale webhook not applied")
	} else {
		log.Info("Webhook applied", zap.String("status", status))
	}
	return result, nil
}

func (s *webhookService) transitionFor(evt *models.RazorpayWebhookEvent, status string) models.Transition {
	effectiveAt := s.now()
	if evt.CreatedAt > 0 {
		effectiveAt = time.Unix(evt.CreatedAt, 0).UTC()
	}
	t := models.Transition{
		Status:      status,
		EffectiveAt: effectiveAt,
		Source:      "webhook:" + evt.Event,
		FromWebhook: true,
		Activated:   evt.Event == "subscription.activated",
	}
	if sub := evt.Payload.Subscription; sub != nil {
		if sub.Entity.CurrentEnd > 0 {
			end := time.Unix(sub.Entity.CurrentEnd, 0).UTC()
			t.CurrentEnd = &end
		}
		switch sub.Entity.PlanID {
		case "":
		case s.cfg.RazorpayPlanMonthly:
			t.Kind, t.Plan = models.KindMonthly, planLabelMonthly
		case s.cfg.RazorpayPlanYearly:
			t.Kind, t.Plan = models.KindYearly, planLabelYearly
		}
	}
	if pay := evt.Payload.Payment; pay != nil && pay.Entity.ID != "" {
		t.PaymentID = pay.Entity.ID
	}
	return t
}
