package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/example/askdrk-backend/internal/config"
	"github.com/example/askdrk-backend/internal/crypto"
	"github.com/example/askdrk-backend/internal/db"
	"github.com/example/askdrk-backend/internal/models"
)

const (
	monthlyTotalCount = 1200
	yearlyTotalCount  = 100

	planLabelMonthly = "monthly_499"
	planLabelYearly  = "yearly_5499"

	paymentStatusCaptured = "captured"
)

// subscriptionService implements SubscriptionService.
type subscriptionService struct {
	subs    db.SubscriptionRepository
	users   db.UserRepository
	gateway PaymentGateway
	cfg     *config.Config
	logger  *zap.Logger
	now     func() time.Time
}

// NewSubscriptionService creates a new subscriptionService.
func NewSubscriptionService(subs db.SubscriptionRepository, users db.UserRepository, gateway PaymentGateway, cfg *config.Config, logger *zap.Logger) SubscriptionService {
	return &subscriptionService{
		subs:    subs,
		users:   users,
		gateway: gateway,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
	}
}

// normalizeKind maps the requested kind to monthly or yearly. Empty means monthly.
func normalizeKind(kind string) (string, error) {
	switch k := strings.ToLower(strings.TrimSpace(kind)); k {
	case "", models.KindMonthly:
		return models.KindMonthly, nil
	case models.KindYearly:
		return models.KindYearly, nil
	default:
		return "", fmt.Errorf("%w: kind must be %q or %q", ErrInvalidArgument, models.KindMonthly, models.KindYearly)
	}
}

// planLabel is the snapshot label the client shows for a kind. Unknown kinds fall back to monthly.
func planLabel(kind string) string {
	if kind == models.KindYearly {
		return planLabelYearly
	}
	return planLabelMonthly
}

func (s *subscriptionService) planFor(kind string) (planID string, totalCount int) {
	if kind == models.KindYearly {
		return s.cfg.RazorpayPlanYearly, yearlyTotalCount
	}
	return s.cfg.RazorpayPlanMonthly, monthlyTotalCount
}

func (s *subscriptionService) gatewayConfigured() bool {
	return s.gateway != nil && s.cfg.RazorpayKeyID != "" && s.cfg.RazorpayKeySecret != ""
}

// Create opens a gateway subscription for the caller and records it with status "created".
func (s *subscriptionService) Create(ctx context.Context, userID, kind string) (*CreateSubscriptionResult, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: caller identity required", ErrUnauthenticated)
	}
	kind, err := normalizeKind(kind)
	if err != nil {
		return nil, err
	}
	planID, totalCount := s.planFor(kind)
	if planID == "" {
		return nil, fmt.Errorf("%w: plan id for %s subscriptions is not configured", ErrInvalidConfig, kind)
	}
	if !s.gatewayConfigured() {
		return nil, fmt.Errorf("%w: payment gateway credentials are not configured", ErrInvalidConfig)
	}

	sub, err := s.gateway.CreateSubscription(ctx, CreateSubscriptionParams{
		PlanID:         planID,
		TotalCount:     totalCount,
		CustomerNotify: true,
		Notes:          map[string]string{"uid": userID, "kind": kind},
	})
	if err != nil {
		s.logger.Error("Gateway rejected subscription create", zap.String("uid", userID), zap.String("kind", kind), zap.Error(err))
		return nil, fmt.Errorf("%w: create subscription: %v", ErrUpstream, err)
	}

	record := &models.SubscriptionRecord{
		ID:              sub.ID,
		UserID:          userID,
		Status:          models.StatusCreated,
		Kind:            kind,
		PlanID:          planID,
		Plan:            planLabel(kind),
		TotalCount:      totalCount,
		StatusChangedAt: s.now(),
		LastTransition:  "create",
	}
	if err := s.subs.Create(ctx, record); err != nil {
		s.logger.Error("Failed to store subscription record", zap.String("uid", userID), zap.String("subscriptionId", sub.ID), zap.Error(err))
		return nil, fmt.Errorf("store subscription %s: %w", sub.ID, err)
	}

	s.logger.Info("Subscription created", zap.String("uid", userID), zap.String("subscriptionId", sub.ID), zap.String("kind", kind))
	return &CreateSubscriptionResult{SubscriptionID: sub.ID, KeyID: s.cfg.RazorpayKeyID, Kind: kind}, nil
}

// Verify checks the checkout signature and the captured payment, then activates the subscription.
func (s *subscriptionService) Verify(ctx context.Context, userID string, req models.VerifySubscriptionRequest) (*VerifySubscriptionResult, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: caller identity required", ErrUnauthenticated)
	}
	if req.PaymentID == "" || req.SubscriptionID == "" || req.Signature == "" {
		return nil, fmt.Errorf("%w: payment id, subscription id and signature are required", ErrInvalidArgument)
	}
	if s.cfg.RazorpayKeySecret == "" {
		return nil, fmt.Errorf("%w: verification secret is not configured", ErrInvalidConfig)
	}
	log := s.logger.With(zap.String("uid", userID), zap.String("subscriptionId", req.SubscriptionID), zap.String("paymentId", req.PaymentID))

	if err := crypto.VerifyCheckout(s.cfg.RazorpayKeySecret, req.PaymentID, req.SubscriptionID, req.Signature); err != nil {
		log.Warn("Checkout signature mismatch")
		return nil, fmt.Errorf("%w: invalid checkout signature", ErrPermissionDenied)
	}
	if !s.gatewayConfigured() {
		return nil, fmt.Errorf("%w: payment gateway credentials are not configured", ErrInvalidConfig)
	}

	payment, err := s.gateway.FetchPayment(ctx, req.PaymentID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: payment %s", ErrNotFound, req.PaymentID)
		}
		log.Error("Failed to fetch payment", zap.Error(err))
		return nil, fmt.Errorf("%w: fetch payment: %v", ErrUpstream, err)
	}
	if payment.Status != paymentStatusCaptured {
		log.Warn("Payment not captured", zap.String("paymentStatus", payment.Status))
		return nil, fmt.Errorf("%w: payment status is %q", ErrPreconditionFailed, payment.Status)
	}
	if payment.SubscriptionID != "" && payment.SubscriptionID != req.SubscriptionID {
		log.Warn("Payment belongs to another subscription", zap.String("paymentSubscriptionId", payment.SubscriptionID))
		return nil, fmt.Errorf("%w: payment does not belong to subscription", ErrPermissionDenied)
	}

	kind := models.KindMonthly
	record, err := s.subs.GetByID(ctx, userID, req.SubscriptionID)
	switch {
	case err == nil:
		if record.Kind != "" {
			kind = record.Kind
		}
	case errors.Is(err, db.ErrNotFound):
		log.Warn("Verifying subscription without a stored record")
	default:
		return nil, fmt.Errorf("load subscription %s: %w", req.SubscriptionID, err)
	}

	applied, err := s.subs.ApplyTransition(ctx, userID, req.SubscriptionID, models.Transition{
		Status:      models.StatusActive,
		EffectiveAt: s.now(),
		Source:      "verify",
		Kind:        kind,
		Plan:        planLabel(kind),
		PaymentID:   req.PaymentID,
		Verified:    true,
		Activated:   true,
	})
	if err != nil {
		log.Error("Failed to activate subscription", zap.Error(err))
		return nil, err
	}
	if !applied {
		log.Warn("Activation superseded by a newer transition")
	}

	log.Info("Subscription verified", zap.Bool("applied", applied))
	return &VerifySubscriptionResult{OK: true, Status: payment.Status}, nil
}

// Cancel cancels the caller's subscription at the gateway, immediately or at the end of the cycle.
func (s *subscriptionService) Cancel(ctx context.Context, userID, subscriptionID string, cancelAtCycleEnd bool) (*CancelSubscriptionResult, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: caller identity required", ErrUnauthenticated)
	}
	if subscriptionID == "" {
		return nil, fmt.Errorf("%w: subscription id is required", ErrInvalidArgument)
	}
	log := s.logger.With(zap.String("uid", userID), zap.String("subscriptionId", subscriptionID))

	if _, err := s.subs.GetByID(ctx, userID, subscriptionID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: subscription %s", ErrNotFound, subscriptionID)
		}
		return nil, fmt.Errorf("load subscription %s: %w", subscriptionID, err)
	}
	if !s.gatewayConfigured() {
		return nil, fmt.Errorf("%w: payment gateway credentials are not configured", ErrInvalidConfig)
	}

	cancelled, err := s.gateway.CancelSubscription(ctx, subscriptionID, cancelAtCycleEnd)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: subscription %s at gateway", ErrNotFound, subscriptionID)
		}
		log.Error("Gateway rejected cancellation", zap.Error(err))
		return nil, fmt.Errorf("%w: cancel subscription: %v", ErrUpstream, err)
	}

	var currentEnd *time.Time
	fetched, err := s.gateway.FetchSubscription(ctx, subscriptionID)
	if err != nil {
		log.Warn("Could not re-fetch subscription after cancel; renewal end unknown", zap.Error(err))
	} else {
		currentEnd = fetched.CurrentEnd
	}

	status := models.StatusCancelScheduled
	if !cancelAtCycleEnd {
		status = models.StatusCancelled
		if cancelled != nil && cancelled.Status != "" {
			status = cancelled.Status
		}
	}

	applied, err := s.subs.ApplyTransition(ctx, userID, subscriptionID, models.Transition{
		Status:           status,
		EffectiveAt:      s.now(),
		Source:           "cancel",
		Canceled:         true,
		CancelAtCycleEnd: cancelAtCycleEnd,
		CurrentEnd:       currentEnd,
	})
	if err != nil {
		log.Error("Failed to store cancellation", zap.Error(err))
		return nil, err
	}

	log.Info("Subscription cancelled", zap.String("status", status), zap.Bool("cancelAtCycleEnd", cancelAtCycleEnd), zap.Bool("applied", applied))
	return &CancelSubscriptionResult{OK: true, Status: status, CancelAtCycleEnd: cancelAtCycleEnd, NextRenewalEndsAt: currentEnd}, nil
}

// GetSnapshot returns the subscription snapshot stored on the caller's user document.
func (s *subscriptionService) GetSnapshot(ctx context.Context, userID string) (*models.SubscriptionSnapshot, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: caller identity required", ErrUnauthenticated)
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: user %s", ErrNotFound, userID)
		}
		return nil, fmt.Errorf("load user %s: %w", userID, err)
	}
	if user.Subscription == nil || user.Subscription.SubscriptionID == "" {
		return nil, fmt.Errorf("%w: no subscription for user %s", ErrNotFound, userID)
	}
	return user.Subscription, nil
}
