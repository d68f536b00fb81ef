package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	razorpay "github.com/razorpay/razorpay-go"
	"go.uber.org/zap"

	"github.com/example/askdrk-backend/internal/core"
)

// razorpayAPI is the part of the Razorpay SDK the gateway calls. It exists so tests can stub the SDK.
type razorpayAPI interface {
	createSubscription(data map[string]interface{}) (map[string]interface{}, error)
	cancelSubscription(id string, data map[string]interface{}) (map[string]interface{}, error)
	fetchSubscription(id string) (map[string]interface{}, error)
	fetchPayment(id string) (map[string]interface{}, error)
}

type sdkClient struct {
	client *razorpay.Client
}

func (s sdkClient) createSubscription(data map[string]interface{}) (map[string]interface{}, error) {
	return s.client.Subscription.Create(data, nil)
}

func (s sdkClient) cancelSubscription(id string, data map[string]interface{}) (map[string]interface{}, error) {
	return s.client.Subscription.Cancel(id, data, nil)
}

func (s sdkClient) fetchSubscription(id string) (map[string]interface{}, error) {
	return s.client.Subscription.Fetch(id, nil, nil)
}

func (s sdkClient) fetchPayment(id string) (map[string]interface{}, error) {
	return s.client.Payment.Fetch(id, nil, nil)
}

// RazorpayGateway implements core.PaymentGateway on the Razorpay SDK.
type RazorpayGateway struct {
	api    razorpayAPI
	logger *zap.Logger
}

// NewRazorpayGateway builds a gateway for the given API key pair.
func NewRazorpayGateway(keyID, keySecret string, logger *zap.Logger) *RazorpayGateway {
	return &RazorpayGateway{api: sdkClient{client: razorpay.NewClient(keyID, keySecret)}, logger: logger}
}

// call runs an SDK request and abandons it when ctx ends. The SDK itself takes no context.
func call(ctx context.Context, fn func() (map[string]interface{}, error)) (map[string]interface{}, error) {
	type result struct {
		body map[string]interface{}
		err  error
	}
	done := make(chan result, 1)
	go func() {
		body, err := fn()
		done <- result{body, err}
	}()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		return r.body, classify(r.err)
	}
}

// classify marks unknown-id responses with core.ErrNotFound.
func classify(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "does not exist") || strings.Contains(msg, "not found") {
		return fmt.Errorf("%w: %v", core.ErrNotFound, err)
	}
	return err
}

// CreateSubscription creates a subscription on the given plan.
func (g *RazorpayGateway) CreateSubscription(ctx context.Context, params core.CreateSubscriptionParams) (*core.GatewaySubscription, error) {
	notes := make(map[string]interface{}, len(params.Notes))
	for k, v := range params.Notes {
		notes[k] = v
	}
	data := map[string]interface{}{
		"plan_id":         params.PlanID,
		"total_count":     params.TotalCount,
		"customer_notify": boolFlag(params.CustomerNotify),
		"notes":           notes,
	}
	body, err := call(ctx, func() (map[string]interface{}, error) { return g.api.createSubscription(data) })
	if err != nil {
		return nil, fmt.Errorf("razorpay create subscription: %w", err)
	}
	sub := toSubscription(body)
	if sub.ID == "" {
		return nil, errors.New("razorpay create subscription: response has no id")
	}
	g.logger.Debug("Razorpay subscription created", zap.String("subscriptionId", sub.ID), zap.String("planId", params.PlanID))
	return sub, nil
}

// FetchPayment retrieves a payment by id.
func (g *RazorpayGateway) FetchPayment(ctx context.Context, paymentID string) (*core.GatewayPayment, error) {
	body, err := call(ctx, func() (map[string]interface{}, error) { return g.api.fetchPayment(paymentID) })
	if err != nil {
		return nil, fmt.Errorf("razorpay fetch payment %s: %w", paymentID, err)
	}
	return &core.GatewayPayment{
		ID:             str(body, "id"),
		Status:         str(body, "status"),
		SubscriptionID: str(body, "subscription_id"),
	}, nil
}

// CancelSubscription cancels immediately or at the end of the current billing cycle.
func (g *RazorpayGateway) CancelSubscription(ctx context.Context, subscriptionID string, atCycleEnd bool) (*core.GatewaySubscription, error) {
	data := map[string]interface{}{"cancel_at_cycle_end": boolFlag(atCycleEnd)}
	body, err := call(ctx, func() (map[string]interface{}, error) { return g.api.cancelSubscription(subscriptionID, data) })
	if err != nil {
		return nil, fmt.Errorf("razorpay cancel subscription %s: %w", subscriptionID, err)
	}
	sub := toSubscription(body)
	g.logger.Debug("Razorpay subscription cancelled", zap.String("subscriptionId", subscriptionID), zap.String("status", sub.Status))
	return sub, nil
}

// FetchSubscription retrieves a subscription by id.
func (g *RazorpayGateway) FetchSubscription(ctx context.Context, subscriptionID string) (*core.GatewaySubscription, error) {
	body, err := call(ctx, func() (map[string]interface{}, error) { return g.api.fetchSubscription(subscriptionID) })
	if err != nil {
		return nil, fmt.Errorf("razorpay fetch subscription %s: %w", subscriptionID, err)
	}
	return toSubscription(body), nil
}

func toSubscription(body map[string]interface{}) *core.GatewaySubscription {
	sub := &core.GatewaySubscription{
		ID:     str(body, "id"),
		PlanID: str(body, "plan_id"),
		Status: str(body, "status"),
	}
	if end := unix(body, "current_end"); end > 0 {
		t := time.Unix(end, 0).UTC()
		sub.CurrentEnd = &t
	}
	return sub
}

// boolFlag renders booleans the way the Razorpay API documents them.
func boolFlag(b bool) int {
	if b {
		return 1
	}
	return 0
}

func str(body map[string]interface{}, key string) string {
	if v, ok := body[key].(string); ok {
		return v
	}
	return ""
}

// unix reads a numeric epoch field. JSON numbers decode as float64; null means unset.
func unix(body map[string]interface{}, key string) int64 {
	switch v := body[key].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	}
	return 0
}
