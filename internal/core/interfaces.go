package core

import (
	"context"
	"time"

	"github.com/example/askdrk-backend/internal/models"
)

// SubscriptionService defines the subscription lifecycle operations exposed to authenticated callers.
type SubscriptionService interface {
	Create(ctx context.Context, userID, kind string) (*CreateSubscriptionResult, error)
	Verify(ctx context.Context, userID string, req models.VerifySubscriptionRequest) (*VerifySubscriptionResult, error)
	Cancel(ctx context.Context, userID, subscriptionID string, cancelAtCycleEnd bool) (*CancelSubscriptionResult, error)
	GetSnapshot(ctx context.Context, userID string) (*models.SubscriptionSnapshot, error)
}

// WebhookService reconciles gateway webhooks into the document store.
type WebhookService interface {
	HandleRazorpayWebhook(ctx context.Context, signature, eventID string, payload []byte) (*WebhookResult, error)
}

// NotificationService reacts to chat message updates.
type NotificationService interface {
	// HandleChatMessageUpdate sends the approval push. documentHint is the event's document
	// path, used when the payload omits the resource name.
	HandleChatMessageUpdate(ctx context.Context, evt models.DocumentEventData, documentHint string) (*ChatNotificationResult, error)
}

// TipService drives the daily tip rotation.
type TipService interface {
	RunDaily(ctx context.Context) (*TipBroadcastResult, error)
	Seed(ctx context.Context, tips []models.Tip) error
}

// AIService proxies generative-text requests.
type AIService interface {
	Generate(ctx context.Context, req models.GenerateTextRequest) (*GenerateTextResult, error)
}

// PaymentGateway is the subset of the payment provider API the lifecycle manager uses.
// Implementations wrap ErrNotFound when the provider reports an unknown id.
type PaymentGateway interface {
	CreateSubscription(ctx context.Context, params CreateSubscriptionParams) (*GatewaySubscription, error)
	FetchPayment(ctx context.Context, paymentID string) (*GatewayPayment, error)
	CancelSubscription(ctx context.Context, subscriptionID string, atCycleEnd bool) (*GatewaySubscription, error)
	FetchSubscription(ctx context.Context, subscriptionID string) (*GatewaySubscription, error)
}

// CreateSubscriptionParams are the fields sent to the gateway when creating a subscription.
type CreateSubscriptionParams struct {
	PlanID         string
	TotalCount     int
	CustomerNotify bool
	Notes          map[string]string
}

// GatewaySubscription is the provider's view of a subscription.
type GatewaySubscription struct {
	ID         string
	PlanID     string
	Status     string
	CurrentEnd *time.Time
}

// GatewayPayment is the provider's view of a payment.
type GatewayPayment struct {
	ID             string
	Status         string
	SubscriptionID string
}

// PushSender delivers notifications to devices and topics.
type PushSender interface {
	// SendMulticast returns an error only when the batch as a whole could not be sent.
	SendMulticast(ctx context.Context, msg PushMessage, tokens []string) (*MulticastResult, error)
	SendTopic(ctx context.Context, topic string, msg PushMessage) (string, error)
}

// PushMessage is a platform-neutral notification.
type PushMessage struct {
	Title            string
	Body             string
	Data             map[string]string
	AndroidChannelID string
	HighPriority     bool
}

// MulticastResult holds per-token outcomes of a multicast send, in token order.
type MulticastResult struct {
	SuccessCount int
	FailureCount int
	Responses    []TokenResult
}

// TokenResult is the outcome for a single device token.
type TokenResult struct {
	Token        string
	MessageID    string
	Err          error
	Unregistered bool
}

// TextGenerator produces text from a prompt.
type TextGenerator interface {
	GenerateText(ctx context.Context, req TextGenerationRequest) (string, error)
}

// TextGenerationRequest is a validated generation request.
type TextGenerationRequest struct {
	Model             string
	Prompt            string
	SystemInstruction string
	Temperature       float32
	MaxOutputTokens   int32
	JSON              bool
}

// EventDeduplicator records processed webhook event ids.
type EventDeduplicator interface {
	// Claim returns false when eventID was already claimed.
	Claim(ctx context.Context, eventID string) (bool, error)
	// Release forgets a claim so a retried delivery is processed again.
	Release(ctx context.Context, eventID string) error
}

// CreateSubscriptionResult is returned to the client to open the checkout.
type CreateSubscriptionResult struct {
	SubscriptionID string `json:"subscriptionId"`
	KeyID          string `json:"keyId"`
	Kind           string `json:"kind"`
}

// VerifySubscriptionResult reports the verified payment status.
type VerifySubscriptionResult struct {
	OK     bool   `json:"ok"`
	Status string `json:"status"`
}

// CancelSubscriptionResult reports the status written after a cancellation.
type CancelSubscriptionResult struct {
	OK                bool       `json:"ok"`
	Status            string     `json:"status"`
	CancelAtCycleEnd  bool       `json:"cancelAtCycleEnd"`
	NextRenewalEndsAt *time.Time `json:"nextRenewalEndsAt,omitempty"`
}

// WebhookResult describes what a webhook delivery did.
type WebhookResult struct {
	Event          string `json:"event"`
	SubscriptionID string `json:"subscriptionId,omitempty"`
	Status         string `json:"status,omitempty"`
	Applied        bool   `json:"applied"`
	Duplicate      bool   `json:"duplicate,omitempty"`
	Ignored        string `json:"ignored,omitempty"` // reason when nothing was written
}

// ChatNotificationResult summarizes a chat approval push.
type ChatNotificationResult struct {
	Sent    int    `json:"sent"`
	Failed  int    `json:"failed"`
	Pruned  int    `json:"pruned"`
	Skipped string `json:"skipped,omitempty"`
}

// TipBroadcastResult is the outcome of one daily tip run.
type TipBroadcastResult struct {
	Day       int    `json:"day"`
	Title     string `json:"title"`
	MessageID string `json:"messageId"`
}

// GenerateTextResult is the proxied completion.
type GenerateTextResult struct {
	Text  string `json:"text"`
	Model string `json:"model"`
}
