package models

// CreateSubscriptionRequest represents the request body for starting a subscription checkout.
type CreateSubscriptionRequest struct {
	Kind string `json:"kind,omitempty"` // "monthly" (default) or "yearly"
}

// VerifySubscriptionRequest carries the checkout callback fields returned to the client by Razorpay.
type VerifySubscriptionRequest struct {
	PaymentID      string `json:"razorpay_payment_id"`
	SubscriptionID string `json:"razorpay_subscription_id"`
	Signature      string `json:"razorpay_signature"`
}

// CancelSubscriptionRequest represents the request body for cancelling a subscription.
// An omitted CancelAtCycleEnd cancels immediately.
type CancelSubscriptionRequest struct {
	SubscriptionID   string `json:"subscriptionId"`
	CancelAtCycleEnd *bool  `json:"cancelAtCycleEnd,omitempty"`
}

// GenerateTextRequest represents the request body for the generative-text proxy.
type GenerateTextRequest struct {
	Prompt            string   `json:"prompt"`
	SystemInstruction string   `json:"systemInstruction,omitempty"`
	Temperature       *float64 `json:"temperature,omitempty"`
	MaxOutputTokens   *int     `json:"maxOutputTokens,omitempty"`
	ResponseFormat    string   `json:"responseFormat,omitempty"` // "text" (default) or "json"
}
