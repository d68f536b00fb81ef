package models

import (
	"encoding/json"
	"fmt"
)

// RazorpayWebhookEvent is the envelope Razorpay posts to the webhook endpoint.
type RazorpayWebhookEvent struct {
	Entity    string          `json:"entity"`
	AccountID string          `json:"account_id"`
	Event     string          `json:"event"`
	Contains  []string        `json:"contains"`
	Payload   RazorpayPayload `json:"payload"`
	CreatedAt int64           `json:"created_at"`
}

// RazorpayPayload holds the entities attached to an event. Any of them may be absent.
type RazorpayPayload struct {
	Subscription *RazorpayEntityWrapper `json:"subscription,omitempty"`
	Invoice      *RazorpayEntityWrapper `json:"invoice,omitempty"`
	Payment      *RazorpayEntityWrapper `json:"payment,omitempty"`
}

// RazorpayEntityWrapper is the {"entity": {...}} shape used for every payload entity.
type RazorpayEntityWrapper struct {
	Entity RazorpayEntity `json:"entity"`
}

// RazorpayEntity carries the fields read from subscription, invoice and payment entities.
type RazorpayEntity struct {
	ID             string `json:"id"`
	Entity         string `json:"entity"`
	Status         string `json:"status"`
	PlanID         string `json:"plan_id"`
	SubscriptionID string `json:"subscription_id"`
	CurrentEnd     int64  `json:"current_end"`
	Notes          Notes  `json:"notes"`
}

// Notes is the free-form key/value map Razorpay attaches to entities. Razorpay sends an empty
// JSON array instead of an object when no notes exist; non-string values are stringified.
type Notes map[string]string

// UnmarshalJSON accepts an object, an empty array or null.
func (n *Notes) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case nil:
		*n = nil
	case []interface{}:
		*n = Notes{}
	case map[string]interface{}:
		out := make(Notes, len(v))
		for key, val := range v {
			switch s := val.(type) {
			case string:
				out[key] = s
			case nil:
			default:
				out[key] = fmt.Sprint(s)
			}
		}
		*n = out
	default:
		return fmt.Errorf("notes: unexpected JSON type %T", raw)
	}
	return nil
}

func (p RazorpayPayload) entities() []*RazorpayEntityWrapper {
	return []*RazorpayEntityWrapper{p.Subscription, p.Invoice, p.Payment}
}

// SubscriptionID returns the first subscription id found on the subscription, invoice or payment entity.
func (e *RazorpayWebhookEvent) SubscriptionID() string {
	if s := e.Payload.Subscription; s != nil && s.Entity.ID != "" {
		return s.Entity.ID
	}
	if i := e.Payload.Invoice; i != nil && i.Entity.SubscriptionID != "" {
		return i.Entity.SubscriptionID
	}
	if p := e.Payload.Payment; p != nil && p.Entity.SubscriptionID != "" {
		return p.Entity.SubscriptionID
	}
	return ""
}

// UserID returns notes.uid from the first entity that carries it, in the same order.
func (e *RazorpayWebhookEvent) UserID() string {
	for _, w := range e.Payload.entities() {
		if w != nil && w.Entity.Notes["uid"] != "" {
			return w.Entity.Notes["uid"]
		}
	}
	return ""
}
