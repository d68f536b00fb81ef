package models

import "time"

// Subscription statuses shared by the Record and the Snapshot.
const (
	StatusCreated         = "created"
	StatusActive          = "active"
	StatusCancelScheduled = "cancel_scheduled"
	StatusInactive        = "inactive"
	StatusCancelled       = "cancelled"
)

// Plan kinds accepted by the create operation.
const (
	KindMonthly = "monthly"
	KindYearly  = "yearly"
)

// SubscriptionRecord is stored at users/{uid}/subscriptions/{subscriptionId}.
// Records are never deleted; StatusChangedAt orders transitions.
type SubscriptionRecord struct {
	ID               string     `json:"id" firestore:"-"`
	UserID           string     `json:"userId" firestore:"-"`
	Status           string     `json:"status" firestore:"status"`
	Kind             string     `json:"kind" firestore:"kind,omitempty"`
	PlanID           string     `json:"planId,omitempty" firestore:"plan_id,omitempty"`
	Plan             string     `json:"plan,omitempty" firestore:"plan,omitempty"`
	TotalCount       int        `json:"totalCount,omitempty" firestore:"total_count,omitempty"`
	Verified         bool       `json:"verified" firestore:"verified"`
	VerifiedAt       *time.Time `json:"verifiedAt,omitempty" firestore:"verifiedAt,omitempty"`
	LastPaymentID    string     `json:"lastPaymentId,omitempty" firestore:"lastPaymentId,omitempty"`
	CanceledAt       *time.Time `json:"canceledAt,omitempty" firestore:"canceledAt,omitempty"`
	CancelAtCycleEnd bool       `json:"cancelAtCycleEnd" firestore:"cancelAtCycleEnd"`
	CurrentEnd       *time.Time `json:"currentEnd,omitempty" firestore:"currentEnd,omitempty"`
	LastWebhookAt    *time.Time `json:"lastWebhookAt,omitempty" firestore:"lastWebhookAt,omitempty"`
	StatusChangedAt  time.Time  `json:"statusChangedAt" firestore:"statusChangedAt"`
	LastTransition   string     `json:"lastTransition,omitempty" firestore:"lastTransition,omitempty"`
	Version          int64      `json:"version" firestore:"version"`
	CreatedAt        time.Time  `json:"createdAt" firestore:"createdAt,serverTimestamp"`
	UpdatedAt        time.Time  `json:"updatedAt" firestore:"updatedAt,serverTimestamp"`
}

// Accepts reports whether a transition effective at t may overwrite this record.
// A nil record accepts everything; equal timestamps are accepted so replays stay idempotent.
func (r *SubscriptionRecord) Accepts(t time.Time) bool {
	if r == nil || r.StatusChangedAt.IsZero() {
		return true
	}
	return !t.Before(r.StatusChangedAt)
}

// SubscriptionSnapshot is the denormalized copy embedded in users/{uid} under "subscription".
type SubscriptionSnapshot struct {
	Status            string     `json:"status" firestore:"status"`
	SubscriptionID    string     `json:"subscriptionId" firestore:"subscriptionId"`
	Plan              string     `json:"plan,omitempty" firestore:"plan,omitempty"`
	ActivatedAt       *time.Time `json:"activatedAt,omitempty" firestore:"activatedAt,omitempty"`
	CanceledAt        *time.Time `json:"canceledAt,omitempty" firestore:"canceledAt,omitempty"`
	CancelAtCycleEnd  bool       `json:"cancelAtCycleEnd" firestore:"cancelAtCycleEnd"`
	NextRenewalEndsAt *time.Time `json:"nextRenewalEndsAt,omitempty" firestore:"nextRenewalEndsAt,omitempty"`
	LastWebhookAt     *time.Time `json:"lastWebhookAt,omitempty" firestore:"lastWebhookAt,omitempty"`
	UpdatedAt         *time.Time `json:"updatedAt,omitempty" firestore:"updatedAt,omitempty"`
}

// Transition describes one status change applied atomically to a Record and its owner's Snapshot.
// Zero-valued optional fields leave the stored value untouched.
type Transition struct {
	Status      string
	EffectiveAt time.Time
	Source      string

	Kind       string
	PlanID     string
	Plan       string
	TotalCount int

	PaymentID        string
	Verified         bool
	Activated        bool
	Canceled         bool
	CancelAtCycleEnd bool
	CurrentEnd       *time.Time
	FromWebhook      bool
}

// TouchesSnapshot reports whether the transition may rewrite a snapshot currently pointing at current.
// An empty snapshot, the same subscription, or an activation of a different one all qualify.
func (t Transition) TouchesSnapshot(current, subscriptionID string) bool {
	return current == "" || current == subscriptionID || t.Status == StatusActive
}
