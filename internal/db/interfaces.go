package db

import (
	"context"
	"errors"

	"github.com/example/askdrk-backend/internal/models"
)

// ErrNotFound is returned when a document does not exist in Firestore.
var ErrNotFound = errors.New("document not found")

// UserRepository defines the storage operations on users/{uid}.
type UserRepository interface {
	GetByID(ctx context.Context, userID string) (*models.User, error)
	// RemoveFCMTokens deletes the given keys from the user's fcmTokens map.
	RemoveFCMTokens(ctx context.Context, userID string, tokens []string) error
}

// SubscriptionRepository defines the storage operations on subscription records and the
// snapshot embedded in the owning user document.
type SubscriptionRepository interface {
	Create(ctx context.Context, record *models.SubscriptionRecord) error
	GetByID(ctx context.Context, userID, subscriptionID string) (*models.SubscriptionRecord, error)
	// ApplyTransition writes the record and, when allowed, the user's snapshot in one transaction.
	// It returns false without writing when the transition is older than the stored one.
	ApplyTransition(ctx context.Context, userID, subscriptionID string, t models.Transition) (bool, error)
}

// TipRepository defines the storage operations on the tip rotation counter and the tips collection.
type TipRepository interface {
	// AdvanceDay reads meta/tipRotation.day (1 when absent), stores next(day) and returns it.
	AdvanceDay(ctx context.Context, next func(current int) int) (int, error)
	GetByDay(ctx context.Context, day int) (*models.Tip, error)
	PutAll(ctx context.Context, tips []models.Tip) error
}
