package db

import (
	"context"
	"errors"
	"fmt"
	"log"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/example/askdrk-backend/internal/models"
)

const (
	subscriptionsCollection = "subscriptions"
	snapshotField           = "subscription"
)

// firestoreSubscriptionRepository implements SubscriptionRepository.
// Records live at users/{uid}/subscriptions/{subscriptionId}.
type firestoreSubscriptionRepository struct {
	client *firestore.Client
}

// NewFirestoreSubscriptionRepository creates a new instance of firestoreSubscriptionRepository.
func NewFirestoreSubscriptionRepository(client *firestore.Client) SubscriptionRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for SubscriptionRepository.")
	}
	return &firestoreSubscriptionRepository{client: client}
}

func (r *firestoreSubscriptionRepository) userRef(userID string) *firestore.DocumentRef {
	return r.client.Collection(usersCollection).Doc(userID)
}

func (r *firestoreSubscriptionRepository) recordRef(userID, subscriptionID string) *firestore.DocumentRef {
	return r.userRef(userID).Collection(subscriptionsCollection).Doc(subscriptionID)
}

// Create writes a new record. An existing record with the same id is overwritten, which only
// happens when a create is retried for the same gateway subscription.
func (r *firestoreSubscriptionRepository) Create(ctx context.Context, record *models.SubscriptionRecord) error {
	if record == nil || record.UserID == "" || record.ID == "" {
		return errors.New("record user ID and subscription ID are required for Create operation")
	}
	record.Version = 1
	if _, err := r.recordRef(record.UserID, record.ID).Set(ctx, record); err != nil {
		return fmt.Errorf("failed to create subscription '%s' for user '%s': %w", record.ID, record.UserID, err)
	}
	return nil
}

// GetByID retrieves a record owned by userID.
func (r *firestoreSubscriptionRepository) GetByID(ctx context.Context, userID, subscriptionID string) (*models.SubscriptionRecord, error) {
	if userID == "" || subscriptionID == "" {
		return nil, errors.New("userID and subscriptionID cannot be empty for GetByID operation")
	}
	docSnap, err := r.recordRef(userID, subscriptionID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("subscription '%s' for user '%s' not found: %w", subscriptionID, userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get subscription '%s' for user '%s': %w", subscriptionID, userID, err)
	}
	return decodeRecord(docSnap, userID)
}

func decodeRecord(docSnap *firestore.DocumentSnapshot, userID string) (*models.SubscriptionRecord, error) {
	var record models.SubscriptionRecord
	if err := docSnap.DataTo(&record); err != nil {
		return nil, fmt.Errorf("failed to decode subscription '%s': %w", docSnap.Ref.ID, err)
	}
	record.ID = docSnap.Ref.ID
	record.UserID = userID
	return &record, nil
}

// ApplyTransition runs the ordering check and both writes inside one Firestore transaction.
func (r *firestoreSubscriptionRepository) ApplyTransition(ctx context.Context, userID, subscriptionID string, t models.Transition) (bool, error) {
	if userID == "" || subscriptionID == "" {
		return false, errors.New("userID and subscriptionID cannot be empty for ApplyTransition operation")
	}
	if t.Status == "" || t.EffectiveAt.IsZero() {
		return false, errors.New("transition status and effective time are required")
	}

	recRef := r.recordRef(userID, subscriptionID)
	userRef := r.userRef(userID)

	var applied bool
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		applied = false

		// All reads must happen before any write in a Firestore transaction.
		var current *models.SubscriptionRecord
		recSnap, err := tx.Get(recRef)
		switch {
		case err == nil:
			if current, err = decodeRecord(recSnap, userID); err != nil {
				return err
			}
		case status.Code(err) != codes.NotFound:
			return fmt.Errorf("failed to read subscription '%s': %w", subscriptionID, err)
		}

		var user models.User
		userSnap, err := tx.Get(userRef)
		switch {
		case err == nil:
			if err := userSnap.DataTo(&user); err != nil {
				return fmt.Errorf("failed to decode user '%s': %w", userID, err)
			}
		case status.Code(err) != codes.NotFound:
			return fmt.Errorf("failed to read user '%s': %w", userID, err)
		}

		if !current.Accepts(t.EffectiveAt) {
			return nil
		}

		if err := tx.Set(recRef, recordUpdate(current, t), firestore.MergeAll); err != nil {
			return err
		}

		currentSnapshotID := ""
		if user.Subscription != nil {
			currentSnapshotID = user.Subscription.SubscriptionID
		}
		if t.TouchesSnapshot(currentSnapshotID, subscriptionID) {
			snapshot := snapshotUpdate(current, t, subscriptionID, currentSnapshotID != subscriptionID)
			if err := tx.Set(userRef, map[string]interface{}{snapshotField: snapshot}, firestore.MergeAll); err != nil {
				return err
			}
		}
		applied = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("transition '%s' on subscription '%s' failed: %w", t.Status, subscriptionID, err)
	}
	return applied, nil
}

// recordUpdate builds the merge payload for the record. Optional transition fields are only
// written when set so earlier values survive.
func recordUpdate(current *models.SubscriptionRecord, t models.Transition) map[string]interface{} {
	var version int64 = 1
	if current != nil {
		version = current.Version + 1
	}
	data := map[string]interface{}{
		"status":          t.Status,
		"statusChangedAt": t.EffectiveAt,
		"lastTransition":  t.Source,
		"version":         version,
		"updatedAt":       firestore.ServerTimestamp,
	}
	if current == nil {
		data["createdAt"] = firestore.ServerTimestamp
	}
	if t.Kind != "" {
		data["kind"] = t.Kind
	}
	if t.PlanID != "" {
		data["plan_id"] = t.PlanID
	}
	if t.Plan != "" {
		data["plan"] = t.Plan
	}
	if t.TotalCount > 0 {
		data["total_count"] = t.TotalCount
	}
	if t.Verified {
		data["verified"] = true
		data["verifiedAt"] = t.EffectiveAt
	}
	if t.PaymentID != "" {
		data["lastPaymentId"] = t.PaymentID
	}
	if t.Canceled {
		data["canceledAt"] = t.EffectiveAt
		data["cancelAtCycleEnd"] = t.CancelAtCycleEnd
	}
	if t.CurrentEnd != nil {
		data["currentEnd"] = *t.CurrentEnd
	}
	if t.FromWebhook {
		data["lastWebhookAt"] = firestore.ServerTimestamp
	}
	return data
}

// snapshotUpdate builds the merge payload for users/{uid}.subscription. When the snapshot switches
// to another subscription the cancellation fields of the previous one are cleared.
func snapshotUpdate(current *models.SubscriptionRecord, t models.Transition, subscriptionID string, switching bool) map[string]interface{} {
	data := map[string]interface{}{
		"status":         t.Status,
		"subscriptionId": subscriptionID,
		"updatedAt":      firestore.ServerTimestamp,
	}
	plan := t.Plan
	if plan == "" && current != nil {
		plan = current.Plan
	}
	if plan != "" {
		data["plan"] = plan
	}
	if switching {
		data["canceledAt"] = firestore.Delete
		data["cancelAtCycleEnd"] = false
		data["nextRenewalEndsAt"] = firestore.Delete
	}
	if t.Activated {
		data["activatedAt"] = t.EffectiveAt
	}
	if t.Canceled {
		data["canceledAt"] = t.EffectiveAt
		data["cancelAtCycleEnd"] = t.CancelAtCycleEnd
	}
	if t.CurrentEnd != nil {
		data["nextRenewalEndsAt"] = *t.CurrentEnd
	}
	if t.FromWebhook {
		data["lastWebhookAt"] = firestore.ServerTimestamp
	}
	return data
}
