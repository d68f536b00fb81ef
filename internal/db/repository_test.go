package db

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"cloud.google.com/go/firestore"

	"github.com/example/askdrk-backend/internal/models"
)

// newEmulatorClient connects to the Firestore emulator or skips the test.
func newEmulatorClient(t *testing.T) *firestore.Client {
	t.Helper()
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}
	ctx := context.Background()
	client, err := firestore.NewClient(ctx, fmt.Sprintf("askdrk-test-%d", time.Now().UnixNano()))
	if err != nil {
		t.Fatalf("firestore.NewClient: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestSubscriptionRepositoryTransitions(t *testing.T) {
	client := newEmulatorClient(t)
	repo := NewFirestoreSubscriptionRepository(client)
	users := NewFirestoreUserRepository(client)
	ctx := context.Background()

	created := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	if err := repo.Create(ctx, &models.SubscriptionRecord{
		ID: "sub_1", UserID: "u1", Status: models.StatusCreated, Kind: models.KindYearly,
		Plan: "yearly_5499", StatusChangedAt: created,
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	activatedAt := created.Add(time.Minute)
	applied, err := repo.ApplyTransition(ctx, "u1", "sub_1", models.Transition{
		Status: models.StatusActive, EffectiveAt: activatedAt, Source: "verify",
		Verified: true, Activated: true, PaymentID: "pay_1",
	})
	if err != nil || !applied {
		t.Fatalf("ApplyTransition(active) = %v, %v", applied, err)
	}

	// An older webhook must not overwrite the newer state.
	applied, err = repo.ApplyTransition(ctx, "u1", "sub_1", models.Transition{
		Status: models.StatusInactive, EffectiveAt: created, Source: "webhook", FromWebhook: true,
	})
	if err != nil {
		t.Fatalf("ApplyTransition(stale): %v", err)
	}
	if applied {
		t.Fatal("stale transition was applied")
	}

	rec, err := repo.GetByID(ctx, "u1", "sub_1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if rec.Status != models.StatusActive || !rec.Verified || rec.LastPaymentID != "pay_1" || rec.Version != 2 {
		t.Errorf("record = %+v", rec)
	}

	user, err := users.GetByID(ctx, "u1")
	if err != nil {
		t.Fatalf("users.GetByID: %v", err)
	}
	snap := user.Subscription
	if snap == nil || snap.Status != models.StatusActive || snap.SubscriptionID != "sub_1" || snap.Plan != "yearly_5499" {
		t.Errorf("snapshot = %+v", snap)
	}

	// A late cancellation for a different, older subscription leaves the snapshot alone.
	applied, err = repo.ApplyTransition(ctx, "u1", "sub_0", models.Transition{
		Status: models.StatusInactive, EffectiveAt: activatedAt.Add(time.Minute), Source: "webhook", FromWebhook: true,
	})
	if err != nil || !applied {
		t.Fatalf("ApplyTransition(other) = %v, %v", applied, err)
	}
	user, _ = users.GetByID(ctx, "u1")
	if user.Subscription.SubscriptionID != "sub_1" || user.Subscription.Status != models.StatusActive {
		t.Errorf("snapshot clobbered: %+v", user.Subscription)
	}

	// Cancel at cycle end lands on both documents with the cycle end.
	end := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	applied, err = repo.ApplyTransition(ctx, "u1", "sub_1", models.Transition{
		Status: models.StatusCancelScheduled, EffectiveAt: activatedAt.Add(2 * time.Minute), Source: "cancel",
		Canceled: true, CancelAtCycleEnd: true, CurrentEnd: &end,
	})
	if err != nil || !applied {
		t.Fatalf("ApplyTransition(cancel) = %v, %v", applied, err)
	}
	rec, err = repo.GetByID(ctx, "u1", "sub_1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if rec.Status != models.StatusCancelScheduled || !rec.CancelAtCycleEnd || rec.CanceledAt == nil ||
		rec.CurrentEnd == nil || !rec.CurrentEnd.Equal(end) || rec.Version != 3 {
		t.Errorf("record after cancel = %+v", rec)
	}
	user, _ = users.GetByID(ctx, "u1")
	snap = user.Subscription
	if snap == nil || snap.Status != models.StatusCancelScheduled || !snap.CancelAtCycleEnd ||
		snap.NextRenewalEndsAt == nil || !snap.NextRenewalEndsAt.Equal(end) {
		t.Errorf("snapshot after cancel = %+v", snap)
	}

	// A webhook writes both documents and stamps lastWebhookAt.
	applied, err = repo.ApplyTransition(ctx, "u1", "sub_1", models.Transition{
		Status: models.StatusInactive, EffectiveAt: activatedAt.Add(3 * time.Minute), Source: "webhook", FromWebhook: true,
	})
	if err != nil || !applied {
		t.Fatalf("ApplyTransition(webhook) = %v, %v", applied, err)
	}
	rec, _ = repo.GetByID(ctx, "u1", "sub_1")
	if rec.Status != models.StatusInactive || rec.LastWebhookAt == nil || rec.Version != 4 || rec.LastTransition != "webhook" {
		t.Errorf("record after webhook = %+v", rec)
	}
	user, _ = users.GetByID(ctx, "u1")
	snap = user.Subscription
	if snap.Status != models.StatusInactive || snap.LastWebhookAt == nil || snap.NextRenewalEndsAt == nil {
		t.Errorf("snapshot after webhook = %+v", snap)
	}

	// Activating a new subscription takes over the snapshot and clears the old cancellation.
	if err := repo.Create(ctx, &models.SubscriptionRecord{
		ID: "sub_2", UserID: "u1", Status: models.StatusCreated, Kind: models.KindMonthly,
		Plan: "monthly_499", StatusChangedAt: activatedAt.Add(4 * time.Minute),
	}); err != nil {
		t.Fatalf("Create(sub_2): %v", err)
	}
	applied, err = repo.ApplyTransition(ctx, "u1", "sub_2", models.Transition{
		Status: models.StatusActive, EffectiveAt: activatedAt.Add(5 * time.Minute), Source: "verify",
		Verified: true, Activated: true,
	})
	if err != nil || !applied {
		t.Fatalf("ApplyTransition(sub_2) = %v, %v", applied, err)
	}
	user, _ = users.GetByID(ctx, "u1")
	snap = user.Subscription
	if snap.SubscriptionID != "sub_2" || snap.Status != models.StatusActive || snap.Plan != "monthly_499" ||
		snap.CanceledAt != nil || snap.CancelAtCycleEnd || snap.NextRenewalEndsAt != nil || snap.ActivatedAt == nil {
		t.Errorf("snapshot after switch = %+v", snap)
	}

	if _, err := repo.GetByID(ctx, "u1", "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID(missing) error = %v, want ErrNotFound", err)
	}
}

func TestUserRepositoryRemoveFCMTokens(t *testing.T) {
	client := newEmulatorClient(t)
	ctx := context.Background()
	_, err := client.Collection(usersCollection).Doc("u1").Set(ctx, map[string]interface{}{
		fcmTokensField: map[string]interface{}{"tok:a.1": true, "tok-b": true},
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	users := NewFirestoreUserRepository(client)
	if err := users.RemoveFCMTokens(ctx, "u1", []string{"tok:a.1"}); err != nil {
		t.Fatalf("RemoveFCMTokens: %v", err)
	}
	user, err := users.GetByID(ctx, "u1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	tokens := user.Tokens()
	if len(tokens) != 1 || tokens[0] != "tok-b" {
		t.Errorf("tokens = %v, want [tok-b]", tokens)
	}
}

func TestTipRepositoryAdvanceDayConcurrent(t *testing.T) {
	client := newEmulatorClient(t)
	repo := NewFirestoreTipRepository(client)
	ctx := context.Background()

	next := func(d int) int {
		if d < 1 || d >= 100 {
			return 1
		}
		return d + 1
	}

	const runs = 3
	var wg sync.WaitGroup
	days := make(chan int, runs)
	for i := 0; i < runs; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			day, err := repo.AdvanceDay(ctx, next)
			if err != nil {
				t.Errorf("AdvanceDay: %v", err)
				return
			}
			days <- day
		}()
	}
	wg.Wait()
	close(days)

	seen := map[int]bool{}
	for d := range days {
		if seen[d] {
			t.Errorf("day %d returned twice", d)
		}
		seen[d] = true
	}
	for d := 2; d <= runs+1; d++ {
		if !seen[d] {
			t.Errorf("day %d never returned; got %v", d, seen)
		}
	}
}

func TestTipRepositoryPutAndGet(t *testing.T) {
	client := newEmulatorClient(t)
	repo := NewFirestoreTipRepository(client)
	ctx := context.Background()

	tips := []models.Tip{{Day: 1, Title: "Water", Body: "Drink water."}, {Day: 2, Title: "Walk", Body: "Walk daily."}}
	if err := repo.PutAll(ctx, tips); err != nil {
		t.Fatalf("PutAll: %v", err)
	}
	got, err := repo.GetByDay(ctx, 2)
	if err != nil {
		t.Fatalf("GetByDay: %v", err)
	}
	if *got != tips[1] {
		t.Errorf("GetByDay(2) = %+v, want %+v", got, tips[1])
	}
	if _, err := repo.GetByDay(ctx, 3); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByDay(3) error = %v, want ErrNotFound", err)
	}
}
