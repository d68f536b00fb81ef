package db

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/example/askdrk-backend/internal/models"
)

const (
	metaCollection  = "meta"
	tipRotationDoc  = "tipRotation"
	tipsCollection  = "tips"
	defaultTipDay   = 1
	rotationDayPath = "day"
)

// firestoreTipRepository implements TipRepository.
type firestoreTipRepository struct {
	client *firestore.Client
}

// NewFirestoreTipRepository creates a new instance of firestoreTipRepository.
func NewFirestoreTipRepository(client *firestore.Client) TipRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for TipRepository.")
	}
	return &firestoreTipRepository{client: client}
}

// AdvanceDay moves the rotation counter inside a transaction so concurrent runs never skip or repeat a day.
func (r *firestoreTipRepository) AdvanceDay(ctx context.Context, next func(current int) int) (int, error) {
	if next == nil {
		return 0, errors.New("next func cannot be nil for AdvanceDay operation")
	}
	ref := r.client.Collection(metaCollection).Doc(tipRotationDoc)

	var day int
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		current := defaultTipDay
		snap, err := tx.Get(ref)
		switch {
		case err == nil:
			if v, err := snap.DataAt(rotationDayPath); err == nil {
				current = toInt(v, defaultTipDay)
			}
		case status.Code(err) != codes.NotFound:
			return fmt.Errorf("failed to read tip rotation counter: %w", err)
		}

		day = next(current)
		return tx.Set(ref, map[string]interface{}{
			rotationDayPath: day,
			"updatedAt":     firestore.ServerTimestamp,
		}, firestore.MergeAll)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to advance tip rotation: %w", err)
	}
	return day, nil
}

// toInt accepts the numeric shapes Firestore may return for the counter.
func toInt(v interface{}, fallback int) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case float64:
		return int(n)
	}
	return fallback
}

// GetByDay reads tips/{day}.
func (r *firestoreTipRepository) GetByDay(ctx context.Context, day int) (*models.Tip, error) {
	docSnap, err := r.client.Collection(tipsCollection).Doc(strconv.Itoa(day)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("tip for day %d not found: %w", day, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get tip for day %d: %w", day, err)
	}
	var tip models.Tip
	if err := docSnap.DataTo(&tip); err != nil {
		return nil, fmt.Errorf("failed to decode tip for day %d: %w", day, err)
	}
	if tip.Day == 0 {
		tip.Day = day
	}
	return &tip, nil
}

// PutAll overwrites tips/{day} for every tip using a BulkWriter.
func (r *firestoreTipRepository) PutAll(ctx context.Context, tips []models.Tip) error {
	if len(tips) == 0 {
		return nil
	}
	bw := r.client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(tips))
	for _, tip := range tips {
		job, err := bw.Set(r.client.Collection(tipsCollection).Doc(strconv.Itoa(tip.Day)), tip)
		if err != nil {
			bw.End()
			return fmt.Errorf("failed to enqueue tip for day %d: %w", tip.Day, err)
		}
		jobs = append(jobs, job)
	}
	bw.End()

	var errs []error
	for i, job := range jobs {
		if _, err := job.Results(); err != nil {
			errs = append(errs, fmt.Errorf("day %d: %w", tips[i].Day, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("failed to write %d of %d tips: %w", len(errs), len(tips), errors.Join(errs...))
	}
	return nil
}
