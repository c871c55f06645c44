package repository

import (
	"context"
	"fmt"

	"anoa.com/fitsquad/internal/entity"
	"anoa.com/fitsquad/internal/modules/sync/reconciler"
	"anoa.com/fitsquad/internal/modules/sync/store"
	"github.com/google/uuid"
)

// ActivityRepository writes workouts to the local buffer and reads the
// effective view. The reconciler moves them to the remote store.
type ActivityRepository interface {
	Save(ctx context.Context, log *entity.ActivityLog) error
	List(ctx context.Context, userID uuid.UUID) ([]store.Record, error)
}

type activityRepository struct {
	rec *reconciler.Reconciler
}

func NewActivityRepository(rec *reconciler.Reconciler) ActivityRepository {
	return &activityRepository{rec: rec}
}

func (r *activityRepository) Save(ctx context.Context, log *entity.ActivityLog) error {
	if log.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		log.ID = id
	}

	rec, err := store.NewRecord(store.KindActivityLogs, log.ID.String(), log)
	if err != nil {
		return err
	}
	if err := r.rec.Local().Put(ctx, log.UserID, rec); err != nil {
		return fmt.Errorf("buffer activity %s: %w", log.ID, err)
	}
	return nil
}

func (r *activityRepository) List(ctx context.Context, userID uuid.UUID) ([]store.Record, error) {
	return r.rec.EffectiveView(ctx, store.KindActivityLogs, userID)
}
