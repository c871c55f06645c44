package repository

import (
	"context"
	"fmt"

	"anoa.com/fitsquad/internal/entity"
	"anoa.com/fitsquad/internal/modules/sync/reconciler"
	"anoa.com/fitsquad/internal/modules/sync/store"
	"anoa.com/fitsquad/pkg/apperror"
	"github.com/google/uuid"
)

type GoalRepository interface {
	Save(ctx context.Context, goal *entity.Goal) error
	List(ctx context.Context, userID uuid.UUID) ([]store.Record, error)
	Find(ctx context.Context, userID, goalID uuid.UUID) (*entity.Goal, error)
}

type goalRepository struct {
	rec *reconciler.Reconciler
}

func NewGoalRepository(rec *reconciler.Reconciler) GoalRepository {
	return &goalRepository{rec: rec}
}

// Save buffers the goal as pending; an edit of a synced goal is pushed again.
func (r *goalRepository) Save(ctx context.Context, goal *entity.Goal) error {
	if goal.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		goal.ID = id
	}

	rec, err := store.NewRecord(store.KindGoals, goal.ID.String(), goal)
	if err != nil {
		return err
	}
	return r.rec.Local().Put(ctx, goal.UserID, rec)
}

func (r *goalRepository) List(ctx context.Context, userID uuid.UUID) ([]store.Record, error) {
	return r.rec.EffectiveView(ctx, store.KindGoals, userID)
}

// Find prefers the buffered copy, so successive edits build on the latest
// local version even before it reaches the mirror.
func (r *goalRepository) Find(ctx context.Context, userID, goalID uuid.UUID) (*entity.Goal, error) {
	buffered, err := r.rec.Local().List(ctx, store.KindGoals, userID)
	if err != nil {
		return nil, err
	}
	records, err := r.rec.EffectiveView(ctx, store.KindGoals, userID)
	if err != nil {
		return nil, err
	}

	id := goalID.String()
	for _, candidates := range [][]store.Record{buffered, records} {
		for _, rec := range candidates {
			if rec.ID != id {
				continue
			}
			var goal entity.Goal
			if err := rec.Decode(&goal); err != nil {
				return nil, err
			}
			return &goal, nil
		}
	}
	return nil, fmt.Errorf("goal %s: %w", goalID, apperror.ErrNotFound)
}
