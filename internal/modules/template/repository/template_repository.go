package repository

import (
	"context"

	"anoa.com/fitsquad/internal/entity"
	"anoa.com/fitsquad/internal/modules/sync/reconciler"
	"anoa.com/fitsquad/internal/modules/sync/store"
	"github.com/google/uuid"
)

type TemplateRepository interface {
	Save(ctx context.Context, template *entity.WorkoutTemplate) error
	List(ctx context.Context, userID uuid.UUID) ([]store.Record, error)
}

type templateRepository struct {
	rec *reconciler.Reconciler
}

func NewTemplateRepository(rec *reconciler.Reconciler) TemplateRepository {
	return &templateRepository{rec: rec}
}

func (r *templateRepository) Save(ctx context.Context, template *entity.WorkoutTemplate) error {
	if template.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		template.ID = id
	}

	rec, err := store.NewRecord(store.KindTemplates, template.ID.String(), template)
	if err != nil {
		return err
	}
	return r.rec.Local().Put(ctx, template.UserID, rec)
}

func (r *templateRepository) List(ctx context.Context, userID uuid.UUID) ([]store.Record, error) {
	return r.rec.EffectiveView(ctx, store.KindTemplates, userID)
}
