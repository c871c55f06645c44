package repository

import (
	"context"

	"anoa.com/fitsquad/internal/entity"
	"anoa.com/fitsquad/internal/modules/sync/reconciler"
	"anoa.com/fitsquad/internal/modules/sync/store"
	"github.com/google/uuid"
)

type PhotoRepository interface {
	Save(ctx context.Context, photo *entity.ProgressPhoto) error
	List(ctx context.Context, userID uuid.UUID) ([]store.Record, error)
}

type photoRepository struct {
	rec *reconciler.Reconciler
}

func NewPhotoRepository(rec *reconciler.Reconciler) PhotoRepository {
	return &photoRepository{rec: rec}
}

func (r *photoRepository) Save(ctx context.Context, photo *entity.ProgressPhoto) error {
	if photo.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		photo.ID = id
	}

	rec, err := store.NewRecord(store.KindPhotos, photo.ID.String(), photo)
	if err != nil {
		return err
	}
	return r.rec.Local().Put(ctx, photo.UserID, rec)
}

func (r *photoRepository) List(ctx context.Context, userID uuid.UUID) ([]store.Record, error) {
	return r.rec.EffectiveView(ctx, store.KindPhotos, userID)
}
