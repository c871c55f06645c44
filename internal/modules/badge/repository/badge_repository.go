package repository

import (
	"context"
	"fmt"

	"anoa.com/fitsquad/internal/entity"
	"anoa.com/fitsquad/internal/modules/sync/reconciler"
	"anoa.com/fitsquad/internal/modules/sync/store"
	"github.com/google/uuid"
)

// BadgeRepository reads badge inputs from the sync layer's effective view and
// writes unlocks to the local buffer, so badges work while the remote store
// is unreachable.
type BadgeRepository interface {
	Activities(ctx context.Context, userID uuid.UUID) ([]entity.ActivityLog, error)
	Goals(ctx context.Context, userID uuid.UUID) ([]entity.Goal, error)
	CountPhotos(ctx context.Context, userID uuid.UUID) (int, error)
	CountTemplates(ctx context.Context, userID uuid.UUID) (int, error)
	ListUnlocked(ctx context.Context, userID uuid.UUID) ([]entity.UnlockedBadge, error)
	SaveUnlocked(ctx context.Context, userID uuid.UUID, badges []entity.UnlockedBadge) error
}

type badgeRepository struct {
	rec *reconciler.Reconciler
}

func NewBadgeRepository(rec *reconciler.Reconciler) BadgeRepository {
	return &badgeRepository{rec: rec}
}

func (r *badgeRepository) Activities(ctx context.Context, userID uuid.UUID) ([]entity.ActivityLog, error) {
	return reconciler.View[entity.ActivityLog](ctx, r.rec, store.KindActivityLogs, userID)
}

func (r *badgeRepository) Goals(ctx context.Context, userID uuid.UUID) ([]entity.Goal, error) {
	return reconciler.View[entity.Goal](ctx, r.rec, store.KindGoals, userID)
}

func (r *badgeRepository) CountPhotos(ctx context.Context, userID uuid.UUID) (int, error) {
	records, err := r.rec.EffectiveView(ctx, store.KindPhotos, userID)
	return len(records), err
}

func (r *badgeRepository) CountTemplates(ctx context.Context, userID uuid.UUID) (int, error) {
	records, err := r.rec.EffectiveView(ctx, store.KindTemplates, userID)
	return len(records), err
}

func (r *badgeRepository) ListUnlocked(ctx context.Context, userID uuid.UUID) ([]entity.UnlockedBadge, error) {
	return reconciler.View[entity.UnlockedBadge](ctx, r.rec, store.KindUnlockedBadges, userID)
}

func (r *badgeRepository) SaveUnlocked(ctx context.Context, userID uuid.UUID, badges []entity.UnlockedBadge) error {
	for _, b := range badges {
		b.UserID = userID
		rec, err := store.NewRecord(store.KindUnlockedBadges, b.BadgeID, b)
		if err != nil {
			return err
		}
		if err := r.rec.Local().Put(ctx, userID, rec); err != nil {
			return fmt.Errorf("buffer badge %s: %w", b.BadgeID, err)
		}
	}
	return nil
}
