package remote

import (
	"encoding/json"
	"fmt"
	"time"

	"anoa.com/fitsquad/internal/entity"
	"anoa.com/fitsquad/internal/modules/sync/store"
	"anoa.com/fitsquad/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type table interface {
	push(tx *gorm.DB, userID uuid.UUID, records []store.Record) error
	pull(db *gorm.DB, userID uuid.UUID) ([]store.Record, error)
}

// typedTable maps one entity kind onto a gorm model T.
type typedTable[T any] struct {
	kind store.Kind
	// own forces the row's owner to the pushing user.
	own func(row *T, userID uuid.UUID)
	id  func(row *T) string
	// idColumn is checked for rows owned by someone else; empty when the key
	// already includes user_id.
	idColumn string
	conflict []clause.Column
	order    string
}

func (t typedTable[T]) push(tx *gorm.DB, userID uuid.UUID, records []store.Record) error {
	rows := make([]T, 0, len(records))
	ids := make([]string, 0, len(records))
	for _, rec := range records {
		var row T
		if err := rec.Decode(&row); err != nil {
			return fmt.Errorf("%w: %s %s: %v", apperror.ErrRemoteRejected, t.kind, rec.ID, err)
		}
		t.own(&row, userID)
		if got := t.id(&row); got != rec.ID {
			return fmt.Errorf("%w: %s record %s carries id %q", apperror.ErrRemoteRejected, t.kind, rec.ID, got)
		}
		rows = append(rows, row)
		ids = append(ids, rec.ID)
	}

	if t.idColumn != "" {
		var foreign int64
		if err := tx.Model(new(T)).
			Where(t.idColumn+" IN ? AND user_id <> ?", ids, userID).
			Count(&foreign).Error; err != nil {
			return err
		}
		if foreign > 0 {
			return fmt.Errorf("%w: %s batch touches rows owned by another user", apperror.ErrRemoteRejected, t.kind)
		}
	}

	return tx.Omit(clause.Associations).
		Clauses(clause.OnConflict{Columns: t.conflict, UpdateAll: true}).
		Create(&rows).Error
}

func (t typedTable[T]) pull(db *gorm.DB, userID uuid.UUID) ([]store.Record, error) {
	var rows []T
	if err := db.Where("user_id = ?", userID).Order(t.order).Find(&rows).Error; err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	records := make([]store.Record, 0, len(rows))
	for i := range rows {
		raw, err := json.Marshal(&rows[i])
		if err != nil {
			return nil, err
		}
		records = append(records, store.Record{
			ID:        t.id(&rows[i]),
			Kind:      t.kind,
			Payload:   raw,
			State:     store.StateSynced,
			UpdatedAt: now,
		})
	}
	return records, nil
}

func columns(names ...string) []clause.Column {
	out := make([]clause.Column, len(names))
	for i, c := range names {
		out[i] = clause.Column{Name: c}
	}
	return out
}

func defaultTables() map[store.Kind]table {
	return map[store.Kind]table{
		store.KindActivityLogs: typedTable[entity.ActivityLog]{
			kind:     store.KindActivityLogs,
			own:      func(r *entity.ActivityLog, u uuid.UUID) { r.UserID = u },
			id:       func(r *entity.ActivityLog) string { return r.ID.String() },
			idColumn: "id",
			conflict: columns("id"),
			order:    "started_at ASC, id ASC",
		},
		store.KindPhotos: typedTable[entity.ProgressPhoto]{
			kind:     store.KindPhotos,
			own:      func(r *entity.ProgressPhoto, u uuid.UUID) { r.UserID = u },
			id:       func(r *entity.ProgressPhoto) string { return r.ID.String() },
			idColumn: "id",
			conflict: columns("id"),
			order:    "taken_at ASC, id ASC",
		},
		store.KindGoals: typedTable[entity.Goal]{
			kind:     store.KindGoals,
			own:      func(r *entity.Goal, u uuid.UUID) { r.UserID = u },
			id:       func(r *entity.Goal) string { return r.ID.String() },
			idColumn: "id",
			conflict: columns("id"),
			order:    "created_at ASC, id ASC",
		},
		store.KindUnlockedBadges: typedTable[entity.UnlockedBadge]{
			kind:     store.KindUnlockedBadges,
			own:      func(r *entity.UnlockedBadge, u uuid.UUID) { r.UserID = u },
			id:       func(r *entity.UnlockedBadge) string { return r.BadgeID },
			conflict: columns("user_id", "badge_id"),
			order:    "unlocked_at ASC, badge_id ASC",
		},
		store.KindTemplates: typedTable[entity.WorkoutTemplate]{
			kind:     store.KindTemplates,
			own:      func(r *entity.WorkoutTemplate, u uuid.UUID) { r.UserID = u },
			id:       func(r *entity.WorkoutTemplate) string { return r.ID.String() },
			idColumn: "id",
			conflict: columns("id"),
			order:    "created_at ASC, id ASC",
		},
	}
}
