// Package remote is the relational side of the sync layer. Buffered records
// are upserted into typed tables and read back as synced records.
package remote

import (
	"context"
	"errors"
	"fmt"

	"anoa.com/fitsquad/internal/modules/sync/store"
	"anoa.com/fitsquad/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RemoteStore errors wrap apperror.ErrRemoteUnavailable (retry later, the
// buffer stays pending) or apperror.ErrRemoteRejected (the batch will never be
// accepted as is).
type RemoteStore interface {
	// PushEntityBatch upserts the whole batch or nothing.
	PushEntityBatch(ctx context.Context, kind store.Kind, userID uuid.UUID, records []store.Record) error
	PullSyncedEntities(ctx context.Context, kind store.Kind, userID uuid.UUID) ([]store.Record, error)
	Ping(ctx context.Context) error
}

type GormStore struct {
	db     *gorm.DB
	tables map[store.Kind]table
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db, tables: defaultTables()}
}

func (s *GormStore) PushEntityBatch(ctx context.Context, kind store.Kind, userID uuid.UUID, records []store.Record) error {
	t, ok := s.tables[kind]
	if !ok {
		return fmt.Errorf("%w: unknown kind %q", apperror.ErrRemoteRejected, kind)
	}
	if len(records) == 0 {
		return nil
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return t.push(tx, userID, records)
	})
	return classify(err)
}

func (s *GormStore) PullSyncedEntities(ctx context.Context, kind store.Kind, userID uuid.UUID) ([]store.Record, error) {
	t, ok := s.tables[kind]
	if !ok {
		return nil, fmt.Errorf("%w: unknown kind %q", apperror.ErrRemoteRejected, kind)
	}

	records, err := t.pull(s.db.WithContext(ctx), userID)
	if err != nil {
		return nil, classify(err)
	}
	return records, nil
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return classify(err)
	}
	return classify(sqlDB.PingContext(ctx))
}

// classify sorts errors into rejected (data the store will not take) and
// unavailable (everything else, retried by the next pass).
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, apperror.ErrRemoteRejected), errors.Is(err, apperror.ErrRemoteUnavailable):
		return err
	case errors.Is(err, gorm.ErrDuplicatedKey),
		errors.Is(err, gorm.ErrForeignKeyViolated),
		errors.Is(err, gorm.ErrCheckConstraintViolated),
		errors.Is(err, gorm.ErrInvalidData),
		errors.Is(err, gorm.ErrInvalidValue),
		errors.Is(err, gorm.ErrPrimaryKeyRequired):
		return fmt.Errorf("%w: %v", apperror.ErrRemoteRejected, err)
	default:
		return fmt.Errorf("%w: %v", apperror.ErrRemoteUnavailable, err)
	}
}
