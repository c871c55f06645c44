package reconciler

import (
	"context"
	"fmt"
	"sort"
	"time"

	"anoa.com/fitsquad/internal/modules/sync/store"
	"github.com/google/uuid"
)

// EffectiveView merges the mirror and the local buffer by record id. The
// mirror wins on collision.
func (r *Reconciler) EffectiveView(ctx context.Context, kind store.Kind, userID uuid.UUID) ([]store.Record, error) {
	mirror, err := r.local.Mirror(ctx, kind, userID)
	if err != nil {
		return nil, fmt.Errorf("read %s mirror: %w", kind, err)
	}
	buffered, err := r.local.List(ctx, kind, userID)
	if err != nil {
		return nil, fmt.Errorf("read %s buffer: %w", kind, err)
	}
	return Merge(mirror, buffered), nil
}

// Merge is the read rule behind EffectiveView.
func Merge(mirror, local []store.Record) []store.Record {
	byID := make(map[string]store.Record, len(mirror)+len(local))
	for _, rec := range local {
		byID[rec.ID] = rec
	}
	for _, rec := range mirror {
		byID[rec.ID] = rec
	}

	out := make([]store.Record, 0, len(byID))
	for _, rec := range byID {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// View decodes the effective view of kind into T.
func View[T any](ctx context.Context, r *Reconciler, kind store.Kind, userID uuid.UUID) ([]T, error) {
	records, err := r.EffectiveView(ctx, kind, userID)
	if err != nil {
		return nil, err
	}
	return store.DecodeAll[T](records)
}

type KindStatus struct {
	Kind     store.Kind `json:"kind"`
	Pending  int        `json:"pending"`
	Failed   int        `json:"failed"`
	Synced   int        `json:"synced"`
	Mirrored int        `json:"mirrored"`
	// LastError is the most recent rejection among failed records.
	LastError string `json:"last_error,omitempty"`
}

type Status struct {
	UserID             uuid.UUID    `json:"user_id"`
	InProgress         bool         `json:"in_progress"`
	LastSuccessfulSync *time.Time   `json:"last_successful_sync,omitempty"`
	Kinds              []KindStatus `json:"kinds"`
}

func (r *Reconciler) Status(ctx context.Context, userID uuid.UUID) (*Status, error) {
	inProgress, err := r.local.SyncInProgress(ctx, userID)
	if err != nil {
		return nil, err
	}
	st := &Status{UserID: userID, InProgress: inProgress, Kinds: make([]KindStatus, 0, len(r.kinds))}

	last, ok, err := r.local.LastSync(ctx, userID)
	if err != nil {
		return nil, err
	}
	if ok {
		st.LastSuccessfulSync = &last
	}

	for _, kind := range r.kinds {
		buffered, err := r.local.List(ctx, kind, userID)
		if err != nil {
			return nil, err
		}
		mirror, err := r.local.Mirror(ctx, kind, userID)
		if err != nil {
			return nil, err
		}

		ks := KindStatus{Kind: kind, Mirrored: len(mirror)}
		var lastFailure time.Time
		for _, rec := range buffered {
			switch rec.State {
			case store.StatePending:
				ks.Pending++
			case store.StateSynced:
				ks.Synced++
			case store.StateFailed:
				ks.Failed++
				if rec.UpdatedAt.After(lastFailure) {
					lastFailure = rec.UpdatedAt
					ks.LastError = rec.LastError
				}
			}
		}
		st.Kinds = append(st.Kinds, ks)
	}
	return st, nil
}
