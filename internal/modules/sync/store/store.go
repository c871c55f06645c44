package store

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
)

// LocalStore is the injectable storage port behind the sync reconciler.
// Buffers and mirrors are scoped per user, so no operation touches another user's data.
type LocalStore interface {
	// Put inserts or replaces a buffered record. Pending records mark the user as pending.
	Put(ctx context.Context, userID uuid.UUID, rec Record) error
	List(ctx context.Context, kind Kind, userID uuid.UUID) ([]Record, error)
	// SetState moves records to state, skipping any whose buffered copy changed
	// since it was read (its UpdatedAt differs), so a concurrent edit stays pending.
	SetState(ctx context.Context, kind Kind, userID uuid.UUID, records []Record, state State, lastErr string) error
	// PruneSynced removes the given records if they are still in the synced state.
	PruneSynced(ctx context.Context, kind Kind, userID uuid.UUID, ids []string) (int, error)

	Mirror(ctx context.Context, kind Kind, userID uuid.UUID) ([]Record, error)
	SetMirror(ctx context.Context, kind Kind, userID uuid.UUID, records []Record) error

	// AcquireSyncFlag sets the per-user in-progress flag and returns the token
	// that owns it. It reports false when the flag is already held. The ttl
	// bounds a flag left behind by a crash.
	AcquireSyncFlag(ctx context.Context, userID uuid.UUID, ttl time.Duration) (string, bool, error)
	// ReleaseSyncFlag clears the flag only while token still owns it.
	ReleaseSyncFlag(ctx context.Context, userID uuid.UUID, token string) error
	SyncInProgress(ctx context.Context, userID uuid.UUID) (bool, error)

	LastSync(ctx context.Context, userID uuid.UUID) (time.Time, bool, error)
	SetLastSync(ctx context.Context, userID uuid.UUID, at time.Time) error

	PendingUsers(ctx context.Context) ([]uuid.UUID, error)
	ClearPending(ctx context.Context, userID uuid.UUID) error
}

func sortRecords(records []Record) {
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
}

func withState(current, expected []Record, state State, lastErr string, now time.Time) []Record {
	want := make(map[string]time.Time, len(expected))
	for _, rec := range expected {
		want[rec.ID] = rec.UpdatedAt
	}
	var changed []Record
	for _, rec := range current {
		seen, ok := want[rec.ID]
		if !ok || !seen.Equal(rec.UpdatedAt) {
			continue
		}
		rec.State = state
		rec.LastError = lastErr
		rec.UpdatedAt = now
		changed = append(changed, rec)
	}
	return changed
}

func syncedAmong(current []Record, ids []string) []string {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	var out []string
	for _, rec := range current {
		if _, ok := want[rec.ID]; ok && rec.State == StateSynced {
			out = append(out, rec.ID)
		}
	}
	return out
}
