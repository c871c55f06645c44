package store

import (
	"context"
	"testing"
	"time"

	"anoa.com/fitsquad/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	ID    string `json:"id"`
	Value int    `json:"value"`
}

func mustRecord(t *testing.T, kind Kind, id string, value int) Record {
	t.Helper()
	rec, err := NewRecord(kind, id, payload{ID: id, Value: value})
	require.NoError(t, err)
	return rec
}

func stores(t *testing.T) map[string]LocalStore {
	client, _ := testutil.NewRedis(t)
	return map[string]LocalStore{
		"redis":  NewRedisStore(client),
		"memory": NewMemoryStore(),
	}
}

func TestLocalStore_BufferLifecycle(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			user := uuid.New()
			other := uuid.New()

			require.NoError(t, s.Put(ctx, user, mustRecord(t, KindGoals, "b", 2)))
			require.NoError(t, s.Put(ctx, user, mustRecord(t, KindGoals, "a", 1)))
			require.NoError(t, s.Put(ctx, other, mustRecord(t, KindGoals, "z", 9)))

			records, err := s.List(ctx, KindGoals, user)
			require.NoError(t, err)
			require.Len(t, records, 2)
			assert.Equal(t, "a", records[0].ID)
			assert.Equal(t, StatePending, records[0].State)

			var decoded payload
			require.NoError(t, records[1].Decode(&decoded))
			assert.Equal(t, 2, decoded.Value)

			empty, err := s.List(ctx, KindPhotos, user)
			require.NoError(t, err)
			assert.Empty(t, empty, "kinds are separate")

			require.NoError(t, s.SetState(ctx, KindGoals, user, records[:1], StateSynced, ""))
			records, err = s.List(ctx, KindGoals, user)
			require.NoError(t, err)
			assert.Equal(t, StateSynced, records[0].State)
			assert.Equal(t, StatePending, records[1].State)

			removed, err := s.PruneSynced(ctx, KindGoals, user, []string{"a", "b"})
			require.NoError(t, err)
			assert.Equal(t, 1, removed, "pending records are never pruned")

			records, err = s.List(ctx, KindGoals, user)
			require.NoError(t, err)
			require.Len(t, records, 1)
			assert.Equal(t, "b", records[0].ID)

			others, err := s.List(ctx, KindGoals, other)
			require.NoError(t, err)
			assert.Len(t, others, 1)
		})
	}
}

func TestLocalStore_SetStateSkipsConcurrentEdits(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			user := uuid.New()

			original := mustRecord(t, KindTemplates, "t1", 1)
			require.NoError(t, s.Put(ctx, user, original))

			edited := mustRecord(t, KindTemplates, "t1", 2)
			edited.UpdatedAt = original.UpdatedAt.Add(time.Second)
			require.NoError(t, s.Put(ctx, user, edited))

			// The pass pushed the original; the edit must stay pending.
			require.NoError(t, s.SetState(ctx, KindTemplates, user, []Record{original}, StateSynced, ""))

			records, err := s.List(ctx, KindTemplates, user)
			require.NoError(t, err)
			require.Len(t, records, 1)
			assert.Equal(t, StatePending, records[0].State)

			var decoded payload
			require.NoError(t, records[0].Decode(&decoded))
			assert.Equal(t, 2, decoded.Value)
		})
	}
}

func TestLocalStore_Mirror(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			user := uuid.New()

			mirror, err := s.Mirror(ctx, KindActivityLogs, user)
			require.NoError(t, err)
			assert.Empty(t, mirror)

			remote := []Record{mustRecord(t, KindActivityLogs, "x", 1)}
			remote[0].State = StateSynced
			require.NoError(t, s.SetMirror(ctx, KindActivityLogs, user, remote))

			mirror, err = s.Mirror(ctx, KindActivityLogs, user)
			require.NoError(t, err)
			require.Len(t, mirror, 1)
			assert.Equal(t, "x", mirror[0].ID)

			require.NoError(t, s.SetMirror(ctx, KindActivityLogs, user, nil))
			mirror, err = s.Mirror(ctx, KindActivityLogs, user)
			require.NoError(t, err)
			assert.Empty(t, mirror)
		})
	}
}

func TestLocalStore_SyncFlag(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			user := uuid.New()

			token, ok, err := s.AcquireSyncFlag(ctx, user, time.Minute)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.NotEmpty(t, token)

			_, ok, err = s.AcquireSyncFlag(ctx, user, time.Minute)
			require.NoError(t, err)
			assert.False(t, ok, "second acquire must fail while held")

			_, ok, err = s.AcquireSyncFlag(ctx, uuid.New(), time.Minute)
			require.NoError(t, err)
			assert.True(t, ok, "flags are per user")

			inProgress, err := s.SyncInProgress(ctx, user)
			require.NoError(t, err)
			assert.True(t, inProgress)

			require.NoError(t, s.ReleaseSyncFlag(ctx, user, "someone-else"))
			inProgress, err = s.SyncInProgress(ctx, user)
			require.NoError(t, err)
			assert.True(t, inProgress, "a foreign token must not clear the flag")

			require.NoError(t, s.ReleaseSyncFlag(ctx, user, token))
			_, ok, err = s.AcquireSyncFlag(ctx, user, time.Minute)
			require.NoError(t, err)
			assert.True(t, ok)
		})
	}
}

func TestLocalStore_StaleReleaseKeepsNewFlag(t *testing.T) {
	client, mr := testutil.NewRedis(t)
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	memory := NewMemoryStore()
	memory.now = func() time.Time { return clock }

	cases := map[string]struct {
		store  LocalStore
		expire func()
	}{
		"redis":  {NewRedisStore(client), func() { mr.FastForward(2 * time.Minute) }},
		"memory": {memory, func() { clock = clock.Add(2 * time.Minute) }},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			user := uuid.New()

			slow, ok, err := tc.store.AcquireSyncFlag(ctx, user, time.Minute)
			require.NoError(t, err)
			require.True(t, ok)

			tc.expire()

			_, ok, err = tc.store.AcquireSyncFlag(ctx, user, time.Minute)
			require.NoError(t, err)
			require.True(t, ok, "expired flag can be taken by the next pass")

			require.NoError(t, tc.store.ReleaseSyncFlag(ctx, user, slow))

			inProgress, err := tc.store.SyncInProgress(ctx, user)
			require.NoError(t, err)
			assert.True(t, inProgress, "the outlived pass must not release the new owner's flag")

			_, ok, err = tc.store.AcquireSyncFlag(ctx, user, time.Minute)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestLocalStore_LastSyncAndPending(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			user := uuid.New()

			_, ok, err := s.LastSync(ctx, user)
			require.NoError(t, err)
			assert.False(t, ok)

			at := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)
			require.NoError(t, s.SetLastSync(ctx, user, at))
			got, ok, err := s.LastSync(ctx, user)
			require.NoError(t, err)
			require.True(t, ok)
			assert.True(t, at.Equal(got))

			require.NoError(t, s.Put(ctx, user, mustRecord(t, KindPhotos, "p1", 1)))
			pending, err := s.PendingUsers(ctx)
			require.NoError(t, err)
			assert.Equal(t, []uuid.UUID{user}, pending)

			require.NoError(t, s.ClearPending(ctx, user))
			pending, err = s.PendingUsers(ctx)
			require.NoError(t, err)
			assert.Empty(t, pending)
		})
	}
}

func TestRedisStore_FlagExpires(t *testing.T) {
	client, mr := testutil.NewRedis(t)
	s := NewRedisStore(client)
	ctx := context.Background()
	user := uuid.New()

	_, ok, err := s.AcquireSyncFlag(ctx, user, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Minute)

	_, ok, err = s.AcquireSyncFlag(ctx, user, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "a flag left by a crashed pass expires")
}

func TestRedisStore_Keys(t *testing.T) {
	client, mr := testutil.NewRedis(t)
	s := NewRedisStore(client)
	ctx := context.Background()
	user := uuid.New()

	require.NoError(t, s.Put(ctx, user, mustRecord(t, KindActivityLogs, "a1", 1)))
	require.NoError(t, s.SetMirror(ctx, KindActivityLogs, user, nil))
	_, _, err := s.AcquireSyncFlag(ctx, user, time.Minute)
	require.NoError(t, err)

	assert.True(t, mr.Exists("activity_logs:"+user.String()))
	assert.True(t, mr.Exists("remote_activity_logs_"+user.String()))
	assert.True(t, mr.Exists("sync_in_progress:"+user.String()))
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("unlocked_badges")
	require.NoError(t, err)
	assert.Equal(t, KindUnlockedBadges, k)

	_, err = ParseKind("threads")
	assert.Error(t, err)
}

func TestDecodeAll(t *testing.T) {
	records := []Record{mustRecord(t, KindGoals, "a", 1), mustRecord(t, KindGoals, "b", 2)}
	values, err := DecodeAll[payload](records)
	require.NoError(t, err)
	assert.Equal(t, []payload{{"a", 1}, {"b", 2}}, values)

	records = append(records, Record{ID: "bad", Kind: KindGoals, Payload: []byte("{")})
	_, err = DecodeAll[payload](records)
	assert.Error(t, err)
}
