package reconciler_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"anoa.com/fitsquad/internal/entity"
	"anoa.com/fitsquad/internal/events"
	"anoa.com/fitsquad/internal/modules/sync/reconciler"
	"anoa.com/fitsquad/internal/modules/sync/remote"
	"anoa.com/fitsquad/internal/modules/sync/store"
	"anoa.com/fitsquad/internal/testutil"
	"anoa.com/fitsquad/pkg/apperror"
	"anoa.com/fitsquad/pkg/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func putRecord(t *testing.T, local store.LocalStore, userID uuid.UUID, kind store.Kind, payload map[string]any) store.Record {
	t.Helper()
	id := uuid.NewString()
	payload["id"] = id
	rec, err := store.NewRecord(kind, id, payload)
	require.NoError(t, err)
	require.NoError(t, local.Put(context.Background(), userID, rec))
	return rec
}

func stateOf(t *testing.T, local store.LocalStore, userID uuid.UUID, kind store.Kind, id string) (store.State, bool) {
	t.Helper()
	records, err := local.List(context.Background(), kind, userID)
	require.NoError(t, err)
	for _, rec := range records {
		if rec.ID == id {
			return rec.State, true
		}
	}
	return "", false
}

func newReconciler(local store.LocalStore, rs remote.RemoteStore, kinds ...store.Kind) (*reconciler.Reconciler, *events.RecordingPublisher) {
	pub := &events.RecordingPublisher{}
	return reconciler.New(local, rs, pub, logger.Discard(), reconciler.Options{Kinds: kinds}), pub
}

func TestSync_PushesPullsAndCompacts(t *testing.T) {
	ctx := context.Background()
	local := store.NewMemoryStore()
	rs := newFakeRemote()
	rec, pub := newReconciler(local, rs)
	userID := uuid.New()

	workout := putRecord(t, local, userID, store.KindActivityLogs, map[string]any{"duration_min": 30})
	goal := putRecord(t, local, userID, store.KindGoals, map[string]any{"title": "10 treinos"})

	res := rec.Sync(ctx, userID, reconciler.TriggerManual)
	require.NoError(t, res.Err())
	assert.True(t, res.OK())
	assert.False(t, res.Skipped)
	assert.Len(t, res.Kinds, len(store.AllKinds))
	require.NotNil(t, res.LastSuccessfulSync)

	state, ok := stateOf(t, local, userID, store.KindActivityLogs, workout.ID)
	require.True(t, ok)
	assert.Equal(t, store.StateSynced, state)

	mirror, err := local.Mirror(ctx, store.KindGoals, userID)
	require.NoError(t, err)
	require.Len(t, mirror, 1)
	assert.Equal(t, goal.ID, mirror[0].ID)

	pending, err := local.PendingUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
	assert.Equal(t, []string{events.TypeSyncCompleted}, pub.Types())

	// The next pass drops buffered copies already held by the mirror.
	res = rec.Sync(ctx, userID, reconciler.TriggerPeriodic)
	require.NoError(t, res.Err())
	compacted := 0
	for _, k := range res.Kinds {
		compacted += k.Compacted
		assert.Zero(t, k.Pushed)
	}
	assert.Equal(t, 2, compacted)

	buffered, err := local.List(ctx, store.KindActivityLogs, userID)
	require.NoError(t, err)
	assert.Empty(t, buffered)

	view, err := rec.EffectiveView(ctx, store.KindActivityLogs, userID)
	require.NoError(t, err)
	require.Len(t, view, 1)
	assert.Equal(t, workout.ID, view[0].ID)
	assert.Equal(t, 1, rs.pushCount(store.KindActivityLogs))
}

func TestSync_PartialFailureIsolation(t *testing.T) {
	ctx := context.Background()
	local := store.NewMemoryStore()
	rs := newFakeRemote()
	rs.setPushErr(store.KindPhotos, fmt.Errorf("%w: connection refused", apperror.ErrRemoteUnavailable))
	rec, _ := newReconciler(local, rs)
	userID := uuid.New()

	workout := putRecord(t, local, userID, store.KindActivityLogs, map[string]any{"duration_min": 45})
	photo := putRecord(t, local, userID, store.KindPhotos, map[string]any{"url": "https://img/1.jpg"})
	template := putRecord(t, local, userID, store.KindTemplates, map[string]any{"name": "Treino A"})

	res := rec.Sync(ctx, userID, reconciler.TriggerPeriodic)
	assert.Equal(t, []store.Kind{store.KindPhotos}, res.FailedKinds())

	err := res.Err()
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrPartialSync)
	var partial *apperror.PartialSyncError
	require.True(t, errors.As(err, &partial))
	assert.Equal(t, []string{string(store.KindPhotos)}, partial.FailedKinds)
	assert.ErrorIs(t, partial.Causes[string(store.KindPhotos)], apperror.ErrRemoteUnavailable)

	for _, k := range res.Kinds {
		if k.Kind == store.KindPhotos {
			assert.NotEmpty(t, k.Error)
			continue
		}
		assert.NoError(t, k.Err, "kind %s", k.Kind)
	}

	// The failing kind's buffer is untouched and still pending.
	state, ok := stateOf(t, local, userID, store.KindPhotos, photo.ID)
	require.True(t, ok)
	assert.Equal(t, store.StatePending, state)

	for kind, id := range map[store.Kind]string{store.KindActivityLogs: workout.ID, store.KindTemplates: template.ID} {
		state, ok := stateOf(t, local, userID, kind, id)
		require.True(t, ok)
		assert.Equal(t, store.StateSynced, state, "kind %s", kind)
	}

	assert.Nil(t, res.LastSuccessfulSync)
	pending, err := local.PendingUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{userID}, pending)

	// Once the remote recovers the leftover kind goes through.
	rs.setPushErr(store.KindPhotos, nil)
	res = rec.Sync(ctx, userID, reconciler.TriggerPeriodic)
	require.NoError(t, res.Err())
	state, _ = stateOf(t, local, userID, store.KindPhotos, photo.ID)
	assert.Equal(t, store.StateSynced, state)
	assert.Equal(t, 1, rs.pushCount(store.KindActivityLogs))
}

func TestSync_RejectedRecordsWaitForManualRetry(t *testing.T) {
	ctx := context.Background()
	local := store.NewMemoryStore()
	rs := newFakeRemote()
	rs.setPushErr(store.KindGoals, fmt.Errorf("%w: check constraint", apperror.ErrRemoteRejected))
	rec, _ := newReconciler(local, rs, store.KindGoals)
	userID := uuid.New()

	goal := putRecord(t, local, userID, store.KindGoals, map[string]any{"title": "bad"})

	res := rec.Sync(ctx, userID, reconciler.TriggerPeriodic)
	assert.Equal(t, []store.Kind{store.KindGoals}, res.FailedKinds())

	records, err := local.List(ctx, store.KindGoals, userID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, store.StateFailed, records[0].State)
	assert.Contains(t, records[0].LastError, "check constraint")

	status, err := rec.Status(ctx, userID)
	require.NoError(t, err)
	require.Len(t, status.Kinds, 1)
	assert.Equal(t, 1, status.Kinds[0].Failed)
	assert.Contains(t, status.Kinds[0].LastError, "check constraint")

	// Background passes leave failed records alone.
	rs.setPushErr(store.KindGoals, nil)
	res = rec.Sync(ctx, userID, reconciler.TriggerPeriodic)
	require.NoError(t, res.Err())
	assert.Equal(t, 1, rs.pushCount(store.KindGoals))

	res = rec.Sync(ctx, userID, reconciler.TriggerManual)
	require.NoError(t, res.Err())
	assert.Equal(t, 2, rs.pushCount(store.KindGoals))
	state, _ := stateOf(t, local, userID, store.KindGoals, goal.ID)
	assert.Equal(t, store.StateSynced, state)
}

func TestSync_MutualExclusion(t *testing.T) {
	ctx := context.Background()
	local := store.NewMemoryStore()
	rs := newFakeRemote()
	rec, _ := newReconciler(local, rs, store.KindActivityLogs)
	userID := uuid.New()

	entered := make(chan struct{})
	release := make(chan struct{})
	rs.onPush = func(store.Kind) {
		close(entered)
		<-release
	}

	putRecord(t, local, userID, store.KindActivityLogs, map[string]any{"duration_min": 20})

	done := make(chan *reconciler.Result, 1)
	go func() { done <- rec.Sync(ctx, userID, reconciler.TriggerPeriodic) }()
	<-entered

	second := rec.Sync(ctx, userID, reconciler.TriggerManual)
	assert.True(t, second.Skipped)
	assert.ErrorIs(t, second.Err(), apperror.ErrSyncInProgress)
	assert.Equal(t, 1, rs.pushCount(store.KindActivityLogs))

	status, err := rec.Status(ctx, userID)
	require.NoError(t, err)
	assert.True(t, status.InProgress)

	close(release)
	select {
	case first := <-done:
		require.NoError(t, first.Err())
	case <-time.After(5 * time.Second):
		t.Fatal("first pass did not finish")
	}
	assert.Equal(t, 1, rs.pushCount(store.KindActivityLogs))

	// The flag is released once the pass ends.
	inProgress, err := local.SyncInProgress(ctx, userID)
	require.NoError(t, err)
	assert.False(t, inProgress)
}

func TestSync_EditDuringPushStaysPending(t *testing.T) {
	ctx := context.Background()
	local := store.NewMemoryStore()
	rs := newFakeRemote()
	rec, _ := newReconciler(local, rs, store.KindTemplates)
	userID := uuid.New()

	original := putRecord(t, local, userID, store.KindTemplates, map[string]any{"name": "Treino A"})
	rs.onPush = func(store.Kind) {
		edited, err := store.NewRecord(store.KindTemplates, original.ID, map[string]any{"id": original.ID, "name": "Treino A2"})
		require.NoError(t, err)
		edited.UpdatedAt = original.UpdatedAt.Add(time.Second)
		require.NoError(t, local.Put(ctx, userID, edited))
	}

	res := rec.Sync(ctx, userID, reconciler.TriggerPeriodic)
	require.NoError(t, res.Err())

	state, ok := stateOf(t, local, userID, store.KindTemplates, original.ID)
	require.True(t, ok)
	assert.Equal(t, store.StatePending, state)

	pending, err := local.PendingUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{userID}, pending)
}

func TestSync_RunsPushHooks(t *testing.T) {
	ctx := context.Background()
	local := store.NewMemoryStore()
	rs := newFakeRemote()
	rec, _ := newReconciler(local, rs)
	userID := uuid.New()

	var hooked []string
	rec.OnPushed(store.KindActivityLogs, func(_ context.Context, u uuid.UUID, records []store.Record) error {
		assert.Equal(t, userID, u)
		for _, r := range records {
			hooked = append(hooked, r.ID)
		}
		return errors.New("stats refresh failed")
	})

	workout := putRecord(t, local, userID, store.KindActivityLogs, map[string]any{"duration_min": 30})
	putRecord(t, local, userID, store.KindPhotos, map[string]any{"url": "x"})

	res := rec.Sync(ctx, userID, reconciler.TriggerActivity)
	require.NoError(t, res.Err(), "hook failures do not fail the pass")
	assert.Equal(t, []string{workout.ID}, hooked)
}

func TestSyncPending_OnlyUsersWithPendingRecords(t *testing.T) {
	ctx := context.Background()
	local := store.NewMemoryStore()
	rs := newFakeRemote()
	rec, _ := newReconciler(local, rs, store.KindActivityLogs)

	ana, bruno := uuid.New(), uuid.New()
	putRecord(t, local, ana, store.KindActivityLogs, map[string]any{"duration_min": 10})
	putRecord(t, local, bruno, store.KindActivityLogs, map[string]any{"duration_min": 15})

	results, err := rec.SyncPending(ctx, reconciler.TriggerPeriodic)
	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Equal(t, 2, rs.pushCount(store.KindActivityLogs))

	results, err = rec.SyncPending(ctx, reconciler.TriggerPeriodic)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestTriggerAsync(t *testing.T) {
	local := store.NewMemoryStore()
	rs := newFakeRemote()
	rec, _ := newReconciler(local, rs, store.KindActivityLogs)
	userID := uuid.New()

	putRecord(t, local, userID, store.KindActivityLogs, map[string]any{"duration_min": 10})
	rec.TriggerAsync(userID, reconciler.TriggerActivity)
	rec.Wait()

	assert.Equal(t, 1, rs.pushCount(store.KindActivityLogs))
}

func TestMerge_MirrorWins(t *testing.T) {
	mirror := []store.Record{
		{ID: "b", State: store.StateSynced, Payload: []byte(`"remote"`)},
	}
	local := []store.Record{
		{ID: "c", State: store.StatePending, Payload: []byte(`"local-only"`)},
		{ID: "b", State: store.StatePending, Payload: []byte(`"local"`)},
		{ID: "a", State: store.StatePending, Payload: []byte(`"local-only"`)},
	}

	merged := reconciler.Merge(mirror, local)
	require.Len(t, merged, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{merged[0].ID, merged[1].ID, merged[2].ID})
	assert.JSONEq(t, `"remote"`, string(merged[1].Payload))
	assert.Equal(t, store.StateSynced, merged[1].State)
}

func TestConnectivityProbe_ReconnectTriggersSync(t *testing.T) {
	ctx := context.Background()
	local := store.NewMemoryStore()
	rs := newFakeRemote()
	rec, _ := newReconciler(local, rs, store.KindActivityLogs)
	probe := reconciler.NewConnectivityProbe(rec, logger.Discard())
	userID := uuid.New()

	assert.True(t, probe.Online())
	rs.setPingErr(errors.New("dial tcp: connection refused"))
	assert.False(t, probe.Check(ctx))
	assert.False(t, probe.Online())

	putRecord(t, local, userID, store.KindActivityLogs, map[string]any{"duration_min": 25})
	assert.False(t, probe.Check(ctx))
	assert.Zero(t, rs.pushCount(store.KindActivityLogs))

	rs.setPingErr(nil)
	assert.True(t, probe.Check(ctx))
	assert.Equal(t, 1, rs.pushCount(store.KindActivityLogs))

	// Staying online does not trigger again.
	assert.True(t, probe.Check(ctx))
	assert.Equal(t, 1, rs.pushCount(store.KindActivityLogs))
}

func TestSync_WithGormRemoteAndRedisBuffer(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	rdb, _ := testutil.NewRedis(t)
	user := testutil.CreateUser(t, db, "ana")

	local := store.NewRedisStore(rdb)
	rec, _ := newReconciler(local, remote.NewGormStore(db))

	workout := entity.ActivityLog{
		ID:           uuid.Must(uuid.NewV7()),
		UserID:       user.ID,
		ActivityType: "musculacao",
		DurationMin:  30,
		Points:       90,
		StartedAt:    time.Now().UTC().Truncate(time.Second),
	}
	r, err := store.NewRecord(store.KindActivityLogs, workout.ID.String(), workout)
	require.NoError(t, err)
	require.NoError(t, local.Put(ctx, user.ID, r))

	res := rec.Sync(ctx, user.ID, reconciler.TriggerManual)
	require.NoError(t, res.Err())

	var stored entity.ActivityLog
	require.NoError(t, db.First(&stored, "id = ?", workout.ID).Error)
	assert.Equal(t, 90, stored.Points)

	logs, err := reconciler.View[entity.ActivityLog](ctx, rec, store.KindActivityLogs, user.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, workout.ID, logs[0].ID)
	assert.Equal(t, "musculacao", logs[0].ActivityType)
}
