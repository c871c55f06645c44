package goal

import (
	"context"
	"sync"
	"testing"

	"anoa.com/fitsquad/internal/entity"
	"anoa.com/fitsquad/internal/events"
	goalDto "anoa.com/fitsquad/internal/modules/goal/dto"
	goalRepo "anoa.com/fitsquad/internal/modules/goal/repository"
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

type countingSyncer struct {
	mu    sync.Mutex
	calls int
}

func (s *countingSyncer) TriggerAsync(uuid.UUID, reconciler.Trigger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
}

type fixture struct {
	rec       *reconciler.Reconciler
	svc       GoalService
	notifier  *testutil.Notifier
	publisher *events.RecordingPublisher
	syncer    *countingSyncer
	userID    uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	user := testutil.CreateUser(t, db, "lia")
	rec := reconciler.New(store.NewMemoryStore(), remote.NewGormStore(db), nil, logger.Discard(), reconciler.Options{})

	f := &fixture{
		rec:       rec,
		notifier:  &testutil.Notifier{},
		publisher: &events.RecordingPublisher{},
		syncer:    &countingSyncer{},
		userID:    user.ID,
	}
	f.svc = NewGoalService(goalRepo.NewGoalRepository(rec), f.notifier, f.syncer, f.publisher, logger.Discard())
	return f
}

func TestCreateGoal_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateGoal(ctx, f.userID, goalDto.CreateGoalRequest{Kind: entity.GoalKindWeight, Title: "Perder peso", TargetValue: 70})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)

	_, err = f.svc.CreateGoal(ctx, f.userID, goalDto.CreateGoalRequest{Kind: entity.GoalKindWorkouts, Title: "x", StartValue: 10, TargetValue: 10})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
}

func TestRecordProgress_WeightLossAchievedOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.CreateGoal(ctx, f.userID, goalDto.CreateGoalRequest{
		Kind:        entity.GoalKindWeight,
		Title:       "Chegar a 80kg",
		StartValue:  90,
		TargetValue: 80,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, created.Progress)

	halfway, err := f.svc.RecordProgress(ctx, f.userID, created.ID, 85)
	require.NoError(t, err)
	assert.Equal(t, 50, halfway.Progress)
	assert.Nil(t, halfway.AchievedAt)

	done, err := f.svc.RecordProgress(ctx, f.userID, created.ID, 79.5)
	require.NoError(t, err)
	assert.Equal(t, 100, done.Progress)
	require.NotNil(t, done.AchievedAt)

	// Going back above target keeps the goal achieved and does not notify again.
	again, err := f.svc.RecordProgress(ctx, f.userID, created.ID, 81)
	require.NoError(t, err)
	assert.Equal(t, done.AchievedAt.Unix(), again.AchievedAt.Unix())

	sent := f.notifier.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, entity.NotificationGoalAchieved, sent[0].Type)
	assert.Equal(t, []string{events.TypeGoalAchieved}, f.publisher.Types())
	assert.Equal(t, 4, f.syncer.calls)
}

func TestRecordProgress_SurvivesSync(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.CreateGoal(ctx, f.userID, goalDto.CreateGoalRequest{
		Kind:        entity.GoalKindWorkouts,
		Title:       "20 treinos",
		TargetValue: 20,
	})
	require.NoError(t, err)
	require.NoError(t, f.rec.Sync(ctx, f.userID, reconciler.TriggerManual).Err())

	_, err = f.svc.RecordProgress(ctx, f.userID, created.ID, 5)
	require.NoError(t, err)
	_, err = f.svc.RecordProgress(ctx, f.userID, created.ID, 20)
	require.NoError(t, err)
	require.NoError(t, f.rec.Sync(ctx, f.userID, reconciler.TriggerManual).Err())

	goals, err := f.svc.ListGoals(ctx, f.userID)
	require.NoError(t, err)
	require.Len(t, goals, 1)
	assert.Equal(t, float64(20), goals[0].CurrentValue)
	assert.NotNil(t, goals[0].AchievedAt)
	assert.Equal(t, "synced", goals[0].SyncState)
}

func TestRecordProgress_UnknownGoal(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.RecordProgress(context.Background(), f.userID, uuid.New(), 1)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestProgress(t *testing.T) {
	tests := []struct {
		name string
		goal entity.Goal
		want int
	}{
		{"gain halfway", entity.Goal{StartValue: 0, TargetValue: 20, CurrentValue: 10}, 50},
		{"overshoot", entity.Goal{StartValue: 0, TargetValue: 20, CurrentValue: 30}, 100},
		{"wrong direction", entity.Goal{StartValue: 90, TargetValue: 80, CurrentValue: 95}, 0},
		{"loss", entity.Goal{StartValue: 90, TargetValue: 80, CurrentValue: 82}, 80},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, progress(tt.goal))
		})
	}
}
