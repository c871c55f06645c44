package badge

import (
	"testing"
	"time"

	"anoa.com/fitsquad/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(day, hour int) time.Time {
	return time.Date(2024, time.March, day, hour, 0, 0, 0, time.UTC)
}

func workoutsOn(days ...int) []entity.ActivityLog {
	logs := make([]entity.ActivityLog, len(days))
	for i, d := range days {
		logs[i] = entity.ActivityLog{ActivityType: "corrida", DurationMin: 30, StartedAt: at(d, 10)}
	}
	return logs
}

func TestBuildCounters_Streaks(t *testing.T) {
	activities := workoutsOn(1, 2, 3, 6, 8, 9, 10)

	tests := []struct {
		name    string
		now     time.Time
		current int
		longest int
	}{
		{"last workout today", at(10, 12), 3, 3},
		{"last workout yesterday", at(11, 12), 3, 3},
		{"run broken", at(12, 12), 0, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := BuildCounters(CounterInput{Activities: activities}, tt.now, time.UTC)
			assert.Equal(t, tt.current, c.CurrentStreak)
			assert.Equal(t, tt.longest, c.LongestStreak)
		})
	}
}

func TestBuildCounters_TimeWindows(t *testing.T) {
	// 2024-03-01 is a Friday; 4-10 March is ISO week 10.
	c := BuildCounters(CounterInput{Activities: workoutsOn(1, 2, 3, 6, 8, 9, 10)}, at(10, 12), time.UTC)

	assert.Equal(t, 7, c.TotalWorkouts)
	assert.Equal(t, 4, c.BestWeekWorkouts)
	assert.Equal(t, 7, c.BestMonthWorkouts)
	assert.Equal(t, 7, c.BestYearWorkouts)
	assert.Equal(t, 4, c.WeekendWorkouts)
	assert.Zero(t, c.EarlyBirdWorkouts)
	assert.Zero(t, c.NightOwlWorkouts)
}

func TestBuildCounters_UsesLocalTime(t *testing.T) {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)

	// 02:00 UTC on Sunday is 23:00 on Saturday in São Paulo.
	late := entity.ActivityLog{ActivityType: "corrida", DurationMin: 30, StartedAt: at(10, 2)}
	// 09:00 UTC is 06:00 locally.
	early := entity.ActivityLog{ActivityType: "yoga", DurationMin: 30, StartedAt: at(12, 9)}

	c := BuildCounters(CounterInput{Activities: []entity.ActivityLog{late, early}}, at(12, 12), loc)
	assert.Equal(t, 1, c.NightOwlWorkouts)
	assert.Equal(t, 1, c.EarlyBirdWorkouts)
	assert.Equal(t, 1, c.WeekendWorkouts)
	assert.Equal(t, 1, c.LongestStreak)
}

func TestBuildCounters_PersonalRecordsAndExercises(t *testing.T) {
	bench := func(day int, weight float64) entity.ActivityLog {
		return entity.ActivityLog{
			ActivityType: "musculacao",
			DurationMin:  45,
			StartedAt:    at(day, 18),
			TotalVolume:  weight * 30,
			Exercises: []entity.ExerciseSet{
				{Exercise: "Supino", MuscleGroup: "peito", Sets: 3, Reps: 10, WeightKg: weight},
			},
		}
	}
	// Out of order on purpose; records are counted chronologically.
	activities := []entity.ActivityLog{bench(4, 65), bench(1, 60), bench(6, 80), bench(2, 70)}

	c := BuildCounters(CounterInput{Activities: activities}, at(6, 20), time.UTC)
	assert.Equal(t, 2, c.PersonalRecords)
	assert.Equal(t, 80.0, c.ExerciseMaxWeight["supino"])
	assert.Equal(t, 4, c.ExerciseCounts["supino"])
	assert.InDelta(t, 8250.0, c.TotalVolume, 0.001)
}

func TestBuildCounters_FullBodyGoalsAndMedia(t *testing.T) {
	fullBody := entity.ActivityLog{
		ActivityType: "funcional",
		DurationMin:  60,
		StartedAt:    at(5, 8),
		Exercises: []entity.ExerciseSet{
			{Exercise: "Flexão", MuscleGroup: "Peito"},
			{Exercise: "Remada", MuscleGroup: "Costas"},
			{Exercise: "Agachamento", MuscleGroup: "Pernas"},
			{Exercise: "Desenvolvimento", MuscleGroup: "Ombros"},
			{Exercise: "Rosca", MuscleGroup: "Braços"},
		},
	}
	achieved := at(5, 9)
	goals := []entity.Goal{
		{Kind: entity.GoalKindWorkouts, TargetValue: 10, AchievedAt: &achieved},
		{Kind: entity.GoalKindWeight, TargetValue: 70},
	}

	c := BuildCounters(CounterInput{Activities: []entity.ActivityLog{fullBody}, Goals: goals, Photos: 3, Templates: 2}, at(5, 12), time.UTC)
	assert.Equal(t, 1, c.FullBodyWorkouts)
	assert.Equal(t, 1, c.GoalsAchieved)
	assert.Equal(t, 3, c.Photos)
	assert.Equal(t, 2, c.Templates)
}

func TestBuildCounters_Empty(t *testing.T) {
	c := BuildCounters(CounterInput{}, time.Now(), nil)
	assert.Zero(t, c.TotalWorkouts)
	assert.Zero(t, c.CurrentStreak)
	assert.Zero(t, c.LongestStreak)
	assert.NotNil(t, c.ExerciseCounts)
}
