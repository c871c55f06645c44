package badge

import (
	"testing"

	"anoa.com/fitsquad/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefinition_Evaluate(t *testing.T) {
	counters := UserCounters{
		TotalWorkouts:     25,
		CurrentStreak:     2,
		LongestStreak:     14,
		TotalVolume:       5000,
		PersonalRecords:   3,
		GoalsAchieved:     1,
		BestWeekWorkouts:  5,
		BestMonthWorkouts: 12,
		BestYearWorkouts:  25,
		ExerciseCounts:    map[string]int{"supino": 12, "levantamento_terra": 4},
		ExerciseMaxWeight: map[string]float64{"levantamento_terra": 140},
		EarlyBirdWorkouts: 10,
		WeekendWorkouts:   9,
		FullBodyWorkouts:  1,
		Photos:            1,
	}

	tests := []struct {
		name string
		def  Definition
		want bool
	}{
		{"workout count reached", Definition{ID: "a", Kind: KindWorkoutCount, Threshold: 25}, true},
		{"workout count short", Definition{ID: "a", Kind: KindWorkoutCount, Threshold: 50}, false},
		{"streak uses longest run", Definition{ID: "a", Kind: KindStreak, Threshold: 14}, true},
		{"volume", Definition{ID: "a", Kind: KindVolume, Threshold: 5000}, true},
		{"personal records", Definition{ID: "a", Kind: KindPersonalRecords, Threshold: 5}, false},
		{"goals", Definition{ID: "a", Kind: KindGoalsAchieved, Threshold: 1}, true},
		{"week", Definition{ID: "a", Kind: KindWorkoutsWeek, Threshold: 5}, true},
		{"month", Definition{ID: "a", Kind: KindWorkoutsMonth, Threshold: 20}, false},
		{"year", Definition{ID: "a", Kind: KindWorkoutsYear, Threshold: 100}, false},
		{"any exercise repeated", Definition{ID: "a", Kind: KindExerciseRepeat, Threshold: 10}, true},
		{"named exercise repeated", Definition{ID: "a", Kind: KindExerciseRepeat, Threshold: 10, Exercise: "Levantamento Terra"}, false},
		{"lift by display name", Definition{ID: "a", Kind: KindExerciseWeight, Threshold: 140, Exercise: "Levantamento Terra"}, true},
		{"lift never logged", Definition{ID: "a", Kind: KindExerciseWeight, Threshold: 60, Exercise: "supino"}, false},
		{"early bird", Definition{ID: "a", Kind: KindEarlyBird, Threshold: 10}, true},
		{"night owl", Definition{ID: "a", Kind: KindNightOwl, Threshold: 1}, false},
		{"weekend", Definition{ID: "a", Kind: KindWeekend, Threshold: 10}, false},
		{"full body", Definition{ID: "a", Kind: KindFullBody, Threshold: 1}, true},
		{"photos", Definition{ID: "a", Kind: KindPhotoCount, Threshold: 1}, true},
		{"templates", Definition{ID: "a", Kind: KindTemplateCount, Threshold: 1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.def.Evaluate(counters)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDefinition_Malformed(t *testing.T) {
	tests := []struct {
		name string
		def  Definition
	}{
		{"missing id", Definition{Kind: KindWorkoutCount, Threshold: 1}},
		{"non-positive threshold", Definition{ID: "a", Kind: KindWorkoutCount, Threshold: -1}},
		{"unknown kind", Definition{ID: "a", Kind: "vibes", Threshold: 1}},
		{"weight without exercise", Definition{ID: "a", Kind: KindExerciseWeight, Threshold: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := tt.def.Evaluate(UserCounters{TotalWorkouts: 100})
			assert.False(t, ok)
			assert.ErrorIs(t, err, apperror.ErrMalformedBadge)
		})
	}
}
