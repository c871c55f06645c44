package badge

import (
	"testing"

	"anoa.com/fitsquad/pkg/logger"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_EvaluateIsIdempotent(t *testing.T) {
	engine := NewEngine(DefaultCatalog(), logger.Discard())
	counters := UserCounters{TotalWorkouts: 5, LongestStreak: 3, TotalVolume: 750}

	first := engine.Evaluate(counters, nil)
	assert.Equal(t, []string{"workouts_1", "workouts_5", "streak_2", "streak_3", "volume_500"}, first)

	second := engine.Evaluate(counters, first)
	require.NotNil(t, second)
	assert.Empty(t, second)
}

func TestEngine_OnlyNewBadgesAreReturned(t *testing.T) {
	engine := NewEngine(DefaultCatalog(), logger.Discard())

	newly := engine.Evaluate(UserCounters{TotalWorkouts: 10}, []string{"workouts_1"})
	assert.Equal(t, []string{"workouts_5", "workouts_10"}, newly)
}

func TestEngine_SkipsMalformedDefinitions(t *testing.T) {
	log, hook := logtest.NewNullLogger()
	catalog := []Definition{
		{ID: "", Kind: KindWorkoutCount, Threshold: 1},
		{ID: "mystery", Kind: Kind("moon_phase"), Threshold: 1},
		{ID: "zero", Kind: KindWorkoutCount, Threshold: 0},
		{ID: "lift", Kind: KindExerciseWeight, Threshold: 10},
		{ID: "first", Kind: KindWorkoutCount, Threshold: 1},
		{ID: "first", Kind: KindWorkoutCount, Threshold: 1},
	}
	engine := NewEngine(catalog, log)

	newly := engine.Evaluate(UserCounters{TotalWorkouts: 1, ExerciseMaxWeight: map[string]float64{"supino": 50}}, nil)
	assert.Equal(t, []string{"first"}, newly)

	warnings := 0
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.WarnLevel {
			warnings++
		}
	}
	assert.Equal(t, 4, warnings)
}

func TestDefaultCatalog(t *testing.T) {
	catalog := DefaultCatalog()
	assert.Len(t, catalog, 87)

	seen := make(map[string]bool, len(catalog))
	for _, def := range catalog {
		assert.False(t, seen[def.ID], "duplicate id %s", def.ID)
		seen[def.ID] = true

		_, err := def.Evaluate(UserCounters{})
		assert.NoError(t, err, "definition %s", def.ID)
		assert.NotEmpty(t, def.Name)
		assert.NotEmpty(t, def.Description)
	}

	for _, id := range []string{"workouts_1000", "streak_365", "volume_500000", "pr_100", "goals_50",
		"week_7", "month_30", "year_300", "supino_100", "levantamento_terra_220", "full_body", "templates_10"} {
		assert.True(t, seen[id], "missing %s", id)
	}
}

func TestEngine_Definition(t *testing.T) {
	engine := NewEngine(DefaultCatalog(), logger.Discard())

	def, ok := engine.Definition("agachamento_140")
	require.True(t, ok)
	assert.Equal(t, KindExerciseWeight, def.Kind)
	assert.Equal(t, "agachamento", def.Exercise)
	assert.Equal(t, 140.0, def.Threshold)

	_, ok = engine.Definition("nope")
	assert.False(t, ok)
}
