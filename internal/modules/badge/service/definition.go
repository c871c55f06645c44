package badge

import (
	"fmt"

	"anoa.com/fitsquad/pkg/apperror"
)

type Kind string

const (
	KindWorkoutCount    Kind = "workout_count"
	KindStreak          Kind = "streak"
	KindVolume          Kind = "volume"
	KindPersonalRecords Kind = "personal_records"
	KindGoalsAchieved   Kind = "goals_achieved"
	KindWorkoutsWeek    Kind = "workouts_week"
	KindWorkoutsMonth   Kind = "workouts_month"
	KindWorkoutsYear    Kind = "workouts_year"
	KindExerciseRepeat  Kind = "exercise_repeat"
	KindExerciseWeight  Kind = "exercise_weight"
	KindEarlyBird       Kind = "early_bird"
	KindNightOwl        Kind = "night_owl"
	KindWeekend         Kind = "weekend_workouts"
	KindFullBody        Kind = "full_body"
	KindPhotoCount      Kind = "photo_count"
	KindTemplateCount   Kind = "template_count"
)

// Definition is one catalog entry: a threshold over a single counter,
// optionally qualified by an exercise name.
type Definition struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Kind        Kind    `json:"kind"`
	Threshold   float64 `json:"threshold"`
	Exercise    string  `json:"exercise,omitempty"`
}

// UserCounters are running totals derived from a user's history. Every
// counter only grows as history grows.
type UserCounters struct {
	TotalWorkouts     int
	CurrentStreak     int
	LongestStreak     int
	TotalVolume       float64
	PersonalRecords   int
	GoalsAchieved     int
	BestWeekWorkouts  int
	BestMonthWorkouts int
	BestYearWorkouts  int
	ExerciseCounts    map[string]int
	ExerciseMaxWeight map[string]float64
	EarlyBirdWorkouts int
	NightOwlWorkouts  int
	WeekendWorkouts   int
	FullBodyWorkouts  int
	Photos            int
	Templates         int
}

func malformed(d Definition, reason string) error {
	return fmt.Errorf("%w: %s: %s", apperror.ErrMalformedBadge, d.ID, reason)
}

// Evaluate reports whether the counters satisfy the definition.
func (d Definition) Evaluate(c UserCounters) (bool, error) {
	if d.ID == "" {
		return false, malformed(d, "missing id")
	}
	if d.Threshold <= 0 {
		return false, malformed(d, "threshold must be positive")
	}

	var value float64
	switch d.Kind {
	case KindWorkoutCount:
		value = float64(c.TotalWorkouts)
	case KindStreak:
		value = float64(c.LongestStreak)
	case KindVolume:
		value = c.TotalVolume
	case KindPersonalRecords:
		value = float64(c.PersonalRecords)
	case KindGoalsAchieved:
		value = float64(c.GoalsAchieved)
	case KindWorkoutsWeek:
		value = float64(c.BestWeekWorkouts)
	case KindWorkoutsMonth:
		value = float64(c.BestMonthWorkouts)
	case KindWorkoutsYear:
		value = float64(c.BestYearWorkouts)
	case KindExerciseRepeat:
		if d.Exercise != "" {
			value = float64(c.ExerciseCounts[normalizeName(d.Exercise)])
		} else {
			for _, n := range c.ExerciseCounts {
				value = max(value, float64(n))
			}
		}
	case KindExerciseWeight:
		if d.Exercise == "" {
			return false, malformed(d, "exercise_weight needs an exercise")
		}
		value = c.ExerciseMaxWeight[normalizeName(d.Exercise)]
	case KindEarlyBird:
		value = float64(c.EarlyBirdWorkouts)
	case KindNightOwl:
		value = float64(c.NightOwlWorkouts)
	case KindWeekend:
		value = float64(c.WeekendWorkouts)
	case KindFullBody:
		value = float64(c.FullBodyWorkouts)
	case KindPhotoCount:
		value = float64(c.Photos)
	case KindTemplateCount:
		value = float64(c.Templates)
	default:
		return false, malformed(d, fmt.Sprintf("unknown kind %q", d.Kind))
	}

	return value >= d.Threshold, nil
}
