package badge

import (
	"sort"
	"strings"
	"time"

	"anoa.com/fitsquad/internal/entity"
)

const (
	earlyBirdBefore = 7  // start hour, exclusive
	nightOwlFrom    = 21 // start hour, inclusive
)

var fullBodyGroups = []string{"peito", "costas", "pernas", "ombros", "bracos"}

type CounterInput struct {
	Activities []entity.ActivityLog
	Goals      []entity.Goal
	Photos     int
	Templates  int
}

var accents = strings.NewReplacer(
	"á", "a", "à", "a", "â", "a", "ã", "a",
	"é", "e", "ê", "e",
	"í", "i",
	"ó", "o", "ô", "o", "õ", "o",
	"ú", "u", "ü", "u",
	"ç", "c",
)

// normalizeName turns "Levantamento Terra" into "levantamento_terra".
func normalizeName(s string) string {
	s = accents.Replace(strings.ToLower(strings.TrimSpace(s)))
	return strings.Join(strings.Fields(s), "_")
}

// BuildCounters derives counters from a user's history. Calendar days, weeks,
// months and hours are taken in loc.
func BuildCounters(in CounterInput, now time.Time, loc *time.Location) UserCounters {
	if loc == nil {
		loc = time.UTC
	}

	c := UserCounters{
		TotalWorkouts:     len(in.Activities),
		ExerciseCounts:    make(map[string]int),
		ExerciseMaxWeight: make(map[string]float64),
		Photos:            in.Photos,
		Templates:         in.Templates,
	}

	for _, g := range in.Goals {
		if g.Achieved() {
			c.GoalsAchieved++
		}
	}

	activities := make([]entity.ActivityLog, len(in.Activities))
	copy(activities, in.Activities)
	sort.SliceStable(activities, func(i, j int) bool {
		return activities[i].StartedAt.Before(activities[j].StartedAt)
	})

	weeks := make(map[[2]int]int)
	months := make(map[[2]int]int)
	years := make(map[int]int)
	days := make(map[time.Time]struct{})

	for _, a := range activities {
		local := a.StartedAt.In(loc)
		c.TotalVolume += a.TotalVolume

		y, w := local.ISOWeek()
		weeks[[2]int{y, w}]++
		months[[2]int{local.Year(), int(local.Month())}]++
		years[local.Year()]++
		days[time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)] = struct{}{}

		switch h := local.Hour(); {
		case h < earlyBirdBefore:
			c.EarlyBirdWorkouts++
		case h >= nightOwlFrom:
			c.NightOwlWorkouts++
		}
		if wd := local.Weekday(); wd == time.Saturday || wd == time.Sunday {
			c.WeekendWorkouts++
		}

		groups := make(map[string]struct{})
		for _, set := range a.Exercises {
			name := normalizeName(set.Exercise)
			if name != "" {
				c.ExerciseCounts[name]++
				// A personal record beats an earlier best; the first log sets the baseline.
				if best, seen := c.ExerciseMaxWeight[name]; seen && set.WeightKg > best {
					c.PersonalRecords++
				}
				if set.WeightKg > c.ExerciseMaxWeight[name] {
					c.ExerciseMaxWeight[name] = set.WeightKg
				}
			}
			if set.MuscleGroup != "" {
				groups[normalizeName(set.MuscleGroup)] = struct{}{}
			}
		}
		if coversFullBody(groups) {
			c.FullBodyWorkouts++
		}
	}

	c.BestWeekWorkouts = maxCount(weeks)
	c.BestMonthWorkouts = maxCount(months)
	c.BestYearWorkouts = maxCount(years)
	c.CurrentStreak, c.LongestStreak = streaks(days, now.In(loc))

	return c
}

func coversFullBody(groups map[string]struct{}) bool {
	for _, g := range fullBodyGroups {
		if _, ok := groups[g]; !ok {
			return false
		}
	}
	return true
}

func maxCount[K comparable](m map[K]int) int {
	best := 0
	for _, n := range m {
		best = max(best, n)
	}
	return best
}

// streaks counts consecutive calendar days. The current streak is the run
// ending today or yesterday; otherwise it is zero.
func streaks(days map[time.Time]struct{}, now time.Time) (current, longest int) {
	if len(days) == 0 {
		return 0, 0
	}

	sorted := make([]time.Time, 0, len(days))
	for d := range days {
		sorted = append(sorted, d)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	run := 1
	longest = 1
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Sub(sorted[i-1]) == 24*time.Hour {
			run++
		} else {
			run = 1
		}
		longest = max(longest, run)
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	last := sorted[len(sorted)-1]
	if gap := today.Sub(last); gap == 0 || gap == 24*time.Hour {
		current = run
	}
	return current, longest
}
