package gamification

import "math"

const DefaultLevelBasePoints = 100

// LevelModel: reaching level n+1 costs BasePoints*n points on top of level n.
type LevelModel struct {
	BasePoints int
}

type LevelProgress struct {
	Level         int `json:"level"`
	Progress      int `json:"progress"` // Percentage within the current level
	Remaining     int `json:"remaining"`
	CurrentPoints int `json:"current_points"`
	LevelFloor    int `json:"level_floor"` // Cumulative points at which Level starts
	Requirement   int `json:"requirement"` // Points needed to clear Level
}

func (m LevelModel) base() int {
	if m.BasePoints <= 0 {
		return DefaultLevelBasePoints
	}
	return m.BasePoints
}

// Requirement is the number of points a user must earn while at level n.
// It saturates at math.MaxInt.
func (m LevelModel) Requirement(level int) int {
	if level < 1 {
		level = 1
	}
	base := m.base()
	if level > math.MaxInt/base {
		return math.MaxInt
	}
	return base * level
}

// Floor is the cumulative total at which level n starts. It saturates at
// math.MaxInt.
func (m LevelModel) Floor(level int) int {
	if level <= 1 {
		return 0
	}
	// One of level, level-1 is even, so halve that one first.
	var steps int
	if level%2 == 0 {
		steps = level / 2 * (level - 1)
	} else {
		steps = level * ((level - 1) / 2)
	}
	base := m.base()
	if steps > math.MaxInt/base {
		return math.MaxInt
	}
	return base * steps
}

// estimate is a level at or just below the one total falls in, from the
// inverse of Floor.
func (m LevelModel) estimate(total int) int {
	n := int((1 + math.Sqrt(1+8*float64(total)/float64(m.base()))) / 2)
	if n -= 2; n < 1 {
		return 1
	}
	if m.Floor(n) > total {
		return 1
	}
	return n
}

// Level finds the level total falls in, stepping from an estimate until the
// next boundary exceeds total. Negative totals count as zero.
func (m LevelModel) Level(total int) LevelProgress {
	if total < 0 {
		total = 0
	}
	level := m.estimate(total)
	floor := m.Floor(level)
	for total-floor >= m.Requirement(level) {
		floor += m.Requirement(level)
		level++
	}

	requirement := m.Requirement(level)
	within := total - floor
	return LevelProgress{
		Level:         level,
		Progress:      int(math.Floor(float64(within)*100/float64(requirement) + 0.5)),
		Remaining:     requirement - within,
		CurrentPoints: total,
		LevelFloor:    floor,
		Requirement:   requirement,
	}
}
