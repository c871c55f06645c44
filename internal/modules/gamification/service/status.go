package gamification

import "anoa.com/fitsquad/pkg/dto"

// Level titles. A title is held from its minimum level up to the next one.
const (
	TitleIniciante = "Iniciante" // 🆕 Levels 1-4
	TitleAprendiz  = "Aprendiz"  // 💪 Levels 5-9
	TitleAtleta    = "Atleta"    // 🏃 Levels 10-19
	TitleVeterano  = "Veterano"  // 🎖️ Levels 20-29
	TitleElite     = "Elite"     // ⭐ Levels 30-49
	TitleLenda     = "Lenda"     // 🏆 Level 50+

	MaxTitle = "Max Level"
)

var titles = []struct {
	minLevel int
	title    string
}{
	{50, TitleLenda},
	{30, TitleElite},
	{20, TitleVeterano},
	{10, TitleAtleta},
	{5, TitleAprendiz},
	{1, TitleIniciante},
}

// Weekly activity thresholds, on points earned in the last 7 days.
const (
	WeeklyOnFire   = 300
	WeeklyTrending = 150
	WeeklyActive   = 50
)

func TitleFor(level int) string {
	for _, t := range titles {
		if level >= t.minLevel {
			return t.title
		}
	}
	return TitleIniciante
}

// NextTitle returns the title after the one held at level, or MaxTitle.
func NextTitle(level int) string {
	next := MaxTitle
	for _, t := range titles {
		if level >= t.minLevel {
			return next
		}
		next = t.title
	}
	return next
}

func WeeklyLabel(weeklyPoints int) string {
	switch {
	case weeklyPoints >= WeeklyOnFire:
		return "🔥 On Fire!"
	case weeklyPoints >= WeeklyTrending:
		return "⚡ Trending"
	case weeklyPoints >= WeeklyActive:
		return "📈 Active"
	default:
		return ""
	}
}

// Status combines the all-time level with the weekly activity label.
func (m LevelModel) Status(allTimePoints, weeklyPoints int) dto.GamificationStatus {
	lp := m.Level(allTimePoints)
	return dto.GamificationStatus{
		Level:         lp.Level,
		Title:         TitleFor(lp.Level),
		NextTitle:     NextTitle(lp.Level),
		CurrentPoints: lp.CurrentPoints,
		LevelFloor:    lp.LevelFloor,
		Requirement:   lp.Requirement,
		Remaining:     lp.Remaining,
		Progress:      lp.Progress,
		WeeklyPoints:  weeklyPoints,
		WeeklyLabel:   WeeklyLabel(weeklyPoints),
	}
}
