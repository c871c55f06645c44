package dto

import "time"

type BadgeResponse struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Kind        string     `json:"kind"`
	Threshold   float64    `json:"threshold"`
	Exercise    string     `json:"exercise,omitempty"`
	Unlocked    bool       `json:"unlocked"`
	UnlockedAt  *time.Time `json:"unlocked_at,omitempty"`
}

type CountersResponse struct {
	TotalWorkouts   int     `json:"total_workouts"`
	CurrentStreak   int     `json:"current_streak"`
	LongestStreak   int     `json:"longest_streak"`
	TotalVolume     float64 `json:"total_volume"`
	PersonalRecords int     `json:"personal_records"`
	GoalsAchieved   int     `json:"goals_achieved"`
	Photos          int     `json:"photos"`
	Templates       int     `json:"templates"`
}

type EvaluateResponse struct {
	NewlyUnlocked []BadgeResponse  `json:"newly_unlocked"`
	TotalUnlocked int              `json:"total_unlocked"`
	Counters      CountersResponse `json:"counters"`
}

type ListQuery struct {
	UnlockedOnly bool `form:"unlocked_only"`
}
