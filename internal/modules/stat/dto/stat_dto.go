package dto

import "time"

// CommunityStatsResponse summarizes the whole community; weekly figures cover
// the trailing seven days.
type CommunityStatsResponse struct {
	TotalUsers        int64     `json:"total_users"`
	ActiveUsersWeekly int       `json:"active_users_weekly"`
	WorkoutsWeekly    int       `json:"workouts_weekly"`
	MinutesWeekly     int       `json:"minutes_weekly"`
	PointsWeekly      int       `json:"points_weekly"`
	Since             time.Time `json:"since"`
}
