package dto

import (
	"time"

	commonDto "anoa.com/fitsquad/pkg/dto"
	"github.com/google/uuid"
)

// LeaderboardEntry represents a single user entry in the leaderboard.
// Position is the 1-based rank from a fresh recomputation over the snapshot.
type LeaderboardEntry struct {
	UserID             uuid.UUID                    `json:"user_id"`
	Username           string                       `json:"username"`
	DisplayName        string                       `json:"display_name"`
	AvatarURL          *string                      `json:"avatar_url,omitempty"`
	Position           int                          `json:"position"`
	TotalPoints        int                          `json:"total_points"`
	GamificationStatus commonDto.GamificationStatus `json:"gamification_status"`
}

type LeaderboardQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

type NearbyQuery struct {
	Window int `form:"window" binding:"omitempty,min=1,max=50"`
}

type UserStatsResponse struct {
	UserID             uuid.UUID                    `json:"user_id"`
	TotalPoints        int                          `json:"total_points"`
	ActivityPoints     int                          `json:"activity_points"`
	TotalWorkouts      int                          `json:"total_workouts"`
	TotalMinutes       int                          `json:"total_minutes"`
	TotalVolume        float64                      `json:"total_volume"`
	TotalPosts         int                          `json:"total_posts"`
	TotalLikesReceived int                          `json:"total_likes_received"`
	TotalCommentsMade  int                          `json:"total_comments_made"`
	Rank               int                          `json:"rank"` // Cached; refreshed by the recompute job
	LastUpdatedAt      time.Time                    `json:"last_updated_at"`
	GamificationStatus commonDto.GamificationStatus `json:"gamification_status"`
}

type RecomputeResponse struct {
	RankedUsers int       `json:"ranked_users"`
	ComputedAt  time.Time `json:"computed_at"`
}
