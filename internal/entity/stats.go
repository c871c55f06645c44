package entity

import (
	"time"

	"github.com/google/uuid"
)

// UserStats is a cache derived from activity logs and social events. It is always
// rebuilt from those tables, never incremented in place.
type UserStats struct {
	UserID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"user_id"`
	TotalPoints        int        `gorm:"not null;default:0;index" json:"total_points"`
	ActivityPoints     int        `gorm:"not null;default:0" json:"activity_points"`
	TotalWorkouts      int        `gorm:"not null;default:0" json:"total_workouts"`
	TotalMinutes       int        `gorm:"not null;default:0" json:"total_minutes"`
	TotalVolume        float64    `gorm:"not null;default:0" json:"total_volume"`
	TotalPosts         int        `gorm:"not null;default:0" json:"total_posts"`
	TotalLikesReceived int        `gorm:"not null;default:0" json:"total_likes_received"`
	TotalCommentsMade  int        `gorm:"not null;default:0" json:"total_comments_made"`
	Rank               int        `gorm:"not null;default:0" json:"rank"`
	RankComputedAt     *time.Time `json:"rank_computed_at,omitempty"`
	LastUpdatedAt      time.Time  `json:"last_updated_at"`
}

func (s *UserStats) TableName() string {
	return "user_stats"
}
