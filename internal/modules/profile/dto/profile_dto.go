package dto

import (
	"time"

	badgeDto "anoa.com/fitsquad/internal/modules/badge/dto"
	leaderboardDto "anoa.com/fitsquad/internal/modules/leaderboard/dto"
	"github.com/google/uuid"
)

type UpdateProfileInput struct {
	DisplayName *string `json:"display_name" form:"display_name" binding:"omitempty,max=100"`
	Bio         *string `json:"bio" form:"bio" binding:"omitempty,max=500"`
}

// ProfileResponse backs both the own profile and the public one; Stats is
// nil until the user logs a first activity.
type ProfileResponse struct {
	ID          uuid.UUID                         `json:"id"`
	Username    string                            `json:"username"`
	DisplayName string                            `json:"display_name"`
	Role        string                            `json:"role"`
	AvatarURL   *string                           `json:"avatar_url,omitempty"`
	Bio         *string                           `json:"bio,omitempty"`
	CreatedAt   time.Time                         `json:"created_at"`
	Stats       *leaderboardDto.UserStatsResponse `json:"stats,omitempty"`
	Badges      []badgeDto.BadgeResponse          `json:"badges"`
}
