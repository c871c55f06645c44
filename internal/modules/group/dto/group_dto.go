package dto

import (
	"time"

	leaderboardDto "anoa.com/fitsquad/internal/modules/leaderboard/dto"
	"github.com/google/uuid"
)

type CreateGroupRequest struct {
	Name        string `json:"name" binding:"required,min=3,max=100"`
	Description string `json:"description" binding:"omitempty,max=1000"`
}

type GroupResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	OwnerID     uuid.UUID `json:"owner_id"`
	MemberCount int64     `json:"member_count"`
	IsMember    bool      `json:"is_member"`
	CreatedAt   time.Time `json:"created_at"`
}

type GroupLeaderboardResponse struct {
	Group   GroupResponse                     `json:"group"`
	Entries []leaderboardDto.LeaderboardEntry `json:"entries"`
}
