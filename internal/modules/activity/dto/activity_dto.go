package dto

import (
	"time"

	badgeDto "anoa.com/fitsquad/internal/modules/badge/dto"
	commonDto "anoa.com/fitsquad/pkg/dto"
	"github.com/google/uuid"
)

type ExerciseInput struct {
	Exercise    string  `json:"exercise" binding:"required,max=80"`
	MuscleGroup string  `json:"muscle_group" binding:"omitempty,max=40"`
	Sets        int     `json:"sets" binding:"min=0,max=100"`
	Reps        int     `json:"reps" binding:"min=0,max=1000"`
	WeightKg    float64 `json:"weight_kg" binding:"min=0,max=1000"`
}

type LogActivityRequest struct {
	ActivityType string          `json:"activity_type" binding:"required,max=50"`
	DurationMin  int             `json:"duration_min" binding:"required,min=1,max=1440"`
	StartedAt    *time.Time      `json:"started_at"`
	Notes        string          `json:"notes" binding:"omitempty,max=1000"`
	Exercises    []ExerciseInput `json:"exercises" binding:"omitempty,max=50,dive"`
}

type ActivityResponse struct {
	ID           uuid.UUID       `json:"id"`
	ActivityType string          `json:"activity_type"`
	Category     string          `json:"category"`
	DurationMin  int             `json:"duration_min"`
	TotalVolume  float64         `json:"total_volume"`
	Points       int             `json:"points"`
	Exercises    []ExerciseInput `json:"exercises,omitempty"`
	Notes        string          `json:"notes,omitempty"`
	StartedAt    time.Time       `json:"started_at"`
	SyncState    string          `json:"sync_state"`
}

type LogActivityResponse struct {
	Activity  ActivityResponse         `json:"activity"`
	NewBadges []badgeDto.BadgeResponse `json:"new_badges"`
}

type ActivityListResponse struct {
	Data []ActivityResponse       `json:"data"`
	Meta commonDto.PaginationMeta `json:"meta"`
}
