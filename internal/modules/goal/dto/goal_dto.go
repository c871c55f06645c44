package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateGoalRequest struct {
	Kind        string     `json:"kind" binding:"required,oneof=weight workouts minutes"`
	Title       string     `json:"title" binding:"required,max=120"`
	StartValue  float64    `json:"start_value" binding:"min=0"`
	TargetValue float64    `json:"target_value" binding:"required,gt=0"`
	Deadline    *time.Time `json:"deadline"`
}

type ProgressRequest struct {
	Value *float64 `json:"value" binding:"required,min=0"`
}

type GoalResponse struct {
	ID           uuid.UUID  `json:"id"`
	Kind         string     `json:"kind"`
	Title        string     `json:"title"`
	StartValue   float64    `json:"start_value"`
	TargetValue  float64    `json:"target_value"`
	CurrentValue float64    `json:"current_value"`
	Progress     int        `json:"progress"` // Percentage
	Deadline     *time.Time `json:"deadline,omitempty"`
	AchievedAt   *time.Time `json:"achieved_at,omitempty"`
	SyncState    string     `json:"sync_state"`
	CreatedAt    time.Time  `json:"created_at"`
}
