package dto

import (
	"time"

	activityDto "anoa.com/fitsquad/internal/modules/activity/dto"
	"github.com/google/uuid"
)

type CreateTemplateRequest struct {
	Name         string                      `json:"name" binding:"required,max=120"`
	Description  string                      `json:"description" binding:"omitempty,max=1000"`
	ActivityType string                      `json:"activity_type" binding:"required,max=50"`
	Exercises    []activityDto.ExerciseInput `json:"exercises" binding:"omitempty,max=50,dive"`
}

type UseTemplateRequest struct {
	DurationMin int        `json:"duration_min" binding:"required,min=1,max=1440"`
	StartedAt   *time.Time `json:"started_at"`
	Notes       string     `json:"notes" binding:"omitempty,max=1000"`
}

type SearchQuery struct {
	Q     string `form:"q" binding:"omitempty,max=100"`
	Limit int    `form:"limit" binding:"omitempty,min=1,max=50"`
}

type TemplateResponse struct {
	ID           uuid.UUID                   `json:"id"`
	Name         string                      `json:"name"`
	Description  string                      `json:"description,omitempty"`
	ActivityType string                      `json:"activity_type"`
	Exercises    []activityDto.ExerciseInput `json:"exercises,omitempty"`
	SyncState    string                      `json:"sync_state"`
	CreatedAt    time.Time                   `json:"created_at"`
}
