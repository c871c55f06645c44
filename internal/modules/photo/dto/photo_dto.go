package dto

import (
	"time"

	"github.com/google/uuid"
)

type UploadPhotoRequest struct {
	Caption  string     `form:"caption" binding:"omitempty,max=280"`
	WeightKg *float64   `form:"weight_kg" binding:"omitempty,gt=0,lt=500"`
	TakenAt  *time.Time `form:"taken_at" time_format:"2006-01-02T15:04:05Z07:00"`
}

type PhotoResponse struct {
	ID        uuid.UUID `json:"id"`
	URL       string    `json:"url"`
	Caption   string    `json:"caption,omitempty"`
	WeightKg  *float64  `json:"weight_kg,omitempty"`
	TakenAt   time.Time `json:"taken_at"`
	SyncState string    `json:"sync_state"`
}
