package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type WorkoutTemplate struct {
	ID           uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID     `gorm:"type:uuid;index;not null" json:"user_id"`
	Name         string        `gorm:"size:120;not null" json:"name"`
	Description  string        `gorm:"type:text" json:"description,omitempty"`
	ActivityType string        `gorm:"size:50;not null" json:"activity_type"`
	Exercises    []ExerciseSet `gorm:"serializer:json;type:text" json:"exercises,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

func (t *WorkoutTemplate) TableName() string {
	return "workout_templates"
}

func (t *WorkoutTemplate) BeforeCreate(tx *gorm.DB) (err error) {
	if t.ID == uuid.Nil {
		t.ID, err = uuid.NewV7()
	}
	return
}
