package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ExerciseSet is one exercise performed inside a workout.
type ExerciseSet struct {
	Exercise    string  `json:"exercise"`
	MuscleGroup string  `json:"muscle_group,omitempty"`
	Sets        int     `json:"sets"`
	Reps        int     `json:"reps"`
	WeightKg    float64 `json:"weight_kg"`
}

// Volume is sets x reps x weight, in kilograms.
func (e ExerciseSet) Volume() float64 {
	return float64(e.Sets*e.Reps) * e.WeightKg
}

// ActivityLog is one completed workout. Points are fixed when the log is created.
type ActivityLog struct {
	ID           uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID     `gorm:"type:uuid;index:idx_activity_user_started,priority:1;not null" json:"user_id"`
	ActivityType string        `gorm:"size:50;not null" json:"activity_type"`
	DurationMin  int           `gorm:"not null" json:"duration_min"`
	TotalVolume  float64       `gorm:"default:0" json:"total_volume"`
	Points       int           `gorm:"not null;default:0" json:"points"`
	Exercises    []ExerciseSet `gorm:"serializer:json;type:text" json:"exercises,omitempty"`
	Notes        string        `gorm:"type:text" json:"notes,omitempty"`
	StartedAt    time.Time     `gorm:"index:idx_activity_user_started,priority:2;not null" json:"started_at"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

func (a *ActivityLog) TableName() string {
	return "activity_logs"
}

func (a *ActivityLog) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID, err = uuid.NewV7()
	}
	return
}
