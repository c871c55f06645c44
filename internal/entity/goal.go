package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	GoalKindWeight   = "weight"
	GoalKindWorkouts = "workouts"
	GoalKindMinutes  = "minutes"
)

type Goal struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID  `gorm:"type:uuid;index;not null" json:"user_id"`
	Kind         string     `gorm:"size:20;not null" json:"kind"`
	Title        string     `gorm:"size:120;not null" json:"title"`
	StartValue   float64    `json:"start_value"`
	TargetValue  float64    `gorm:"not null" json:"target_value"`
	CurrentValue float64    `json:"current_value"`
	Deadline     *time.Time `json:"deadline,omitempty"`
	AchievedAt   *time.Time `json:"achieved_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (g *Goal) BeforeCreate(tx *gorm.DB) (err error) {
	if g.ID == uuid.Nil {
		g.ID, err = uuid.NewV7()
	}
	return
}

func (g *Goal) Achieved() bool {
	return g.AchievedAt != nil
}

// Reached reports whether CurrentValue meets TargetValue. Weight goals may go
// downwards, so the direction is taken from StartValue.
func (g *Goal) Reached() bool {
	if g.Kind == GoalKindWeight && g.StartValue > g.TargetValue {
		return g.CurrentValue <= g.TargetValue
	}
	return g.CurrentValue >= g.TargetValue
}
