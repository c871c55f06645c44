package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProgressPhoto struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	URL       string    `gorm:"type:text;not null" json:"url"`
	Caption   string    `gorm:"size:280" json:"caption,omitempty"`
	WeightKg  *float64  `json:"weight_kg,omitempty"`
	TakenAt   time.Time `gorm:"not null" json:"taken_at"`
	CreatedAt time.Time `json:"created_at"`
}

func (p *ProgressPhoto) TableName() string {
	return "progress_photos"
}

func (p *ProgressPhoto) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID, err = uuid.NewV7()
	}
	return
}
