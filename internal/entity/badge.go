package entity

import (
	"time"

	"github.com/google/uuid"
)

// UnlockedBadge is keyed by (user_id, badge_id); unlocking twice is a no-op.
type UnlockedBadge struct {
	UserID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	BadgeID    string    `gorm:"size:64;primaryKey" json:"badge_id"`
	UnlockedAt time.Time `gorm:"not null" json:"unlocked_at"`
	CreatedAt  time.Time `json:"created_at"`
}

func (b *UnlockedBadge) TableName() string {
	return "unlocked_badges"
}
