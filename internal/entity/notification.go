package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	NotificationLike         = "like_post"
	NotificationComment      = "comment_post"
	NotificationBadgeUnlock  = "badge_unlocked"
	NotificationLevelUp      = "level_up"
	NotificationGoalAchieved = "goal_achieved"
)

type Notification struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID  `gorm:"type:uuid;index;not null" json:"user_id"` // recipient
	ActorID    *uuid.UUID `gorm:"type:uuid" json:"actor_id,omitempty"`     // nil for system notifications
	EntityID   string     `gorm:"size:64" json:"entity_id"`
	EntityType string     `gorm:"size:50;not null" json:"entity_type"` // 'post', 'badge', 'level', 'goal'
	Type       string     `gorm:"size:50;not null" json:"type"`
	Message    string     `gorm:"type:text" json:"message"`
	IsRead     bool       `gorm:"default:false" json:"is_read"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`

	Actor *User `gorm:"foreignKey:ActorID" json:"actor,omitempty"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) (err error) {
	if n.ID == uuid.Nil {
		n.ID, err = uuid.NewV7()
	}
	return
}
