package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ReferencePost     = "post"
	ReferenceComment  = "comment"
	ReferenceActivity = "activity"
)

// Reaction is a single emoji per user and reference; reacting again swaps it.
type Reaction struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_reactions_one_per_user,priority:1" json:"user_id"`
	User          User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	ReferenceID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_reactions_one_per_user,priority:2;index:idx_reactions_lookup,priority:1" json:"reference_id"`
	ReferenceType string    `gorm:"size:20;not null;uniqueIndex:idx_reactions_one_per_user,priority:3;index:idx_reactions_lookup,priority:2" json:"reference_type"`
	Emoji         string    `gorm:"size:10;not null" json:"emoji"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (r *Reaction) TableName() string {
	return "reactions"
}

func (r *Reaction) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID, err = uuid.NewV7()
	}
	return
}
