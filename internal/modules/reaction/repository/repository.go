package repository

import (
	"context"
	"fmt"

	"anoa.com/fitsquad/internal/entity"
	"anoa.com/fitsquad/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ownerTables maps a reference type to the table holding its author.
var ownerTables = map[string]string{
	entity.ReferencePost:     "posts",
	entity.ReferenceComment:  "comments",
	entity.ReferenceActivity: "activity_logs",
}

type ReactionRepository interface {
	// Toggle: returns oldEmoji (if any), newEmoji (if any), error
	ToggleReaction(ctx context.Context, reaction *entity.Reaction) (string, string, error)
	GetUserReactions(ctx context.Context, userID uuid.UUID, refID uuid.UUID, refType string) ([]string, error)
	GetReactionsCount(ctx context.Context, refID uuid.UUID, refType string) (map[string]int64, error)
	// FindOwner returns the author of the referenced post, comment or synced activity.
	FindOwner(ctx context.Context, refType string, refID uuid.UUID) (uuid.UUID, error)
}

type reactionRepository struct {
	db *gorm.DB
}

func NewReactionRepository(db *gorm.DB) ReactionRepository {
	return &reactionRepository{db: db}
}

func (r *reactionRepository) ToggleReaction(ctx context.Context, reaction *entity.Reaction) (string, string, error) {
	var oldEmoji, newEmoji string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Find with a slice avoids GORM's "record not found" log noise from First().
		var existing []entity.Reaction
		if err := tx.
			Where("user_id = ? AND reference_id = ? AND reference_type = ?",
				reaction.UserID, reaction.ReferenceID, reaction.ReferenceType).
			Limit(1).
			Find(&existing).Error; err != nil {
			return err
		}

		if len(existing) == 0 {
			newEmoji = reaction.Emoji
			return tx.Create(reaction).Error
		}

		record := existing[0]
		oldEmoji = record.Emoji
		if record.Emoji == reaction.Emoji {
			// Same emoji again removes the reaction.
			return tx.Delete(&record).Error
		}

		record.Emoji = reaction.Emoji
		newEmoji = reaction.Emoji
		return tx.Save(&record).Error
	})
	if err != nil {
		return "", "", err
	}
	return oldEmoji, newEmoji, nil
}

func (r *reactionRepository) GetUserReactions(ctx context.Context, userID uuid.UUID, refID uuid.UUID, refType string) ([]string, error) {
	var emojis []string
	err := r.db.WithContext(ctx).
		Model(&entity.Reaction{}).
		Where("user_id = ? AND reference_id = ? AND reference_type = ?", userID, refID, refType).
		Pluck("emoji", &emojis).Error
	return emojis, err
}

func (r *reactionRepository) GetReactionsCount(ctx context.Context, refID uuid.UUID, refType string) (map[string]int64, error) {
	type Result struct {
		Emoji string
		Count int64
	}
	var results []Result

	err := r.db.WithContext(ctx).
		Model(&entity.Reaction{}).
		Select("emoji, count(*) as count").
		Where("reference_id = ? AND reference_type = ?", refID, refType).
		Group("emoji").
		Scan(&results).Error

	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64)
	for _, res := range results {
		counts[res.Emoji] = res.Count
	}
	return counts, nil
}

func (r *reactionRepository) FindOwner(ctx context.Context, refType string, refID uuid.UUID) (uuid.UUID, error) {
	table, ok := ownerTables[refType]
	if !ok {
		return uuid.Nil, fmt.Errorf("%w: reference type %q", apperror.ErrInvalidInput, refType)
	}

	var owners []uuid.UUID
	if err := r.db.WithContext(ctx).
		Table(table).
		Where("id = ?", refID).
		Limit(1).
		Pluck("user_id", &owners).Error; err != nil {
		return uuid.Nil, err
	}
	if len(owners) == 0 {
		return uuid.Nil, fmt.Errorf("%s %s: %w", refType, refID, apperror.ErrNotFound)
	}
	return owners[0], nil
}
