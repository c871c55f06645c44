package repository

import (
	"context"
	"errors"
	"fmt"

	"anoa.com/fitsquad/internal/entity"
	"anoa.com/fitsquad/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostRepository interface {
	Create(ctx context.Context, post *entity.Post) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Post, error)
	// List returns newest posts first; a nil authorID lists the whole feed.
	List(ctx context.Context, authorID *uuid.UUID, offset, limit int) ([]*entity.Post, int64, error)
	Update(ctx context.Context, post *entity.Post) error
	Delete(ctx context.Context, id uuid.UUID) error

	CreateComment(ctx context.Context, comment *entity.Comment) error
	FindCommentByID(ctx context.Context, id uuid.UUID) (*entity.Comment, error)
	ListComments(ctx context.Context, postID uuid.UUID) ([]*entity.Comment, error)
	DeleteComment(ctx context.Context, id uuid.UUID) error
	CountComments(ctx context.Context, postIDs []uuid.UUID) (map[uuid.UUID]int64, error)
}

type postRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func notFound(err error, what string, id uuid.UUID) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %s: %w", what, id, apperror.ErrNotFound)
	}
	return err
}

func (r *postRepository) Create(ctx context.Context, post *entity.Post) error {
	return r.db.WithContext(ctx).Omit("User").Create(post).Error
}

func (r *postRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Post, error) {
	var post entity.Post
	if err := r.db.WithContext(ctx).
		Preload("User").
		Where("id = ?", id).
		First(&post).Error; err != nil {
		return nil, notFound(err, "post", id)
	}
	return &post, nil
}

func (r *postRepository) List(ctx context.Context, authorID *uuid.UUID, offset, limit int) ([]*entity.Post, int64, error) {
	var posts []*entity.Post
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Post{})
	if authorID != nil {
		query = query.Where("user_id = ?", *authorID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.
		Preload("User").
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&posts).Error; err != nil {
		return nil, 0, err
	}

	return posts, total, nil
}

func (r *postRepository) Update(ctx context.Context, post *entity.Post) error {
	return r.db.WithContext(ctx).
		Model(post).
		Select("content", "content_html", "updated_at").
		Updates(post).Error
}

func (r *postRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var commentIDs []uuid.UUID
		if err := tx.Model(&entity.Comment{}).Where("post_id = ?", id).Pluck("id", &commentIDs).Error; err != nil {
			return err
		}

		// Reactions are polymorphic and carry no foreign key.
		if err := tx.Where("reference_type = ? AND reference_id = ?", entity.ReferencePost, id).
			Delete(&entity.Reaction{}).Error; err != nil {
			return err
		}
		if len(commentIDs) > 0 {
			if err := tx.Where("reference_type = ? AND reference_id IN ?", entity.ReferenceComment, commentIDs).
				Delete(&entity.Reaction{}).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("post_id = ?", id).Delete(&entity.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&entity.Post{}, "id = ?", id).Error
	})
}

func (r *postRepository) CreateComment(ctx context.Context, comment *entity.Comment) error {
	return r.db.WithContext(ctx).Omit("User", "Post").Create(comment).Error
}

func (r *postRepository) FindCommentByID(ctx context.Context, id uuid.UUID) (*entity.Comment, error) {
	var comment entity.Comment
	if err := r.db.WithContext(ctx).
		Preload("User").
		Where("id = ?", id).
		First(&comment).Error; err != nil {
		return nil, notFound(err, "comment", id)
	}
	return &comment, nil
}

func (r *postRepository) ListComments(ctx context.Context, postID uuid.UUID) ([]*entity.Comment, error) {
	var comments []*entity.Comment
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("post_id = ?", postID).
		Order("created_at ASC, id ASC").
		Find(&comments).Error
	return comments, err
}

func (r *postRepository) DeleteComment(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("reference_type = ? AND reference_id = ?", entity.ReferenceComment, id).
			Delete(&entity.Reaction{}).Error; err != nil {
			return err
		}
		return tx.Delete(&entity.Comment{}, "id = ?", id).Error
	})
}

func (r *postRepository) CountComments(ctx context.Context, postIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	counts := make(map[uuid.UUID]int64, len(postIDs))
	if len(postIDs) == 0 {
		return counts, nil
	}

	type row struct {
		PostID uuid.UUID
		N      int64
	}
	var rows []row
	if err := r.db.WithContext(ctx).
		Model(&entity.Comment{}).
		Select("post_id, COUNT(*) AS n").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		counts[r.PostID] = r.N
	}
	return counts, nil
}
