package repository

import (
	"context"
	"errors"

	"anoa.com/fitsquad/internal/entity"
	"anoa.com/fitsquad/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GroupRepository interface {
	// Create stores the group with its owner as the first member.
	Create(ctx context.Context, group *entity.Group) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Group, error)
	ListByMember(ctx context.Context, userID uuid.UUID) ([]entity.Group, error)
	AddMember(ctx context.Context, groupID, userID uuid.UUID) error
	RemoveMember(ctx context.Context, groupID, userID uuid.UUID) error
	IsMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error)
	MemberIDs(ctx context.Context, groupID uuid.UUID) ([]uuid.UUID, error)
	CountMembers(ctx context.Context, groupIDs []uuid.UUID) (map[uuid.UUID]int64, error)
}

type groupRepository struct {
	db *gorm.DB
}

func NewGroupRepository(db *gorm.DB) GroupRepository {
	return &groupRepository{db: db}
}

func (r *groupRepository) Create(ctx context.Context, group *entity.Group) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(group).Error; err != nil {
			return err
		}
		return tx.Create(&entity.GroupMember{GroupID: group.ID, UserID: group.OwnerID}).Error
	})
}

func (r *groupRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Group, error) {
	var group entity.Group
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&group).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}
	return &group, nil
}

func (r *groupRepository) ListByMember(ctx context.Context, userID uuid.UUID) ([]entity.Group, error) {
	var groups []entity.Group
	err := r.db.WithContext(ctx).
		Joins("JOIN group_members ON group_members.group_id = groups.id").
		Where("group_members.user_id = ?", userID).
		Order("groups.name ASC").
		Find(&groups).Error
	return groups, err
}

// AddMember is idempotent.
func (r *groupRepository) AddMember(ctx context.Context, groupID, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&entity.GroupMember{GroupID: groupID, UserID: userID}).Error
}

func (r *groupRepository) RemoveMember(ctx context.Context, groupID, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Delete(&entity.GroupMember{}).Error
}

func (r *groupRepository) IsMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.GroupMember{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *groupRepository) MemberIDs(ctx context.Context, groupID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&entity.GroupMember{}).
		Where("group_id = ?", groupID).
		Pluck("user_id", &ids).Error
	return ids, err
}

func (r *groupRepository) CountMembers(ctx context.Context, groupIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	out := make(map[uuid.UUID]int64, len(groupIDs))
	if len(groupIDs) == 0 {
		return out, nil
	}

	type row struct {
		GroupID uuid.UUID
		N       int64
	}
	var rows []row
	if err := r.db.WithContext(ctx).
		Model(&entity.GroupMember{}).
		Select("group_id, COUNT(*) AS n").
		Where("group_id IN ?", groupIDs).
		Group("group_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.GroupID] = r.N
	}
	return out, nil
}
