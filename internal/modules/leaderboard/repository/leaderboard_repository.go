package repository

import (
	"context"
	"errors"
	"time"

	"anoa.com/fitsquad/internal/entity"
	"anoa.com/fitsquad/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StatsRow is a stats snapshot row joined with the owner's public profile.
type StatsRow struct {
	UserID      uuid.UUID
	Username    string
	DisplayName string
	AvatarURL   *string
	TotalPoints int
	CachedRank  int
}

type ActivityAggregate struct {
	UserID   uuid.UUID
	Workouts int
	Minutes  int
	Volume   float64
	Points   int
}

type SocialAggregate struct {
	Posts         int
	LikesReceived int
	CommentsMade  int
}

type ListOptions struct {
	Limit int // <= 0 means no limit
	// UserIDs restricts the snapshot to these users; users without a stats row count as zero.
	UserIDs []uuid.UUID
}

type LeaderboardRepository interface {
	GetUserStats(ctx context.Context, userID uuid.UUID) (*entity.UserStats, error)
	ListAllStats(ctx context.Context) ([]entity.UserStats, error)
	ListStats(ctx context.Context, opts ListOptions) ([]StatsRow, error)
	AggregateActivity(ctx context.Context, userID *uuid.UUID, since *time.Time) ([]ActivityAggregate, error)
	AggregateSocial(ctx context.Context, userID *uuid.UUID) (map[uuid.UUID]*SocialAggregate, error)
	WeeklyPoints(ctx context.Context, userIDs []uuid.UUID, since time.Time) (map[uuid.UUID]int, error)
	UpsertStats(ctx context.Context, rows []entity.UserStats) error
}

type leaderboardRepository struct {
	db *gorm.DB
}

func NewLeaderboardRepository(db *gorm.DB) LeaderboardRepository {
	return &leaderboardRepository{db: db}
}

func (r *leaderboardRepository) GetUserStats(ctx context.Context, userID uuid.UUID) (*entity.UserStats, error) {
	var stats entity.UserStats
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&stats).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *leaderboardRepository) ListAllStats(ctx context.Context) ([]entity.UserStats, error) {
	var rows []entity.UserStats
	err := r.db.WithContext(ctx).Order("user_id ASC").Find(&rows).Error
	return rows, err
}

// ListStats returns rows ordered exactly as AssignRanks orders them, so a
// limited prefix ranks the same as the full snapshot.
func (r *leaderboardRepository) ListStats(ctx context.Context, opts ListOptions) ([]StatsRow, error) {
	var rows []StatsRow

	var query *gorm.DB
	if len(opts.UserIDs) > 0 {
		query = r.db.WithContext(ctx).Table("users").
			Select("users.id AS user_id, users.username, users.display_name, users.avatar_url, "+
				"COALESCE(user_stats.total_points, 0) AS total_points, COALESCE(user_stats.rank, 0) AS cached_rank").
			Joins("LEFT JOIN user_stats ON user_stats.user_id = users.id").
			Where("users.id IN ?", opts.UserIDs)
	} else {
		query = r.db.WithContext(ctx).Table("user_stats").
			Select("user_stats.user_id, users.username, users.display_name, users.avatar_url, " +
				"user_stats.total_points, user_stats.rank AS cached_rank").
			Joins("JOIN users ON users.id = user_stats.user_id")
	}

	query = query.Order("total_points DESC").Order("user_id ASC")
	if opts.Limit > 0 {
		query = query.Limit(opts.Limit)
	}

	err := query.Scan(&rows).Error
	return rows, err
}

func (r *leaderboardRepository) AggregateActivity(ctx context.Context, userID *uuid.UUID, since *time.Time) ([]ActivityAggregate, error) {
	var rows []ActivityAggregate
	query := r.db.WithContext(ctx).Model(&entity.ActivityLog{}).
		Select("user_id, COUNT(*) AS workouts, COALESCE(SUM(duration_min), 0) AS minutes, " +
			"COALESCE(SUM(total_volume), 0) AS volume, COALESCE(SUM(points), 0) AS points").
		Group("user_id")
	if userID != nil {
		query = query.Where("user_id = ?", *userID)
	}
	if since != nil {
		query = query.Where("started_at >= ?", *since)
	}
	err := query.Scan(&rows).Error
	return rows, err
}

type countRow struct {
	UserID uuid.UUID
	N      int
}

// AggregateSocial counts posts, likes received on posts (self-likes excluded)
// and comments made, per user.
func (r *leaderboardRepository) AggregateSocial(ctx context.Context, userID *uuid.UUID) (map[uuid.UUID]*SocialAggregate, error) {
	out := make(map[uuid.UUID]*SocialAggregate)
	get := func(id uuid.UUID) *SocialAggregate {
		agg, ok := out[id]
		if !ok {
			agg = &SocialAggregate{}
			out[id] = agg
		}
		return agg
	}

	var posts []countRow
	q := r.db.WithContext(ctx).Model(&entity.Post{}).Select("user_id, COUNT(*) AS n").Group("user_id")
	if userID != nil {
		q = q.Where("user_id = ?", *userID)
	}
	if err := q.Scan(&posts).Error; err != nil {
		return nil, err
	}
	for _, row := range posts {
		get(row.UserID).Posts = row.N
	}

	var likes []countRow
	q = r.db.WithContext(ctx).Table("reactions").
		Select("posts.user_id AS user_id, COUNT(*) AS n").
		Joins("JOIN posts ON posts.id = reactions.reference_id").
		Where("reactions.reference_type = ? AND reactions.user_id <> posts.user_id", entity.ReferencePost).
		Group("posts.user_id")
	if userID != nil {
		q = q.Where("posts.user_id = ?", *userID)
	}
	if err := q.Scan(&likes).Error; err != nil {
		return nil, err
	}
	for _, row := range likes {
		get(row.UserID).LikesReceived = row.N
	}

	var comments []countRow
	q = r.db.WithContext(ctx).Model(&entity.Comment{}).Select("user_id, COUNT(*) AS n").Group("user_id")
	if userID != nil {
		q = q.Where("user_id = ?", *userID)
	}
	if err := q.Scan(&comments).Error; err != nil {
		return nil, err
	}
	for _, row := range comments {
		get(row.UserID).CommentsMade = row.N
	}

	return out, nil
}

func (r *leaderboardRepository) WeeklyPoints(ctx context.Context, userIDs []uuid.UUID, since time.Time) (map[uuid.UUID]int, error) {
	out := make(map[uuid.UUID]int, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}

	var rows []countRow
	err := r.db.WithContext(ctx).Model(&entity.ActivityLog{}).
		Select("user_id, COALESCE(SUM(points), 0) AS n").
		Where("user_id IN ? AND started_at >= ?", userIDs, since).
		Group("user_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.UserID] = row.N
	}
	return out, nil
}

func (r *leaderboardRepository) UpsertStats(ctx context.Context, rows []entity.UserStats) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		UpdateAll: true,
	}).CreateInBatches(&rows, 200).Error
}
