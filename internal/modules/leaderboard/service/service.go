package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"anoa.com/fitsquad/internal/entity"
	"anoa.com/fitsquad/internal/events"
	gamification "anoa.com/fitsquad/internal/modules/gamification/service"
	leaderboardDto "anoa.com/fitsquad/internal/modules/leaderboard/dto"
	leaderboardRepo "anoa.com/fitsquad/internal/modules/leaderboard/repository"
	notifService "anoa.com/fitsquad/internal/modules/notification/service"
	"anoa.com/fitsquad/internal/observability"
	"anoa.com/fitsquad/pkg/apperror"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const weeklyWindow = 7 * 24 * time.Hour

type LeaderboardService interface {
	GetUserStats(ctx context.Context, userID uuid.UUID) (*leaderboardDto.UserStatsResponse, error)
	GetRanking(ctx context.Context, limit int) ([]leaderboardDto.LeaderboardEntry, error)
	GetNearbyRanks(ctx context.Context, userID uuid.UUID, window int) ([]leaderboardDto.LeaderboardEntry, error)
	// RankUsers ranks only the given users, e.g. the members of a group.
	RankUsers(ctx context.Context, userIDs []uuid.UUID) ([]leaderboardDto.LeaderboardEntry, error)
	// RecomputeRankings rebuilds every stats row from the event tables and
	// refreshes the cached ranks. Safe to call repeatedly.
	RecomputeRankings(ctx context.Context) (*leaderboardDto.RecomputeResponse, error)
	// RefreshUser rebuilds one user's stats row, keeping the cached rank.
	RefreshUser(ctx context.Context, userID uuid.UUID) (*entity.UserStats, error)
}

type leaderboardService struct {
	repo                leaderboardRepo.LeaderboardRepository
	levels              gamification.LevelModel
	notificationService notifService.NotificationService
	publisher           events.Publisher
	log                 logrus.FieldLogger
	now                 func() time.Time
}

func NewLeaderboardService(
	repo leaderboardRepo.LeaderboardRepository,
	levels gamification.LevelModel,
	notificationService notifService.NotificationService,
	publisher events.Publisher,
	log logrus.FieldLogger,
) LeaderboardService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &leaderboardService{
		repo:                repo,
		levels:              levels,
		notificationService: notificationService,
		publisher:           publisher,
		log:                 log,
		now:                 time.Now,
	}
}

func (s *leaderboardService) GetUserStats(ctx context.Context, userID uuid.UUID) (*leaderboardDto.UserStatsResponse, error) {
	stats, err := s.repo.GetUserStats(ctx, userID)
	if err != nil {
		return nil, err
	}

	weekly, err := s.repo.WeeklyPoints(ctx, []uuid.UUID{userID}, s.now().Add(-weeklyWindow))
	if err != nil {
		return nil, err
	}

	return &leaderboardDto.UserStatsResponse{
		UserID:             stats.UserID,
		TotalPoints:        stats.TotalPoints,
		ActivityPoints:     stats.ActivityPoints,
		TotalWorkouts:      stats.TotalWorkouts,
		TotalMinutes:       stats.TotalMinutes,
		TotalVolume:        stats.TotalVolume,
		TotalPosts:         stats.TotalPosts,
		TotalLikesReceived: stats.TotalLikesReceived,
		TotalCommentsMade:  stats.TotalCommentsMade,
		Rank:               stats.Rank,
		LastUpdatedAt:      stats.LastUpdatedAt,
		GamificationStatus: s.levels.Status(stats.TotalPoints, weekly[userID]),
	}, nil
}

func (s *leaderboardService) GetRanking(ctx context.Context, limit int) ([]leaderboardDto.LeaderboardEntry, error) {
	rows, err := s.repo.ListStats(ctx, leaderboardRepo.ListOptions{Limit: limit})
	if err != nil {
		return nil, err
	}
	return s.toEntries(ctx, AssignRanks(toRankEntries(rows)))
}

func (s *leaderboardService) GetNearbyRanks(ctx context.Context, userID uuid.UUID, window int) ([]leaderboardDto.LeaderboardEntry, error) {
	rows, err := s.repo.ListStats(ctx, leaderboardRepo.ListOptions{})
	if err != nil {
		return nil, err
	}

	ranked := AssignRanks(toRankEntries(rows))
	me, ok := FindRank(ranked, userID)
	if !ok {
		return nil, apperror.ErrNotFound
	}
	return s.toEntries(ctx, NearbyWindow(ranked, me.Rank, window))
}

func (s *leaderboardService) RankUsers(ctx context.Context, userIDs []uuid.UUID) ([]leaderboardDto.LeaderboardEntry, error) {
	if len(userIDs) == 0 {
		return []leaderboardDto.LeaderboardEntry{}, nil
	}
	rows, err := s.repo.ListStats(ctx, leaderboardRepo.ListOptions{UserIDs: userIDs})
	if err != nil {
		return nil, err
	}
	return s.toEntries(ctx, AssignRanks(toRankEntries(rows)))
}

func (s *leaderboardService) RecomputeRankings(ctx context.Context) (*leaderboardDto.RecomputeResponse, error) {
	now := s.now().UTC()

	existing, err := s.repo.ListAllStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("load stats: %w", err)
	}

	fresh, err := s.aggregate(ctx, nil, now)
	if err != nil {
		return nil, err
	}
	// Users whose events vanished keep a row, rebuilt as zero.
	for _, row := range existing {
		if _, ok := fresh[row.UserID]; !ok {
			fresh[row.UserID] = &entity.UserStats{UserID: row.UserID, LastUpdatedAt: now}
		}
	}

	entries := make([]RankEntry, 0, len(fresh))
	for id, row := range fresh {
		entries = append(entries, RankEntry{UserID: id, TotalPoints: row.TotalPoints})
	}
	ranked := AssignRanks(entries)

	rows := make([]entity.UserStats, 0, len(ranked))
	for _, e := range ranked {
		row := fresh[e.UserID]
		row.Rank = e.Rank
		row.RankComputedAt = &now
		rows = append(rows, *row)
	}

	if err := s.repo.UpsertStats(ctx, rows); err != nil {
		return nil, fmt.Errorf("upsert stats: %w", err)
	}

	observability.RecordRankRecompute(now, len(rows))
	s.log.WithField("users", len(rows)).Info("🏆 rankings recomputed")

	return &leaderboardDto.RecomputeResponse{RankedUsers: len(rows), ComputedAt: now}, nil
}

func (s *leaderboardService) RefreshUser(ctx context.Context, userID uuid.UUID) (*entity.UserStats, error) {
	now := s.now().UTC()

	previous, err := s.repo.GetUserStats(ctx, userID)
	if err != nil && !errors.Is(err, apperror.ErrNotFound) {
		return nil, err
	}

	fresh, err := s.aggregate(ctx, &userID, now)
	if err != nil {
		return nil, err
	}
	row, ok := fresh[userID]
	if !ok {
		row = &entity.UserStats{UserID: userID, LastUpdatedAt: now}
	}
	if previous != nil {
		row.Rank = previous.Rank
		row.RankComputedAt = previous.RankComputedAt
	}

	if err := s.repo.UpsertStats(ctx, []entity.UserStats{*row}); err != nil {
		return nil, fmt.Errorf("upsert stats: %w", err)
	}

	previousPoints := 0
	if previous != nil {
		previousPoints = previous.TotalPoints
	}
	s.checkLevelUp(ctx, userID, previousPoints, row.TotalPoints)

	return row, nil
}

// aggregate rebuilds stats rows from activity logs and social tables.
func (s *leaderboardService) aggregate(ctx context.Context, userID *uuid.UUID, now time.Time) (map[uuid.UUID]*entity.UserStats, error) {
	activity, err := s.repo.AggregateActivity(ctx, userID, nil)
	if err != nil {
		return nil, fmt.Errorf("aggregate activity: %w", err)
	}
	social, err := s.repo.AggregateSocial(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("aggregate social: %w", err)
	}

	out := make(map[uuid.UUID]*entity.UserStats, len(activity)+len(social))
	get := func(id uuid.UUID) *entity.UserStats {
		row, ok := out[id]
		if !ok {
			row = &entity.UserStats{UserID: id, LastUpdatedAt: now}
			out[id] = row
		}
		return row
	}

	for _, a := range activity {
		row := get(a.UserID)
		row.TotalWorkouts = a.Workouts
		row.TotalMinutes = a.Minutes
		row.TotalVolume = a.Volume
		row.ActivityPoints = a.Points
	}
	for id, soc := range social {
		row := get(id)
		row.TotalPosts = soc.Posts
		row.TotalLikesReceived = soc.LikesReceived
		row.TotalCommentsMade = soc.CommentsMade
	}
	for _, row := range out {
		row.TotalPoints = row.ActivityPoints + gamification.SocialPoints(row.TotalPosts, row.TotalLikesReceived, row.TotalCommentsMade)
	}

	return out, nil
}

func (s *leaderboardService) checkLevelUp(ctx context.Context, userID uuid.UUID, before, after int) {
	prevLevel := s.levels.Level(before).Level
	newLevel := s.levels.Level(after).Level
	if newLevel <= prevLevel {
		return
	}

	title := gamification.TitleFor(newLevel)
	if err := events.Emit(ctx, s.publisher, events.TypeLevelUp, userID, map[string]any{
		"previous_level": prevLevel,
		"level":          newLevel,
		"title":          title,
		"total_points":   after,
	}); err != nil {
		s.log.WithError(err).WithField("user_id", userID).Warn("publish level up event failed")
	}

	if s.notificationService == nil {
		return
	}
	notification := &entity.Notification{
		UserID:     userID,
		EntityID:   fmt.Sprintf("%d", newLevel),
		EntityType: "level",
		Type:       entity.NotificationLevelUp,
		Message:    fmt.Sprintf("🎉 Parabéns! Você subiu para o nível %d (%s) com %d pontos!", newLevel, title, after),
	}
	if err := s.notificationService.CreateNotification(ctx, notification); err != nil {
		s.log.WithError(err).WithField("user_id", userID).Warn("level up notification failed")
		return
	}
	s.log.WithFields(logrus.Fields{"user_id": userID, "from": prevLevel, "to": newLevel}).Info("✅ level up notification sent")
}

func (s *leaderboardService) toEntries(ctx context.Context, ranked []RankEntry) ([]leaderboardDto.LeaderboardEntry, error) {
	ids := make([]uuid.UUID, len(ranked))
	for i, e := range ranked {
		ids[i] = e.UserID
	}
	weekly, err := s.repo.WeeklyPoints(ctx, ids, s.now().Add(-weeklyWindow))
	if err != nil {
		return nil, err
	}

	entries := make([]leaderboardDto.LeaderboardEntry, 0, len(ranked))
	for _, e := range ranked {
		entries = append(entries, leaderboardDto.LeaderboardEntry{
			UserID:             e.UserID,
			Username:           e.Username,
			DisplayName:        e.DisplayName,
			AvatarURL:          e.AvatarURL,
			Position:           e.Rank,
			TotalPoints:        e.TotalPoints,
			GamificationStatus: s.levels.Status(e.TotalPoints, weekly[e.UserID]),
		})
	}
	return entries, nil
}

func toRankEntries(rows []leaderboardRepo.StatsRow) []RankEntry {
	out := make([]RankEntry, len(rows))
	for i, row := range rows {
		out[i] = RankEntry{
			UserID:      row.UserID,
			Username:    row.Username,
			DisplayName: row.DisplayName,
			AvatarURL:   row.AvatarURL,
			TotalPoints: row.TotalPoints,
		}
	}
	return out
}
