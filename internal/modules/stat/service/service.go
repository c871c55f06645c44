package service

import (
	"context"
	"time"

	leaderboardRepo "anoa.com/fitsquad/internal/modules/leaderboard/repository"
	statDto "anoa.com/fitsquad/internal/modules/stat/dto"
	"anoa.com/fitsquad/internal/modules/user/repository"
)

const weeklyWindow = 7 * 24 * time.Hour

type StatService interface {
	GetCommunityStats(ctx context.Context) (*statDto.CommunityStatsResponse, error)
}

type statService struct {
	userRepo        repository.UserRepository
	leaderboardRepo leaderboardRepo.LeaderboardRepository
	now             func() time.Time
}

func NewStatService(userRepo repository.UserRepository, leaderboardRepo leaderboardRepo.LeaderboardRepository) StatService {
	return &statService{
		userRepo:        userRepo,
		leaderboardRepo: leaderboardRepo,
		now:             time.Now,
	}
}

func (s *statService) GetCommunityStats(ctx context.Context) (*statDto.CommunityStatsResponse, error) {
	total, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, err
	}

	since := s.now().Add(-weeklyWindow)
	rows, err := s.leaderboardRepo.AggregateActivity(ctx, nil, &since)
	if err != nil {
		return nil, err
	}

	resp := &statDto.CommunityStatsResponse{TotalUsers: total, Since: since}
	for _, row := range rows {
		if row.Workouts == 0 {
			continue
		}
		resp.ActiveUsersWeekly++
		resp.WorkoutsWeekly += row.Workouts
		resp.MinutesWeekly += row.Minutes
		resp.PointsWeekly += row.Points
	}
	return resp, nil
}
