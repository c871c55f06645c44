package profile

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"anoa.com/fitsquad/internal/entity"
	badgeDto "anoa.com/fitsquad/internal/modules/badge/dto"
	leaderboardDto "anoa.com/fitsquad/internal/modules/leaderboard/dto"
	profileDto "anoa.com/fitsquad/internal/modules/profile/dto"
	userRepo "anoa.com/fitsquad/internal/modules/user/repository"
	"anoa.com/fitsquad/pkg/apperror"
	"anoa.com/fitsquad/pkg/dto"
	"anoa.com/fitsquad/pkg/storage"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type StatsReader interface {
	GetUserStats(ctx context.Context, userID uuid.UUID) (*leaderboardDto.UserStatsResponse, error)
}

type BadgeLister interface {
	List(ctx context.Context, userID uuid.UUID, unlockedOnly bool) ([]badgeDto.BadgeResponse, error)
}

type ProfileService interface {
	GetCurrentProfile(ctx context.Context, userID uuid.UUID) (*profileDto.ProfileResponse, error)
	GetProfileByUsername(ctx context.Context, username string) (*profileDto.ProfileResponse, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, input profileDto.UpdateProfileInput, avatar *dto.UploadFile) (*profileDto.ProfileResponse, error)
}

var avatarExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true}

type profileService struct {
	repo         userRepo.UserRepository
	imageStorage storage.ImageStorage
	stats        StatsReader
	badges       BadgeLister
	log          logrus.FieldLogger
}

func NewProfileService(repo userRepo.UserRepository, imageStorage storage.ImageStorage, stats StatsReader, badges BadgeLister, log logrus.FieldLogger) ProfileService {
	return &profileService{
		repo:         repo,
		imageStorage: imageStorage,
		stats:        stats,
		badges:       badges,
		log:          log,
	}
}

func (s *profileService) GetCurrentProfile(ctx context.Context, userID uuid.UUID) (*profileDto.ProfileResponse, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.build(ctx, user)
}

func (s *profileService) GetProfileByUsername(ctx context.Context, username string) (*profileDto.ProfileResponse, error) {
	user, err := s.repo.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, err
	}
	return s.build(ctx, user)
}

func (s *profileService) UpdateProfile(ctx context.Context, userID uuid.UUID, input profileDto.UpdateProfileInput, avatar *dto.UploadFile) (*profileDto.ProfileResponse, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.DisplayName != nil {
		user.DisplayName = strings.TrimSpace(*input.DisplayName)
	}
	if input.Bio != nil {
		user.Bio = normalizeOptional(input.Bio)
	}

	var uploaded string
	previous := user.AvatarURL
	if avatar != nil && avatar.Reader != nil {
		if s.imageStorage == nil {
			return nil, fmt.Errorf("%w: avatar upload is not configured", apperror.ErrInvalidInput)
		}
		if !avatarExtensions[strings.ToLower(filepath.Ext(avatar.FileName))] {
			return nil, fmt.Errorf("%w: unsupported avatar format", apperror.ErrInvalidInput)
		}
		uploaded, err = s.imageStorage.UploadImage(ctx, avatar.Reader, "avatars", avatar.FileName)
		if err != nil {
			return nil, err
		}
		user.AvatarURL = &uploaded
	}

	if err := s.repo.Update(ctx, user); err != nil {
		if uploaded != "" {
			s.dropImage(ctx, uploaded)
		}
		return nil, err
	}
	if uploaded != "" && previous != nil {
		s.dropImage(ctx, *previous)
	}

	return s.build(ctx, user)
}

func (s *profileService) build(ctx context.Context, user *entity.User) (*profileDto.ProfileResponse, error) {
	resp := &profileDto.ProfileResponse{
		ID:          user.ID,
		Username:    user.Username,
		DisplayName: user.Name(),
		Role:        user.Role.Name,
		AvatarURL:   user.AvatarURL,
		Bio:         user.Bio,
		CreatedAt:   user.CreatedAt,
		Badges:      []badgeDto.BadgeResponse{},
	}

	if s.stats != nil {
		stats, err := s.stats.GetUserStats(ctx, user.ID)
		switch {
		case err == nil:
			resp.Stats = stats
		case !errors.Is(err, apperror.ErrNotFound):
			return nil, err
		}
	}

	if s.badges != nil {
		badges, err := s.badges.List(ctx, user.ID, true)
		if err != nil {
			return nil, err
		}
		if badges != nil {
			resp.Badges = badges
		}
	}

	return resp, nil
}

func (s *profileService) dropImage(ctx context.Context, url string) {
	if err := s.imageStorage.DeleteImage(context.WithoutCancel(ctx), url); err != nil {
		s.log.WithError(err).WithField("url", url).Warn("failed to delete avatar")
	}
}

func normalizeOptional(value *string) *string {
	if value == nil {
		return nil
	}

	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}

	result := trimmed
	return &result
}
