package profile

import (
	"context"
	"io"
	"strings"
	"testing"

	badgeDto "anoa.com/fitsquad/internal/modules/badge/dto"
	leaderboardDto "anoa.com/fitsquad/internal/modules/leaderboard/dto"
	profileDto "anoa.com/fitsquad/internal/modules/profile/dto"
	userRepo "anoa.com/fitsquad/internal/modules/user/repository"
	"anoa.com/fitsquad/internal/testutil"
	"anoa.com/fitsquad/pkg/apperror"
	"anoa.com/fitsquad/pkg/dto"
	"anoa.com/fitsquad/pkg/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStorage struct {
	uploaded []string
	deleted  []string
}

func (s *fakeStorage) UploadImage(_ context.Context, r io.Reader, folder, fileName string) (string, error) {
	if _, err := io.ReadAll(r); err != nil {
		return "", err
	}
	url := "https://res.cloudinary.com/demo/image/upload/" + folder + "/" + fileName
	s.uploaded = append(s.uploaded, url)
	return url, nil
}

func (s *fakeStorage) DeleteImage(_ context.Context, fileURL string) error {
	s.deleted = append(s.deleted, fileURL)
	return nil
}

type fakeStats struct {
	byUser map[uuid.UUID]*leaderboardDto.UserStatsResponse
}

func (f *fakeStats) GetUserStats(_ context.Context, userID uuid.UUID) (*leaderboardDto.UserStatsResponse, error) {
	if stats, ok := f.byUser[userID]; ok {
		return stats, nil
	}
	return nil, apperror.ErrNotFound
}

type fakeBadges struct{}

func (fakeBadges) List(context.Context, uuid.UUID, bool) ([]badgeDto.BadgeResponse, error) {
	return []badgeDto.BadgeResponse{{ID: "workouts_1", Name: "Primeiro treino", Unlocked: true}}, nil
}

func TestGetProfileByUsername(t *testing.T) {
	db := testutil.NewDB(t)
	user := testutil.CreateUser(t, db, "carla")
	stats := &fakeStats{byUser: map[uuid.UUID]*leaderboardDto.UserStatsResponse{
		user.ID: {UserID: user.ID, TotalPoints: 420, Rank: 1},
	}}
	svc := NewProfileService(userRepo.NewUserRepository(db), nil, stats, fakeBadges{}, logger.Discard())

	resp, err := svc.GetProfileByUsername(context.Background(), "carla")
	require.NoError(t, err)
	assert.Equal(t, user.ID, resp.ID)
	require.NotNil(t, resp.Stats)
	assert.Equal(t, 420, resp.Stats.TotalPoints)
	require.Len(t, resp.Badges, 1)

	_, err = svc.GetProfileByUsername(context.Background(), "ghost")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestGetCurrentProfile_WithoutStats(t *testing.T) {
	db := testutil.NewDB(t)
	user := testutil.CreateUser(t, db, "davi")
	svc := NewProfileService(userRepo.NewUserRepository(db), nil, &fakeStats{}, nil, logger.Discard())

	resp, err := svc.GetCurrentProfile(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Nil(t, resp.Stats)
	assert.Empty(t, resp.Badges)
}

func TestUpdateProfile_ReplacesAvatar(t *testing.T) {
	db := testutil.NewDB(t)
	user := testutil.CreateUser(t, db, "elis")
	files := &fakeStorage{}
	svc := NewProfileService(userRepo.NewUserRepository(db), files, &fakeStats{}, nil, logger.Discard())
	ctx := context.Background()

	name := "  Elis Regina "
	bio := "   "
	first, err := svc.UpdateProfile(ctx, user.ID, profileDto.UpdateProfileInput{DisplayName: &name, Bio: &bio},
		&dto.UploadFile{Reader: strings.NewReader("img"), FileName: "a.png"})
	require.NoError(t, err)
	assert.Equal(t, "Elis Regina", first.DisplayName)
	assert.Nil(t, first.Bio)
	require.NotNil(t, first.AvatarURL)

	second, err := svc.UpdateProfile(ctx, user.ID, profileDto.UpdateProfileInput{},
		&dto.UploadFile{Reader: strings.NewReader("img"), FileName: "b.jpg"})
	require.NoError(t, err)
	assert.Contains(t, *second.AvatarURL, "b.jpg")
	assert.Equal(t, []string{*first.AvatarURL}, files.deleted)

	_, err = svc.UpdateProfile(ctx, user.ID, profileDto.UpdateProfileInput{},
		&dto.UploadFile{Reader: strings.NewReader("x"), FileName: "c.gif"})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
}
