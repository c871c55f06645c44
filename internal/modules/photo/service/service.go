package photo

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"anoa.com/fitsquad/internal/entity"
	photoDto "anoa.com/fitsquad/internal/modules/photo/dto"
	photoRepo "anoa.com/fitsquad/internal/modules/photo/repository"
	"anoa.com/fitsquad/internal/modules/sync/reconciler"
	"anoa.com/fitsquad/internal/modules/sync/store"
	"anoa.com/fitsquad/pkg/apperror"
	"anoa.com/fitsquad/pkg/dto"
	"anoa.com/fitsquad/pkg/storage"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".heic": true,
}

// Syncer starts a background sync pass for a user.
type Syncer interface {
	TriggerAsync(userID uuid.UUID, trigger reconciler.Trigger)
}

type PhotoService interface {
	UploadPhoto(ctx context.Context, userID uuid.UUID, file dto.UploadFile, req photoDto.UploadPhotoRequest) (*photoDto.PhotoResponse, error)
	ListPhotos(ctx context.Context, userID uuid.UUID) ([]photoDto.PhotoResponse, error)
}

type photoService struct {
	repo        photoRepo.PhotoRepository
	fileStorage storage.ImageStorage
	syncer      Syncer
	log         logrus.FieldLogger
	now         func() time.Time
}

func NewPhotoService(repo photoRepo.PhotoRepository, fileStorage storage.ImageStorage, syncer Syncer, log logrus.FieldLogger) PhotoService {
	return &photoService{
		repo:        repo,
		fileStorage: fileStorage,
		syncer:      syncer,
		log:         log,
		now:         time.Now,
	}
}

func (s *photoService) UploadPhoto(ctx context.Context, userID uuid.UUID, file dto.UploadFile, req photoDto.UploadPhotoRequest) (*photoDto.PhotoResponse, error) {
	ext := strings.ToLower(filepath.Ext(file.FileName))
	if !allowedExtensions[ext] {
		return nil, fmt.Errorf("%w: unsupported image type %q", apperror.ErrInvalidInput, ext)
	}

	now := s.now().UTC()
	takenAt := now
	if req.TakenAt != nil {
		takenAt = req.TakenAt.UTC()
	}
	if takenAt.After(now.Add(time.Minute)) {
		return nil, fmt.Errorf("%w: taken_at is in the future", apperror.ErrInvalidInput)
	}

	url, err := s.fileStorage.UploadImage(ctx, file.Reader, "progress/"+userID.String(), file.FileName)
	if err != nil {
		return nil, err
	}

	photo := &entity.ProgressPhoto{
		UserID:    userID,
		URL:       url,
		Caption:   req.Caption,
		WeightKg:  req.WeightKg,
		TakenAt:   takenAt,
		CreatedAt: now,
	}
	if err := s.repo.Save(ctx, photo); err != nil {
		if derr := s.fileStorage.DeleteImage(context.WithoutCancel(ctx), url); derr != nil {
			s.log.WithError(derr).WithField("url", url).Warn("failed to delete orphan upload")
		}
		return nil, err
	}

	if s.syncer != nil {
		s.syncer.TriggerAsync(userID, reconciler.TriggerActivity)
	}

	resp := toResponse(*photo, store.StatePending)
	return &resp, nil
}

func (s *photoService) ListPhotos(ctx context.Context, userID uuid.UUID) ([]photoDto.PhotoResponse, error) {
	records, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]photoDto.PhotoResponse, 0, len(records))
	for _, rec := range records {
		var photo entity.ProgressPhoto
		if err := rec.Decode(&photo); err != nil {
			s.log.WithError(err).WithField("record_id", rec.ID).Warn("skipping undecodable photo")
			continue
		}
		out = append(out, toResponse(photo, rec.State))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TakenAt.After(out[j].TakenAt)
	})
	return out, nil
}

func toResponse(photo entity.ProgressPhoto, state store.State) photoDto.PhotoResponse {
	return photoDto.PhotoResponse{
		ID:        photo.ID,
		URL:       photo.URL,
		Caption:   photo.Caption,
		WeightKg:  photo.WeightKg,
		TakenAt:   photo.TakenAt,
		SyncState: string(state),
	}
}
