package activity

import (
	"context"
	"fmt"
	"sort"
	"time"

	"anoa.com/fitsquad/internal/entity"
	"anoa.com/fitsquad/internal/events"
	activityDto "anoa.com/fitsquad/internal/modules/activity/dto"
	activityRepo "anoa.com/fitsquad/internal/modules/activity/repository"
	badgeDto "anoa.com/fitsquad/internal/modules/badge/dto"
	badge "anoa.com/fitsquad/internal/modules/badge/service"
	gamification "anoa.com/fitsquad/internal/modules/gamification/service"
	"anoa.com/fitsquad/internal/modules/sync/reconciler"
	"anoa.com/fitsquad/internal/modules/sync/store"
	"anoa.com/fitsquad/pkg/apperror"
	"anoa.com/fitsquad/pkg/dto"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Workouts may be logged a little ahead of the server clock.
const futureTolerance = 5 * time.Minute

// Syncer starts a background sync pass for a user.
type Syncer interface {
	TriggerAsync(userID uuid.UUID, trigger reconciler.Trigger)
}

type ActivityService interface {
	LogActivity(ctx context.Context, userID uuid.UUID, req activityDto.LogActivityRequest) (*activityDto.LogActivityResponse, error)
	ListActivities(ctx context.Context, userID uuid.UUID, query dto.PaginationQuery) (*activityDto.ActivityListResponse, error)
	ActivityTypes() []gamification.ActivityType
}

type activityService struct {
	repo         activityRepo.ActivityRepository
	calculator   *gamification.Calculator
	badgeService badge.BadgeService
	syncer       Syncer
	publisher    events.Publisher
	log          logrus.FieldLogger
	now          func() time.Time
}

func NewActivityService(
	repo activityRepo.ActivityRepository,
	calculator *gamification.Calculator,
	badgeService badge.BadgeService,
	syncer Syncer,
	publisher events.Publisher,
	log logrus.FieldLogger,
) ActivityService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &activityService{
		repo:         repo,
		calculator:   calculator,
		badgeService: badgeService,
		syncer:       syncer,
		publisher:    publisher,
		log:          log,
		now:          time.Now,
	}
}

func (s *activityService) LogActivity(ctx context.Context, userID uuid.UUID, req activityDto.LogActivityRequest) (*activityDto.LogActivityResponse, error) {
	now := s.now().UTC()
	startedAt := now
	if req.StartedAt != nil {
		startedAt = req.StartedAt.UTC()
	}
	if startedAt.After(now.Add(futureTolerance)) {
		return nil, fmt.Errorf("%w: started_at is in the future", apperror.ErrInvalidInput)
	}
	if req.DurationMin <= 0 {
		return nil, fmt.Errorf("%w: duration must be positive", apperror.ErrInvalidInput)
	}

	exercises := make([]entity.ExerciseSet, len(req.Exercises))
	volume := 0.0
	for i, e := range req.Exercises {
		exercises[i] = entity.ExerciseSet{
			Exercise:    e.Exercise,
			MuscleGroup: e.MuscleGroup,
			Sets:        e.Sets,
			Reps:        e.Reps,
			WeightKg:    e.WeightKg,
		}
		volume += exercises[i].Volume()
	}

	workout := &entity.ActivityLog{
		UserID:       userID,
		ActivityType: req.ActivityType,
		DurationMin:  req.DurationMin,
		TotalVolume:  volume,
		Points:       s.calculator.PointsForActivity(req.ActivityType, req.DurationMin, volume),
		Exercises:    exercises,
		Notes:        req.Notes,
		StartedAt:    startedAt,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Save(ctx, workout); err != nil {
		return nil, err
	}

	log := s.log.WithFields(logrus.Fields{"user_id": userID, "activity_id": workout.ID})
	payload := map[string]any{
		"activity_id":   workout.ID,
		"activity_type": workout.ActivityType,
		"duration_min":  workout.DurationMin,
		"points":        workout.Points,
	}
	if err := events.Emit(ctx, s.publisher, events.TypeActivityLogged, userID, payload); err != nil {
		log.WithError(err).Warn("publish activity event failed")
	}

	resp := &activityDto.LogActivityResponse{
		Activity:  s.toResponse(*workout, store.StatePending),
		NewBadges: []badgeDto.BadgeResponse{},
	}

	// A failed evaluation is retried with the next workout.
	if s.badgeService != nil {
		result, err := s.badgeService.Evaluate(ctx, userID)
		if err != nil {
			log.WithError(err).Warn("badge evaluation failed")
		} else {
			resp.NewBadges = result.NewlyUnlocked
		}
	}

	if s.syncer != nil {
		s.syncer.TriggerAsync(userID, reconciler.TriggerActivity)
	}

	log.WithField("points", workout.Points).Info("Activity logged")
	return resp, nil
}

func (s *activityService) ListActivities(ctx context.Context, userID uuid.UUID, query dto.PaginationQuery) (*activityDto.ActivityListResponse, error) {
	query.Normalize()

	records, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	items := make([]activityDto.ActivityResponse, 0, len(records))
	for _, rec := range records {
		var workout entity.ActivityLog
		if err := rec.Decode(&workout); err != nil {
			s.log.WithError(err).WithField("record_id", rec.ID).Warn("skipping undecodable activity")
			continue
		}
		items = append(items, s.toResponse(workout, rec.State))
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].StartedAt.After(items[j].StartedAt)
	})

	total := len(items)
	start := min(query.Offset(), total)
	end := min(start+query.Limit, total)

	totalPages := total / query.Limit
	if total%query.Limit != 0 {
		totalPages++
	}

	return &activityDto.ActivityListResponse{
		Data: items[start:end],
		Meta: dto.PaginationMeta{
			CurrentPage: query.Page,
			TotalPages:  totalPages,
			TotalItems:  int64(total),
			Limit:       query.Limit,
		},
	}, nil
}

func (s *activityService) ActivityTypes() []gamification.ActivityType {
	return s.calculator.Types()
}

func (s *activityService) toResponse(workout entity.ActivityLog, state store.State) activityDto.ActivityResponse {
	category := string(gamification.CategoryCustom)
	if t, ok := s.calculator.Lookup(workout.ActivityType); ok {
		category = string(t.Category)
	}

	var exercises []activityDto.ExerciseInput
	for _, e := range workout.Exercises {
		exercises = append(exercises, activityDto.ExerciseInput{
			Exercise:    e.Exercise,
			MuscleGroup: e.MuscleGroup,
			Sets:        e.Sets,
			Reps:        e.Reps,
			WeightKg:    e.WeightKg,
		})
	}

	return activityDto.ActivityResponse{
		ID:           workout.ID,
		ActivityType: workout.ActivityType,
		Category:     category,
		DurationMin:  workout.DurationMin,
		TotalVolume:  workout.TotalVolume,
		Points:       workout.Points,
		Exercises:    exercises,
		Notes:        workout.Notes,
		StartedAt:    workout.StartedAt,
		SyncState:    string(state),
	}
}
