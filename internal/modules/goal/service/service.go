package goal

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"anoa.com/fitsquad/internal/entity"
	"anoa.com/fitsquad/internal/events"
	goalDto "anoa.com/fitsquad/internal/modules/goal/dto"
	goalRepo "anoa.com/fitsquad/internal/modules/goal/repository"
	notifService "anoa.com/fitsquad/internal/modules/notification/service"
	"anoa.com/fitsquad/internal/modules/sync/reconciler"
	"anoa.com/fitsquad/internal/modules/sync/store"
	"anoa.com/fitsquad/pkg/apperror"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Syncer starts a background sync pass for a user.
type Syncer interface {
	TriggerAsync(userID uuid.UUID, trigger reconciler.Trigger)
}

type GoalService interface {
	CreateGoal(ctx context.Context, userID uuid.UUID, req goalDto.CreateGoalRequest) (*goalDto.GoalResponse, error)
	ListGoals(ctx context.Context, userID uuid.UUID) ([]goalDto.GoalResponse, error)
	// RecordProgress sets the goal's current value and marks it achieved the
	// first time the target is reached.
	RecordProgress(ctx context.Context, userID, goalID uuid.UUID, value float64) (*goalDto.GoalResponse, error)
}

type goalService struct {
	repo                goalRepo.GoalRepository
	notificationService notifService.NotificationService
	syncer              Syncer
	publisher           events.Publisher
	log                 logrus.FieldLogger
	now                 func() time.Time
}

func NewGoalService(
	repo goalRepo.GoalRepository,
	notificationService notifService.NotificationService,
	syncer Syncer,
	publisher events.Publisher,
	log logrus.FieldLogger,
) GoalService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &goalService{
		repo:                repo,
		notificationService: notificationService,
		syncer:              syncer,
		publisher:           publisher,
		log:                 log,
		now:                 time.Now,
	}
}

func (s *goalService) CreateGoal(ctx context.Context, userID uuid.UUID, req goalDto.CreateGoalRequest) (*goalDto.GoalResponse, error) {
	if req.Kind == entity.GoalKindWeight && req.StartValue == 0 {
		return nil, fmt.Errorf("%w: weight goals need a start value", apperror.ErrInvalidInput)
	}
	if req.StartValue == req.TargetValue {
		return nil, fmt.Errorf("%w: target equals start value", apperror.ErrInvalidInput)
	}

	now := s.now().UTC()
	goal := &entity.Goal{
		UserID:       userID,
		Kind:         req.Kind,
		Title:        req.Title,
		StartValue:   req.StartValue,
		TargetValue:  req.TargetValue,
		CurrentValue: req.StartValue,
		Deadline:     req.Deadline,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Save(ctx, goal); err != nil {
		return nil, err
	}
	s.sync(userID)

	resp := toResponse(*goal, store.StatePending)
	return &resp, nil
}

func (s *goalService) ListGoals(ctx context.Context, userID uuid.UUID) ([]goalDto.GoalResponse, error) {
	records, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]goalDto.GoalResponse, 0, len(records))
	for _, rec := range records {
		var goal entity.Goal
		if err := rec.Decode(&goal); err != nil {
			s.log.WithError(err).WithField("record_id", rec.ID).Warn("skipping undecodable goal")
			continue
		}
		out = append(out, toResponse(goal, rec.State))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *goalService) RecordProgress(ctx context.Context, userID, goalID uuid.UUID, value float64) (*goalDto.GoalResponse, error) {
	if value < 0 {
		return nil, fmt.Errorf("%w: progress must not be negative", apperror.ErrInvalidInput)
	}

	goal, err := s.repo.Find(ctx, userID, goalID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	goal.CurrentValue = value
	goal.UpdatedAt = now

	justAchieved := !goal.Achieved() && goal.Reached()
	if justAchieved {
		goal.AchievedAt = &now
	}

	if err := s.repo.Save(ctx, goal); err != nil {
		return nil, err
	}

	if justAchieved {
		s.announce(ctx, goal)
	}
	s.sync(userID)

	resp := toResponse(*goal, store.StatePending)
	return &resp, nil
}

func (s *goalService) announce(ctx context.Context, goal *entity.Goal) {
	log := s.log.WithFields(logrus.Fields{"user_id": goal.UserID, "goal_id": goal.ID})

	payload := map[string]any{"goal_id": goal.ID, "kind": goal.Kind, "title": goal.Title}
	if err := events.Emit(ctx, s.publisher, events.TypeGoalAchieved, goal.UserID, payload); err != nil {
		log.WithError(err).Warn("publish goal event failed")
	}

	if s.notificationService != nil {
		notif := &entity.Notification{
			UserID:     goal.UserID,
			EntityID:   goal.ID.String(),
			EntityType: "goal",
			Type:       entity.NotificationGoalAchieved,
			Message:    fmt.Sprintf("Meta concluída: %s 🎯", goal.Title),
		}
		if err := s.notificationService.CreateNotification(ctx, notif); err != nil {
			log.WithError(err).Warn("create goal notification failed")
		}
	}

	log.Info("Goal achieved")
}

func (s *goalService) sync(userID uuid.UUID) {
	if s.syncer != nil {
		s.syncer.TriggerAsync(userID, reconciler.TriggerActivity)
	}
}

// progress is the share of the way from start to target, clamped to 0..100.
func progress(goal entity.Goal) int {
	span := goal.TargetValue - goal.StartValue
	if span == 0 {
		return 100
	}
	pct := (goal.CurrentValue - goal.StartValue) / span * 100
	return int(math.Round(math.Max(0, math.Min(100, pct))))
}

func toResponse(goal entity.Goal, state store.State) goalDto.GoalResponse {
	return goalDto.GoalResponse{
		ID:           goal.ID,
		Kind:         goal.Kind,
		Title:        goal.Title,
		StartValue:   goal.StartValue,
		TargetValue:  goal.TargetValue,
		CurrentValue: goal.CurrentValue,
		Progress:     progress(goal),
		Deadline:     goal.Deadline,
		AchievedAt:   goal.AchievedAt,
		SyncState:    string(state),
		CreatedAt:    goal.CreatedAt,
	}
}
