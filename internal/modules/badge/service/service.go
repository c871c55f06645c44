package badge

import (
	"context"
	"fmt"
	"time"

	"anoa.com/fitsquad/internal/entity"
	"anoa.com/fitsquad/internal/events"
	badgeDto "anoa.com/fitsquad/internal/modules/badge/dto"
	badgeRepo "anoa.com/fitsquad/internal/modules/badge/repository"
	notifService "anoa.com/fitsquad/internal/modules/notification/service"
	"anoa.com/fitsquad/internal/observability"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

type BadgeService interface {
	// Evaluate rebuilds the user's counters and unlocks every badge whose
	// predicate now holds. Unlocking is idempotent.
	Evaluate(ctx context.Context, userID uuid.UUID) (*badgeDto.EvaluateResponse, error)
	List(ctx context.Context, userID uuid.UUID, unlockedOnly bool) ([]badgeDto.BadgeResponse, error)
}

type badgeService struct {
	repo                badgeRepo.BadgeRepository
	engine              *Engine
	notificationService notifService.NotificationService
	publisher           events.Publisher
	loc                 *time.Location
	log                 logrus.FieldLogger
	now                 func() time.Time

	// One evaluation per user at a time; concurrent callers share its result.
	inflight singleflight.Group
}

func NewBadgeService(
	repo badgeRepo.BadgeRepository,
	engine *Engine,
	notificationService notifService.NotificationService,
	publisher events.Publisher,
	loc *time.Location,
	log logrus.FieldLogger,
) BadgeService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &badgeService{
		repo:                repo,
		engine:              engine,
		notificationService: notificationService,
		publisher:           publisher,
		loc:                 loc,
		log:                 log,
		now:                 time.Now,
	}
}

func (s *badgeService) Evaluate(ctx context.Context, userID uuid.UUID) (*badgeDto.EvaluateResponse, error) {
	v, err, _ := s.inflight.Do(userID.String(), func() (any, error) {
		return s.evaluate(ctx, userID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*badgeDto.EvaluateResponse), nil
}

func (s *badgeService) evaluate(ctx context.Context, userID uuid.UUID) (*badgeDto.EvaluateResponse, error) {
	counters, err := s.counters(ctx, userID)
	if err != nil {
		return nil, err
	}

	unlocked, err := s.repo.ListUnlocked(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list unlocked badges: %w", err)
	}
	already := make([]string, len(unlocked))
	for i, b := range unlocked {
		already[i] = b.BadgeID
	}

	newly := s.engine.Evaluate(counters, already)
	resp := &badgeDto.EvaluateResponse{
		NewlyUnlocked: make([]badgeDto.BadgeResponse, 0, len(newly)),
		TotalUnlocked: len(already) + len(newly),
		Counters:      toCountersResponse(counters),
	}
	if len(newly) == 0 {
		return resp, nil
	}

	now := s.now().UTC()
	records := make([]entity.UnlockedBadge, len(newly))
	for i, id := range newly {
		records[i] = entity.UnlockedBadge{UserID: userID, BadgeID: id, UnlockedAt: now}
	}
	if err := s.repo.SaveUnlocked(ctx, userID, records); err != nil {
		return nil, fmt.Errorf("save unlocked badges: %w", err)
	}

	for _, id := range newly {
		def, _ := s.engine.Definition(id)
		resp.NewlyUnlocked = append(resp.NewlyUnlocked, toBadgeResponse(def, &now))
		observability.RecordBadgeUnlock(string(def.Kind))
		s.announce(ctx, userID, def)
	}

	s.log.WithFields(logrus.Fields{"user_id": userID, "badges": newly}).Info("Badges unlocked")
	return resp, nil
}

func (s *badgeService) counters(ctx context.Context, userID uuid.UUID) (UserCounters, error) {
	activities, err := s.repo.Activities(ctx, userID)
	if err != nil {
		return UserCounters{}, fmt.Errorf("load activities: %w", err)
	}
	goals, err := s.repo.Goals(ctx, userID)
	if err != nil {
		return UserCounters{}, fmt.Errorf("load goals: %w", err)
	}
	photos, err := s.repo.CountPhotos(ctx, userID)
	if err != nil {
		return UserCounters{}, fmt.Errorf("count photos: %w", err)
	}
	templates, err := s.repo.CountTemplates(ctx, userID)
	if err != nil {
		return UserCounters{}, fmt.Errorf("count templates: %w", err)
	}

	return BuildCounters(CounterInput{
		Activities: activities,
		Goals:      goals,
		Photos:     photos,
		Templates:  templates,
	}, s.now(), s.loc), nil
}

func (s *badgeService) announce(ctx context.Context, userID uuid.UUID, def Definition) {
	payload := map[string]any{"badge_id": def.ID, "kind": def.Kind, "name": def.Name}
	if err := events.Emit(ctx, s.publisher, events.TypeBadgeUnlocked, userID, payload); err != nil {
		s.log.WithError(err).WithField("badge_id", def.ID).Warn("publish badge event failed")
	}

	if s.notificationService == nil {
		return
	}
	notification := &entity.Notification{
		UserID:     userID,
		EntityID:   def.ID,
		EntityType: "badge",
		Type:       entity.NotificationBadgeUnlock,
		Message:    fmt.Sprintf("Nova conquista desbloqueada: %s 🏅", def.Name),
	}
	if err := s.notificationService.CreateNotification(ctx, notification); err != nil {
		s.log.WithError(err).WithField("badge_id", def.ID).Warn("badge notification failed")
	}
}

func (s *badgeService) List(ctx context.Context, userID uuid.UUID, unlockedOnly bool) ([]badgeDto.BadgeResponse, error) {
	unlocked, err := s.repo.ListUnlocked(ctx, userID)
	if err != nil {
		return nil, err
	}
	at := make(map[string]time.Time, len(unlocked))
	for _, b := range unlocked {
		at[b.BadgeID] = b.UnlockedAt
	}

	out := make([]badgeDto.BadgeResponse, 0, len(s.engine.Catalog()))
	for _, def := range s.engine.Catalog() {
		when, ok := at[def.ID]
		if unlockedOnly && !ok {
			continue
		}
		var unlockedAt *time.Time
		if ok {
			unlockedAt = &when
		}
		out = append(out, toBadgeResponse(def, unlockedAt))
	}
	return out, nil
}

func toBadgeResponse(def Definition, unlockedAt *time.Time) badgeDto.BadgeResponse {
	return badgeDto.BadgeResponse{
		ID:          def.ID,
		Name:        def.Name,
		Description: def.Description,
		Kind:        string(def.Kind),
		Threshold:   def.Threshold,
		Exercise:    def.Exercise,
		Unlocked:    unlockedAt != nil,
		UnlockedAt:  unlockedAt,
	}
}

func toCountersResponse(c UserCounters) badgeDto.CountersResponse {
	return badgeDto.CountersResponse{
		TotalWorkouts:   c.TotalWorkouts,
		CurrentStreak:   c.CurrentStreak,
		LongestStreak:   c.LongestStreak,
		TotalVolume:     c.TotalVolume,
		PersonalRecords: c.PersonalRecords,
		GoalsAchieved:   c.GoalsAchieved,
		Photos:          c.Photos,
		Templates:       c.Templates,
	}
}
