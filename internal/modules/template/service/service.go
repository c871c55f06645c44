package template

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"anoa.com/fitsquad/internal/entity"
	activityDto "anoa.com/fitsquad/internal/modules/activity/dto"
	activity "anoa.com/fitsquad/internal/modules/activity/service"
	"anoa.com/fitsquad/internal/modules/sync/reconciler"
	"anoa.com/fitsquad/internal/modules/sync/store"
	templateDto "anoa.com/fitsquad/internal/modules/template/dto"
	templateRepo "anoa.com/fitsquad/internal/modules/template/repository"
	"anoa.com/fitsquad/internal/search"
	"anoa.com/fitsquad/pkg/apperror"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const defaultSearchLimit = 20

type TemplateService interface {
	CreateTemplate(ctx context.Context, userID uuid.UUID, req templateDto.CreateTemplateRequest) (*templateDto.TemplateResponse, error)
	ListTemplates(ctx context.Context, userID uuid.UUID) ([]templateDto.TemplateResponse, error)
	SearchTemplates(ctx context.Context, userID uuid.UUID, query templateDto.SearchQuery) ([]templateDto.TemplateResponse, error)
	// UseTemplate logs a workout with the template's type and exercises.
	UseTemplate(ctx context.Context, userID, templateID uuid.UUID, req templateDto.UseTemplateRequest) (*activityDto.LogActivityResponse, error)
}

type templateService struct {
	repo       templateRepo.TemplateRepository
	index      search.TemplateIndex
	activities activity.ActivityService
	syncer     activity.Syncer
	log        logrus.FieldLogger
	now        func() time.Time
}

func NewTemplateService(
	repo templateRepo.TemplateRepository,
	index search.TemplateIndex,
	activities activity.ActivityService,
	syncer activity.Syncer,
	log logrus.FieldLogger,
) TemplateService {
	if index == nil {
		index = search.NopIndex{}
	}
	return &templateService{
		repo:       repo,
		index:      index,
		activities: activities,
		syncer:     syncer,
		log:        log,
		now:        time.Now,
	}
}

func (s *templateService) CreateTemplate(ctx context.Context, userID uuid.UUID, req templateDto.CreateTemplateRequest) (*templateDto.TemplateResponse, error) {
	now := s.now().UTC()
	exercises := make([]entity.ExerciseSet, len(req.Exercises))
	for i, e := range req.Exercises {
		exercises[i] = entity.ExerciseSet{
			Exercise:    e.Exercise,
			MuscleGroup: e.MuscleGroup,
			Sets:        e.Sets,
			Reps:        e.Reps,
			WeightKg:    e.WeightKg,
		}
	}

	template := &entity.WorkoutTemplate{
		UserID:       userID,
		Name:         req.Name,
		Description:  req.Description,
		ActivityType: req.ActivityType,
		Exercises:    exercises,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Save(ctx, template); err != nil {
		return nil, err
	}

	// The buffered copy is authoritative; a missing index entry only hides it from search.
	if err := s.index.IndexTemplate(template); err != nil {
		s.log.WithError(err).WithField("template_id", template.ID).Warn("index template failed")
	}

	if s.syncer != nil {
		s.syncer.TriggerAsync(userID, reconciler.TriggerActivity)
	}

	resp := toResponse(*template, store.StatePending)
	return &resp, nil
}

func (s *templateService) ListTemplates(ctx context.Context, userID uuid.UUID) ([]templateDto.TemplateResponse, error) {
	templates, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]templateDto.TemplateResponse, 0, len(templates))
	for _, t := range templates {
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, nil
}

func (s *templateService) SearchTemplates(ctx context.Context, userID uuid.UUID, query templateDto.SearchQuery) ([]templateDto.TemplateResponse, error) {
	q := strings.TrimSpace(query.Q)
	if q == "" {
		return s.ListTemplates(ctx, userID)
	}
	limit := query.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	templates, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	ids, err := s.index.SearchTemplates(userID, q, limit)
	if err != nil {
		if !errors.Is(err, search.ErrUnavailable) {
			s.log.WithError(err).Warn("template search failed, scanning local view")
		}
		return scan(templates, q, limit), nil
	}

	out := make([]templateDto.TemplateResponse, 0, len(ids))
	for _, id := range ids {
		if t, ok := templates[id]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *templateService) UseTemplate(ctx context.Context, userID, templateID uuid.UUID, req templateDto.UseTemplateRequest) (*activityDto.LogActivityResponse, error) {
	templates, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	t, ok := templates[templateID.String()]
	if !ok {
		return nil, fmt.Errorf("template %s: %w", templateID, apperror.ErrNotFound)
	}

	return s.activities.LogActivity(ctx, userID, activityDto.LogActivityRequest{
		ActivityType: t.ActivityType,
		DurationMin:  req.DurationMin,
		StartedAt:    req.StartedAt,
		Notes:        req.Notes,
		Exercises:    t.Exercises,
	})
}

// load returns the user's effective templates keyed by id.
func (s *templateService) load(ctx context.Context, userID uuid.UUID) (map[string]templateDto.TemplateResponse, error) {
	records, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make(map[string]templateDto.TemplateResponse, len(records))
	for _, rec := range records {
		var t entity.WorkoutTemplate
		if err := rec.Decode(&t); err != nil {
			s.log.WithError(err).WithField("record_id", rec.ID).Warn("skipping undecodable template")
			continue
		}
		out[rec.ID] = toResponse(t, rec.State)
	}
	return out, nil
}

// scan matches every query term against name, description, type and exercises.
func scan(templates map[string]templateDto.TemplateResponse, q string, limit int) []templateDto.TemplateResponse {
	terms := strings.Fields(strings.ToLower(q))

	var out []templateDto.TemplateResponse
	for _, t := range templates {
		parts := []string{t.Name, t.Description, t.ActivityType}
		for _, e := range t.Exercises {
			parts = append(parts, e.Exercise, e.MuscleGroup)
		}
		haystack := strings.ToLower(strings.Join(parts, " "))

		matched := true
		for _, term := range terms {
			if !strings.Contains(haystack, term) {
				matched = false
				break
			}
		}
		if matched {
			out = append(out, t)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func toResponse(t entity.WorkoutTemplate, state store.State) templateDto.TemplateResponse {
	var exercises []activityDto.ExerciseInput
	for _, e := range t.Exercises {
		exercises = append(exercises, activityDto.ExerciseInput{
			Exercise:    e.Exercise,
			MuscleGroup: e.MuscleGroup,
			Sets:        e.Sets,
			Reps:        e.Reps,
			WeightKg:    e.WeightKg,
		})
	}
	return templateDto.TemplateResponse{
		ID:           t.ID,
		Name:         t.Name,
		Description:  t.Description,
		ActivityType: t.ActivityType,
		Exercises:    exercises,
		SyncState:    string(state),
		CreatedAt:    t.CreatedAt,
	}
}
