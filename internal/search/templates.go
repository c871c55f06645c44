// Package search indexes workout templates in Meilisearch.
package search

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"strings"

	"anoa.com/fitsquad/internal/entity"
	"github.com/google/uuid"
	"github.com/meilisearch/meilisearch-go"
	"github.com/microcosm-cc/bluemonday"
	"github.com/sirupsen/logrus"
)

const TemplatesIndex = "templates"

// ErrUnavailable is returned by NopIndex; callers fall back to a local scan.
var ErrUnavailable = errors.New("search index unavailable")

type TemplateIndex interface {
	IndexTemplate(t *entity.WorkoutTemplate) error
	DeleteTemplate(id string) error
	// SearchTemplates returns matching template ids owned by userID, best match first.
	SearchTemplates(userID uuid.UUID, query string, limit int) ([]string, error)
}

type templateDoc struct {
	ID           string   `json:"id"`
	UserID       string   `json:"user_id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	ActivityType string   `json:"activity_type"`
	Exercises    []string `json:"exercises"`
	CreatedAt    int64    `json:"created_at"`
}

type meiliTemplateIndex struct {
	client    meilisearch.ServiceManager
	sanitizer *bluemonday.Policy
	log       logrus.FieldLogger
}

func NewMeiliTemplateIndex(client meilisearch.ServiceManager, log logrus.FieldLogger) TemplateIndex {
	s := &meiliTemplateIndex{
		client:    client,
		sanitizer: bluemonday.StrictPolicy(),
		log:       log.WithField("index", TemplatesIndex),
	}
	s.initIndex()
	return s
}

func (s *meiliTemplateIndex) initIndex() {
	filterable := []any{"user_id", "activity_type"}
	if _, err := s.client.Index(TemplatesIndex).UpdateFilterableAttributes(&filterable); err != nil {
		s.log.WithError(err).Warn("Failed to update filterable attributes")
	}

	sortable := []string{"created_at"}
	if _, err := s.client.Index(TemplatesIndex).UpdateSortableAttributes(&sortable); err != nil {
		s.log.WithError(err).Warn("Failed to update sortable attributes")
	}
}

func (s *meiliTemplateIndex) clean(content string) string {
	sanitized := s.sanitizer.Sanitize(content)
	return strings.Join(strings.Fields(html.UnescapeString(sanitized)), " ")
}

func (s *meiliTemplateIndex) IndexTemplate(t *entity.WorkoutTemplate) error {
	doc := templateDoc{
		ID:           t.ID.String(),
		UserID:       t.UserID.String(),
		Name:         s.clean(t.Name),
		Description:  s.clean(t.Description),
		ActivityType: t.ActivityType,
		CreatedAt:    t.CreatedAt.Unix(),
	}
	for _, e := range t.Exercises {
		doc.Exercises = append(doc.Exercises, s.clean(e.Exercise))
	}

	primaryKey := "id"
	task, err := s.client.Index(TemplatesIndex).AddDocuments([]templateDoc{doc}, &primaryKey)
	if err != nil {
		return fmt.Errorf("index template %s: %w", t.ID, err)
	}
	s.log.WithFields(logrus.Fields{"template_id": t.ID, "task_uid": task.TaskUID}).Debug("Template indexed")
	return nil
}

func (s *meiliTemplateIndex) DeleteTemplate(id string) error {
	_, err := s.client.Index(TemplatesIndex).DeleteDocument(id)
	return err
}

func (s *meiliTemplateIndex) SearchTemplates(userID uuid.UUID, query string, limit int) ([]string, error) {
	raw, err := s.client.Index(TemplatesIndex).SearchRaw(query, &meilisearch.SearchRequest{
		Filter:               fmt.Sprintf("user_id = '%s'", userID.String()),
		Limit:                int64(limit),
		AttributesToRetrieve: []string{"id"},
	})
	if err != nil {
		return nil, fmt.Errorf("search templates: %w", err)
	}

	var resp struct {
		Hits []struct {
			ID string `json:"id"`
		} `json:"hits"`
	}
	if err := json.Unmarshal(*raw, &resp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	ids := make([]string, 0, len(resp.Hits))
	for _, hit := range resp.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, nil
}

// NopIndex is used when no Meilisearch host is configured.
type NopIndex struct{}

func (NopIndex) IndexTemplate(*entity.WorkoutTemplate) error { return nil }
func (NopIndex) DeleteTemplate(string) error                 { return nil }
func (NopIndex) SearchTemplates(uuid.UUID, string, int) ([]string, error) {
	return nil, ErrUnavailable
}
