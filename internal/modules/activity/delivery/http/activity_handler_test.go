package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	activityDto "anoa.com/fitsquad/internal/modules/activity/dto"
	gamification "anoa.com/fitsquad/internal/modules/gamification/service"
	"anoa.com/fitsquad/pkg/apperror"
	"anoa.com/fitsquad/pkg/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubService struct {
	logged []activityDto.LogActivityRequest
	query  dto.PaginationQuery
	err    error
}

func (s *stubService) LogActivity(_ context.Context, _ uuid.UUID, req activityDto.LogActivityRequest) (*activityDto.LogActivityResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.logged = append(s.logged, req)
	return &activityDto.LogActivityResponse{
		Activity: activityDto.ActivityResponse{ActivityType: req.ActivityType, Points: 90},
	}, nil
}

func (s *stubService) ListActivities(_ context.Context, _ uuid.UUID, query dto.PaginationQuery) (*activityDto.ActivityListResponse, error) {
	s.query = query
	return &activityDto.ActivityListResponse{Data: []activityDto.ActivityResponse{}}, nil
}

func (s *stubService) ActivityTypes() []gamification.ActivityType {
	return []gamification.ActivityType{{Tag: "corrida", Category: gamification.CategoryCardio, Multiplier: 2.5}}
}

func setupRouter(svc *stubService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewActivityHandler(svc)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", uuid.NewString())
		c.Next()
	})
	r.POST("/api/activities", h.LogActivity)
	r.GET("/api/activities", h.ListActivities)
	r.GET("/api/activities/types", h.ListTypes)
	return r
}

func postJSON(r *gin.Engine, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/activities", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestLogActivity(t *testing.T) {
	svc := &stubService{}
	r := setupRouter(svc)

	w := postJSON(r, `{"activity_type":"corrida","duration_min":36}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var body struct {
		Data activityDto.LogActivityResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 90, body.Data.Activity.Points)
	require.Len(t, svc.logged, 1)
	assert.Equal(t, 36, svc.logged[0].DurationMin)
}

func TestLogActivity_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing type", `{"duration_min":30}`},
		{"zero duration", `{"activity_type":"yoga","duration_min":0}`},
		{"negative sets", `{"activity_type":"musculacao","duration_min":30,"exercises":[{"exercise":"supino","sets":-1}]}`},
		{"exercise without name", `{"activity_type":"musculacao","duration_min":30,"exercises":[{"sets":3}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubService{}
			w := postJSON(setupRouter(svc), tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Empty(t, svc.logged)
		})
	}
}

func TestLogActivity_ServiceError(t *testing.T) {
	r := setupRouter(&stubService{err: apperror.ErrInvalidInput})
	w := postJSON(r, `{"activity_type":"corrida","duration_min":30}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListActivities_BindsPaging(t *testing.T) {
	svc := &stubService{}
	r := setupRouter(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/activities?page=2&limit=5", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, dto.PaginationQuery{Page: 2, Limit: 5}, svc.query)
}

func TestListTypes(t *testing.T) {
	r := setupRouter(&stubService{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/activities/types", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"tag":"corrida"`)
}
