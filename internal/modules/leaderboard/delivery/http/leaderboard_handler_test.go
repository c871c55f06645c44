package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"anoa.com/fitsquad/internal/entity"
	leaderboardDto "anoa.com/fitsquad/internal/modules/leaderboard/dto"
	"anoa.com/fitsquad/pkg/apperror"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubService struct {
	lastLimit  int
	lastWindow int
}

func (s *stubService) GetUserStats(_ context.Context, userID uuid.UUID) (*leaderboardDto.UserStatsResponse, error) {
	return nil, apperror.ErrNotFound
}

func (s *stubService) GetRanking(_ context.Context, limit int) ([]leaderboardDto.LeaderboardEntry, error) {
	s.lastLimit = limit
	return []leaderboardDto.LeaderboardEntry{{Username: "ana", Position: 1, TotalPoints: 90}}, nil
}

func (s *stubService) GetNearbyRanks(_ context.Context, _ uuid.UUID, window int) ([]leaderboardDto.LeaderboardEntry, error) {
	s.lastWindow = window
	return []leaderboardDto.LeaderboardEntry{}, nil
}

func (s *stubService) RankUsers(context.Context, []uuid.UUID) ([]leaderboardDto.LeaderboardEntry, error) {
	return nil, nil
}

func (s *stubService) RecomputeRankings(context.Context) (*leaderboardDto.RecomputeResponse, error) {
	return &leaderboardDto.RecomputeResponse{RankedUsers: 3}, nil
}

func (s *stubService) RefreshUser(context.Context, uuid.UUID) (*entity.UserStats, error) {
	return nil, nil
}

func setupRouter(svc *stubService, userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewLeaderboardHandler(svc)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if userID != "" {
			c.Set("user_id", userID)
		}
		c.Next()
	})
	r.GET("/leaderboard", h.GetLeaderboard)
	r.GET("/leaderboard/nearby", h.GetNearby)
	r.GET("/stats/:user_id", h.GetUserStats)
	r.POST("/recompute", h.Recompute)
	return r
}

func serve(r *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestGetLeaderboard(t *testing.T) {
	svc := &stubService{}
	r := setupRouter(svc, "")

	w := serve(r, http.MethodGet, "/leaderboard")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, defaultLimit, svc.lastLimit)

	var body struct {
		Data []leaderboardDto.LeaderboardEntry `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "ana", body.Data[0].Username)

	serve(r, http.MethodGet, "/leaderboard?limit=100")
	assert.Equal(t, 100, svc.lastLimit)

	assert.Equal(t, http.StatusBadRequest, serve(r, http.MethodGet, "/leaderboard?limit=101").Code)
	assert.Equal(t, http.StatusBadRequest, serve(r, http.MethodGet, "/leaderboard?limit=abc").Code)
}

func TestGetNearby(t *testing.T) {
	svc := &stubService{}

	assert.Equal(t, http.StatusUnauthorized, serve(setupRouter(svc, ""), http.MethodGet, "/leaderboard/nearby").Code)

	r := setupRouter(svc, uuid.NewString())
	require.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/leaderboard/nearby").Code)
	assert.Equal(t, defaultWindow, svc.lastWindow)

	require.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/leaderboard/nearby?window=3").Code)
	assert.Equal(t, 3, svc.lastWindow)
}

func TestGetUserStats(t *testing.T) {
	r := setupRouter(&stubService{}, "")

	assert.Equal(t, http.StatusBadRequest, serve(r, http.MethodGet, "/stats/not-a-uuid").Code)
	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodGet, "/stats/"+uuid.NewString()).Code)
}

func TestRecompute(t *testing.T) {
	w := serve(setupRouter(&stubService{}, ""), http.MethodPost, "/recompute")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ranked_users":3`)
}
