package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"anoa.com/fitsquad/internal/config"
	"anoa.com/fitsquad/internal/middleware"
	"anoa.com/fitsquad/internal/testutil"
	"anoa.com/fitsquad/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func testConfig() *config.Config {
	return &config.Config{
		AppEnv:              "test",
		AllowedOrigins:      []string{"http://localhost:3000"},
		CloudinaryCloudName: "demo",
		CloudinaryAPIKey:    "key",
		CloudinaryAPISecret: "secret",
		JWTSecret:           testSecret,
		RateLimitGlobal:     time.Second,
		RateLimitPost:       time.Second,
		RateLimitComment:    time.Second,
		Timezone:            time.UTC,
		LevelBasePoints:     100,
		ActivityMultipliers: map[string]float64{},
	}
}

func do(t *testing.T, srv *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	srv.engine.ServeHTTP(w, req)
	return w
}

func TestServer_WorkoutFlowsIntoStats(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := testutil.NewDB(t)
	rdb, _ := testutil.NewRedis(t)
	user := testutil.CreateUser(t, db, "joana")

	srv, err := NewServer(testConfig(), db, rdb, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(srv.reconciler.Wait)

	token, err := middleware.IssueToken(testSecret, user.ID, time.Hour)
	require.NoError(t, err)

	w := do(t, srv, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, srv, http.MethodGet, "/api/activities", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, srv, http.MethodPost, "/api/activities", token, map[string]any{
		"activity_type": "corrida",
		"duration_min":  30,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var logged struct {
		Data struct {
			Activity struct {
				Points int `json:"points"`
			} `json:"activity"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &logged))
	assert.Equal(t, 75, logged.Data.Activity.Points)

	// The async pass pushes the workout and refreshes the stats row.
	srv.reconciler.Wait()

	w = do(t, srv, http.MethodGet, "/api/stats/"+user.ID.String(), token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var stats struct {
		Data struct {
			TotalPoints   int `json:"total_points"`
			TotalWorkouts int `json:"total_workouts"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 75, stats.Data.TotalPoints)
	assert.Equal(t, 1, stats.Data.TotalWorkouts)
}

func TestServer_AdminRoutesNeedAdmin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := testutil.NewDB(t)
	user := testutil.CreateUser(t, db, "member")

	srv, err := NewServer(testConfig(), db, nil, logger.Discard())
	require.NoError(t, err)

	token, err := middleware.IssueToken(testSecret, user.ID, time.Hour)
	require.NoError(t, err)

	w := do(t, srv, http.MethodGet, "/api/admin/jobs", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, srv, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
