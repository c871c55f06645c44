package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"anoa.com/fitsquad/internal/events"
	"anoa.com/fitsquad/internal/modules/sync/reconciler"
	"anoa.com/fitsquad/internal/modules/sync/store"
	"anoa.com/fitsquad/pkg/apperror"
	"anoa.com/fitsquad/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingRemote struct {
	fail map[store.Kind]bool
}

func (f failingRemote) PushEntityBatch(_ context.Context, kind store.Kind, _ uuid.UUID, _ []store.Record) error {
	if f.fail[kind] {
		return fmt.Errorf("%w: timeout", apperror.ErrRemoteUnavailable)
	}
	return nil
}

func (f failingRemote) PullSyncedEntities(context.Context, store.Kind, uuid.UUID) ([]store.Record, error) {
	return nil, nil
}

func (f failingRemote) Ping(context.Context) error { return nil }

func setupRouter(t *testing.T, fail map[store.Kind]bool) (*gin.Engine, store.LocalStore, uuid.UUID) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	local := store.NewMemoryStore()
	rec := reconciler.New(local, failingRemote{fail: fail}, events.NopPublisher{}, logger.Discard(), reconciler.Options{})
	h := NewSyncHandler(rec)
	userID := uuid.New()

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", userID.String())
		c.Next()
	})
	r.POST("/api/sync", h.TriggerSync)
	r.GET("/api/sync/status", h.GetStatus)
	r.GET("/api/sync/view/:kind", h.GetView)
	return r, local, userID
}

func put(t *testing.T, local store.LocalStore, userID uuid.UUID, kind store.Kind) {
	t.Helper()
	id := uuid.NewString()
	rec, err := store.NewRecord(kind, id, map[string]string{"id": id})
	require.NoError(t, err)
	require.NoError(t, local.Put(context.Background(), userID, rec))
}

func TestTriggerSync_OK(t *testing.T) {
	r, local, userID := setupRouter(t, nil)
	put(t, local, userID, store.KindActivityLogs)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/sync", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data reconciler.Result `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, reconciler.TriggerManual, body.Data.Trigger)
	assert.NotNil(t, body.Data.LastSuccessfulSync)
}

func TestTriggerSync_PartialFailure(t *testing.T) {
	r, local, userID := setupRouter(t, map[store.Kind]bool{store.KindPhotos: true})
	put(t, local, userID, store.KindPhotos)
	put(t, local, userID, store.KindGoals)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/sync", nil))
	require.Equal(t, http.StatusMultiStatus, w.Code)

	var body struct {
		Data  reconciler.Result `json:"data"`
		Error string            `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body.Error, "photos")
	for _, k := range body.Data.Kinds {
		if k.Kind == store.KindPhotos {
			assert.NotEmpty(t, k.Error)
		} else {
			assert.Empty(t, k.Error)
		}
	}
}

func TestTriggerSync_InProgress(t *testing.T) {
	r, local, userID := setupRouter(t, nil)
	_, ok, err := local.AcquireSyncFlag(context.Background(), userID, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/sync", nil))
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestGetStatus(t *testing.T) {
	r, local, userID := setupRouter(t, nil)
	put(t, local, userID, store.KindTemplates)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/sync/status", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data reconciler.Status `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Data.InProgress)
	pending := 0
	for _, k := range body.Data.Kinds {
		pending += k.Pending
	}
	assert.Equal(t, 1, pending)
}

func TestGetView_UnknownKind(t *testing.T) {
	r, _, _ := setupRouter(t, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/sync/view/posts", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/sync/view/goals", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
