package http

import (
	"context"
	"errors"
	"net/http"

	"anoa.com/fitsquad/internal/modules/sync/reconciler"
	"anoa.com/fitsquad/internal/modules/sync/store"
	"anoa.com/fitsquad/pkg/apperror"
	"anoa.com/fitsquad/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Syncer is the part of the reconciler the handler needs.
type Syncer interface {
	Sync(ctx context.Context, userID uuid.UUID, trigger reconciler.Trigger) *reconciler.Result
	Status(ctx context.Context, userID uuid.UUID) (*reconciler.Status, error)
	EffectiveView(ctx context.Context, kind store.Kind, userID uuid.UUID) ([]store.Record, error)
}

type SyncHandler struct {
	syncer Syncer
}

func NewSyncHandler(syncer Syncer) *SyncHandler {
	return &SyncHandler{syncer: syncer}
}

// TriggerSync runs a manual pass, which also retries failed records.
func (h *SyncHandler) TriggerSync(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	result := h.syncer.Sync(c.Request.Context(), userID, reconciler.TriggerManual)
	err = result.Err()
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"data": result})
	case result.Skipped:
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apperror.ErrPartialSync):
		// Kinds that went through stay synced; the body says which did not.
		c.JSON(http.StatusMultiStatus, gin.H{"data": result, "error": err.Error()})
	default:
		response.ResponseError(c, err)
	}
}

func (h *SyncHandler) GetStatus(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	status, err := h.syncer.Status(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": status})
}

func (h *SyncHandler) GetView(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	kind, err := store.ParseKind(c.Param("kind"))
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	records, err := h.syncer.EffectiveView(c.Request.Context(), kind, userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": records})
}
