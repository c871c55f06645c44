package http

import (
	"context"
	"net/http"
	"slices"
	"time"

	"anoa.com/fitsquad/internal/modules/admin/dto"
	"anoa.com/fitsquad/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// JobRunner is the scheduler surface admins may drive by hand.
type JobRunner interface {
	Jobs() []string
	RunByName(ctx context.Context, name string) error
}

type AdminHandler struct {
	jobs JobRunner
	log  logrus.FieldLogger
}

func NewAdminHandler(jobs JobRunner, log logrus.FieldLogger) *AdminHandler {
	return &AdminHandler{
		jobs: jobs,
		log:  log,
	}
}

func (h *AdminHandler) ListJobs(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": dto.JobsResponse{Jobs: h.jobs.Jobs()}})
}

func (h *AdminHandler) RunJob(c *gin.Context) {
	name := c.Param("name")
	if !slices.Contains(h.jobs.Jobs(), name) {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}

	userID, _ := response.GetUserID(c)
	started := time.Now()
	if err := h.jobs.RunByName(c.Request.Context(), name); err != nil {
		h.log.WithError(err).WithFields(logrus.Fields{"job": name, "admin_id": userID}).Error("Manual job run failed")
		response.ResponseError(c, err)
		return
	}
	h.log.WithFields(logrus.Fields{"job": name, "admin_id": userID}).Info("Manual job run")

	c.JSON(http.StatusOK, gin.H{"data": dto.RunJobResponse{
		Job:        name,
		StartedAt:  started.UTC(),
		DurationMs: time.Since(started).Milliseconds(),
	}})
}
