package http

import (
	"net/http"

	statService "anoa.com/fitsquad/internal/modules/stat/service"
	"anoa.com/fitsquad/pkg/response"
	"github.com/gin-gonic/gin"
)

type StatHandler struct {
	statService statService.StatService
}

func NewStatHandler(statService statService.StatService) *StatHandler {
	return &StatHandler{
		statService: statService,
	}
}

func (h *StatHandler) GetCommunityStats(c *gin.Context) {
	stats, err := h.statService.GetCommunityStats(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": stats})
}
