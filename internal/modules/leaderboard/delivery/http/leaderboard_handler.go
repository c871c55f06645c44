package http

import (
	"net/http"

	leaderboardDto "anoa.com/fitsquad/internal/modules/leaderboard/dto"
	leaderboardService "anoa.com/fitsquad/internal/modules/leaderboard/service"
	"anoa.com/fitsquad/pkg/response"
	"anoa.com/fitsquad/pkg/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	defaultLimit  = 10
	defaultWindow = 5
)

type LeaderboardHandler struct {
	service leaderboardService.LeaderboardService
}

func NewLeaderboardHandler(service leaderboardService.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{service: service}
}

func (h *LeaderboardHandler) GetLeaderboard(c *gin.Context) {
	var query leaderboardDto.LeaderboardQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}
	if query.Limit == 0 {
		query.Limit = defaultLimit
	}

	leaderboard, err := h.service.GetRanking(c.Request.Context(), query.Limit)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": leaderboard})
}

func (h *LeaderboardHandler) GetNearby(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var query leaderboardDto.NearbyQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}
	if query.Window == 0 {
		query.Window = defaultWindow
	}

	nearby, err := h.service.GetNearbyRanks(c.Request.Context(), userID, query.Window)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": nearby})
}

func (h *LeaderboardHandler) GetUserStats(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	stats, err := h.service.GetUserStats(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": stats})
}

func (h *LeaderboardHandler) Recompute(c *gin.Context) {
	result, err := h.service.RecomputeRankings(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}
