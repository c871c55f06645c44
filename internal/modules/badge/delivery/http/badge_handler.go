package http

import (
	"net/http"

	badgeDto "anoa.com/fitsquad/internal/modules/badge/dto"
	badge "anoa.com/fitsquad/internal/modules/badge/service"
	"anoa.com/fitsquad/pkg/response"
	"anoa.com/fitsquad/pkg/validator"
	"github.com/gin-gonic/gin"
)

type BadgeHandler struct {
	service badge.BadgeService
}

func NewBadgeHandler(service badge.BadgeService) *BadgeHandler {
	return &BadgeHandler{service: service}
}

func (h *BadgeHandler) ListBadges(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var query badgeDto.ListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	badges, err := h.service.List(c.Request.Context(), userID, query.UnlockedOnly)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": badges})
}

func (h *BadgeHandler) Evaluate(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	result, err := h.service.Evaluate(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}
