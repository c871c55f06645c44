package http

import (
	"net/http"

	activityDto "anoa.com/fitsquad/internal/modules/activity/dto"
	activity "anoa.com/fitsquad/internal/modules/activity/service"
	"anoa.com/fitsquad/pkg/dto"
	"anoa.com/fitsquad/pkg/response"
	"anoa.com/fitsquad/pkg/validator"
	"github.com/gin-gonic/gin"
)

type ActivityHandler struct {
	service activity.ActivityService
}

func NewActivityHandler(service activity.ActivityService) *ActivityHandler {
	return &ActivityHandler{service: service}
}

func (h *ActivityHandler) LogActivity(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req activityDto.LogActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	result, err := h.service.LogActivity(c.Request.Context(), userID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": result})
}

func (h *ActivityHandler) ListActivities(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var query dto.PaginationQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	result, err := h.service.ListActivities(c.Request.Context(), userID, query)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *ActivityHandler) ListTypes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.service.ActivityTypes()})
}
