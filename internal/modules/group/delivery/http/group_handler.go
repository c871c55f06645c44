package http

import (
	"net/http"

	groupDto "anoa.com/fitsquad/internal/modules/group/dto"
	group "anoa.com/fitsquad/internal/modules/group/service"
	"anoa.com/fitsquad/pkg/response"
	"anoa.com/fitsquad/pkg/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type GroupHandler struct {
	service group.GroupService
}

func NewGroupHandler(service group.GroupService) *GroupHandler {
	return &GroupHandler{service: service}
}

func (h *GroupHandler) CreateGroup(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req groupDto.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	resp, err := h.service.CreateGroup(c.Request.Context(), userID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (h *GroupHandler) ListMyGroups(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	resp, err := h.service.ListMyGroups(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (h *GroupHandler) GetGroup(c *gin.Context) {
	userID, groupID, ok := h.params(c)
	if !ok {
		return
	}

	resp, err := h.service.GetGroup(c.Request.Context(), userID, groupID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (h *GroupHandler) JoinGroup(c *gin.Context) {
	userID, groupID, ok := h.params(c)
	if !ok {
		return
	}

	resp, err := h.service.JoinGroup(c.Request.Context(), userID, groupID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (h *GroupHandler) LeaveGroup(c *gin.Context) {
	userID, groupID, ok := h.params(c)
	if !ok {
		return
	}

	if err := h.service.LeaveGroup(c.Request.Context(), userID, groupID); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "left group"})
}

func (h *GroupHandler) GroupLeaderboard(c *gin.Context) {
	userID, groupID, ok := h.params(c)
	if !ok {
		return
	}

	resp, err := h.service.GroupLeaderboard(c.Request.Context(), userID, groupID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (h *GroupHandler) params(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return uuid.Nil, uuid.Nil, false
	}

	groupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid group id"})
		return uuid.Nil, uuid.Nil, false
	}
	return userID, groupID, true
}
