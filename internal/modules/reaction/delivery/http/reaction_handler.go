package http

import (
	"net/http"

	"anoa.com/fitsquad/internal/entity"
	reactionDto "anoa.com/fitsquad/internal/modules/reaction/dto"
	reaction "anoa.com/fitsquad/internal/modules/reaction/service"
	"anoa.com/fitsquad/pkg/response"
	"anoa.com/fitsquad/pkg/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ReactionHandler struct {
	service reaction.ReactionService
}

func NewReactionHandler(service reaction.ReactionService) *ReactionHandler {
	return &ReactionHandler{service: service}
}

func (h *ReactionHandler) ToggleReaction(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req reactionDto.ReactionToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	if err := h.service.ToggleReaction(c.Request.Context(), userID, req); err != nil {
		response.ResponseError(c, err)
		return
	}

	resp, err := h.service.GetReactions(c.Request.Context(), &userID, req.ReferenceID, req.ReferenceType)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (h *ReactionHandler) GetReactions(c *gin.Context) {
	refType := c.Param("refType")
	refID, err := uuid.Parse(c.Param("refID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid reference id"})
		return
	}

	switch refType {
	case entity.ReferencePost, entity.ReferenceComment, entity.ReferenceActivity:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid reference type"})
		return
	}

	var userIDPtr *uuid.UUID
	if uid, err := response.GetUserID(c); err == nil {
		userIDPtr = &uid
	}

	resp, err := h.service.GetReactions(c.Request.Context(), userIDPtr, refID, refType)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
