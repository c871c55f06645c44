package http

import (
	"net/http"

	photoDto "anoa.com/fitsquad/internal/modules/photo/dto"
	photo "anoa.com/fitsquad/internal/modules/photo/service"
	"anoa.com/fitsquad/pkg/dto"
	"anoa.com/fitsquad/pkg/response"
	"anoa.com/fitsquad/pkg/validator"
	"github.com/gin-gonic/gin"
)

const maxPhotoSize = 8 << 20

type PhotoHandler struct {
	service photo.PhotoService
}

func NewPhotoHandler(service photo.PhotoService) *PhotoHandler {
	return &PhotoHandler{service: service}
}

func (h *PhotoHandler) UploadPhoto(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	file, err := c.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "photo is required"})
		return
	}
	if file.Size > maxPhotoSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "photo must be at most 8MB"})
		return
	}

	var req photoDto.UploadPhotoRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	f, err := file.Open()
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	defer f.Close()

	resp, err := h.service.UploadPhoto(c.Request.Context(), userID, dto.UploadFile{Reader: f, FileName: file.Filename}, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (h *PhotoHandler) ListPhotos(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	resp, err := h.service.ListPhotos(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
