package http

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	photoDto "anoa.com/fitsquad/internal/modules/photo/dto"
	"anoa.com/fitsquad/pkg/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubService struct {
	fileName string
	content  string
	req      photoDto.UploadPhotoRequest
}

func (s *stubService) UploadPhoto(_ context.Context, _ uuid.UUID, file dto.UploadFile, req photoDto.UploadPhotoRequest) (*photoDto.PhotoResponse, error) {
	b, err := io.ReadAll(file.Reader)
	if err != nil {
		return nil, err
	}
	s.fileName, s.content, s.req = file.FileName, string(b), req
	return &photoDto.PhotoResponse{ID: uuid.New(), URL: "https://img/x.jpg"}, nil
}

func (s *stubService) ListPhotos(context.Context, uuid.UUID) ([]photoDto.PhotoResponse, error) {
	return []photoDto.PhotoResponse{}, nil
}

func setupRouter(svc *stubService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewPhotoHandler(svc)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", uuid.NewString())
		c.Next()
	})
	r.POST("/api/photos", h.UploadPhoto)
	r.GET("/api/photos", h.ListPhotos)
	return r
}

func multipartBody(t *testing.T, withFile bool, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if withFile {
		fw, err := mw.CreateFormFile("photo", "frente.jpg")
		require.NoError(t, err)
		_, err = fw.Write([]byte("jpeg-bytes"))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

func TestUploadPhoto(t *testing.T) {
	svc := &stubService{}
	r := setupRouter(svc)

	body, contentType := multipartBody(t, true, map[string]string{
		"caption":   "semana 12",
		"weight_kg": "81.5",
		"taken_at":  "2024-03-01T08:00:00Z",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/photos", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "frente.jpg", svc.fileName)
	assert.Equal(t, "jpeg-bytes", svc.content)
	assert.Equal(t, "semana 12", svc.req.Caption)
	require.NotNil(t, svc.req.WeightKg)
	assert.InDelta(t, 81.5, *svc.req.WeightKg, 0.001)
	require.NotNil(t, svc.req.TakenAt)
	assert.Equal(t, 2024, svc.req.TakenAt.Year())
}

func TestUploadPhoto_MissingFile(t *testing.T) {
	r := setupRouter(&stubService{})

	body, contentType := multipartBody(t, false, map[string]string{"caption": "x"})
	req := httptest.NewRequest(http.MethodPost, "/api/photos", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
