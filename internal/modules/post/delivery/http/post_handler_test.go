package http

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	postDto "anoa.com/fitsquad/internal/modules/post/dto"
	"anoa.com/fitsquad/pkg/apperror"
	"anoa.com/fitsquad/pkg/dto"
	"anoa.com/fitsquad/pkg/ratelimiter"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubService struct {
	createErr error
	viewer    *uuid.UUID
}

func (s *stubService) CreatePost(_ context.Context, _ uuid.UUID, req postDto.CreatePostRequest) (*postDto.PostResponse, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	return &postDto.PostResponse{ID: uuid.New(), Content: req.Content}, nil
}

func (s *stubService) GetFeed(_ context.Context, viewerID *uuid.UUID, _ dto.PaginationQuery) (*postDto.PaginatedPostResponse, error) {
	s.viewer = viewerID
	return &postDto.PaginatedPostResponse{Data: []postDto.PostResponse{}}, nil
}

func (s *stubService) GetUserPosts(context.Context, uuid.UUID, *uuid.UUID, dto.PaginationQuery) (*postDto.PaginatedPostResponse, error) {
	return &postDto.PaginatedPostResponse{Data: []postDto.PostResponse{}}, nil
}

func (s *stubService) GetPostByID(_ context.Context, id uuid.UUID, _ *uuid.UUID) (*postDto.PostResponse, error) {
	return nil, apperror.ErrNotFound
}

func (s *stubService) UpdatePost(context.Context, uuid.UUID, uuid.UUID, postDto.UpdatePostRequest) (*postDto.PostResponse, error) {
	return nil, apperror.ErrForbidden
}

func (s *stubService) DeletePost(context.Context, uuid.UUID, uuid.UUID) error { return nil }

func (s *stubService) AddComment(context.Context, uuid.UUID, uuid.UUID, postDto.CreateCommentRequest) (*postDto.CommentResponse, error) {
	return &postDto.CommentResponse{ID: uuid.New()}, nil
}

func (s *stubService) ListComments(context.Context, uuid.UUID, *uuid.UUID) ([]postDto.CommentResponse, error) {
	return []postDto.CommentResponse{}, nil
}

func (s *stubService) DeleteComment(context.Context, uuid.UUID, uuid.UUID) error { return nil }

func setupRouter(svc *stubService, authenticated bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewPostHandler(svc)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if authenticated {
			c.Set("user_id", uuid.NewString())
		}
		c.Next()
	})
	r.POST("/api/posts", h.CreatePost)
	r.GET("/api/posts", h.GetFeed)
	r.GET("/api/posts/:id", h.GetPost)
	r.PUT("/api/posts/:id", h.UpdatePost)
	r.POST("/api/posts/:id/comments", h.AddComment)
	return r
}

func send(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestCreatePost(t *testing.T) {
	r := setupRouter(&stubService{}, true)
	w := send(r, http.MethodPost, "/api/posts", `{"content":"oi"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"content":"oi"`)
}

func TestCreatePost_Validation(t *testing.T) {
	r := setupRouter(&stubService{}, true)
	assert.Equal(t, http.StatusBadRequest, send(r, http.MethodPost, "/api/posts", `{}`).Code)
	assert.Equal(t, http.StatusBadRequest, send(r, http.MethodPost, "/api/posts", `{"content":"x","activity_log_id":"nope"}`).Code)
}

func TestCreatePost_Unauthenticated(t *testing.T) {
	r := setupRouter(&stubService{}, false)
	assert.Equal(t, http.StatusUnauthorized, send(r, http.MethodPost, "/api/posts", `{"content":"oi"}`).Code)
}

func TestCreatePost_RateLimited(t *testing.T) {
	svc := &stubService{createErr: &ratelimiter.RateLimitError{Message: "slow down", RetryAfter: 12 * time.Second}}
	r := setupRouter(svc, true)

	w := send(r, http.MethodPost, "/api/posts", `{"content":"oi"}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "12", w.Header().Get("Retry-After"))
}

func TestGetFeed_AnonymousViewer(t *testing.T) {
	svc := &stubService{}
	r := setupRouter(svc, false)

	w := send(r, http.MethodGet, "/api/posts", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, svc.viewer)
}

func TestPostErrors(t *testing.T) {
	r := setupRouter(&stubService{}, true)

	assert.Equal(t, http.StatusBadRequest, send(r, http.MethodGet, "/api/posts/123", "").Code)
	assert.Equal(t, http.StatusNotFound, send(r, http.MethodGet, "/api/posts/"+uuid.NewString(), "").Code)
	assert.Equal(t, http.StatusForbidden, send(r, http.MethodPut, "/api/posts/"+uuid.NewString(), `{"content":"x"}`).Code)
	assert.Equal(t, http.StatusCreated, send(r, http.MethodPost, "/api/posts/"+uuid.NewString()+"/comments", `{"content":"x"}`).Code)
}
