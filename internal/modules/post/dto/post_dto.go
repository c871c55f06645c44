package dto

import (
	"time"

	commonDto "anoa.com/fitsquad/pkg/dto"
	"github.com/google/uuid"
)

type CreatePostRequest struct {
	Content       string `json:"content" binding:"required,max=5000"`
	ActivityLogID string `json:"activity_log_id" binding:"omitempty,uuid"`
}

type UpdatePostRequest struct {
	Content string `json:"content" binding:"required,max=5000"`
}

type CreateCommentRequest struct {
	Content string `json:"content" binding:"required,max=1000"`
}

type PostResponse struct {
	ID            uuid.UUID                   `json:"id"`
	Author        commonDto.AuthorResponse    `json:"author"`
	ActivityLogID *uuid.UUID                  `json:"activity_log_id,omitempty"`
	Content       string                      `json:"content"`
	ContentHTML   string                      `json:"content_html"`
	Reactions     commonDto.ReactionsResponse `json:"reactions"`
	CommentsCount int64                       `json:"comments_count"`
	CreatedAt     time.Time                   `json:"created_at"`
	UpdatedAt     time.Time                   `json:"updated_at"`
}

type CommentResponse struct {
	ID        uuid.UUID                   `json:"id"`
	PostID    uuid.UUID                   `json:"post_id"`
	Author    commonDto.AuthorResponse    `json:"author"`
	Content   string                      `json:"content"`
	Reactions commonDto.ReactionsResponse `json:"reactions"`
	CreatedAt time.Time                   `json:"created_at"`
}

type PaginatedPostResponse struct {
	Data []PostResponse           `json:"data"`
	Meta commonDto.PaginationMeta `json:"meta"`
}
