package post

import (
	"context"

	"anoa.com/fitsquad/internal/entity"
	postDto "anoa.com/fitsquad/internal/modules/post/dto"
	"anoa.com/fitsquad/pkg/dto"
	"github.com/google/uuid"
)

func authorOf(user entity.User) dto.AuthorResponse {
	if user.ID == uuid.Nil {
		return dto.AuthorResponse{Username: "Unknown"}
	}
	return dto.AuthorResponse{
		ID:        user.ID.String(),
		Username:  user.Username,
		AvatarURL: user.AvatarURL,
	}
}

func (s *postService) mapToResponse(ctx context.Context, post *entity.Post, viewerID *uuid.UUID, comments int64) (*postDto.PostResponse, error) {
	reactions, err := s.reactionService.GetReactions(ctx, viewerID, post.ID, entity.ReferencePost)
	if err != nil {
		return nil, err
	}

	return &postDto.PostResponse{
		ID:            post.ID,
		Author:        authorOf(post.User),
		ActivityLogID: post.ActivityLogID,
		Content:       post.Content,
		ContentHTML:   post.ContentHTML,
		Reactions:     *reactions,
		CommentsCount: comments,
		CreatedAt:     post.CreatedAt,
		UpdatedAt:     post.UpdatedAt,
	}, nil
}

func (s *postService) mapCommentToResponse(ctx context.Context, comment *entity.Comment, viewerID *uuid.UUID) (*postDto.CommentResponse, error) {
	reactions, err := s.reactionService.GetReactions(ctx, viewerID, comment.ID, entity.ReferenceComment)
	if err != nil {
		return nil, err
	}

	return &postDto.CommentResponse{
		ID:        comment.ID,
		PostID:    comment.PostID,
		Author:    authorOf(comment.User),
		Content:   comment.Content,
		Reactions: *reactions,
		CreatedAt: comment.CreatedAt,
	}, nil
}
