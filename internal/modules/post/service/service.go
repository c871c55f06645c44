package post

import (
	"context"
	"fmt"
	"time"

	"anoa.com/fitsquad/internal/entity"
	notifService "anoa.com/fitsquad/internal/modules/notification/service"
	postDto "anoa.com/fitsquad/internal/modules/post/dto"
	postRepo "anoa.com/fitsquad/internal/modules/post/repository"
	reaction "anoa.com/fitsquad/internal/modules/reaction/service"
	"anoa.com/fitsquad/internal/modules/sync/store"
	userRepo "anoa.com/fitsquad/internal/modules/user/repository"
	"anoa.com/fitsquad/pkg/apperror"
	"anoa.com/fitsquad/pkg/dto"
	"anoa.com/fitsquad/pkg/markdown"
	"anoa.com/fitsquad/pkg/ratelimiter"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	actionGlobal  = "global"
	actionPost    = "post"
	actionComment = "comment"
)

// ActivityLister reads a user's effective workout view, buffered entries included.
type ActivityLister interface {
	List(ctx context.Context, userID uuid.UUID) ([]store.Record, error)
}

// Cooldowns are the per-user rate limits for feed writes.
type Cooldowns struct {
	Global  time.Duration
	Post    time.Duration
	Comment time.Duration
}

type PostService interface {
	CreatePost(ctx context.Context, userID uuid.UUID, req postDto.CreatePostRequest) (*postDto.PostResponse, error)
	GetFeed(ctx context.Context, viewerID *uuid.UUID, query dto.PaginationQuery) (*postDto.PaginatedPostResponse, error)
	GetUserPosts(ctx context.Context, authorID uuid.UUID, viewerID *uuid.UUID, query dto.PaginationQuery) (*postDto.PaginatedPostResponse, error)
	GetPostByID(ctx context.Context, postID uuid.UUID, viewerID *uuid.UUID) (*postDto.PostResponse, error)
	UpdatePost(ctx context.Context, userID, postID uuid.UUID, req postDto.UpdatePostRequest) (*postDto.PostResponse, error)
	DeletePost(ctx context.Context, userID, postID uuid.UUID) error

	AddComment(ctx context.Context, userID, postID uuid.UUID, req postDto.CreateCommentRequest) (*postDto.CommentResponse, error)
	ListComments(ctx context.Context, postID uuid.UUID, viewerID *uuid.UUID) ([]postDto.CommentResponse, error)
	DeleteComment(ctx context.Context, userID, commentID uuid.UUID) error
}

type postService struct {
	postRepo            postRepo.PostRepository
	userRepo            userRepo.UserRepository
	activities          ActivityLister
	reactionService     reaction.ReactionService
	stats               reaction.StatsRefresher
	notificationService notifService.NotificationService
	limiter             *ratelimiter.Limiter
	cooldowns           Cooldowns
	log                 logrus.FieldLogger
}

func NewPostService(
	postRepo postRepo.PostRepository,
	userRepo userRepo.UserRepository,
	activities ActivityLister,
	reactionService reaction.ReactionService,
	stats reaction.StatsRefresher,
	notificationService notifService.NotificationService,
	limiter *ratelimiter.Limiter,
	cooldowns Cooldowns,
	log logrus.FieldLogger,
) PostService {
	return &postService{
		postRepo:            postRepo,
		userRepo:            userRepo,
		activities:          activities,
		reactionService:     reactionService,
		stats:               stats,
		notificationService: notificationService,
		limiter:             limiter,
		cooldowns:           cooldowns,
		log:                 log,
	}
}

// acquire starts the global and the action cooldowns. The returned release
// drops both and must be called when the guarded write fails.
func (s *postService) acquire(ctx context.Context, userID uuid.UUID, action string, window time.Duration) (func(), error) {
	if err := s.limiter.Allow(ctx, userID, actionGlobal, s.cooldowns.Global); err != nil {
		return nil, err
	}
	if err := s.limiter.Allow(ctx, userID, action, window); err != nil {
		_ = s.limiter.Clear(ctx, userID, actionGlobal)
		return nil, err
	}
	return func() {
		_ = s.limiter.Clear(context.WithoutCancel(ctx), userID, actionGlobal)
		_ = s.limiter.Clear(context.WithoutCancel(ctx), userID, action)
	}, nil
}

func (s *postService) refreshStats(ctx context.Context, userID uuid.UUID) {
	if s.stats == nil {
		return
	}
	if _, err := s.stats.RefreshUser(ctx, userID); err != nil {
		s.log.WithError(err).WithField("user_id", userID).Warn("refresh stats failed")
	}
}

func (s *postService) CreatePost(ctx context.Context, userID uuid.UUID, req postDto.CreatePostRequest) (*postDto.PostResponse, error) {
	release, err := s.acquire(ctx, userID, actionPost, s.cooldowns.Post)
	if err != nil {
		return nil, err
	}
	creationFailed := true
	defer func() {
		if creationFailed {
			release()
		}
	}()

	post := &entity.Post{UserID: userID, Content: req.Content}

	if req.ActivityLogID != "" {
		activityID, err := uuid.Parse(req.ActivityLogID)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid activity id", apperror.ErrInvalidInput)
		}
		if err := s.ensureOwnActivity(ctx, userID, activityID); err != nil {
			return nil, err
		}
		post.ActivityLogID = &activityID
	}

	if post.ContentHTML, err = markdown.Render(req.Content); err != nil {
		return nil, fmt.Errorf("render post: %w", err)
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	creationFailed = false

	s.refreshStats(ctx, userID)
	s.log.WithFields(logrus.Fields{"user_id": userID, "post_id": post.ID}).Info("Post created")

	return s.GetPostByID(ctx, post.ID, &userID)
}

func (s *postService) ensureOwnActivity(ctx context.Context, userID, activityID uuid.UUID) error {
	records, err := s.activities.List(ctx, userID)
	if err != nil {
		return err
	}
	for _, rec := range records {
		if rec.ID == activityID.String() {
			return nil
		}
	}
	return fmt.Errorf("activity %s: %w", activityID, apperror.ErrNotFound)
}

func (s *postService) GetFeed(ctx context.Context, viewerID *uuid.UUID, query dto.PaginationQuery) (*postDto.PaginatedPostResponse, error) {
	return s.list(ctx, nil, viewerID, query)
}

func (s *postService) GetUserPosts(ctx context.Context, authorID uuid.UUID, viewerID *uuid.UUID, query dto.PaginationQuery) (*postDto.PaginatedPostResponse, error) {
	return s.list(ctx, &authorID, viewerID, query)
}

func (s *postService) list(ctx context.Context, authorID, viewerID *uuid.UUID, query dto.PaginationQuery) (*postDto.PaginatedPostResponse, error) {
	query.Normalize()

	posts, total, err := s.postRepo.List(ctx, authorID, query.Offset(), query.Limit)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	commentCounts, err := s.postRepo.CountComments(ctx, ids)
	if err != nil {
		return nil, err
	}

	data := make([]postDto.PostResponse, 0, len(posts))
	for _, p := range posts {
		resp, err := s.mapToResponse(ctx, p, viewerID, commentCounts[p.ID])
		if err != nil {
			return nil, err
		}
		data = append(data, *resp)
	}

	totalPages := int(total) / query.Limit
	if int(total)%query.Limit != 0 {
		totalPages++
	}

	return &postDto.PaginatedPostResponse{
		Data: data,
		Meta: dto.PaginationMeta{
			CurrentPage: query.Page,
			TotalPages:  totalPages,
			TotalItems:  total,
			Limit:       query.Limit,
		},
	}, nil
}

func (s *postService) GetPostByID(ctx context.Context, postID uuid.UUID, viewerID *uuid.UUID) (*postDto.PostResponse, error) {
	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	counts, err := s.postRepo.CountComments(ctx, []uuid.UUID{postID})
	if err != nil {
		return nil, err
	}
	return s.mapToResponse(ctx, post, viewerID, counts[postID])
}

func (s *postService) UpdatePost(ctx context.Context, userID, postID uuid.UUID, req postDto.UpdatePostRequest) (*postDto.PostResponse, error) {
	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.UserID != userID {
		return nil, fmt.Errorf("%w: you can only update your own post", apperror.ErrForbidden)
	}

	post.Content = req.Content
	if post.ContentHTML, err = markdown.Render(req.Content); err != nil {
		return nil, fmt.Errorf("render post: %w", err)
	}
	post.UpdatedAt = time.Now()
	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}

	return s.GetPostByID(ctx, postID, &userID)
}

func (s *postService) DeletePost(ctx context.Context, userID, postID uuid.UUID) error {
	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, userID, post.UserID); err != nil {
		return err
	}

	commenters := map[uuid.UUID]struct{}{}
	comments, err := s.postRepo.ListComments(ctx, postID)
	if err != nil {
		return err
	}
	for _, c := range comments {
		commenters[c.UserID] = struct{}{}
	}

	if err := s.postRepo.Delete(ctx, postID); err != nil {
		return err
	}

	s.refreshStats(ctx, post.UserID)
	for id := range commenters {
		if id != post.UserID {
			s.refreshStats(ctx, id)
		}
	}
	return nil
}

// authorize lets owners and admins remove content.
func (s *postService) authorize(ctx context.Context, actorID, ownerID uuid.UUID) error {
	if actorID == ownerID {
		return nil
	}
	actor, err := s.userRepo.FindByID(ctx, actorID)
	if err != nil {
		return err
	}
	if actor.Role.Name != entity.RoleAdmin {
		return fmt.Errorf("%w: you can only delete your own content unless you are an admin", apperror.ErrForbidden)
	}
	return nil
}

func (s *postService) AddComment(ctx context.Context, userID, postID uuid.UUID, req postDto.CreateCommentRequest) (*postDto.CommentResponse, error) {
	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	release, err := s.acquire(ctx, userID, actionComment, s.cooldowns.Comment)
	if err != nil {
		return nil, err
	}

	comment := &entity.Comment{PostID: postID, UserID: userID, Content: req.Content}
	if err := s.postRepo.CreateComment(ctx, comment); err != nil {
		release()
		return nil, err
	}

	s.refreshStats(ctx, userID)

	if post.UserID != userID && s.notificationService != nil {
		actorID := userID
		notif := &entity.Notification{
			UserID:     post.UserID,
			ActorID:    &actorID,
			EntityID:   post.ID.String(),
			EntityType: entity.ReferencePost,
			Type:       entity.NotificationComment,
			Message:    "Alguém comentou no seu post",
		}
		if err := s.notificationService.CreateNotification(ctx, notif); err != nil {
			s.log.WithError(err).WithField("post_id", post.ID).Warn("create comment notification failed")
		}
	}

	saved, err := s.postRepo.FindCommentByID(ctx, comment.ID)
	if err != nil {
		return nil, err
	}
	return s.mapCommentToResponse(ctx, saved, &userID)
}

func (s *postService) ListComments(ctx context.Context, postID uuid.UUID, viewerID *uuid.UUID) ([]postDto.CommentResponse, error) {
	if _, err := s.postRepo.FindByID(ctx, postID); err != nil {
		return nil, err
	}

	comments, err := s.postRepo.ListComments(ctx, postID)
	if err != nil {
		return nil, err
	}

	out := make([]postDto.CommentResponse, 0, len(comments))
	for _, c := range comments {
		resp, err := s.mapCommentToResponse(ctx, c, viewerID)
		if err != nil {
			return nil, err
		}
		out = append(out, *resp)
	}
	return out, nil
}

func (s *postService) DeleteComment(ctx context.Context, userID, commentID uuid.UUID) error {
	comment, err := s.postRepo.FindCommentByID(ctx, commentID)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, userID, comment.UserID); err != nil {
		return err
	}
	if err := s.postRepo.DeleteComment(ctx, commentID); err != nil {
		return err
	}
	s.refreshStats(ctx, comment.UserID)
	return nil
}
