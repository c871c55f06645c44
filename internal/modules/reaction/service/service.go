package reaction

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"anoa.com/fitsquad/internal/entity"
	notifService "anoa.com/fitsquad/internal/modules/notification/service"
	reactionDto "anoa.com/fitsquad/internal/modules/reaction/dto"
	reactionRepo "anoa.com/fitsquad/internal/modules/reaction/repository"
	"anoa.com/fitsquad/pkg/dto"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const countsTTL = 7 * 24 * time.Hour

var referenceLabels = map[string]string{
	entity.ReferencePost:     "post",
	entity.ReferenceComment:  "comentário",
	entity.ReferenceActivity: "treino",
}

// StatsRefresher rebuilds a user's cached stats after their social counters change.
type StatsRefresher interface {
	RefreshUser(ctx context.Context, userID uuid.UUID) (*entity.UserStats, error)
}

type ReactionService interface {
	ToggleReaction(ctx context.Context, userID uuid.UUID, req reactionDto.ReactionToggleRequest) error
	GetReactions(ctx context.Context, userID *uuid.UUID, refID uuid.UUID, refType string) (*dto.ReactionsResponse, error)
}

type reactionService struct {
	repo                reactionRepo.ReactionRepository
	redisClient         *redis.Client
	stats               StatsRefresher
	notificationService notifService.NotificationService
	log                 logrus.FieldLogger
}

func NewReactionService(
	repo reactionRepo.ReactionRepository,
	redisClient *redis.Client,
	stats StatsRefresher,
	notificationService notifService.NotificationService,
	log logrus.FieldLogger,
) ReactionService {
	return &reactionService{
		repo:                repo,
		redisClient:         redisClient,
		stats:               stats,
		notificationService: notificationService,
		log:                 log,
	}
}

func countsKey(refType string, refID uuid.UUID) string {
	return fmt.Sprintf("counts:%s:%s", refType, refID.String())
}

func (s *reactionService) ToggleReaction(ctx context.Context, userID uuid.UUID, req reactionDto.ReactionToggleRequest) error {
	ownerID, err := s.repo.FindOwner(ctx, req.ReferenceType, req.ReferenceID)
	if err != nil {
		return err
	}

	reaction := &entity.Reaction{
		UserID:        userID,
		ReferenceID:   req.ReferenceID,
		ReferenceType: req.ReferenceType,
		Emoji:         req.Emoji,
	}

	oldEmoji, newEmoji, err := s.repo.ToggleReaction(ctx, reaction)
	if err != nil {
		return err
	}

	log := s.log.WithFields(logrus.Fields{
		"user_id":        userID,
		"reference_id":   req.ReferenceID,
		"reference_type": req.ReferenceType,
	})

	if s.redisClient != nil {
		key := countsKey(req.ReferenceType, req.ReferenceID)
		pipe := s.redisClient.Pipeline()
		if oldEmoji != "" {
			pipe.HIncrBy(ctx, key, oldEmoji, -1)
		}
		if newEmoji != "" {
			pipe.HIncrBy(ctx, key, newEmoji, 1)
		}
		// The database stays authoritative; a stale hash is rebuilt on the next miss.
		if _, err := pipe.Exec(ctx); err != nil {
			log.WithError(err).Warn("redis reaction update failed")
			s.redisClient.Del(ctx, key)
		}
	}

	if ownerID == userID {
		return nil
	}

	// Likes received on posts feed the author's social points.
	if req.ReferenceType == entity.ReferencePost && s.stats != nil && (oldEmoji == "") != (newEmoji == "") {
		if _, err := s.stats.RefreshUser(ctx, ownerID); err != nil {
			log.WithError(err).Warn("refresh author stats failed")
		}
	}

	if newEmoji != "" && oldEmoji == "" && s.notificationService != nil {
		actorID := userID
		notif := &entity.Notification{
			UserID:     ownerID,
			ActorID:    &actorID,
			EntityID:   req.ReferenceID.String(),
			EntityType: req.ReferenceType,
			Type:       entity.NotificationLike,
			Message:    fmt.Sprintf("Alguém reagiu com %s ao seu %s", req.Emoji, referenceLabels[req.ReferenceType]),
		}
		if err := s.notificationService.CreateNotification(ctx, notif); err != nil {
			log.WithError(err).Warn("create reaction notification failed")
		}
	}

	return nil
}

func (s *reactionService) GetReactions(ctx context.Context, userID *uuid.UUID, refID uuid.UUID, refType string) (*dto.ReactionsResponse, error) {
	counts, err := s.counts(ctx, refID, refType)
	if err != nil {
		return nil, err
	}

	var userReacted *string
	if userID != nil {
		reactions, err := s.repo.GetUserReactions(ctx, *userID, refID, refType)
		if err != nil {
			return nil, err
		}
		if len(reactions) > 0 {
			userReacted = &reactions[0]
		}
	}

	return &dto.ReactionsResponse{
		Counts:      counts,
		UserReacted: userReacted,
	}, nil
}

// counts reads the Redis hash and rebuilds it from the database on a miss.
func (s *reactionService) counts(ctx context.Context, refID uuid.UUID, refType string) (map[string]int64, error) {
	key := countsKey(refType, refID)
	counts := make(map[string]int64)

	if s.redisClient != nil {
		val, err := s.redisClient.HGetAll(ctx, key).Result()
		if err == nil && len(val) > 0 {
			for emoji, v := range val {
				n, _ := strconv.ParseInt(v, 10, 64)
				if n > 0 {
					counts[emoji] = n
				}
			}
			return counts, nil
		}
	}

	fromDB, err := s.repo.GetReactionsCount(ctx, refID, refType)
	if err != nil {
		return nil, err
	}
	for emoji, n := range fromDB {
		counts[emoji] = n
	}

	if s.redisClient != nil && len(counts) > 0 {
		pipe := s.redisClient.Pipeline()
		pipe.Del(ctx, key)
		for emoji, n := range counts {
			pipe.HSet(ctx, key, emoji, n)
		}
		pipe.Expire(ctx, key, countsTTL)
		if _, err := pipe.Exec(ctx); err != nil {
			s.log.WithError(err).WithField("key", key).Warn("repopulate reaction counts failed")
		}
	}

	return counts, nil
}
