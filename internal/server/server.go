package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"anoa.com/fitsquad/internal/config"
	"anoa.com/fitsquad/internal/events"
	"anoa.com/fitsquad/internal/middleware"
	"anoa.com/fitsquad/internal/scheduler"
	"anoa.com/fitsquad/internal/search"
	"anoa.com/fitsquad/pkg/ratelimiter"
	"anoa.com/fitsquad/pkg/storage"

	activityHttp "anoa.com/fitsquad/internal/modules/activity/delivery/http"
	activityRepo "anoa.com/fitsquad/internal/modules/activity/repository"
	activityService "anoa.com/fitsquad/internal/modules/activity/service"

	adminHttp "anoa.com/fitsquad/internal/modules/admin/delivery/http"

	badgeHttp "anoa.com/fitsquad/internal/modules/badge/delivery/http"
	badgeRepo "anoa.com/fitsquad/internal/modules/badge/repository"
	badgeService "anoa.com/fitsquad/internal/modules/badge/service"

	gamification "anoa.com/fitsquad/internal/modules/gamification/service"

	goalHttp "anoa.com/fitsquad/internal/modules/goal/delivery/http"
	goalRepo "anoa.com/fitsquad/internal/modules/goal/repository"
	goalService "anoa.com/fitsquad/internal/modules/goal/service"

	groupHttp "anoa.com/fitsquad/internal/modules/group/delivery/http"
	groupRepo "anoa.com/fitsquad/internal/modules/group/repository"
	groupService "anoa.com/fitsquad/internal/modules/group/service"

	leaderboardHttp "anoa.com/fitsquad/internal/modules/leaderboard/delivery/http"
	leaderboardRepo "anoa.com/fitsquad/internal/modules/leaderboard/repository"
	leaderboardService "anoa.com/fitsquad/internal/modules/leaderboard/service"

	notiHttp "anoa.com/fitsquad/internal/modules/notification/delivery/http"
	notifRepo "anoa.com/fitsquad/internal/modules/notification/repository"
	notifService "anoa.com/fitsquad/internal/modules/notification/service"

	photoHttp "anoa.com/fitsquad/internal/modules/photo/delivery/http"
	photoRepo "anoa.com/fitsquad/internal/modules/photo/repository"
	photoService "anoa.com/fitsquad/internal/modules/photo/service"

	postHttp "anoa.com/fitsquad/internal/modules/post/delivery/http"
	postRepo "anoa.com/fitsquad/internal/modules/post/repository"
	postService "anoa.com/fitsquad/internal/modules/post/service"

	profileHttp "anoa.com/fitsquad/internal/modules/profile/delivery/http"
	profileService "anoa.com/fitsquad/internal/modules/profile/service"

	reactionHttp "anoa.com/fitsquad/internal/modules/reaction/delivery/http"
	reactionRepo "anoa.com/fitsquad/internal/modules/reaction/repository"
	reactionService "anoa.com/fitsquad/internal/modules/reaction/service"

	statHttp "anoa.com/fitsquad/internal/modules/stat/delivery/http"
	statService "anoa.com/fitsquad/internal/modules/stat/service"

	syncHttp "anoa.com/fitsquad/internal/modules/sync/delivery/http"
	"anoa.com/fitsquad/internal/modules/sync/reconciler"
	"anoa.com/fitsquad/internal/modules/sync/remote"
	"anoa.com/fitsquad/internal/modules/sync/store"

	templateHttp "anoa.com/fitsquad/internal/modules/template/delivery/http"
	templateRepo "anoa.com/fitsquad/internal/modules/template/repository"
	templateService "anoa.com/fitsquad/internal/modules/template/service"

	userRepo "anoa.com/fitsquad/internal/modules/user/repository"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/meilisearch/meilisearch-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const jobTimeout = 10 * time.Minute

type Server struct {
	engine      *gin.Engine
	httpServer  *http.Server
	db          *gorm.DB
	redisClient *redis.Client
	reconciler  *reconciler.Reconciler
	scheduler   *scheduler.Scheduler
	publisher   events.Publisher
	log         logrus.FieldLogger
}

func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, log logrus.FieldLogger) (*Server, error) {
	userRepo := userRepo.NewUserRepository(db)
	imageStorage, err := storage.NewCloudinaryStorage(storage.CloudinaryOptions{
		URL:          cfg.CloudinaryURL,
		CloudName:    cfg.CloudinaryCloudName,
		APIKey:       cfg.CloudinaryAPIKey,
		APISecret:    cfg.CloudinaryAPISecret,
		UploadFolder: cfg.CloudinaryUploadFolder,
	})
	if err != nil {
		return nil, err
	}

	publisher := events.New(cfg.KafkaBrokers, cfg.KafkaTopic)

	// Local buffer: Redis when configured, process memory otherwise.
	var local store.LocalStore = store.NewMemoryStore()
	if redisClient != nil {
		local = store.NewRedisStore(redisClient)
	}
	rec := reconciler.New(local, remote.NewGormStore(db), publisher, log, reconciler.Options{LockTTL: cfg.SyncLockTTL})
	probe := reconciler.NewConnectivityProbe(rec, log)

	var templateIndex search.TemplateIndex = search.NopIndex{}
	if cfg.MeiliSearchHost != "" {
		meiliClient := meilisearch.New(meiliHost(cfg.MeiliSearchHost), meilisearch.WithAPIKey(cfg.MeiliMasterKey))
		templateIndex = search.NewMeiliTemplateIndex(meiliClient, log)
	}

	// Notification Module
	notificationRepository := notifRepo.NewNotificationRepository(db)
	notificationSvc := notifService.NewNotificationService(notificationRepository, redisClient, log)
	notificationHandler := notiHttp.NewNotificationHandler(notificationSvc, redisClient, cfg.AllowedOrigins, log)

	leaderboardRepository := leaderboardRepo.NewLeaderboardRepository(db)
	leaderboardSvc := leaderboardService.NewLeaderboardService(
		leaderboardRepository,
		gamification.LevelModel{BasePoints: cfg.LevelBasePoints},
		notificationSvc,
		publisher,
		log,
	)
	leaderboardHandler := leaderboardHttp.NewLeaderboardHandler(leaderboardSvc)

	badgeSvc := badgeService.NewBadgeService(
		badgeRepo.NewBadgeRepository(rec),
		badgeService.NewEngine(badgeService.DefaultCatalog(), log),
		notificationSvc,
		publisher,
		cfg.Timezone,
		log,
	)
	badgeHandler := badgeHttp.NewBadgeHandler(badgeSvc)

	// Pushed workouts change points; goals, photos and templates feed badge counters.
	rec.OnPushed(store.KindActivityLogs, func(ctx context.Context, userID uuid.UUID, _ []store.Record) error {
		_, err := leaderboardSvc.RefreshUser(ctx, userID)
		return err
	})
	for _, kind := range []store.Kind{store.KindGoals, store.KindPhotos, store.KindTemplates} {
		rec.OnPushed(kind, func(ctx context.Context, userID uuid.UUID, _ []store.Record) error {
			_, err := badgeSvc.Evaluate(ctx, userID)
			return err
		})
	}

	activityRepository := activityRepo.NewActivityRepository(rec)
	activitySvc := activityService.NewActivityService(
		activityRepository,
		gamification.NewCalculator(cfg.ActivityMultipliers, log),
		badgeSvc,
		rec,
		publisher,
		log,
	)
	activityHandler := activityHttp.NewActivityHandler(activitySvc)

	goalSvc := goalService.NewGoalService(goalRepo.NewGoalRepository(rec), notificationSvc, rec, publisher, log)
	goalHandler := goalHttp.NewGoalHandler(goalSvc)

	photoSvc := photoService.NewPhotoService(photoRepo.NewPhotoRepository(rec), imageStorage, rec, log)
	photoHandler := photoHttp.NewPhotoHandler(photoSvc)

	templateSvc := templateService.NewTemplateService(templateRepo.NewTemplateRepository(rec), templateIndex, activitySvc, rec, log)
	templateHandler := templateHttp.NewTemplateHandler(templateSvc)

	reactionSvc := reactionService.NewReactionService(reactionRepo.NewReactionRepository(db), redisClient, leaderboardSvc, notificationSvc, log)
	reactionHandler := reactionHttp.NewReactionHandler(reactionSvc)

	var limiter *ratelimiter.Limiter
	if redisClient != nil {
		limiter = ratelimiter.New(redisClient)
	}
	postSvc := postService.NewPostService(
		postRepo.NewPostRepository(db),
		userRepo,
		activityRepository,
		reactionSvc,
		leaderboardSvc,
		notificationSvc,
		limiter,
		postService.Cooldowns{Global: cfg.RateLimitGlobal, Post: cfg.RateLimitPost, Comment: cfg.RateLimitComment},
		log,
	)
	postHandler := postHttp.NewPostHandler(postSvc)

	profileSvc := profileService.NewProfileService(userRepo, imageStorage, leaderboardSvc, badgeSvc, log)
	profileHandler := profileHttp.NewProfileHandler(profileSvc)

	groupSvc := groupService.NewGroupService(groupRepo.NewGroupRepository(db), leaderboardSvc, log)
	groupHandler := groupHttp.NewGroupHandler(groupSvc)

	statSvc := statService.NewStatService(userRepo, leaderboardRepository)
	statHandler := statHttp.NewStatHandler(statSvc)

	syncHandler := syncHttp.NewSyncHandler(rec)

	jobs := scheduler.New(jobTimeout, log)
	for _, job := range []scheduler.Job{
		scheduler.SyncPendingJob(cfg.SyncSchedule, rec, log),
		scheduler.RecomputeRankingsJob(cfg.RankRecomputeSchedule, leaderboardSvc, log),
		scheduler.ConnectivityProbeJob(cfg.ConnectivityProbeInterval, probe),
	} {
		if err := jobs.Register(job); err != nil {
			return nil, err
		}
	}
	adminHandler := adminHttp.NewAdminHandler(jobs, log)

	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	setupCORS(router, cfg.AllowedOrigins)

	router.Use(gin.Recovery())
	router.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "remote_online": probe.Online()})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authMiddleware := middleware.NewAuthMiddleware(userRepo, cfg.JWTSecret)

	api := router.Group("/api")

	// Protected routes (apply auth middleware explicitly)
	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		// Admin routes
		adminGroup := protected.Group("/admin")
		adminGroup.Use(authMiddleware.RequireAdmin())
		{
			adminGroup.POST("/rankings/recompute", leaderboardHandler.Recompute)
			adminGroup.GET("/jobs", adminHandler.ListJobs)
			adminGroup.POST("/jobs/:name/run", adminHandler.RunJob)
		}

		// Workouts
		protected.POST("/activities", activityHandler.LogActivity)
		protected.GET("/activities", activityHandler.ListActivities)
		protected.GET("/activities/types", activityHandler.ListTypes)

		protected.POST("/goals", goalHandler.CreateGoal)
		protected.GET("/goals", goalHandler.ListGoals)
		protected.PUT("/goals/:id/progress", goalHandler.RecordProgress)

		protected.POST("/photos", photoHandler.UploadPhoto)
		protected.GET("/photos", photoHandler.ListPhotos)

		protected.POST("/templates", templateHandler.CreateTemplate)
		protected.GET("/templates", templateHandler.ListTemplates)
		protected.POST("/templates/:id/use", templateHandler.UseTemplate)

		// Sync
		protected.POST("/sync", syncHandler.TriggerSync)
		protected.GET("/sync/status", syncHandler.GetStatus)
		protected.GET("/sync/view/:kind", syncHandler.GetView)

		// Gamification
		protected.GET("/leaderboard", leaderboardHandler.GetLeaderboard)
		protected.GET("/leaderboard/nearby", leaderboardHandler.GetNearby)
		protected.GET("/stats/:user_id", leaderboardHandler.GetUserStats)
		protected.GET("/community/stats", statHandler.GetCommunityStats)
		protected.GET("/badges", badgeHandler.ListBadges)
		protected.POST("/badges/evaluate", badgeHandler.Evaluate)

		// Feed
		protected.POST("/posts", postHandler.CreatePost)
		protected.GET("/posts", postHandler.GetFeed)
		protected.GET("/posts/:id", postHandler.GetPost)
		protected.PUT("/posts/:id", postHandler.UpdatePost)
		protected.DELETE("/posts/:id", postHandler.DeletePost)
		protected.POST("/posts/:id/comments", postHandler.AddComment)
		protected.GET("/posts/:id/comments", postHandler.ListComments)
		protected.DELETE("/comments/:id", postHandler.DeleteComment)
		protected.GET("/users/:user_id/posts", postHandler.GetUserPosts)

		protected.POST("/reactions", reactionHandler.ToggleReaction)
		protected.GET("/reactions/:refType/:refID", reactionHandler.GetReactions)

		// Groups
		protected.POST("/groups", groupHandler.CreateGroup)
		protected.GET("/groups", groupHandler.ListMyGroups)
		protected.GET("/groups/:id", groupHandler.GetGroup)
		protected.POST("/groups/:id/join", groupHandler.JoinGroup)
		protected.POST("/groups/:id/leave", groupHandler.LeaveGroup)
		protected.GET("/groups/:id/leaderboard", groupHandler.GroupLeaderboard)

		// Profile routes
		protected.GET("/profile/me", profileHandler.GetCurrentProfile)
		protected.GET("/profile/:username", profileHandler.GetProfileByUsername)
		protected.PUT("/profile", profileHandler.UpdateProfile)

		// Notification routes
		protected.GET("/notifications", notificationHandler.GetNotifications)
		protected.GET("/notifications/unread-count", notificationHandler.UnreadCount)
		protected.PUT("/notifications/:id/read", notificationHandler.MarkAsRead)
		protected.PUT("/notifications/read-all", notificationHandler.MarkAllAsRead)
		protected.GET("/notifications/ws", notificationHandler.HandleWebSocket)
	}

	return &Server{
		engine:      router,
		db:          db,
		redisClient: redisClient,
		reconciler:  rec,
		scheduler:   jobs,
		publisher:   publisher,
		log:         log,
	}, nil
}

// Run starts the background jobs and serves HTTP until Shutdown is called.
func (s *Server) Run(addr string) error {
	s.scheduler.Start()

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.log.WithField("addr", addr).Info("HTTP server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains HTTP, stops the scheduler and waits for in-flight sync passes.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	s.scheduler.Stop()
	s.reconciler.Wait()
	if err := s.publisher.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func meiliHost(host string) string {
	if !strings.HasPrefix(host, "http") {
		return "http://" + host + ":7700"
	}
	return host
}

func setupCORS(router *gin.Engine, origins []string) {
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
