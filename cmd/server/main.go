package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"anoa.com/fitsquad/internal/bootstrap"
	"anoa.com/fitsquad/internal/config"
	"anoa.com/fitsquad/internal/server"
	"anoa.com/fitsquad/pkg/database"
	"anoa.com/fitsquad/pkg/logger"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("info").WithError(err).Fatal("failed to load config")
	}
	log := logger.New(cfg.LogLevel)

	db, err := database.Connect(database.Options{
		Host:     cfg.DBHost,
		User:     cfg.DBUser,
		Password: cfg.DBPass,
		Name:     cfg.DBName,
		Port:     cfg.DBPort,
		Debug:    cfg.AppEnv == "development",
	})
	if err != nil {
		log.WithError(err).Fatal("database connection failed")
	}
	if err := bootstrap.Migrate(db); err != nil {
		log.WithError(err).Fatal("migration failed")
	}
	if err := bootstrap.Seed(db, cfg.AppEnv, log); err != nil {
		log.WithError(err).Fatal("seeding failed")
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.WithError(err).Fatal("invalid REDIS_URL")
		}
		redisClient = redis.NewClient(opts)
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.WithError(err).Warn("redis unreachable, continuing without cache and pub/sub")
			redisClient = nil
		}
	} else {
		log.Warn("REDIS_URL not set, buffering in memory")
	}

	srv, err := server.NewServer(cfg, db, redisClient, log)
	if err != nil {
		log.WithError(err).Fatal("failed to build server")
	}

	go func() {
		if err := srv.Run(":" + cfg.Port); err != nil {
			log.WithError(err).Fatal("server exited with error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("shutdown incomplete")
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
}
