// Command devtoken prints a bearer token for a seeded user, for local testing.
package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"anoa.com/fitsquad/internal/config"
	"anoa.com/fitsquad/internal/middleware"
	userRepo "anoa.com/fitsquad/internal/modules/user/repository"
	"anoa.com/fitsquad/pkg/database"
	"anoa.com/fitsquad/pkg/logger"
)

func main() {
	username := flag.String("user", "ana", "username to sign for")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	log := logger.New("info")
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load config")
	}
	if cfg.AppEnv == "production" {
		log.Fatal("devtoken refuses to run in production")
	}

	db, err := database.Connect(database.Options{
		Host:     cfg.DBHost,
		User:     cfg.DBUser,
		Password: cfg.DBPass,
		Name:     cfg.DBName,
		Port:     cfg.DBPort,
	})
	if err != nil {
		log.WithError(err).Fatal("database connection failed")
	}

	user, err := userRepo.NewUserRepository(db).FindByUsername(context.Background(), *username)
	if err != nil {
		log.WithError(err).WithField("username", *username).Fatal("user lookup failed")
	}

	token, err := middleware.IssueToken(cfg.JWTSecret, user.ID, *ttl)
	if err != nil {
		log.WithError(err).Fatal("failed to sign token")
	}
	fmt.Println(token)
}
