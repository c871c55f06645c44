// Package testutil wires throwaway SQLite and Redis instances for package tests.
package testutil

import (
	"fmt"
	"strings"
	"testing"

	"anoa.com/fitsquad/internal/bootstrap"
	"anoa.com/fitsquad/internal/entity"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a private in-memory SQLite database with every table migrated.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// SQLite allows a single writer; concurrent sync passes queue on one connection.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, bootstrap.Migrate(db))
	require.NoError(t, bootstrap.SeedRoles(db))

	return db
}

// NewRedis starts a miniredis server and returns a client connected to it.
func NewRedis(t testing.TB) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return client, mr
}

// CreateUser inserts a member with the given username.
func CreateUser(t testing.TB, db *gorm.DB, username string) entity.User {
	t.Helper()

	user := entity.User{
		ID:           uuid.New(),
		Username:     username,
		DisplayName:  strings.ToUpper(username[:1]) + username[1:],
		Email:        username + "@example.com",
		PasswordHash: "x",
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}
