package bootstrap

import (
	"anoa.com/fitsquad/internal/entity"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Models lists every table the service owns, in migration order.
func Models() []any {
	return []any{
		&entity.Role{},
		&entity.User{},
		&entity.ActivityLog{},
		&entity.UserStats{},
		&entity.UnlockedBadge{},
		&entity.Goal{},
		&entity.ProgressPhoto{},
		&entity.WorkoutTemplate{},
		&entity.Post{},
		&entity.Comment{},
		&entity.Reaction{},
		&entity.Notification{},
		&entity.Group{},
		&entity.GroupMember{},
	}
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}

func SeedRoles(db *gorm.DB) error {
	defaultRoles := []entity.Role{
		{Name: entity.RoleAdmin, Description: "Administrator"},
		{Name: entity.RoleMember, Description: "Member"},
	}

	for _, role := range defaultRoles {
		var count int64
		if err := db.Model(&entity.Role{}).
			Where("name = ?", role.Name).
			Count(&count).Error; err != nil {
			return err
		}

		if count == 0 {
			if err := db.Create(&role).Error; err != nil {
				return err
			}
		}
	}

	return nil
}

type seedUser struct {
	username    string
	displayName string
	email       string
	password    string
	role        string
}

var devUsers = []seedUser{
	{"admin", "Administrator", "admin@fitsquad.local", "admin123", entity.RoleAdmin},
	{"ana", "Ana Souza", "ana@fitsquad.local", "member123", entity.RoleMember},
	{"bruno", "Bruno Lima", "bruno@fitsquad.local", "member123", entity.RoleMember},
}

// SeedDevUsers creates the development accounts once. Skipped in production.
func SeedDevUsers(db *gorm.DB, log logrus.FieldLogger) error {
	for _, u := range devUsers {
		var role entity.Role
		if err := db.Where("name = ?", u.role).First(&role).Error; err != nil {
			return err
		}

		var count int64
		if err := db.Model(&entity.User{}).
			Where("email = ?", u.email).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}

		user := entity.User{
			Username:     u.username,
			DisplayName:  u.displayName,
			Email:        u.email,
			PasswordHash: string(hashed),
			RoleID:       &role.ID,
		}
		if err := db.Create(&user).Error; err != nil {
			return err
		}

		log.WithFields(logrus.Fields{"email": u.email, "role": u.role}).Info("✅ seeded user")
	}

	return nil
}

func Seed(db *gorm.DB, env string, log logrus.FieldLogger) error {
	if err := SeedRoles(db); err != nil {
		return err
	}
	if env == "production" {
		return nil
	}
	return SeedDevUsers(db, log)
}
