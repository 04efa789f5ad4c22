package database

import (
	"errors"

	"github.com/hinsy/accounts-service/internal/constants"
	"github.com/hinsy/accounts-service/internal/model"
	"github.com/hinsy/accounts-service/internal/security"
	"gorm.io/gorm"
)

// DefaultUser describes one seeded account.
type DefaultUser struct {
	FirstName string
	LastName  string
	Username  string
	Email     string
	Password  string
	Role      string
}

// DefaultUsers returns the accounts created on first boot. Passwords are
// development defaults, rotate them in production.
func DefaultUsers() []DefaultUser {
	return []DefaultUser{
		{
			FirstName: "Admin",
			LastName:  "Account",
			Username:  "admin",
			Email:     "admin@gmail.com",
			Password:  "11223344Aa!@#",
			Role:      constants.RoleAdmin,
		},
		{
			FirstName: "User",
			LastName:  "Account",
			Username:  "user",
			Email:     "user@gmail.com",
			Password:  "11223344Aa!@#",
			Role:      constants.RoleUser,
		},
	}
}

// Seed creates the baseline roles and default accounts. It is idempotent;
// existing rows are left untouched.
func Seed(db *gorm.DB) error {
	if err := seedRoles(db); err != nil {
		return err
	}
	return seedUsers(db)
}

func seedRoles(db *gorm.DB) error {
	for _, name := range []string{constants.RoleAdmin, constants.RoleUser} {
		var existing model.Role
		result := db.Where("name = ?", name).First(&existing)
		if result.Error == nil {
			continue
		}
		if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return result.Error
		}

		if err := db.Create(&model.Role{Name: name}).Error; err != nil {
			return err
		}
	}
	return nil
}

func seedUsers(db *gorm.DB) error {
	for _, seed := range DefaultUsers() {
		var existing model.User
		result := db.Where("email = ?", seed.Email).First(&existing)
		if result.Error == nil {
			continue
		}
		if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return result.Error
		}

		var role model.Role
		if err := db.Where("name = ?", seed.Role).First(&role).Error; err != nil {
			return err
		}

		hashed, err := security.HashPassword(seed.Password)
		if err != nil {
			return err
		}

		user := model.User{
			FirstName: seed.FirstName,
			LastName:  seed.LastName,
			Username:  seed.Username,
			Email:     seed.Email,
			Password:  hashed,
			IsActive:  true,
			Roles:     []model.Role{role},
		}

		if err := db.Create(&user).Error; err != nil {
			return err
		}
	}
	return nil
}
