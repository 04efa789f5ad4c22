package model

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	FirstName       string     `gorm:"column:first_name;not null"`
	LastName        string     `gorm:"column:last_name;not null"`
	Username        string     `gorm:"column:username;size:50;uniqueIndex;not null"`
	Email           string     `gorm:"column:email;uniqueIndex;not null"`
	Phone           string     `gorm:"column:phone;size:20"`
	Password        string     `gorm:"column:password;not null"`
	Avatar          string     `gorm:"column:avatar"`
	IsActive        bool       `gorm:"column:is_active;default:true;not null"`
	EmailVerifiedAt *time.Time `gorm:"column:email_verified_at"`
	Roles           []Role     `gorm:"many2many:user_roles"`
}

// HasRole reports whether the user carries the named role. Membership is a
// flat set check, roles do not inherit from each other.
func (u *User) HasRole(name string) bool {
	for _, role := range u.Roles {
		if role.Name == name {
			return true
		}
	}
	return false
}

// RoleNames returns the names of all roles assigned to the user.
func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, role := range u.Roles {
		names = append(names, role.Name)
	}
	return names
}
