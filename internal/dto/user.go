package dto

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

type CreateUserRequest struct {
	FirstName            string `form:"first_name" binding:"required,max=255"`
	LastName             string `form:"last_name" binding:"required,max=255"`
	Username             string `form:"username" binding:"required,max=50"`
	Email                string `form:"email" binding:"required,email"`
	Phone                string `form:"phone" binding:"omitempty,max=20"`
	Password             string `form:"password" binding:"required,min=8"`
	PasswordConfirmation string `form:"password_confirmation" binding:"required,eqfield=Password"`
	RoleIDs              string `form:"role_ids" binding:"omitempty"`
	IsActive             *bool  `form:"is_active" binding:"omitempty"`
}

// UpdateUserRequest carries the admin partial-update fields. Every field is
// optional; only fields present in the form reach storage.
type UpdateUserRequest struct {
	FirstName *string `form:"first_name" binding:"omitempty,max=255"`
	LastName  *string `form:"last_name" binding:"omitempty,max=255"`
	Username  *string `form:"username" binding:"omitempty,max=50"`
	Email     *string `form:"email" binding:"omitempty,email"`
	Phone     *string `form:"phone" binding:"omitempty,max=20"`
	Password  *string `form:"password" binding:"omitempty,min=6"`
	RoleIDs   *string `form:"role_ids" binding:"omitempty"`
	IsActive  *bool   `form:"is_active" binding:"omitempty"`
}

type UpdateProfileRequest struct {
	FirstName string  `form:"first_name" binding:"required,max=255"`
	LastName  string  `form:"last_name" binding:"required,max=255"`
	Email     *string `form:"email" binding:"omitempty,email"`
	Phone     *string `form:"phone" binding:"omitempty,max=20"`
}

type UpdatePasswordRequest struct {
	CurrentPassword    string `json:"current_password" binding:"required"`
	NewPassword        string `json:"new_password" binding:"required,min=8"`
	ConfirmNewPassword string `json:"confirm_new_password" binding:"required"`
}

type UserResponse struct {
	ID        uint           `json:"id"`
	FirstName string         `json:"first_name"`
	LastName  string         `json:"last_name"`
	Username  string         `json:"username"`
	Avatar    string         `json:"avatar"`
	Phone     string         `json:"phone,omitempty"`
	IsActive  bool           `json:"is_active"`
	Email     string         `json:"email"`
	Roles     []RoleResponse `json:"roles"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// ParseRoleIDs accepts the role_ids form value either as a JSON array
// ("[1,2]") or as a comma-separated list ("1,2") and returns the ids in
// order. Malformed entries are skipped.
func ParseRoleIDs(raw string) []uint {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var parsed []uint
	if strings.HasPrefix(raw, "[") {
		var ids []uint
		if err := json.Unmarshal([]byte(raw), &ids); err == nil {
			return ids
		}
	}

	for _, part := range strings.Split(raw, ",") {
		part = strings.Trim(strings.TrimSpace(part), "[]\"")
		if part == "" {
			continue
		}
		id, err := strconv.ParseUint(part, 10, 32)
		if err != nil {
			continue
		}
		parsed = append(parsed, uint(id))
	}
	return parsed
}
