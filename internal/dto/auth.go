package dto

import "time"

type RegisterRequest struct {
	FirstName            string `form:"first_name" binding:"required,max=255"`
	LastName             string `form:"last_name" binding:"required,max=255"`
	Username             string `form:"username" binding:"required,max=50"`
	Email                string `form:"email" binding:"required,email"`
	Phone                string `form:"phone" binding:"omitempty,max=20"`
	Password             string `form:"password" binding:"required,min=8"`
	PasswordConfirmation string `form:"password_confirmation" binding:"required,eqfield=Password"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse is the profile shape returned by register, login and me.
// Token is only present on register and login.
type AuthResponse struct {
	ID        uint           `json:"id"`
	FirstName string         `json:"first_name"`
	LastName  string         `json:"last_name"`
	Username  string         `json:"username"`
	Avatar    string         `json:"avatar"`
	IsActive  bool           `json:"is_active"`
	Email     string         `json:"email"`
	Roles     []RoleResponse `json:"roles"`
	CreatedAt time.Time      `json:"created_at"`
	Token     string         `json:"token,omitempty"`
}
