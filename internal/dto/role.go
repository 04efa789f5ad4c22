package dto

import "time"

type CreateRoleRequest struct {
	Name string `json:"name" binding:"required,max=50"`
}

type UpdateRoleRequest struct {
	Name *string `json:"name" binding:"omitempty,max=50"`
}

type RoleResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
