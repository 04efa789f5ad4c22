package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hinsy/accounts-service/internal/dto"
	"github.com/hinsy/accounts-service/internal/response"
	"github.com/hinsy/accounts-service/internal/service"
	ctxutil "github.com/hinsy/accounts-service/pkg/context"
	"github.com/hinsy/accounts-service/pkg/logger"
	"github.com/hinsy/accounts-service/pkg/storage"
)

type ProfileHandler struct {
	authService *service.AuthService
	avatars     *storage.AvatarStore
}

func NewProfileHandler(authService *service.AuthService, avatars *storage.AvatarStore) *ProfileHandler {
	return &ProfileHandler{authService: authService, avatars: avatars}
}

// Update handles the multipart profile form for the authenticated user. A
// new avatar displaces the previous file.
func (h *ProfileHandler) Update(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "UpdateProfile")

	var req dto.UpdateProfileRequest
	if err := c.ShouldBind(&req); err != nil {
		respondBindError(c, err)
		return
	}

	avatar := ""
	if file, err := c.FormFile("avatar"); err == nil {
		saved, err := h.avatars.Save(c, file)
		if err != nil {
			logger.WarnWithContext(ctx, "Avatar upload rejected").
				Err(err).
				Log()
			c.JSON(http.StatusUnprocessableEntity, response.FailWithErrors("The given data was invalid", []string{err.Error()}))
			return
		}
		avatar = saved
	}

	resp, oldAvatar, err := h.authService.UpdateProfile(ctx, currentUserID(c), req, avatar)
	if err != nil {
		if avatar != "" {
			h.avatars.Delete(avatar)
		}
		respondError(c, ctx, err)
		return
	}
	if oldAvatar != "" {
		h.avatars.Delete(oldAvatar)
	}
	resp.Avatar = h.avatars.URL(resp.Avatar)

	c.JSON(http.StatusOK, response.Success("Profile updated successfully", resp))
}

// UpdatePassword rotates the authenticated user's password.
func (h *ProfileHandler) UpdatePassword(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "UpdatePassword")

	var req dto.UpdatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.authService.UpdatePassword(ctx, currentUserID(c), req); err != nil {
		respondError(c, ctx, err)
		return
	}

	c.JSON(http.StatusOK, response.Success("Password updated successfully", nil))
}
