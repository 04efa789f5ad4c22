package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hinsy/accounts-service/internal/constants"
	"github.com/hinsy/accounts-service/internal/dto"
	"github.com/hinsy/accounts-service/internal/response"
	"github.com/hinsy/accounts-service/internal/service"
	ctxutil "github.com/hinsy/accounts-service/pkg/context"
	"github.com/hinsy/accounts-service/pkg/logger"
	"github.com/hinsy/accounts-service/pkg/storage"
)

type AuthHandler struct {
	authService *service.AuthService
	avatars     *storage.AvatarStore
}

func NewAuthHandler(authService *service.AuthService, avatars *storage.AvatarStore) *AuthHandler {
	return &AuthHandler{authService: authService, avatars: avatars}
}

// Register handles the multipart self-registration form. An optional
// "avatar" file is stored before the account is created.
func (h *AuthHandler) Register(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "Register")

	var req dto.RegisterRequest
	if err := c.ShouldBind(&req); err != nil {
		logger.WarnWithContext(ctx, "Invalid register form").
			Err(err).
			Log()
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

	resp, err := h.authService.Register(ctx, req, avatar)
	if err != nil {
		// The row was never written, drop the orphaned upload.
		if avatar != "" {
			h.avatars.Delete(avatar)
		}
		respondError(c, ctx, err)
		return
	}
	resp.Avatar = h.avatars.URL(resp.Avatar)

	c.JSON(http.StatusCreated, response.Success("Registered successfully", resp))
}

// Login exchanges credentials for a fresh bearer token.
func (h *AuthHandler) Login(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "Login")

	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	resp, err := h.authService.Login(ctx, req)
	if err != nil {
		respondError(c, ctx, err)
		return
	}
	resp.Avatar = h.avatars.URL(resp.Avatar)

	c.JSON(http.StatusOK, response.Success("Logged in successfully", resp))
}

// Logout revokes the token that authenticated this request.
func (h *AuthHandler) Logout(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "Logout")

	plaintext := c.GetString(constants.GinKeyToken)
	if err := h.authService.Logout(ctx, plaintext); err != nil {
		respondError(c, ctx, err)
		return
	}

	c.JSON(http.StatusOK, response.Success("Logged out successfully", nil))
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "Me")

	resp, err := h.authService.Me(ctx, currentUserID(c))
	if err != nil {
		respondError(c, ctx, err)
		return
	}
	resp.Avatar = h.avatars.URL(resp.Avatar)

	c.JSON(http.StatusOK, response.Success("Profile fetched successfully", resp))
}
