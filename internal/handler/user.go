package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/hinsy/accounts-service/internal/constants"
	"github.com/hinsy/accounts-service/internal/dto"
	"github.com/hinsy/accounts-service/internal/repository"
	"github.com/hinsy/accounts-service/internal/response"
	"github.com/hinsy/accounts-service/internal/service"
	ctxutil "github.com/hinsy/accounts-service/pkg/context"
	"github.com/hinsy/accounts-service/pkg/logger"
	"github.com/hinsy/accounts-service/pkg/storage"
)

// userSortable whitelists the columns the list endpoint may sort by.
var userSortable = []string{"id", "first_name", "last_name", "username", "email", "created_at", "updated_at"}

type UserHandler struct {
	userService *service.UserService
	avatars     *storage.AvatarStore
}

func NewUserHandler(userService *service.UserService, avatars *storage.AvatarStore) *UserHandler {
	return &UserHandler{userService: userService, avatars: avatars}
}

// List returns a paginated, filterable page of users.
func (h *UserHandler) List(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "ListUsers")

	params := constants.ParsePaginationParams(c, userSortable)
	filter := repository.UserFilter{
		RoleIDs: dto.ParseRoleIDs(c.Query(constants.QueryParamRoleIDs)),
	}
	if raw := c.Query(constants.QueryParamActive); raw != "" {
		if active, err := strconv.ParseBool(raw); err == nil {
			filter.IsActive = &active
		}
	}

	logger.InfoWithContext(ctx, "List users request").
		Int("page", params.Page).
		Int("size", params.Size).
		String("search", params.Search).
		Log()

	users, total, err := h.userService.List(ctx, params, filter)
	if err != nil {
		respondError(c, ctx, err)
		return
	}
	h.resolveAvatarURLs(users)

	pagination := response.NewPagination(total, params.Page, params.Size, len(users))
	c.JSON(http.StatusOK, response.Paginated("Users fetched successfully", users, pagination))
}

func (h *UserHandler) GetByID(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "GetUser")

	id, ok := pathID(c)
	if !ok {
		return
	}

	user, err := h.userService.GetByID(ctx, id)
	if err != nil {
		respondError(c, ctx, err)
		return
	}
	user.Avatar = h.avatars.URL(user.Avatar)

	c.JSON(http.StatusOK, response.Success("User fetched successfully", user))
}

// Create handles the admin multipart user form.
func (h *UserHandler) Create(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "CreateUser")

	var req dto.CreateUserRequest
	if err := c.ShouldBind(&req); err != nil {
		respondBindError(c, err)
		return
	}

	avatar := ""
	if file, err := c.FormFile("avatar"); err == nil {
		saved, err := h.avatars.Save(c, file)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, response.FailWithErrors("The given data was invalid", []string{err.Error()}))
			return
		}
		avatar = saved
	}

	user, err := h.userService.Create(ctx, req, dto.ParseRoleIDs(req.RoleIDs), avatar)
	if err != nil {
		if avatar != "" {
			h.avatars.Delete(avatar)
		}
		respondError(c, ctx, err)
		return
	}
	user.Avatar = h.avatars.URL(user.Avatar)

	c.JSON(http.StatusCreated, response.Success("User created successfully", user))
}

// Update handles the admin partial-update form. Only fields present in the
// form change; role_ids, when present, replaces the whole role set.
func (h *UserHandler) Update(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "UpdateUser")

	id, ok := pathID(c)
	if !ok {
		return
	}

	var req dto.UpdateUserRequest
	if err := c.ShouldBind(&req); err != nil {
		respondBindError(c, err)
		return
	}

	avatar := ""
	if file, err := c.FormFile("avatar"); err == nil {
		saved, err := h.avatars.Save(c, file)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, response.FailWithErrors("The given data was invalid", []string{err.Error()}))
			return
		}
		avatar = saved
	}

	var roleIDs []uint
	if req.RoleIDs != nil {
		roleIDs = dto.ParseRoleIDs(*req.RoleIDs)
		if roleIDs == nil {
			roleIDs = []uint{}
		}
	}

	user, oldAvatar, err := h.userService.Update(ctx, id, req, roleIDs, avatar)
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
	user.Avatar = h.avatars.URL(user.Avatar)

	c.JSON(http.StatusOK, response.Success("User updated successfully", user))
}

// Delete removes a user, their tokens and their avatar file.
func (h *UserHandler) Delete(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "DeleteUser")

	id, ok := pathID(c)
	if !ok {
		return
	}

	avatar, err := h.userService.Delete(ctx, id, currentUserID(c))
	if err != nil {
		respondError(c, ctx, err)
		return
	}
	if avatar != "" {
		h.avatars.Delete(avatar)
	}

	c.JSON(http.StatusOK, response.Success("User deleted successfully", nil))
}

func (h *UserHandler) resolveAvatarURLs(users []dto.UserResponse) {
	for i := range users {
		users[i].Avatar = h.avatars.URL(users[i].Avatar)
	}
}
