package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hinsy/accounts-service/internal/constants"
	"github.com/hinsy/accounts-service/internal/dto"
	"github.com/hinsy/accounts-service/internal/response"
	"github.com/hinsy/accounts-service/internal/service"
	ctxutil "github.com/hinsy/accounts-service/pkg/context"
)

var roleSortable = []string{"id", "name", "created_at", "updated_at"}

type RoleHandler struct {
	roleService *service.RoleService
}

func NewRoleHandler(roleService *service.RoleService) *RoleHandler {
	return &RoleHandler{roleService: roleService}
}

func (h *RoleHandler) List(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "ListRoles")

	params := constants.ParsePaginationParams(c, roleSortable)

	roles, total, err := h.roleService.List(ctx, params)
	if err != nil {
		respondError(c, ctx, err)
		return
	}

	pagination := response.NewPagination(total, params.Page, params.Size, len(roles))
	c.JSON(http.StatusOK, response.Paginated("Roles fetched successfully", roles, pagination))
}

func (h *RoleHandler) GetByID(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "GetRole")

	id, ok := pathID(c)
	if !ok {
		return
	}

	role, err := h.roleService.GetByID(ctx, id)
	if err != nil {
		respondError(c, ctx, err)
		return
	}

	c.JSON(http.StatusOK, response.Success("Role fetched successfully", role))
}

func (h *RoleHandler) Create(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "CreateRole")

	var req dto.CreateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	role, err := h.roleService.Create(ctx, req)
	if err != nil {
		respondError(c, ctx, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success("Role created successfully", role))
}

func (h *RoleHandler) Update(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "UpdateRole")

	id, ok := pathID(c)
	if !ok {
		return
	}

	var req dto.UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	role, err := h.roleService.Update(ctx, id, req)
	if err != nil {
		respondError(c, ctx, err)
		return
	}

	c.JSON(http.StatusOK, response.Success("Role updated successfully", role))
}

func (h *RoleHandler) Delete(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "DeleteRole")

	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.roleService.Delete(ctx, id); err != nil {
		respondError(c, ctx, err)
		return
	}

	c.JSON(http.StatusOK, response.Success("Role deleted successfully", nil))
}
