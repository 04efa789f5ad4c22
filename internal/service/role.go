package service

import (
	"context"
	"errors"

	"github.com/hinsy/accounts-service/internal/constants"
	"github.com/hinsy/accounts-service/internal/dto"
	apperrors "github.com/hinsy/accounts-service/internal/errors"
	"github.com/hinsy/accounts-service/internal/model"
	ctxutil "github.com/hinsy/accounts-service/pkg/context"
	"github.com/hinsy/accounts-service/pkg/logger"
	"gorm.io/gorm"
)

type RoleService struct {
	roles RoleStore
}

func NewRoleService(roles RoleStore) *RoleService {
	return &RoleService{roles: roles}
}

func (s *RoleService) List(ctx context.Context, params constants.PaginationParams) ([]dto.RoleResponse, int64, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "List")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "service")

	roles, total, err := s.roles.List(ctx, params)
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to list roles").
			Err(err).
			Log()
		return nil, 0, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	return newRoleResponses(roles), total, nil
}

func (s *RoleService) GetByID(ctx context.Context, id uint) (*dto.RoleResponse, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "GetByID")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "service")

	role, err := s.roles.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrRoleNotFound
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	return &dto.RoleResponse{ID: role.ID, Name: role.Name, CreatedAt: role.CreatedAt}, nil
}

func (s *RoleService) Create(ctx context.Context, req dto.CreateRoleRequest) (*dto.RoleResponse, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "Create")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "service")

	if err := s.checkNameAvailable(ctx, req.Name, 0); err != nil {
		return nil, err
	}

	role := &model.Role{Name: req.Name}
	if err := s.roles.Create(ctx, role); err != nil {
		logger.ErrorWithContext(ctx, "Failed to create role").
			String("role_name", req.Name).
			Err(err).
			Log()
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	logger.InfoWithContext(ctx, "Role created").
		Uint("role_id", role.ID).
		String("role_name", role.Name).
		Log()

	return &dto.RoleResponse{ID: role.ID, Name: role.Name, CreatedAt: role.CreatedAt}, nil
}

func (s *RoleService) Update(ctx context.Context, id uint, req dto.UpdateRoleRequest) (*dto.RoleResponse, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "Update")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "service")

	role, err := s.roles.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrRoleNotFound
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	if req.Name != nil && *req.Name != role.Name {
		if err := s.checkNameAvailable(ctx, *req.Name, id); err != nil {
			return nil, err
		}
		if err := s.roles.Update(ctx, id, map[string]interface{}{"name": *req.Name}); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.ErrRoleNotFound
			}
			return nil, apperrors.WrapError(apperrors.ErrInternal, err)
		}
		role.Name = *req.Name
	}

	logger.InfoWithContext(ctx, "Role updated").
		Uint("role_id", id).
		Log()

	return &dto.RoleResponse{ID: role.ID, Name: role.Name, CreatedAt: role.CreatedAt}, nil
}

func (s *RoleService) Delete(ctx context.Context, id uint) error {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "Delete")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "service")

	if err := s.roles.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrRoleNotFound
		}
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	logger.InfoWithContext(ctx, "Role deleted").
		Uint("role_id", id).
		Log()

	return nil
}

func (s *RoleService) checkNameAvailable(ctx context.Context, name string, selfID uint) error {
	existing, err := s.roles.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}
	if existing.ID != selfID {
		return apperrors.ErrRoleNameExists
	}
	return nil
}
