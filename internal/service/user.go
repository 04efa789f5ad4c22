package service

import (
	"context"
	"errors"

	"github.com/hinsy/accounts-service/internal/constants"
	"github.com/hinsy/accounts-service/internal/dto"
	apperrors "github.com/hinsy/accounts-service/internal/errors"
	"github.com/hinsy/accounts-service/internal/model"
	"github.com/hinsy/accounts-service/internal/repository"
	"github.com/hinsy/accounts-service/internal/security"
	ctxutil "github.com/hinsy/accounts-service/pkg/context"
	"github.com/hinsy/accounts-service/pkg/logger"
	"gorm.io/gorm"
)

type UserService struct {
	users  UserStore
	roles  RoleStore
	tokens TokenIssuer
}

func NewUserService(users UserStore, roles RoleStore, tokens TokenIssuer) *UserService {
	return &UserService{users: users, roles: roles, tokens: tokens}
}

// List returns one page of users and the filtered total.
func (s *UserService) List(ctx context.Context, params constants.PaginationParams, filter repository.UserFilter) ([]dto.UserResponse, int64, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "List")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "service")

	users, total, err := s.users.List(ctx, params, filter)
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to list users").
			Err(err).
			Log()
		return nil, 0, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	responses := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, *newUserResponse(&users[i]))
	}

	return responses, total, nil
}

func (s *UserService) GetByID(ctx context.Context, id uint) (*dto.UserResponse, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "GetByID")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "service")

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	return newUserResponse(user), nil
}

// Create builds a user from the admin form. roleIDs come pre-parsed from the
// handler; an empty set falls back to the default "user" role.
func (s *UserService) Create(ctx context.Context, req dto.CreateUserRequest, roleIDs []uint, avatar string) (*dto.UserResponse, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "Create")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "service")

	logger.InfoWithContext(ctx, "Admin creating user").
		String("email", req.Email).
		String("username", req.Username).
		Log()

	if err := s.checkEmailAvailable(ctx, req.Email, 0); err != nil {
		return nil, err
	}
	if err := s.checkUsernameAvailable(ctx, req.Username, 0); err != nil {
		return nil, err
	}

	roles, err := s.resolveRoles(ctx, roleIDs)
	if err != nil {
		return nil, err
	}

	hashed, err := security.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	user := &model.User{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Username:  req.Username,
		Email:     req.Email,
		Phone:     req.Phone,
		Password:  hashed,
		Avatar:    avatar,
		IsActive:  isActive,
		Roles:     roles,
	}

	if err := s.users.Create(ctx, user); err != nil {
		logger.ErrorWithContext(ctx, "Failed to create user").
			String("email", req.Email).
			Err(err).
			Log()
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	logger.InfoWithContext(ctx, "User created by admin").
		Uint("user_id", user.ID).
		Log()

	return newUserResponse(user), nil
}

// Update applies the admin partial update. roleIDs nil means roles stay
// untouched; non-nil replaces the whole set. The previous avatar filename is
// returned when a new avatar displaced it.
func (s *UserService) Update(ctx context.Context, id uint, req dto.UpdateUserRequest, roleIDs []uint, avatar string) (*dto.UserResponse, string, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "Update")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "service")

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", apperrors.ErrUserNotFound
		}
		return nil, "", apperrors.WrapError(apperrors.ErrInternal, err)
	}

	values := map[string]interface{}{}
	if req.FirstName != nil {
		values["first_name"] = *req.FirstName
	}
	if req.LastName != nil {
		values["last_name"] = *req.LastName
	}
	if req.Username != nil && *req.Username != user.Username {
		if err := s.checkUsernameAvailable(ctx, *req.Username, id); err != nil {
			return nil, "", err
		}
		values["username"] = *req.Username
	}
	if req.Email != nil && *req.Email != user.Email {
		if err := s.checkEmailAvailable(ctx, *req.Email, id); err != nil {
			return nil, "", err
		}
		values["email"] = *req.Email
	}
	if req.Phone != nil {
		values["phone"] = *req.Phone
	}
	if req.Password != nil && *req.Password != "" {
		hashed, err := security.HashPassword(*req.Password)
		if err != nil {
			return nil, "", apperrors.WrapError(apperrors.ErrInternal, err)
		}
		values["password"] = hashed
	}
	if req.IsActive != nil {
		values["is_active"] = *req.IsActive
	}

	oldAvatar := ""
	if avatar != "" {
		if user.Avatar != avatar {
			oldAvatar = user.Avatar
		}
		values["avatar"] = avatar
	}

	if len(values) > 0 {
		if err := s.users.Update(ctx, id, values); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, "", apperrors.ErrUserNotFound
			}
			return nil, "", apperrors.WrapError(apperrors.ErrInternal, err)
		}
	}

	if roleIDs != nil {
		roles, err := s.lookupRoles(ctx, roleIDs)
		if err != nil {
			return nil, "", err
		}
		if err := s.users.SetRoles(ctx, user, roles); err != nil {
			return nil, "", apperrors.WrapError(apperrors.ErrInternal, err)
		}
	}

	// Deactivation kills every live session.
	if req.IsActive != nil && !*req.IsActive {
		if err := s.tokens.RevokeAllForUser(ctx, id); err != nil {
			logger.WarnWithContext(ctx, "Failed to revoke tokens on deactivation").
				Uint("user_id", id).
				Err(err).
				Log()
		}
	}

	updated, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, "", apperrors.WrapError(apperrors.ErrInternal, err)
	}

	logger.InfoWithContext(ctx, "User updated by admin").
		Uint("user_id", id).
		Log()

	return newUserResponse(updated), oldAvatar, nil
}

// Delete removes a user. The requester cannot delete their own account. The
// deleted user's avatar filename is returned for file cleanup.
func (s *UserService) Delete(ctx context.Context, id, actorID uint) (string, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "Delete")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "service")

	if id == actorID {
		logger.WarnWithContext(ctx, "Self-deletion rejected").
			Uint("user_id", id).
			Log()
		return "", apperrors.ErrSelfDeletion
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperrors.ErrUserNotFound
		}
		return "", apperrors.WrapError(apperrors.ErrInternal, err)
	}

	if err := s.tokens.RevokeAllForUser(ctx, id); err != nil {
		return "", err
	}

	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperrors.ErrUserNotFound
		}
		return "", apperrors.WrapError(apperrors.ErrInternal, err)
	}

	logger.InfoWithContext(ctx, "User deleted by admin").
		Uint("user_id", id).
		Uint("actor_id", actorID).
		Log()

	return user.Avatar, nil
}

// resolveRoles maps role ids to records, defaulting to the "user" role when
// none were supplied.
func (s *UserService) resolveRoles(ctx context.Context, roleIDs []uint) ([]model.Role, error) {
	if len(roleIDs) == 0 {
		defaultRole, err := s.roles.GetByName(ctx, constants.RoleUser)
		if err != nil {
			return nil, apperrors.WrapError(apperrors.ErrInternal, err)
		}
		return []model.Role{*defaultRole}, nil
	}
	return s.lookupRoles(ctx, roleIDs)
}

func (s *UserService) lookupRoles(ctx context.Context, roleIDs []uint) ([]model.Role, error) {
	roles, err := s.roles.GetByIDs(ctx, roleIDs)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	if len(roles) != len(uniqueIDs(roleIDs)) {
		return nil, apperrors.ErrRoleNotFound
	}
	return roles, nil
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func (s *UserService) checkEmailAvailable(ctx context.Context, email string, selfID uint) error {
	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}
	if existing.ID != selfID {
		return apperrors.ErrEmailExists
	}
	return nil
}

func (s *UserService) checkUsernameAvailable(ctx context.Context, username string, selfID uint) error {
	existing, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}
	if existing.ID != selfID {
		return apperrors.ErrUsernameExists
	}
	return nil
}

func newUserResponse(user *model.User) *dto.UserResponse {
	return &dto.UserResponse{
		ID:        user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Username:  user.Username,
		Avatar:    user.Avatar,
		Phone:     user.Phone,
		IsActive:  user.IsActive,
		Email:     user.Email,
		Roles:     newRoleResponses(user.Roles),
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}
