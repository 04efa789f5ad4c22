package service

import (
	"context"
	"errors"
	"time"

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

// UserStore is the user persistence surface the services depend on.
type UserStore interface {
	GetByID(ctx context.Context, id uint) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	List(ctx context.Context, params constants.PaginationParams, filter repository.UserFilter) ([]model.User, int64, error)
	Create(ctx context.Context, user *model.User) error
	Update(ctx context.Context, id uint, values map[string]interface{}) error
	UpdatePassword(ctx context.Context, id uint, hashedPassword string) error
	SetRoles(ctx context.Context, user *model.User, roles []model.Role) error
	Delete(ctx context.Context, id uint) error
}

// RoleStore is the role persistence surface the services depend on.
type RoleStore interface {
	GetByID(ctx context.Context, id uint) (*model.Role, error)
	GetByName(ctx context.Context, name string) (*model.Role, error)
	GetByIDs(ctx context.Context, ids []uint) ([]model.Role, error)
	List(ctx context.Context, params constants.PaginationParams) ([]model.Role, int64, error)
	Create(ctx context.Context, role *model.Role) error
	Update(ctx context.Context, id uint, values map[string]interface{}) error
	Delete(ctx context.Context, id uint) error
}

// TokenIssuer is the slice of the token service the auth flow needs.
type TokenIssuer interface {
	Issue(ctx context.Context, userID uint) (string, error)
	Revoke(ctx context.Context, plaintext string) error
	RevokeAllForUser(ctx context.Context, userID uint) error
}

type AuthService struct {
	users  UserStore
	roles  RoleStore
	tokens TokenIssuer
}

func NewAuthService(users UserStore, roles RoleStore, tokens TokenIssuer) *AuthService {
	return &AuthService{users: users, roles: roles, tokens: tokens}
}

// Register creates a self-service account with the default "user" role and
// returns the profile together with a freshly issued token. avatar is the
// stored filename, empty when no file was uploaded.
func (s *AuthService) Register(ctx context.Context, req dto.RegisterRequest, avatar string) (*dto.AuthResponse, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "Register")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "service")

	logger.InfoWithContext(ctx, "Registering new account").
		String("email", req.Email).
		String("username", req.Username).
		Log()

	if err := s.checkEmailAvailable(ctx, req.Email, 0); err != nil {
		return nil, err
	}
	if err := s.checkUsernameAvailable(ctx, req.Username, 0); err != nil {
		return nil, err
	}

	hashed, err := security.HashPassword(req.Password)
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to hash password").
			Err(err).
			Log()
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	defaultRole, err := s.roles.GetByName(ctx, constants.RoleUser)
	if err != nil {
		logger.ErrorWithContext(ctx, "Default role missing").
			String("role_name", constants.RoleUser).
			Err(err).
			Log()
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	now := time.Now()
	user := &model.User{
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Username:        req.Username,
		Email:           req.Email,
		Phone:           req.Phone,
		Password:        hashed,
		Avatar:          avatar,
		IsActive:        true,
		EmailVerifiedAt: &now,
		Roles:           []model.Role{*defaultRole},
	}

	if err := s.users.Create(ctx, user); err != nil {
		logger.ErrorWithContext(ctx, "Failed to create account").
			String("email", req.Email).
			Err(err).
			Log()
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	token, err := s.tokens.Issue(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	logger.InfoWithContext(ctx, "Account registered").
		Uint("user_id", user.ID).
		String("email", user.Email).
		Log()

	return newAuthResponse(user, token), nil
}

// Login verifies credentials and issues a new token. Unknown emails, wrong
// passwords and deactivated accounts all return the same error.
func (s *AuthService) Login(ctx context.Context, req dto.LoginRequest) (*dto.AuthResponse, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "Login")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "service")

	logger.InfoWithContext(ctx, "Login attempt").
		String("email", req.Email).
		Log()

	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.WarnWithContext(ctx, "Login with unknown email").
				String("email", req.Email).
				Log()
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	if err := security.CheckPassword(user.Password, req.Password); err != nil {
		logger.WarnWithContext(ctx, "Login with wrong password").
			Uint("user_id", user.ID).
			Log()
		return nil, apperrors.ErrInvalidCredentials
	}

	if !user.IsActive {
		logger.WarnWithContext(ctx, "Login on deactivated account").
			Uint("user_id", user.ID).
			Log()
		return nil, apperrors.ErrInvalidCredentials
	}

	now := time.Now()
	if err := s.users.Update(ctx, user.ID, map[string]interface{}{"email_verified_at": now}); err != nil {
		logger.WarnWithContext(ctx, "Failed to stamp verification time").
			Uint("user_id", user.ID).
			Err(err).
			Log()
	}

	token, err := s.tokens.Issue(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	logger.InfoWithContext(ctx, "Login succeeded").
		Uint("user_id", user.ID).
		Log()

	return newAuthResponse(user, token), nil
}

// Logout revokes the presenting token only. Other sessions stay valid.
func (s *AuthService) Logout(ctx context.Context, plaintext string) error {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "Logout")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "service")

	return s.tokens.Revoke(ctx, plaintext)
}

// Me returns the authenticated user's profile.
func (s *AuthService) Me(ctx context.Context, userID uint) (*dto.AuthResponse, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "Me")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "service")

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	return newAuthResponse(user, ""), nil
}

// UpdateProfile applies the self-service profile fields. avatar is the new
// stored filename, empty when unchanged; the previous filename is returned
// so the caller can remove the orphaned file.
func (s *AuthService) UpdateProfile(ctx context.Context, userID uint, req dto.UpdateProfileRequest, avatar string) (*dto.AuthResponse, string, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "UpdateProfile")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "service")

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, "", err
	}

	values := map[string]interface{}{
		"first_name": req.FirstName,
		"last_name":  req.LastName,
	}

	if req.Email != nil && *req.Email != user.Email {
		if err := s.checkEmailAvailable(ctx, *req.Email, userID); err != nil {
			return nil, "", err
		}
		values["email"] = *req.Email
	}
	if req.Phone != nil {
		values["phone"] = *req.Phone
	}

	oldAvatar := ""
	if avatar != "" {
		if user.Avatar != avatar {
			oldAvatar = user.Avatar
		}
		values["avatar"] = avatar
	}

	if err := s.users.Update(ctx, userID, values); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", apperrors.ErrUserNotFound
		}
		return nil, "", apperrors.WrapError(apperrors.ErrInternal, err)
	}

	updated, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, "", err
	}

	logger.InfoWithContext(ctx, "Profile updated").
		Uint("user_id", userID).
		Log()

	return newAuthResponse(updated, ""), oldAvatar, nil
}

// UpdatePassword rotates the user's password after verifying the current one.
func (s *AuthService) UpdatePassword(ctx context.Context, userID uint, req dto.UpdatePasswordRequest) error {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "UpdatePassword")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "service")

	if req.NewPassword != req.ConfirmNewPassword {
		return apperrors.ErrPasswordMismatch
	}

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}

	if err := security.CheckPassword(user.Password, req.CurrentPassword); err != nil {
		logger.WarnWithContext(ctx, "Password change with wrong current password").
			Uint("user_id", userID).
			Log()
		return apperrors.ErrIncorrectPassword
	}

	hashed, err := security.HashPassword(req.NewPassword)
	if err != nil {
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	if err := s.users.UpdatePassword(ctx, userID, hashed); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrUserNotFound
		}
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	logger.InfoWithContext(ctx, "Password updated").
		Uint("user_id", userID).
		Log()

	return nil
}

func (s *AuthService) getUser(ctx context.Context, id uint) (*model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	return user, nil
}

func (s *AuthService) checkEmailAvailable(ctx context.Context, email string, selfID uint) error {
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

func (s *AuthService) checkUsernameAvailable(ctx context.Context, username string, selfID uint) error {
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

func newAuthResponse(user *model.User, token string) *dto.AuthResponse {
	return &dto.AuthResponse{
		ID:        user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Username:  user.Username,
		Avatar:    user.Avatar,
		IsActive:  user.IsActive,
		Email:     user.Email,
		Roles:     newRoleResponses(user.Roles),
		CreatedAt: user.CreatedAt,
		Token:     token,
	}
}

func newRoleResponses(roles []model.Role) []dto.RoleResponse {
	out := make([]dto.RoleResponse, 0, len(roles))
	for _, role := range roles {
		out = append(out, dto.RoleResponse{
			ID:        role.ID,
			Name:      role.Name,
			CreatedAt: role.CreatedAt,
		})
	}
	return out
}
