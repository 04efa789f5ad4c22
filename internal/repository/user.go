package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/hinsy/accounts-service/internal/constants"
	"github.com/hinsy/accounts-service/internal/model"
	ctxutil "github.com/hinsy/accounts-service/pkg/context"
	"github.com/hinsy/accounts-service/pkg/logger"
	"gorm.io/gorm"
)

// UserFilter narrows the user list query beyond plain pagination.
type UserFilter struct {
	RoleIDs  []uint
	IsActive *bool
}

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id uint) (*model.User, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "GetByID")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")

	logger.DebugWithContext(ctx, "Getting user by ID").
		Uint("user_id", id).
		Log()

	if err := ctx.Err(); err != nil {
		logger.WarnWithContext(ctx, "Context cancelled before query").
			Err(err).
			Log()
		return nil, err
	}

	start := time.Now()
	var user model.User

	result := r.db.WithContext(ctx).Preload("Roles").Where("id = ?", id).First(&user)
	duration := time.Since(start)

	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to get user by ID").
			Uint("user_id", id).
			Duration(duration).
			Err(result.Error).
			Log()
		return nil, result.Error
	}

	logger.DebugWithContext(ctx, "User retrieved successfully").
		Uint("user_id", id).
		String("email", user.Email).
		Duration(duration).
		Log()

	return &user, nil
}

// GetByEmail finds a user by email, roles preloaded.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "GetByEmail")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")

	logger.DebugWithContext(ctx, "Getting user by email").
		String("email", email).
		Log()

	start := time.Now()
	var user model.User

	result := r.db.WithContext(ctx).Preload("Roles").Where("email = ?", email).First(&user)
	duration := time.Since(start)

	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to get user by email").
			String("email", email).
			Duration(duration).
			Err(result.Error).
			Log()
		return nil, result.Error
	}

	logger.DebugWithContext(ctx, "User retrieved successfully by email").
		String("email", email).
		Uint("user_id", user.ID).
		Duration(duration).
		Log()

	return &user, nil
}

// GetByUsername finds a user by username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "GetByUsername")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")

	logger.DebugWithContext(ctx, "Getting user by username").
		String("username", username).
		Log()

	start := time.Now()
	var user model.User

	result := r.db.WithContext(ctx).Where("username = ?", username).First(&user)
	duration := time.Since(start)

	if result.Error != nil {
		logger.DebugWithContext(ctx, "User lookup by username failed").
			String("username", username).
			Duration(duration).
			Err(result.Error).
			Log()
		return nil, result.Error
	}

	return &user, nil
}

// List returns one page of users plus the total row count for the same
// filters. Search matches first name, last name, username and email.
func (r *UserRepository) List(ctx context.Context, params constants.PaginationParams, filter UserFilter) ([]model.User, int64, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "List")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")

	logger.DebugWithContext(ctx, "Listing users").
		Int("page", params.Page).
		Int("size", params.Size).
		String("search", params.Search).
		Log()

	if err := ctx.Err(); err != nil {
		logger.WarnWithContext(ctx, "Context cancelled before query").
			Err(err).
			Log()
		return nil, 0, err
	}

	start := time.Now()
	var users []model.User
	var total int64

	query := r.db.WithContext(ctx).Model(&model.User{})

	if params.Search != "" {
		searchPattern := "%" + params.Search + "%"
		query = query.Where(
			"first_name ILIKE ? OR last_name ILIKE ? OR username ILIKE ? OR email ILIKE ?",
			searchPattern, searchPattern, searchPattern, searchPattern,
		)
	}

	if len(filter.RoleIDs) > 0 {
		query = query.Where(
			"id IN (?)",
			r.db.Table("user_roles").Select("user_id").Where("role_id IN ?", filter.RoleIDs),
		)
	}

	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}

	if err := query.Count(&total).Error; err != nil {
		logger.ErrorWithContext(ctx, "Failed to count users").
			Err(err).
			Log()
		return nil, 0, err
	}

	order := fmt.Sprintf("%s %s", params.SortCol, params.SortDir)
	if err := query.Preload("Roles").Order(order).Limit(params.Size).Offset(params.Offset).Find(&users).Error; err != nil {
		logger.ErrorWithContext(ctx, "Failed to fetch users").
			Int("page", params.Page).
			Int("size", params.Size).
			Duration(time.Since(start)).
			Err(err).
			Log()
		return nil, 0, err
	}

	logger.InfoWithContext(ctx, "Users listed successfully").
		Int("page", params.Page).
		Int("size", params.Size).
		Int64("total", total).
		Int("returned_count", len(users)).
		Duration(time.Since(start)).
		Log()

	return users, total, nil
}

// Create inserts a new user. Attached roles are persisted in the same
// transaction through the association.
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "Create")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")

	logger.DebugWithContext(ctx, "Creating new user").
		String("email", user.Email).
		String("username", user.Username).
		Log()

	start := time.Now()
	result := r.db.WithContext(ctx).Create(user)
	duration := time.Since(start)

	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to create user").
			String("email", user.Email).
			Duration(duration).
			Err(result.Error).
			Log()
		return result.Error
	}

	logger.InfoWithContext(ctx, "User created successfully").
		String("email", user.Email).
		Uint("user_id", user.ID).
		Duration(duration).
		Log()

	return nil
}

// Update applies the given column values to one user row.
func (r *UserRepository) Update(ctx context.Context, id uint, values map[string]interface{}) error {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "Update")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")

	logger.DebugWithContext(ctx, "Updating user").
		Uint("user_id", id).
		Int("field_count", len(values)).
		Log()

	if len(values) == 0 {
		return nil
	}

	start := time.Now()
	result := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Updates(values)
	duration := time.Since(start)

	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to update user").
			Uint("user_id", id).
			Duration(duration).
			Err(result.Error).
			Log()
		return result.Error
	}

	if result.RowsAffected == 0 {
		logger.WarnWithContext(ctx, "No user found to update").
			Uint("user_id", id).
			Log()
		return gorm.ErrRecordNotFound
	}

	logger.InfoWithContext(ctx, "User updated successfully").
		Uint("user_id", id).
		Int64("rows_affected", result.RowsAffected).
		Duration(duration).
		Log()

	return nil
}

// UpdatePassword replaces the stored password hash for one user.
func (r *UserRepository) UpdatePassword(ctx context.Context, id uint, hashedPassword string) error {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "UpdatePassword")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")

	logger.DebugWithContext(ctx, "Updating user password").
		Uint("user_id", id).
		Log()

	start := time.Now()
	result := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Update("password", hashedPassword)
	duration := time.Since(start)

	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to update password").
			Uint("user_id", id).
			Duration(duration).
			Err(result.Error).
			Log()
		return result.Error
	}

	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	logger.InfoWithContext(ctx, "Password updated successfully").
		Uint("user_id", id).
		Duration(duration).
		Log()

	return nil
}

// SetRoles replaces the user's role set with exactly the given roles.
func (r *UserRepository) SetRoles(ctx context.Context, user *model.User, roles []model.Role) error {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "SetRoles")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")

	logger.DebugWithContext(ctx, "Replacing user roles").
		Uint("user_id", user.ID).
		Int("role_count", len(roles)).
		Log()

	start := time.Now()
	err := r.db.WithContext(ctx).Model(user).Association("Roles").Replace(roles)
	duration := time.Since(start)

	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to replace user roles").
			Uint("user_id", user.ID).
			Duration(duration).
			Err(err).
			Log()
		return err
	}

	logger.InfoWithContext(ctx, "User roles replaced").
		Uint("user_id", user.ID).
		Int("role_count", len(roles)).
		Duration(duration).
		Log()

	return nil
}

// Delete removes a user row and clears its role attachments.
func (r *UserRepository) Delete(ctx context.Context, id uint) error {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "Delete")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")

	logger.DebugWithContext(ctx, "Deleting user").
		Uint("user_id", id).
		Log()

	start := time.Now()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user := model.User{Model: gorm.Model{ID: id}}
		if err := tx.Model(&user).Association("Roles").Clear(); err != nil {
			return err
		}

		result := tx.Unscoped().Delete(&model.User{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	duration := time.Since(start)

	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to delete user").
			Uint("user_id", id).
			Duration(duration).
			Err(err).
			Log()
		return err
	}

	logger.InfoWithContext(ctx, "User deleted successfully").
		Uint("user_id", id).
		Duration(duration).
		Log()

	return nil
}
