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

type RoleRepository struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

func (r *RoleRepository) GetByID(ctx context.Context, id uint) (*model.Role, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "GetByID")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")

	logger.DebugWithContext(ctx, "Getting role by ID").
		Uint("role_id", id).
		Log()

	start := time.Now()
	var role model.Role

	result := r.db.WithContext(ctx).Where("id = ?", id).First(&role)
	duration := time.Since(start)

	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to get role by ID").
			Uint("role_id", id).
			Duration(duration).
			Err(result.Error).
			Log()
		return nil, result.Error
	}

	return &role, nil
}

func (r *RoleRepository) GetByName(ctx context.Context, name string) (*model.Role, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "GetByName")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")

	logger.DebugWithContext(ctx, "Getting role by name").
		String("role_name", name).
		Log()

	var role model.Role
	result := r.db.WithContext(ctx).Where("name = ?", name).First(&role)
	if result.Error != nil {
		logger.DebugWithContext(ctx, "Role lookup by name failed").
			String("role_name", name).
			Err(result.Error).
			Log()
		return nil, result.Error
	}

	return &role, nil
}

// GetByIDs fetches every role whose ID appears in ids. Callers compare the
// returned length against len(ids) to detect unknown IDs.
func (r *RoleRepository) GetByIDs(ctx context.Context, ids []uint) ([]model.Role, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "GetByIDs")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")

	logger.DebugWithContext(ctx, "Getting roles by IDs").
		Int("role_count", len(ids)).
		Log()

	if len(ids) == 0 {
		return nil, nil
	}

	var roles []model.Role
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&roles).Error; err != nil {
		logger.ErrorWithContext(ctx, "Failed to get roles by IDs").
			Err(err).
			Log()
		return nil, err
	}

	return roles, nil
}

// List returns one page of roles plus the filtered total.
func (r *RoleRepository) List(ctx context.Context, params constants.PaginationParams) ([]model.Role, int64, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "List")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")

	logger.DebugWithContext(ctx, "Listing roles").
		Int("page", params.Page).
		Int("size", params.Size).
		String("search", params.Search).
		Log()

	start := time.Now()
	var roles []model.Role
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Role{})

	if params.Search != "" {
		query = query.Where("name ILIKE ?", "%"+params.Search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		logger.ErrorWithContext(ctx, "Failed to count roles").
			Err(err).
			Log()
		return nil, 0, err
	}

	order := fmt.Sprintf("%s %s", params.SortCol, params.SortDir)
	if err := query.Order(order).Limit(params.Size).Offset(params.Offset).Find(&roles).Error; err != nil {
		logger.ErrorWithContext(ctx, "Failed to fetch roles").
			Duration(time.Since(start)).
			Err(err).
			Log()
		return nil, 0, err
	}

	logger.InfoWithContext(ctx, "Roles listed successfully").
		Int64("total", total).
		Int("returned_count", len(roles)).
		Duration(time.Since(start)).
		Log()

	return roles, total, nil
}

func (r *RoleRepository) Create(ctx context.Context, role *model.Role) error {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "Create")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")

	logger.DebugWithContext(ctx, "Creating new role").
		String("role_name", role.Name).
		Log()

	start := time.Now()
	result := r.db.WithContext(ctx).Create(role)
	duration := time.Since(start)

	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to create role").
			String("role_name", role.Name).
			Duration(duration).
			Err(result.Error).
			Log()
		return result.Error
	}

	logger.InfoWithContext(ctx, "Role created successfully").
		String("role_name", role.Name).
		Uint("role_id", role.ID).
		Duration(duration).
		Log()

	return nil
}

func (r *RoleRepository) Update(ctx context.Context, id uint, values map[string]interface{}) error {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "Update")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")

	logger.DebugWithContext(ctx, "Updating role").
		Uint("role_id", id).
		Log()

	if len(values) == 0 {
		return nil
	}

	start := time.Now()
	result := r.db.WithContext(ctx).Model(&model.Role{}).Where("id = ?", id).Updates(values)
	duration := time.Since(start)

	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to update role").
			Uint("role_id", id).
			Duration(duration).
			Err(result.Error).
			Log()
		return result.Error
	}

	if result.RowsAffected == 0 {
		logger.WarnWithContext(ctx, "No role found to update").
			Uint("role_id", id).
			Log()
		return gorm.ErrRecordNotFound
	}

	logger.InfoWithContext(ctx, "Role updated successfully").
		Uint("role_id", id).
		Duration(duration).
		Log()

	return nil
}

// Delete removes a role row and detaches it from every user.
func (r *RoleRepository) Delete(ctx context.Context, id uint) error {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "Delete")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")

	logger.DebugWithContext(ctx, "Deleting role").
		Uint("role_id", id).
		Log()

	start := time.Now()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		role := model.Role{Model: gorm.Model{ID: id}}
		if err := tx.Model(&role).Association("Users").Clear(); err != nil {
			return err
		}

		result := tx.Unscoped().Delete(&model.Role{}, id)
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
		logger.ErrorWithContext(ctx, "Failed to delete role").
			Uint("role_id", id).
			Duration(duration).
			Err(err).
			Log()
		return err
	}

	logger.InfoWithContext(ctx, "Role deleted successfully").
		Uint("role_id", id).
		Duration(duration).
		Log()

	return nil
}
