package repository

import (
	"context"
	"time"

	"github.com/hinsy/accounts-service/internal/model"
	ctxutil "github.com/hinsy/accounts-service/pkg/context"
	"github.com/hinsy/accounts-service/pkg/logger"
	"gorm.io/gorm"
)

type TokenRepository struct {
	db *gorm.DB
}

func NewTokenRepository(db *gorm.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

func (r *TokenRepository) Create(ctx context.Context, token *model.AccessToken) error {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "Create")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")

	logger.DebugWithContext(ctx, "Storing access token").
		Uint("user_id", token.UserID).
		Log()

	start := time.Now()
	result := r.db.WithContext(ctx).Create(token)
	duration := time.Since(start)

	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to store access token").
			Uint("user_id", token.UserID).
			Duration(duration).
			Err(result.Error).
			Log()
		return result.Error
	}

	logger.InfoWithContext(ctx, "Access token stored").
		Uint("user_id", token.UserID).
		Uint("token_id", token.ID).
		Duration(duration).
		Log()

	return nil
}

func (r *TokenRepository) GetByID(ctx context.Context, id uint) (*model.AccessToken, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "GetByID")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")

	var token model.AccessToken
	result := r.db.WithContext(ctx).Where("id = ?", id).First(&token)
	if result.Error != nil {
		logger.DebugWithContext(ctx, "Access token lookup failed").
			Uint("token_id", id).
			Err(result.Error).
			Log()
		return nil, result.Error
	}

	return &token, nil
}

// TouchLastUsed records when a token last authenticated a request.
func (r *TokenRepository) TouchLastUsed(ctx context.Context, id uint) error {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "TouchLastUsed")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")

	now := time.Now()
	result := r.db.WithContext(ctx).Model(&model.AccessToken{}).Where("id = ?", id).Update("last_used_at", now)
	if result.Error != nil {
		logger.WarnWithContext(ctx, "Failed to touch access token").
			Uint("token_id", id).
			Err(result.Error).
			Log()
		return result.Error
	}

	return nil
}

// Delete revokes a single token.
func (r *TokenRepository) Delete(ctx context.Context, id uint) error {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "Delete")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")

	logger.DebugWithContext(ctx, "Revoking access token").
		Uint("token_id", id).
		Log()

	result := r.db.WithContext(ctx).Delete(&model.AccessToken{}, id)
	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to revoke access token").
			Uint("token_id", id).
			Err(result.Error).
			Log()
		return result.Error
	}

	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	logger.InfoWithContext(ctx, "Access token revoked").
		Uint("token_id", id).
		Log()

	return nil
}

// DeleteByUserID revokes every token the user holds. Used when a user is
// deleted or deactivated so stale sessions cannot linger.
func (r *TokenRepository) DeleteByUserID(ctx context.Context, userID uint) error {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "DeleteByUserID")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")

	logger.DebugWithContext(ctx, "Revoking all tokens for user").
		Uint("user_id", userID).
		Log()

	result := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.AccessToken{})
	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to revoke user tokens").
			Uint("user_id", userID).
			Err(result.Error).
			Log()
		return result.Error
	}

	logger.InfoWithContext(ctx, "User tokens revoked").
		Uint("user_id", userID).
		Int64("revoked_count", result.RowsAffected).
		Log()

	return nil
}
