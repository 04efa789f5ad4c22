package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/hinsy/accounts-service/internal/errors"
	"github.com/hinsy/accounts-service/internal/model"
	ctxutil "github.com/hinsy/accounts-service/pkg/context"
	"github.com/hinsy/accounts-service/pkg/logger"
	"gorm.io/gorm"
)

// TokenStore is the persistence surface the token service needs.
type TokenStore interface {
	Create(ctx context.Context, token *model.AccessToken) error
	GetByID(ctx context.Context, id uint) (*model.AccessToken, error)
	TouchLastUsed(ctx context.Context, id uint) error
	Delete(ctx context.Context, id uint) error
	DeleteByUserID(ctx context.Context, userID uint) error
}

// TokenCache is the optional fast path for token resolution. A nil cache
// means every resolution hits the database. Keys bind the token id to the
// secret's hash, and entries carry the issuance time so expiry holds on the
// fast path too.
type TokenCache interface {
	GetToken(ctx context.Context, key string) (userID uint, issuedAt time.Time, ok bool)
	SetToken(ctx context.Context, key string, userID uint, issuedAt time.Time)
	DeleteToken(ctx context.Context, key string)
}

const tokenRandomBytes = 32

type TokenService struct {
	store TokenStore
	cache TokenCache
	ttl   time.Duration
}

// NewTokenService builds the issuer. ttl of zero means tokens never expire.
func NewTokenService(store TokenStore, cache TokenCache, ttl time.Duration) *TokenService {
	return &TokenService{store: store, cache: cache, ttl: ttl}
}

// Issue mints a new bearer token for the user and returns its plaintext
// form "<id>|<random>". Only the SHA-256 of the random part is persisted.
func (s *TokenService) Issue(ctx context.Context, userID uint) (string, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "Issue")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "service")

	raw := make([]byte, tokenRandomBytes)
	if _, err := rand.Read(raw); err != nil {
		logger.ErrorWithContext(ctx, "Failed to read random bytes for token").
			Err(err).
			Log()
		return "", apperrors.WrapError(apperrors.ErrInternal, err)
	}

	random := base64.RawURLEncoding.EncodeToString(raw)
	token := &model.AccessToken{
		UserID:    userID,
		TokenHash: hashToken(random),
	}

	if err := s.store.Create(ctx, token); err != nil {
		logger.ErrorWithContext(ctx, "Failed to persist access token").
			Uint("user_id", userID).
			Err(err).
			Log()
		return "", apperrors.WrapError(apperrors.ErrInternal, err)
	}

	logger.InfoWithContext(ctx, "Access token issued").
		Uint("user_id", userID).
		Uint("token_id", token.ID).
		Log()

	return fmt.Sprintf("%d|%s", token.ID, random), nil
}

// Resolve authenticates a plaintext bearer token and returns the owning
// user id together with the token record id. Every failure mode collapses
// into ErrInvalidToken so callers cannot distinguish unknown ids from bad
// secrets.
func (s *TokenService) Resolve(ctx context.Context, plaintext string) (uint, uint, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "Resolve")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "service")

	id, random, ok := splitToken(plaintext)
	if !ok {
		return 0, 0, apperrors.ErrInvalidToken
	}

	hash := hashToken(random)

	if s.cache != nil {
		if userID, issuedAt, hit := s.cache.GetToken(ctx, cacheKey(id, hash)); hit {
			if s.ttl > 0 && time.Since(issuedAt) > s.ttl {
				s.cache.DeleteToken(ctx, cacheKey(id, hash))
				_ = s.store.Delete(ctx, id)
				logger.InfoWithContext(ctx, "Expired token presented").
					Uint("token_id", id).
					Uint("user_id", userID).
					Log()
				return 0, 0, apperrors.ErrTokenExpired
			}
			// Touch is best effort on the fast path.
			_ = s.store.TouchLastUsed(ctx, id)
			return userID, id, nil
		}
	}

	token, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, 0, apperrors.ErrInvalidToken
		}
		logger.ErrorWithContext(ctx, "Token lookup failed").
			Uint("token_id", id).
			Err(err).
			Log()
		return 0, 0, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	if subtle.ConstantTimeCompare([]byte(token.TokenHash), []byte(hash)) != 1 {
		logger.WarnWithContext(ctx, "Token hash mismatch").
			Uint("token_id", id).
			Log()
		return 0, 0, apperrors.ErrInvalidToken
	}

	if s.ttl > 0 && time.Since(token.CreatedAt) > s.ttl {
		logger.InfoWithContext(ctx, "Expired token presented").
			Uint("token_id", id).
			Uint("user_id", token.UserID).
			Log()
		_ = s.store.Delete(ctx, id)
		return 0, 0, apperrors.ErrTokenExpired
	}

	if err := s.store.TouchLastUsed(ctx, id); err != nil {
		logger.WarnWithContext(ctx, "Failed to record token usage").
			Uint("token_id", id).
			Err(err).
			Log()
	}

	if s.cache != nil {
		s.cache.SetToken(ctx, cacheKey(id, hash), token.UserID, token.CreatedAt)
	}

	return token.UserID, id, nil
}

// Revoke deletes exactly one token record. The plaintext is required twice
// over: its secret must match the stored hash before anything is deleted, and
// the hash names the cache entry to drop.
func (s *TokenService) Revoke(ctx context.Context, plaintext string) error {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "Revoke")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "service")

	id, random, ok := splitToken(plaintext)
	if !ok {
		return apperrors.ErrInvalidToken
	}

	hash := hashToken(random)

	token, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrInvalidToken
		}
		logger.ErrorWithContext(ctx, "Token lookup failed").
			Uint("token_id", id).
			Err(err).
			Log()
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	if subtle.ConstantTimeCompare([]byte(token.TokenHash), []byte(hash)) != 1 {
		logger.WarnWithContext(ctx, "Token hash mismatch").
			Uint("token_id", id).
			Log()
		return apperrors.ErrInvalidToken
	}

	if s.cache != nil {
		s.cache.DeleteToken(ctx, cacheKey(id, hash))
	}

	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrInvalidToken
		}
		logger.ErrorWithContext(ctx, "Failed to revoke token").
			Uint("token_id", id).
			Err(err).
			Log()
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	logger.InfoWithContext(ctx, "Token revoked").
		Uint("token_id", id).
		Log()

	return nil
}

// RevokeAllForUser drops every token the user holds. Cache entries for those
// hashes age out on their own TTL since the hashes are not recoverable here.
func (s *TokenService) RevokeAllForUser(ctx context.Context, userID uint) error {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "RevokeAllForUser")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "service")

	if err := s.store.DeleteByUserID(ctx, userID); err != nil {
		logger.ErrorWithContext(ctx, "Failed to revoke user tokens").
			Uint("user_id", userID).
			Err(err).
			Log()
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	return nil
}

func hashToken(random string) string {
	sum := sha256.Sum256([]byte(random))
	return hex.EncodeToString(sum[:])
}

// cacheKey ties the token id to the secret's hash so a cached entry can never
// vouch for a plaintext that grafts a different id onto a known secret.
func cacheKey(id uint, hash string) string {
	return fmt.Sprintf("%d|%s", id, hash)
}

func splitToken(plaintext string) (uint, string, bool) {
	idPart, random, found := strings.Cut(plaintext, "|")
	if !found || idPart == "" || random == "" {
		return 0, "", false
	}

	id, err := strconv.ParseUint(idPart, 10, 32)
	if err != nil || id == 0 {
		return 0, "", false
	}

	return uint(id), random, true
}
