package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/hinsy/accounts-service/internal/constants"
	"github.com/hinsy/accounts-service/internal/model"
	"github.com/hinsy/accounts-service/internal/response"
	ctxutil "github.com/hinsy/accounts-service/pkg/context"
	"github.com/hinsy/accounts-service/pkg/logger"
	"gorm.io/gorm"
)

// TokenResolver authenticates a plaintext bearer token.
type TokenResolver interface {
	Resolve(ctx context.Context, plaintext string) (uint, uint, error)
}

// UserLoader fetches the authenticated user with roles preloaded.
type UserLoader interface {
	GetByID(ctx context.Context, id uint) (*model.User, error)
}

type AuthMiddleware struct {
	tokens TokenResolver
	users  UserLoader
}

func NewAuthMiddleware(tokens TokenResolver, users UserLoader) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, users: users}
}

// RequireAuth is the authentication boundary. It resolves the bearer token,
// loads the user, and stores identity in both the gin and request contexts.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		plaintext, ok := bearerToken(c)
		if !ok {
			logger.GetLogger().Warn("Missing or malformed Authorization header")
			abortUnauthorized(c)
			return
		}

		ctx := c.Request.Context()
		userID, tokenID, err := m.tokens.Resolve(ctx, plaintext)
		if err != nil {
			logger.WarnWithContext(ctx, "Bearer token rejected").
				String("path", c.Request.URL.Path).
				Err(err).
				Log()
			abortUnauthorized(c)
			return
		}

		user, err := m.users.GetByID(ctx, userID)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				logger.ErrorWithContext(ctx, "Failed to load authenticated user").
					Uint("user_id", userID).
					Err(err).
					Log()
			}
			abortUnauthorized(c)
			return
		}

		if !user.IsActive {
			logger.WarnWithContext(ctx, "Deactivated account presented a valid token").
				Uint("user_id", userID).
				Log()
			abortUnauthorized(c)
			return
		}

		c.Set(constants.GinKeyUserID, user.ID)
		c.Set(constants.GinKeyTokenID, tokenID)
		c.Set(constants.GinKeyToken, plaintext)
		c.Set(constants.GinKeyUsername, user.Username)
		c.Set(constants.GinKeyRoleNames, user.RoleNames())

		ctx = ctxutil.WithUserID(ctx, user.ID)
		ctx = context.WithValue(ctx, ctxutil.TokenIDKey, tokenID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader(constants.HeaderAuthorization)
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, response.Fail(constants.MsgUnauthorized))
}
