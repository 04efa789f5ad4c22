package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hinsy/accounts-service/internal/constants"
	"github.com/hinsy/accounts-service/internal/response"
	"github.com/hinsy/accounts-service/pkg/logger"
)

// RequireRole gates a route group on role membership. It must run after
// RequireAuth; an unauthenticated request is rejected outright. Roles are a
// flat set, there is no hierarchy.
func RequireRole(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		value, exists := c.Get(constants.GinKeyRoleNames)
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Fail(constants.MsgUnauthorized))
			return
		}

		names, ok := value.([]string)
		if ok {
			for _, roleName := range names {
				if roleName == name {
					c.Next()
					return
				}
			}
		}

		logger.WarnWithContext(c.Request.Context(), "Role gate rejected request").
			String("required_role", name).
			String("path", c.Request.URL.Path).
			Log()

		c.AbortWithStatusJSON(http.StatusForbidden, response.Fail(constants.MsgForbidden))
	}
}
