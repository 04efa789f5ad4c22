package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	ctxutil "github.com/hinsy/accounts-service/pkg/context"
	"github.com/hinsy/accounts-service/pkg/logger"
)

// ContextMiddleware seeds the request context with tracking metadata and
// brackets the request with start/finish log lines.
func ContextMiddleware(module string, timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		function := c.Request.URL.Path
		ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, module, function)

		ctx, cancel := ctxutil.WithTimeout(ctx, timeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)

		logger.InfoWithContext(ctx, "Request started").
			String("method", c.Request.Method).
			String("path", c.Request.URL.Path).
			String("query", c.Request.URL.RawQuery).
			Log()

		c.Next()

		logger.InfoWithContext(ctx, "Request completed").
			String("method", c.Request.Method).
			String("path", c.Request.URL.Path).
			Int("status_code", c.Writer.Status()).
			Int("response_size", c.Writer.Size()).
			Duration(ctxutil.GetDuration(ctx)).
			Log()
	}
}
