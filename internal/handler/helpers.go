package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/hinsy/accounts-service/internal/constants"
	apperrors "github.com/hinsy/accounts-service/internal/errors"
	"github.com/hinsy/accounts-service/internal/response"
	"github.com/hinsy/accounts-service/pkg/logger"
	"github.com/hinsy/accounts-service/pkg/validation"
)

// respondError maps a service error to the envelope and its HTTP status.
// Internal errors never leak details to the client.
func respondError(c *gin.Context, ctx context.Context, err error) {
	status := apperrors.ToHTTPStatus(err)

	logger.WarnWithContext(ctx, "Request failed").
		String("path", c.Request.URL.Path).
		Int("http_status", status).
		Err(err).
		Log()

	if status >= http.StatusInternalServerError {
		c.JSON(status, response.WentWrong())
		return
	}
	c.JSON(status, response.Fail(apperrors.GetErrorMessage(err)))
}

// respondBindError turns a gin binding failure into a 422 envelope with
// per-field messages.
func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusUnprocessableEntity, response.FailWithErrors("The given data was invalid", validation.Messages(err)))
}

// pathID parses the :id route parameter.
func pathID(c *gin.Context) (uint, bool) {
	raw := c.Param("id")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusUnprocessableEntity, response.Fail("Invalid id parameter"))
		return 0, false
	}
	return uint(id), true
}

// currentUserID reads the id the auth guard stored for this request.
func currentUserID(c *gin.Context) uint {
	return c.GetUint(constants.GinKeyUserID)
}
