package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hinsy/accounts-service/config"
	"github.com/hinsy/accounts-service/internal/constants"
	"github.com/hinsy/accounts-service/internal/handler"
	"github.com/hinsy/accounts-service/internal/middleware"
)

type Router struct {
	authHandler    *handler.AuthHandler
	profileHandler *handler.ProfileHandler
	userHandler    *handler.UserHandler
	roleHandler    *handler.RoleHandler
	healthHandler  *handler.HealthHandler

	authMw    *middleware.AuthMiddleware
	avatarDir string
	Config    *config.Config
}

func NewRouter(
	auth *handler.AuthHandler,
	profile *handler.ProfileHandler,
	user *handler.UserHandler,
	role *handler.RoleHandler,
	health *handler.HealthHandler,
	authMw *middleware.AuthMiddleware,
	avatarDir string,
	cfg *config.Config,
) *Router {
	return &Router{
		authHandler:    auth,
		profileHandler: profile,
		userHandler:    user,
		roleHandler:    role,
		healthHandler:  health,
		authMw:         authMw,
		avatarDir:      avatarDir,
		Config:         cfg,
	}
}

func (r *Router) SetupRoutes() *gin.Engine {
	if !r.Config.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(middleware.ContextMiddleware("http", r.Config.App.Timeout))
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.Recovery())
	router.Use(middleware.CORS())

	// Uploaded avatars are public.
	router.Static("/storage/avatars", r.avatarDir)

	api := router.Group("/api")
	{
		api.GET("/health", r.healthHandler.HealthCheck)

		api.Use(middleware.RateLimit(r.Config.RateLimit.Request, time.Duration(r.Config.RateLimit.Duration)*time.Second))

		r.authRoutes(api)
		r.profileRoutes(api)
		r.userRoutes(api)
		r.roleRoutes(api)
	}

	return router
}

// adminOnly chains the auth guard with the admin role gate.
func (r *Router) adminOnly() []gin.HandlerFunc {
	return []gin.HandlerFunc{
		r.authMw.RequireAuth(),
		middleware.RequireRole(constants.RoleAdmin),
	}
}
