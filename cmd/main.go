package main

import (
	"os"
	"os/signal"
	"syscall"

	configs "github.com/hinsy/accounts-service/config"
	"github.com/hinsy/accounts-service/internal/handler"
	"github.com/hinsy/accounts-service/internal/middleware"
	"github.com/hinsy/accounts-service/internal/repository"
	"github.com/hinsy/accounts-service/internal/router"
	"github.com/hinsy/accounts-service/internal/service"
	"github.com/hinsy/accounts-service/pkg/cache"
	"github.com/hinsy/accounts-service/pkg/database"
	"github.com/hinsy/accounts-service/pkg/logger"
	"github.com/hinsy/accounts-service/pkg/redis"
	"github.com/hinsy/accounts-service/pkg/storage"
	"go.uber.org/zap"
)

func main() {
	config, err := configs.LoadConfig()
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}

	// Initialize Zap logger
	if err := logger.InitLogger(config.App.Environment); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	logger.GetLogger().Info("Application starting",
		zap.String("app_name", config.App.Name),
		zap.String("environment", config.App.Environment),
		zap.String("version", "1.0.0"),
	)

	// Database
	db, err := database.NewPostgresDB(config)
	if err != nil {
		logger.GetLogger().Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.CloseDB(db)

	if err := database.AutoMigrate(db); err != nil {
		logger.GetLogger().Fatal("Failed to run database migrations", zap.Error(err))
	}
	logger.GetLogger().Info("Database migrated successfully")

	if err := database.CreateIndexes(db); err != nil {
		logger.GetLogger().Warn("Failed to create database indexes", zap.Error(err))
	}

	// Seed roles and default accounts; existing rows are left alone.
	if err := database.Seed(db); err != nil {
		logger.GetLogger().Error("Failed to seed database", zap.Error(err))
	} else {
		logger.GetLogger().Info("Database seeded successfully")
	}

	// Redis token cache, optional
	redisClient, err := redis.NewClient(config)
	if err != nil {
		logger.GetLogger().Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()

	// Avatar file store
	avatarStore, err := storage.NewAvatarStore(config.Storage.AvatarDir, config.App.BaseURL, config.Storage.MaxAvatarSize)
	if err != nil {
		logger.GetLogger().Fatal("Failed to initialize avatar store", zap.Error(err))
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	tokenRepo := repository.NewTokenRepository(db)

	// Services
	var tokenCache service.TokenCache
	if redisClient.IsEnabled() {
		tokenCache = redisClient
	} else {
		memCache := cache.NewTokenCache(config.Redis.CacheTTL)
		defer memCache.Close()
		tokenCache = memCache
	}
	tokenService := service.NewTokenService(tokenRepo, tokenCache, config.Auth.TokenTTL)
	authService := service.NewAuthService(userRepo, roleRepo, tokenService)
	userService := service.NewUserService(userRepo, roleRepo, tokenService)
	roleService := service.NewRoleService(roleRepo)

	// Handlers
	authHandler := handler.NewAuthHandler(authService, avatarStore)
	profileHandler := handler.NewProfileHandler(authService, avatarStore)
	userHandler := handler.NewUserHandler(userService, avatarStore)
	roleHandler := handler.NewRoleHandler(roleService)
	healthHandler := handler.NewHealthHandler(db, redisClient)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(tokenService, userRepo)

	r := router.NewRouter(
		authHandler,
		profileHandler,
		userHandler,
		roleHandler,
		healthHandler,
		authMiddleware,
		avatarStore.Dir(),
		config,
	).SetupRoutes()

	go func() {
		logger.GetLogger().Info("Server starting",
			zap.String("port", config.App.Port),
			zap.String("host", "0.0.0.0"),
		)
		if err := r.Run(":" + config.App.Port); err != nil {
			logger.GetLogger().Fatal("Failed to start server",
				zap.Error(err),
				zap.String("port", config.App.Port),
			)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.GetLogger().Info("Shutting down server...")
}
