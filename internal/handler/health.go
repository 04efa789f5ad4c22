package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hinsy/accounts-service/pkg/logger"
	"github.com/hinsy/accounts-service/pkg/redis"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db          *gorm.DB
	redisClient *redis.Client
}

type HealthCheckResponse struct {
	Status    string                 `json:"status"`
	Version   string                 `json:"version"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]HealthCheck `json:"checks"`
}

type HealthCheck struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

func NewHealthHandler(db *gorm.DB, redisClient *redis.Client) *HealthHandler {
	return &HealthHandler{
		db:          db,
		redisClient: redisClient,
	}
}

// HealthCheck reports DB and Redis status. Redis is optional and never
// degrades the overall status.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	resp := HealthCheckResponse{
		Status:    "healthy",
		Version:   "1.0.0",
		Timestamp: time.Now(),
		Checks:    make(map[string]HealthCheck),
	}

	dbStatus := h.checkDatabase(ctx)
	resp.Checks["database"] = dbStatus
	if dbStatus.Status != "healthy" {
		resp.Status = "unhealthy"
	}

	resp.Checks["redis"] = h.checkRedis(ctx)

	statusCode := http.StatusOK
	if resp.Status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	logger.GetLogger().Debug("Health check performed",
		zap.String("overall_status", resp.Status),
		zap.Int("status_code", statusCode),
	)

	c.JSON(statusCode, resp)
}

func (h *HealthHandler) checkDatabase(ctx context.Context) HealthCheck {
	if h.db == nil {
		return HealthCheck{Status: "unhealthy", Message: "database not configured"}
	}

	sqlDB, err := h.db.DB()
	if err != nil {
		return HealthCheck{Status: "unhealthy", Message: err.Error()}
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return HealthCheck{Status: "unhealthy", Message: err.Error()}
	}

	return HealthCheck{Status: "healthy"}
}

func (h *HealthHandler) checkRedis(ctx context.Context) HealthCheck {
	if !h.redisClient.IsEnabled() {
		return HealthCheck{Status: "disabled", Message: "redis not configured"}
	}

	if err := h.redisClient.Ping(ctx); err != nil {
		return HealthCheck{Status: "unhealthy", Message: err.Error()}
	}

	return HealthCheck{Status: "healthy"}
}
