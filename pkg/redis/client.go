package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hinsy/accounts-service/config"
	"github.com/hinsy/accounts-service/internal/constants"
	"github.com/hinsy/accounts-service/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Client wraps the Redis connection used as the token-resolution cache.
// A nil *Client is valid and means caching is disabled.
type Client struct {
	rdb      *redis.Client
	cacheTTL time.Duration
}

// NewClient connects to Redis per config. Returns (nil, nil) when Redis is
// disabled so callers can wire the absence straight through.
func NewClient(cfg *config.Config) (*Client, error) {
	if !cfg.Redis.Enabled {
		logger.GetLogger().Info("Redis disabled, token cache off")
		return nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddress(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.Database,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
		PoolTimeout:  cfg.Redis.PoolTimeout,
	})

	client := &Client{rdb: rdb, cacheTTL: cfg.Redis.CacheTTL}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx); err != nil {
		logger.GetLogger().Error("Failed to connect to Redis",
			zap.String("address", cfg.RedisAddress()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.GetLogger().Info("Connected to Redis",
		zap.String("address", cfg.RedisAddress()),
		zap.Int("database", cfg.Redis.Database),
	)

	return client, nil
}

func (c *Client) Ping(ctx context.Context) error {
	if c == nil {
		return fmt.Errorf("redis disabled")
	}
	return c.rdb.Ping(ctx).Err()
}

func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	return c.rdb.Close()
}

func (c *Client) IsEnabled() bool {
	return c != nil
}

// GetToken looks up a cached token key and returns the owning user id and
// the token's issuance time. Values are stored as "<userID>:<issuedUnix>".
func (c *Client) GetToken(ctx context.Context, key string) (uint, time.Time, bool) {
	if c == nil {
		return 0, time.Time{}, false
	}

	value, err := c.rdb.Get(ctx, constants.CacheKeyToken+key).Result()
	if err != nil {
		if err != redis.Nil {
			logger.GetLogger().Warn("Token cache read failed", zap.Error(err))
		}
		return 0, time.Time{}, false
	}

	uidPart, issuedPart, found := strings.Cut(value, ":")
	if !found {
		return 0, time.Time{}, false
	}
	userID, err := strconv.ParseUint(uidPart, 10, 32)
	if err != nil {
		return 0, time.Time{}, false
	}
	issuedUnix, err := strconv.ParseInt(issuedPart, 10, 64)
	if err != nil {
		return 0, time.Time{}, false
	}
	return uint(userID), time.Unix(issuedUnix, 0), true
}

// SetToken caches a token key with a bounded TTL so revoke-all paths that
// cannot enumerate keys converge quickly.
func (c *Client) SetToken(ctx context.Context, key string, userID uint, issuedAt time.Time) {
	if c == nil {
		return
	}

	value := strconv.FormatUint(uint64(userID), 10) + ":" + strconv.FormatInt(issuedAt.Unix(), 10)
	if err := c.rdb.Set(ctx, constants.CacheKeyToken+key, value, c.cacheTTL).Err(); err != nil {
		logger.GetLogger().Warn("Token cache write failed", zap.Error(err))
	}
}

// DeleteToken drops a cached token key on revoke.
func (c *Client) DeleteToken(ctx context.Context, key string) {
	if c == nil {
		return
	}

	if err := c.rdb.Del(ctx, constants.CacheKeyToken+key).Err(); err != nil {
		logger.GetLogger().Warn("Token cache delete failed", zap.Error(err))
	}
}
