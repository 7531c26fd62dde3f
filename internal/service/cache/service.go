package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kapu/unichat-go/internal/domain"
	"github.com/kapu/unichat-go/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type CacheService struct {
	client *redis.Client
	logger *zap.Logger
}

const (
	hypeKeyPrefix     = "unichat:hype:"
	settingsKeyPrefix = "unichat:settings:"
	emoteKeyPrefix    = "unichat:emotes:"
)

type CacheConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

func NewCacheService(cfg CacheConfig, logger *zap.Logger) (*CacheService, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.NewCacheError("failed to connect to Redis", "ping", "", err)
	}

	logger.Info("Redis connected",
		zap.String("addr", fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)),
		zap.Int("db", cfg.DB),
	)

	return &CacheService{
		client: client,
		logger: logger,
	}, nil
}

func (c *CacheService) Get(ctx context.Context, key string, dest any) (bool, error) {
	value, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil // Key doesn't exist - not an error
	}
	if err != nil {
		c.logger.Error("Cache get failed", zap.String("key", key), zap.Error(err))
		return false, errors.NewCacheError("get failed", "get", key, err)
	}

	if dest != nil {
		if err := json.Unmarshal([]byte(value), dest); err != nil {
			c.logger.Error("Cache unmarshal failed", zap.String("key", key), zap.Error(err))
			return false, errors.NewCacheError("unmarshal failed", "get", key, err)
		}
	}

	return true, nil
}

func (c *CacheService) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	jsonData, err := json.Marshal(value)
	if err != nil {
		return errors.NewCacheError("marshal failed", "set", key, err)
	}

	if err := c.client.Set(ctx, key, jsonData, ttl).Err(); err != nil {
		c.logger.Error("Cache set failed", zap.String("key", key), zap.Error(err))
		return errors.NewCacheError("set failed", "set", key, err)
	}

	return nil
}

func (c *CacheService) Del(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.logger.Error("Cache delete failed", zap.String("key", key), zap.Error(err))
		return errors.NewCacheError("delete failed", "del", key, err)
	}
	return nil
}

// SetLatestHype overwrites the per-channel hype slot with the newest event.
// The slot holds only the latest event; overlay consumers poll it and
// de-duplicate by timestamp.
func (c *CacheService) SetLatestHype(ctx context.Context, channel string, event *domain.HypeEvent) error {
	return c.Set(ctx, hypeKeyPrefix+channel, event, 0)
}

// GetLatestHype reads the per-channel hype slot. Returns (nil, nil) when the
// slot is empty.
func (c *CacheService) GetLatestHype(ctx context.Context, channel string) (*domain.HypeEvent, error) {
	var event domain.HypeEvent
	found, err := c.Get(ctx, hypeKeyPrefix+channel, &event)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &event, nil
}

// SaveSettings persists user-entered settings keyed by tool name.
func (c *CacheService) SaveSettings(ctx context.Context, tool string, settings any) error {
	return c.Set(ctx, settingsKeyPrefix+tool, settings, 0)
}

// LoadSettings reads persisted settings for a tool. Returns false when none
// have been saved.
func (c *CacheService) LoadSettings(ctx context.Context, tool string, dest any) (bool, error) {
	return c.Get(ctx, settingsKeyPrefix+tool, dest)
}

// GetEmotePayload returns a cached provider response body, if present.
func (c *CacheService) GetEmotePayload(ctx context.Context, provider domain.Provider, channel string) ([]byte, bool) {
	key := emoteKey(provider, channel)
	value, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.logger.Debug("Emote cache miss", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return value, true
}

// SetEmotePayload caches a provider response body. Failures are logged only;
// the catalog never depends on the cache being writable.
func (c *CacheService) SetEmotePayload(ctx context.Context, provider domain.Provider, channel string, payload []byte, ttl time.Duration) {
	key := emoteKey(provider, channel)
	if err := c.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		c.logger.Warn("Failed to cache emote payload", zap.String("key", key), zap.Error(err))
	}
}

func emoteKey(provider domain.Provider, channel string) string {
	return fmt.Sprintf("%s%s:%s", emoteKeyPrefix, provider, channel)
}

func (c *CacheService) Close() error {
	if err := c.client.Close(); err != nil {
		c.logger.Error("Failed to close Redis connection", zap.Error(err))
		return err
	}
	c.logger.Info("Redis disconnected")
	return nil
}

func (c *CacheService) IsConnected(ctx context.Context) bool {
	return c.client.Ping(ctx).Err() == nil
}

func (c *CacheService) GetRedisClient() *redis.Client {
	return c.client
}
