package app

import (
	"context"

	"github.com/kapu/unichat-go/internal/config"
	"github.com/kapu/unichat-go/internal/server"
	"github.com/kapu/unichat-go/internal/service/cache"
	"github.com/kapu/unichat-go/internal/session"
	"go.uber.org/zap"
)

// Container holds the wired application graph.
type Container struct {
	Config  *config.Config
	Logger  *zap.Logger
	Cache   *cache.CacheService
	Session *session.Session
	Server  *server.Server
}

// Build wires the application. Redis being unreachable is not fatal: the
// session runs with history-only overlays and no provider-response cache.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Container, error) {
	cacheService, err := cache.NewCacheService(cache.CacheConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, logger)
	if err != nil {
		logger.Warn("Redis unavailable, continuing without cache", zap.Error(err))
		cacheService = nil
	}

	sess := session.New(cfg, cacheService, logger)
	srv := server.New(cfg.Server.Addr, sess, cacheService, logger)

	return &Container{
		Config:  cfg,
		Logger:  logger,
		Cache:   cacheService,
		Session: sess,
		Server:  srv,
	}, nil
}

// Shutdown stops the session and releases outbound connections.
func (c *Container) Shutdown(ctx context.Context) {
	c.Session.Stop()

	if err := c.Server.Shutdown(ctx); err != nil {
		c.Logger.Error("HTTP server shutdown failed", zap.Error(err))
	}

	if c.Cache != nil {
		if err := c.Cache.Close(); err != nil {
			c.Logger.Error("Cache close failed", zap.Error(err))
		}
	}
}
