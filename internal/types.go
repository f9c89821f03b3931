package internal

import (
	"context"

	"github.com/Rezanikmanesh-79/Karamoozi/config"
	"github.com/Rezanikmanesh-79/Karamoozi/internal/crawler"
	"github.com/Rezanikmanesh-79/Karamoozi/logger"
	"github.com/Rezanikmanesh-79/Karamoozi/services/cache"
	"github.com/Rezanikmanesh-79/Karamoozi/services/publisher"
	"github.com/Rezanikmanesh-79/Karamoozi/services/sink"
)

// Dependencies holds all service dependencies. Optional services are nil when
// not configured.
type Dependencies struct {
	Sink      *sink.FileSink
	Cache     cache.CacheService
	Publisher publisher.Publisher
	Postgres  *sink.PostgresMirror
}

// Mirrors returns the configured corpus mirrors
func (d *Dependencies) Mirrors() []crawler.Mirror {
	var mirrors []crawler.Mirror
	if d.Publisher != nil {
		mirrors = append(mirrors, publisher.NewCorpusMirror(d.Publisher))
	}
	if d.Postgres != nil {
		mirrors = append(mirrors, d.Postgres)
	}
	return mirrors
}

// Cleanup closes every open service
func (d *Dependencies) Cleanup() {
	if d.Publisher != nil {
		if err := d.Publisher.Close(); err != nil {
			logger.Warn("Failed to close publisher: %v", err)
		}
	}
	if d.Postgres != nil {
		if err := d.Postgres.Close(); err != nil {
			logger.Warn("Failed to close database: %v", err)
		}
	}
}

// InitializeServices connects the services cfg enables. Optional services that
// cannot be reached are logged and left out; the corpus file needs none of them.
func InitializeServices(ctx context.Context, cfg *config.Config) *Dependencies {
	deps := &Dependencies{Sink: sink.NewFileSink(cfg.OutputPath)}

	if cfg.MemcacheAddr != "" {
		mc := cache.NewMemcacheService(cfg.MemcacheAddr, "karamoozi:")
		if err := mc.Ping(); err != nil {
			logger.Warn("Memcache at %s unavailable, running without cache: %v", cfg.MemcacheAddr, err)
		} else {
			deps.Cache = mc
			logger.Info("Connected to Memcache at %s", cfg.MemcacheAddr)
		}
	}

	if cfg.RedisAddr != "" {
		redisPublisher := publisher.NewRedisPublisher(
			cfg.RedisAddr,
			cfg.RedisDB,
			cfg.RedisStream,
			cfg.RedisStreamCount,
			cfg.RedisStreamMaxLength,
		)
		if err := redisPublisher.Ping(ctx); err != nil {
			logger.Warn("Redis at %s unavailable, corpus will not be published: %v", cfg.RedisAddr, err)
			redisPublisher.Close()
		} else {
			deps.Publisher = redisPublisher
			logger.Info("Connected to Redis at %s (DB: %d, Stream: %s)", cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)
		}
	}

	if cfg.DatabaseURL != "" {
		pg, err := sink.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Warn("Database unavailable, corpus will not be mirrored: %v", err)
		} else {
			deps.Postgres = pg
			logger.Info("Connected to Postgres")
		}
	}

	return deps
}
