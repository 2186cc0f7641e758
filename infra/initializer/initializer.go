package initializer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/amirasaad/backoffice/infra"
	infraaudit "github.com/amirasaad/backoffice/infra/audit"
	infracache "github.com/amirasaad/backoffice/infra/cache"
	infrarepository "github.com/amirasaad/backoffice/infra/repository"
	"github.com/amirasaad/backoffice/pkg/app"
	"github.com/amirasaad/backoffice/pkg/audit"
	"github.com/amirasaad/backoffice/pkg/cache"
	"github.com/amirasaad/backoffice/pkg/config"
	"github.com/redis/go-redis/v9"
)

// InitializeDependencies opens the database, migrates it and builds the
// balance cache and audit sink selected by cfg. The returned cleanup releases
// every connection that was opened.
func InitializeDependencies(cfg *config.App) (
	deps *app.Deps,
	cleanup func(),
	err error,
) {
	logger := setupLogger(cfg.Log)
	deps = &app.Deps{Logger: logger}
	var closers []io.Closer
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if cerr := closers[i].Close(); cerr != nil {
				logger.Warn("Failed to close dependency", "error", cerr)
			}
		}
	}
	defer func() {
		if err != nil {
			closeAll()
		}
	}()

	db, err := infra.NewDBConnection(cfg.DB, cfg.Env)
	if err != nil {
		logger.Error("Failed to initialize database", "error", err)
		return nil, nil, err
	}
	if sqlDB, dbErr := db.DB(); dbErr == nil {
		closers = append(closers, sqlDB)
	}
	if err = infra.Migrate(db); err != nil {
		logger.Error("Failed to migrate database", "error", err)
		return nil, nil, err
	}
	deps.Uow = infrarepository.NewUoW(db)

	balances, closer, err := newBalanceCache(cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize balance cache: %w", err)
	}
	if closer != nil {
		closers = append(closers, closer)
	}
	deps.Balances = balances

	sink, closer, err := newAuditSink(cfg.Audit, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize audit sink: %w", err)
	}
	if closer != nil {
		closers = append(closers, closer)
	}
	deps.Audit = sink

	logger.Info("Dependencies initialized",
		"cache", cfg.Cache.Backend,
		"audit", cfg.Audit.Sink,
	)
	return deps, closeAll, nil
}

type closeFunc func()

func (f closeFunc) Close() error { f(); return nil }

func newBalanceCache(cfg *config.App, logger *slog.Logger) (cache.BalanceCache, io.Closer, error) {
	switch cfg.Cache.Backend {
	case "", "memory":
		c := infracache.NewMemoryBalanceCache(cfg.Cache.TTL)
		return c, closeFunc(c.Close), nil
	case "none":
		return cache.Nop{}, nil, nil
	case "redis":
		opt, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		opt.PoolSize = cfg.Redis.PoolSize
		opt.DialTimeout = cfg.Redis.DialTimeout
		opt.ReadTimeout = cfg.Redis.ReadTimeout
		opt.WriteTimeout = cfg.Redis.WriteTimeout
		c := infracache.NewRedisBalanceCache(opt, cfg.Redis.KeyPrefix, cfg.Cache.TTL, logger)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.Ping(ctx); err != nil {
			_ = c.Close()
			return nil, nil, fmt.Errorf("redis ping: %w", err)
		}
		logger.Info("Using redis balance cache", "prefix", cfg.Redis.KeyPrefix)
		return c, c, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}

func newAuditSink(cfg *config.Audit, logger *slog.Logger) (audit.Sink, io.Closer, error) {
	if cfg == nil {
		return infraaudit.NewLogSink(logger), nil, nil
	}
	switch cfg.Sink {
	case "", "log":
		return infraaudit.NewLogSink(logger), nil, nil
	case "kafka":
		s, err := infraaudit.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	case "amqp":
		s, err := infraaudit.NewAMQPSink(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRoutingKey, logger)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	default:
		return nil, nil, errors.New("unknown audit sink " + cfg.Sink)
	}
}
