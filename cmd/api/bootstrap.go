package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/complaint-analytics/internal/api/http"
	"github.com/spec-kit/complaint-analytics/internal/api/http/handlers"
	"github.com/spec-kit/complaint-analytics/internal/auth"
	"github.com/spec-kit/complaint-analytics/internal/config"
	"github.com/spec-kit/complaint-analytics/internal/observability"
	"github.com/spec-kit/complaint-analytics/internal/persistence"
	"github.com/spec-kit/complaint-analytics/internal/repository"
	"github.com/spec-kit/complaint-analytics/internal/service"
)

const shutdownTimeout = 10 * time.Second

// bootstrap owns process-wide dependencies, built on first use.
type bootstrap struct {
	cfg       *config.Config
	logger    *zap.Logger
	registry  *prometheus.Registry
	metrics   *observability.Metrics
	pg        *persistence.Postgres
	redis     *persistence.Redis
	analytics *service.AnalyticsService
}

func (rt *bootstrap) setup(ctx context.Context) error {
	if rt.analytics != nil {
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	rt.cfg = cfg

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	rt.logger = logger

	rt.registry = prometheus.NewRegistry()
	rt.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rt.metrics = observability.NewMetrics(rt.registry)

	pgCfg := cfg.Postgres
	pgCfg.AllowWrites = cfg.Postgres.RunMigrations
	pg, err := persistence.NewPostgres(ctx, pgCfg, logger)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	rt.pg = pg

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	loc, err := cfg.Analytics.Location()
	if err != nil {
		return err
	}

	pool := pg.PoolHandle()
	rt.analytics = service.NewAnalyticsService(service.AnalyticsDependencies{
		ComplaintRepo:    repository.NewComplaintRepository(pool),
		WardRepo:         repository.NewWardRepository(pool),
		ConfigRepo:       repository.NewConfigRepository(pool),
		UserRepo:         repository.NewUserRepository(pool),
		Logger:           logger,
		Metrics:          rt.metrics,
		Location:         loc,
		DefaultTrendDays: cfg.Analytics.DefaultTrendDays,
		MaxRangeDays:     cfg.Analytics.MaxRangeDays,
		SLATargetPct:     cfg.Analytics.SLATargetPct,
		DefaultPageSize:  cfg.Analytics.DefaultPageSize,
	})
	return nil
}

func (rt *bootstrap) serve(ctx context.Context) error {
	if err := rt.setup(ctx); err != nil {
		return err
	}
	cfg, logger := rt.cfg, rt.logger

	redis, err := persistence.NewRedis(ctx, cfg.Redis, logger)
	rt.redis = redis
	if err != nil {
		if cfg.Redis.Required {
			return err
		}
		logger.Warn("redis unreachable; export limiter will fail open", zap.Error(err))
	}
	limiter := redis.ExportLimiter(cfg.RateLimit.ExportPerMinute)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ErrorHandler: httptransport.ErrorHandler(logger, rt.metrics),
	})
	httptransport.RegisterMiddlewares(app, logger, rt.metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, rt.pg, rt.redis),
		Analytics:      handlers.NewAnalyticsHandler(rt.analytics, limiter, logger, rt.metrics),
		AuthMiddleware: auth.NewAuthMiddleware(auth.NewTokenManager(cfg.Auth.JWTSecret, 0)),
		Gatherer:       rt.registry,
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()))
		errCh <- app.Listen(cfg.App.Addr())
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("fiber listen: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	return app.ShutdownWithTimeout(shutdownTimeout)
}

func (rt *bootstrap) Close() {
	if rt.redis != nil {
		rt.redis.Close()
	}
	if rt.pg != nil {
		rt.pg.Close()
	}
	if rt.logger != nil {
		_ = rt.logger.Sync()
	}
}
