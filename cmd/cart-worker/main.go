package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/storefront-cart/api/controllers"
	"github.com/angelmondragon/storefront-cart/api/routes"
	"github.com/angelmondragon/storefront-cart/internal/analytics"
	"github.com/angelmondragon/storefront-cart/internal/cron"
	"github.com/angelmondragon/storefront-cart/pkg/config"
	"github.com/angelmondragon/storefront-cart/pkg/db"
	"github.com/angelmondragon/storefront-cart/pkg/instance"
	"github.com/angelmondragon/storefront-cart/pkg/logger"
	"github.com/angelmondragon/storefront-cart/pkg/metrics"
	"github.com/angelmondragon/storefront-cart/pkg/migrate"
	"github.com/angelmondragon/storefront-cart/pkg/redis"
)

const (
	serviceName     = "cart-worker"
	reportCacheName = "abandonment:latest"
	shutdownTimeout = 10 * time.Second
)

func main() {
	logg := logger.New(logger.Options{ServiceName: serviceName})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	cfg.Service.Kind = serviceName

	logg = logger.FromConfig(serviceName, cfg.App, nil)

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	service, err := buildCron(cfg, logg, dbClient, redisClient)
	if err != nil {
		logg.Error(context.Background(), "failed to build cron service", err)
		os.Exit(1)
	}

	server := &http.Server{
		Addr: fmt.Sprintf(":%s", cfg.App.Port),
		Handler: routes.NewRouter(cfg, logg, prometheus.DefaultGatherer, map[string]controllers.Pinger{
			"db":    dbClient,
			"redis": redisClient,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"addr":        server.Addr,
		"instance":    instance.GetID(),
	})
	logg.Info(ctx, "starting cart worker")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return service.Run(gctx)
	})
	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("ops server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cart worker stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "cart worker shutting down gracefully")
}

func buildCron(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client) (*cron.Service, error) {
	reports, err := analytics.NewService(analytics.ServiceParams{
		Reader:       analytics.NewRepository(dbClient.DB()),
		Logger:       logg,
		AbandonAfter: cfg.Analytics.AbandonAfter,
	})
	if err != nil {
		return nil, fmt.Errorf("analytics service: %w", err)
	}

	cache, err := analytics.NewReportCache(redisClient, redisClient.ReportKey(reportCacheName), cfg.Analytics.ReportCacheTTL)
	if err != nil {
		return nil, fmt.Errorf("report cache: %w", err)
	}

	job, err := cron.NewAbandonmentReportJob(cron.AbandonmentReportJobParams{
		Logger:   logg,
		Reports:  reports,
		Sinks:    []cron.ReportSink{cache, cron.GaugeSink{Gauges: metrics.NewAbandonmentGauges(prometheus.DefaultRegisterer)}},
		Lookback: cfg.Analytics.ReportLookback,
	})
	if err != nil {
		return nil, fmt.Errorf("abandonment report job: %w", err)
	}

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(serviceName+":"+lockEnv(cfg.App.Env)), 0)
	if err != nil {
		return nil, fmt.Errorf("cron lock: %w", err)
	}

	return cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(job),
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Analytics.ReportInterval,
	})
}

func lockEnv(env string) string {
	if env == "" {
		return "local"
	}
	return env
}
