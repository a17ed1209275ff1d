package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/storefront-cart/internal/analytics"
	"github.com/angelmondragon/storefront-cart/pkg/config"
	"github.com/angelmondragon/storefront-cart/pkg/db"
	"github.com/angelmondragon/storefront-cart/pkg/logger"
	"github.com/angelmondragon/storefront-cart/pkg/redis"
)

const reportCacheName = "abandonment:latest"

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "cart-report"})

	_ = godotenv.Load()

	start := flag.String("start", "", "window start (RFC3339)")
	end := flag.String("end", "", "window end (RFC3339), defaults to now")
	latest := flag.Bool("latest", false, "print the report cached by the cart worker instead of computing one")
	flag.Parse()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.FromConfig("cart-report", cfg.App, os.Stderr)

	var report *analytics.Report
	if *latest {
		report, err = cachedReport(ctx, cfg, logg)
		requireResource(ctx, logg, "cached report", err)
		if report == nil {
			fmt.Fprintln(os.Stderr, "no cached report yet")
			os.Exit(1)
		}
	} else {
		window, err := parseWindow(*start, *end, time.Now())
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid window: %v\n", err)
			os.Exit(2)
		}
		report, err = computeReport(ctx, cfg, logg, window)
		requireResource(ctx, logg, "report", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		fmt.Fprintf(os.Stderr, "encode report: %v\n", err)
		os.Exit(1)
	}
}

func parseWindow(start, end string, now time.Time) (analytics.Range, error) {
	if start == "" {
		return analytics.Range{}, fmt.Errorf("-start is required")
	}
	from, err := time.Parse(time.RFC3339, start)
	if err != nil {
		return analytics.Range{}, fmt.Errorf("parse -start: %w", err)
	}
	to := now
	if end != "" {
		if to, err = time.Parse(time.RFC3339, end); err != nil {
			return analytics.Range{}, fmt.Errorf("parse -end: %w", err)
		}
	}
	return analytics.Range{Start: from, End: to}, nil
}

func computeReport(ctx context.Context, cfg *config.Config, logg *logger.Logger, window analytics.Range) (*analytics.Report, error) {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return nil, err
	}
	defer dbClient.Close()

	reports, err := analytics.NewService(analytics.ServiceParams{
		Reader:       analytics.NewRepository(dbClient.DB()),
		Logger:       logg,
		AbandonAfter: cfg.Analytics.AbandonAfter,
	})
	if err != nil {
		return nil, err
	}
	return reports.GetAbandonmentReport(ctx, window.Start, window.End)
}

func cachedReport(ctx context.Context, cfg *config.Config, logg *logger.Logger) (*analytics.Report, error) {
	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return nil, err
	}
	defer redisClient.Close()

	cache, err := analytics.NewReportCache(redisClient, redisClient.ReportKey(reportCacheName), cfg.Analytics.ReportCacheTTL)
	if err != nil {
		return nil, err
	}
	return cache.Latest(ctx)
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
