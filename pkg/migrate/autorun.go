package migrate

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront-cart/pkg/config"
	"github.com/angelmondragon/storefront-cart/pkg/db"
	"github.com/angelmondragon/storefront-cart/pkg/logger"
)

// MaybeRunDev applies the embedded migrations on boot, only in dev and only
// when STOREFRONT_AUTO_MIGRATE is set.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "dir": DefaultDir})
	logg.Info(ctx, "running migrations (dev auto-run)")

	var out strings.Builder
	if err := Run(ctx, sqlDB, DefaultDir, "up", &out); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	logg.Info(logg.WithField(ctx, "result", strings.TrimSpace(out.String())), "migrations completed")
	return nil
}
