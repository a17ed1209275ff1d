package cart

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/storefront-cart/internal/variants"
	"github.com/angelmondragon/storefront-cart/pkg/config"
	"github.com/angelmondragon/storefront-cart/pkg/db"
	"github.com/angelmondragon/storefront-cart/pkg/logger"
	"github.com/angelmondragon/storefront-cart/pkg/metrics"
)

// NewServiceFromConfig assembles the gorm-backed cart service: carts, audit
// events and the stock oracle share client's connection, and the cart
// counters register on reg. A nil reg disables metrics.
func NewServiceFromConfig(cfg config.CartConfig, client *db.Client, logg *logger.Logger, reg prometheus.Registerer) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("database client required")
	}
	if cfg.MaxAddAttempts < 0 {
		return nil, fmt.Errorf("cart max add attempts must not be negative, got %d", cfg.MaxAddAttempts)
	}

	conn := client.DB()
	return NewService(ServiceParams{
		Store:          NewRepository(conn),
		Tx:             client,
		Stock:          variants.NewRepository(conn),
		Events:         NewEventRepository(conn),
		Logger:         logg,
		Metrics:        metrics.NewCartMetrics(reg),
		MaxAddAttempts: cfg.MaxAddAttempts,
	})
}
