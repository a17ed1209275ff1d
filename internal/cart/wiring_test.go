package cart

import (
	"context"
	"io"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-cart/pkg/config"
	"github.com/angelmondragon/storefront-cart/pkg/db"
	"github.com/angelmondragon/storefront-cart/pkg/logger"
)

func TestNewServiceFromConfig(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	reg := prometheus.NewRegistry()
	logg := logger.New(logger.Options{ServiceName: "cart-test", Output: io.Discard})

	svc, err := NewServiceFromConfig(config.CartConfig{MaxAddAttempts: 5}, db.FromConn(f.conn), logg, reg)
	require.NoError(t, err)
	assert.Equal(t, 5, svc.(*service).maxAddAttempts)

	_, err = svc.AddItem(ctx, SessionIdentity("guest"), f.variant(t, "1.00", 3), 1)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, SessionIdentity("guest"), f.variant(t, "1.00", 3), 4)
	require.Error(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)
	values := map[string]float64{}
	for _, family := range families {
		if len(family.GetMetric()) > 0 {
			values[family.GetName()] = family.GetMetric()[0].GetCounter().GetValue()
		}
	}
	assert.Equal(t, float64(1), values["storefront_cart_items_added_total"])
	assert.Equal(t, float64(1), values["storefront_cart_insufficient_stock_total"])
}

func TestNewServiceFromConfigDefaultsAndRejects(t *testing.T) {
	f := newFixture(t)
	logg := logger.New(logger.Options{ServiceName: "cart-test", Output: io.Discard})

	svc, err := NewServiceFromConfig(config.CartConfig{}, db.FromConn(f.conn), logg, nil)
	require.NoError(t, err)
	assert.Equal(t, defaultMaxAddAttempts, svc.(*service).maxAddAttempts)

	_, err = NewServiceFromConfig(config.CartConfig{MaxAddAttempts: -1}, db.FromConn(f.conn), logg, nil)
	assert.Error(t, err)

	_, err = NewServiceFromConfig(config.CartConfig{}, nil, logg, nil)
	assert.Error(t, err)

	_, err = NewServiceFromConfig(config.CartConfig{}, db.FromConn(f.conn), nil, nil)
	assert.Error(t, err)
}
