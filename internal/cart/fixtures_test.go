package cart

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-cart/internal/variants"
	"github.com/angelmondragon/storefront-cart/pkg/db"
	"github.com/angelmondragon/storefront-cart/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-cart/pkg/db/models"
	"github.com/angelmondragon/storefront-cart/pkg/enums"
	"github.com/angelmondragon/storefront-cart/pkg/logger"
)

type fixture struct {
	conn     *gorm.DB
	repo     *Repository
	variants *variants.Repository
	events   *EventRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return fixtureOn(dbtest.Open(t))
}

// newStrictFixture rejects rows that reference a missing cart or variant,
// the way postgres does.
func newStrictFixture(t *testing.T) *fixture {
	t.Helper()
	conn := dbtest.Open(t)
	dbtest.EnforceForeignKeys(t, conn)
	return fixtureOn(conn)
}

func fixtureOn(conn *gorm.DB) *fixture {
	return &fixture{
		conn:     conn,
		repo:     NewRepository(conn),
		variants: variants.NewRepository(conn),
		events:   NewEventRepository(conn),
	}
}

func (f *fixture) variant(t *testing.T, price string, stock int) uuid.UUID {
	t.Helper()
	v, err := f.variants.Create(context.Background(), &models.ProductVariant{
		SKU:   "SKU-" + uuid.NewString()[:8],
		Name:  "variant",
		Price: decimal.RequireFromString(price),
		Stock: stock,
	})
	require.NoError(t, err)
	return v.ID
}

func (f *fixture) service(t *testing.T, store Store, sink EventSink, attempts int) Service {
	t.Helper()
	return f.build(t, ServiceParams{Store: store, Events: sink, MaxAddAttempts: attempts})
}

// build fills any dependency left unset in params from the fixture.
func (f *fixture) build(t *testing.T, params ServiceParams) Service {
	t.Helper()
	if params.Store == nil {
		params.Store = f.repo
	}
	if params.Events == nil {
		params.Events = f.events
	}
	if params.Stock == nil {
		params.Stock = f.variants
	}
	params.Tx = db.FromConn(f.conn)
	params.Logger = logger.New(logger.Options{ServiceName: "cart-test", Output: io.Discard})
	svc, err := NewService(params)
	require.NoError(t, err)
	return svc
}

func (f *fixture) defaultService(t *testing.T) Service {
	return f.service(t, f.repo, f.events, 0)
}

func (f *fixture) itemRows(t *testing.T, cartID, variantID uuid.UUID) []models.CartItem {
	t.Helper()
	var rows []models.CartItem
	require.NoError(t, f.conn.Where("cart_id = ? AND variant_id = ?", cartID, variantID).Find(&rows).Error)
	return rows
}

func (f *fixture) eventTypes(t *testing.T, cartID uuid.UUID) []enums.CartEventType {
	t.Helper()
	var rows []models.CartEvent
	require.NoError(t, f.conn.Where("cart_id = ?", cartID).Order("timestamp ASC, rowid ASC").Find(&rows).Error)
	out := make([]enums.CartEventType, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.EventType)
	}
	return out
}
