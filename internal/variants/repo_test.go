package variants

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-cart/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-cart/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-cart/pkg/errors"
)

func TestRepositoryGetStock(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(dbtest.Open(t))

	variant, err := repo.Create(ctx, &models.ProductVariant{
		SKU:   "TEE-RED-M",
		Name:  "Tee red M",
		Price: decimal.RequireFromString("19.99"),
		Stock: 4,
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, variant.ID)

	stock, err := repo.GetStock(ctx, variant.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, stock)

	require.NoError(t, repo.SetStock(ctx, variant.ID, 0))
	stock, err = repo.GetStock(ctx, variant.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stock)

	loaded, err := repo.FindByID(ctx, variant.ID)
	require.NoError(t, err)
	assert.True(t, loaded.Price.Equal(decimal.RequireFromString("19.99")))
}

func TestRepositoryMissingVariant(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(dbtest.Open(t))
	missing := uuid.New()

	_, err := repo.GetStock(ctx, missing)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = repo.FindByID(ctx, missing)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	err = repo.SetStock(ctx, missing, 3)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	err = repo.SetStock(ctx, missing, -1)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
