package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-cart/pkg/db/models"
	"github.com/angelmondragon/storefront-cart/pkg/enums"
)

// Store is the persistence surface for carts. Every method is atomic. Finders
// return a nil result without error when the row is absent.
type Store interface {
	WithTx(tx *gorm.DB) Store
	FindByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	FindBySession(ctx context.Context, sessionID string) (*models.Cart, error)
	FindByID(ctx context.Context, cartID uuid.UUID) (*models.Cart, error)
	Create(ctx context.Context, identity Identity) (*models.Cart, error)
	FindItem(ctx context.Context, cartID, variantID uuid.UUID) (*models.CartItem, error)
	FindItemByID(ctx context.Context, itemID uuid.UUID) (*models.CartItem, error)
	InsertItem(ctx context.Context, cartID, variantID uuid.UUID, quantity int) (*models.CartItem, error)
	SetItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) (*models.CartItem, error)
	IncrementItem(ctx context.Context, itemID uuid.UUID, delta, limit int) (*models.CartItem, error)
	DeleteItem(ctx context.Context, itemID uuid.UUID) error
	DeleteCart(ctx context.Context, cartID uuid.UUID) error
	MergeInto(ctx context.Context, sourceCartID, targetCartID uuid.UUID, check LineCheck) error
	ClearItems(ctx context.Context, userID uuid.UUID) error
}

// LineCheck vets the quantity a merged line would end up with. A non-nil
// error aborts the merge.
type LineCheck func(ctx context.Context, variantID uuid.UUID, quantity int) error

// StockOracle reports the authoritative on-hand count of a variant.
type StockOracle interface {
	GetStock(ctx context.Context, variantID uuid.UUID) (int, error)
}

// EventSink persists cart audit events.
type EventSink interface {
	Record(ctx context.Context, cartID uuid.UUID, userID *uuid.UUID, eventType enums.CartEventType) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}
