package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-cart/pkg/db/models"
)

// EventReader loads the inputs of an abandonment report.
type EventReader interface {
	ListEvents(ctx context.Context, start, end time.Time) ([]models.CartEvent, error)
	LoadCarts(ctx context.Context, cartIDs []uuid.UUID) (map[uuid.UUID]*models.Cart, error)
}

// Repository reads cart events and carts through gorm.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListEvents returns events with start <= timestamp <= end, oldest first.
func (r *Repository) ListEvents(ctx context.Context, start, end time.Time) ([]models.CartEvent, error) {
	var events []models.CartEvent
	err := r.db.WithContext(ctx).
		Where(`"timestamp" >= ? AND "timestamp" <= ?`, start.UTC(), end.UTC()).
		Order(`"timestamp" ASC`).
		Order("id ASC").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("list cart events: %w", err)
	}
	return events, nil
}

// LoadCarts returns the carts that still exist among cartIDs, with items and
// variant prices.
func (r *Repository) LoadCarts(ctx context.Context, cartIDs []uuid.UUID) (map[uuid.UUID]*models.Cart, error) {
	out := make(map[uuid.UUID]*models.Cart, len(cartIDs))
	if len(cartIDs) == 0 {
		return out, nil
	}
	var carts []models.Cart
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Items.Variant").
		Where("id IN ?", cartIDs).
		Find(&carts).Error
	if err != nil {
		return nil, fmt.Errorf("load carts: %w", err)
	}
	for i := range carts {
		out[carts[i].ID] = &carts[i]
	}
	return out, nil
}
