package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-cart/pkg/db/models"
	"github.com/angelmondragon/storefront-cart/pkg/enums"
)

// EventRepository appends to the cart_events log.
type EventRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewEventRepository(conn *gorm.DB) *EventRepository {
	return &EventRepository{db: conn, now: func() time.Time { return time.Now().UTC() }}
}

// Record appends one event stamped with the current time.
func (r *EventRepository) Record(ctx context.Context, cartID uuid.UUID, userID *uuid.UUID, eventType enums.CartEventType) error {
	if !eventType.IsValid() {
		return fmt.Errorf("record cart event: unknown type %q", eventType)
	}
	event := &models.CartEvent{
		CartID:    cartID,
		UserID:    userID,
		EventType: eventType,
		Timestamp: r.now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("record cart event: %w", err)
	}
	return nil
}
