package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-cart/pkg/enums"
)

// CartEvent is an append-only audit record. CartID carries no foreign key so
// the history outlives the cart it describes.
type CartEvent struct {
	ID        uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	CartID    uuid.UUID           `gorm:"column:cart_id;type:uuid;not null;index:ix_cart_events_cart_id"`
	UserID    *uuid.UUID          `gorm:"column:user_id;type:uuid"`
	EventType enums.CartEventType `gorm:"column:event_type;type:text;not null"`
	Timestamp time.Time           `gorm:"column:timestamp;not null;index:ix_cart_events_timestamp"`
}

func (CartEvent) TableName() string { return "cart_events" }

func (e *CartEvent) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	return nil
}
