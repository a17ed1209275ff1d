package enums

import "fmt"

// CartEventType classifies entries in the cart audit log.
type CartEventType string

const (
	CartEventAdd               CartEventType = "ADD"
	CartEventRemove            CartEventType = "REMOVE"
	CartEventUpdate            CartEventType = "UPDATE"
	CartEventMerge             CartEventType = "MERGE"
	CartEventCheckoutStarted   CartEventType = "CHECKOUT_STARTED"
	CartEventCheckoutCompleted CartEventType = "CHECKOUT_COMPLETED"
)

var validCartEventTypes = []CartEventType{
	CartEventAdd,
	CartEventRemove,
	CartEventUpdate,
	CartEventMerge,
	CartEventCheckoutStarted,
	CartEventCheckoutCompleted,
}

// String implements fmt.Stringer.
func (c CartEventType) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CartEventType.
func (c CartEventType) IsValid() bool {
	for _, candidate := range validCartEventTypes {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCartEventType converts raw input into a CartEventType.
func ParseCartEventType(value string) (CartEventType, error) {
	for _, candidate := range validCartEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid cart event type %q", value)
}
