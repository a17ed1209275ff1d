package analytics

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-cart/pkg/db/models"
	"github.com/angelmondragon/storefront-cart/pkg/enums"
)

// DefaultAbandonAfter is how long after its first ADD a cart without a
// completed checkout counts as abandoned.
const DefaultAbandonAfter = time.Hour

type cartActivity struct {
	firstAdd    time.Time
	hasAdd      bool
	hasCheckout bool
}

// Compute classifies carts from their events. events must be ordered by
// timestamp ascending; carts holds the current state of every referenced
// cart that still exists. Carts missing from the map or without items are
// ignored.
func Compute(events []models.CartEvent, carts map[uuid.UUID]*models.Cart, now time.Time, abandonAfter time.Duration) Report {
	if abandonAfter <= 0 {
		abandonAfter = DefaultAbandonAfter
	}

	order := make([]uuid.UUID, 0)
	activity := make(map[uuid.UUID]*cartActivity)
	for _, event := range events {
		act, seen := activity[event.CartID]
		if !seen {
			act = &cartActivity{}
			activity[event.CartID] = act
			order = append(order, event.CartID)
		}
		switch event.EventType {
		case enums.CartEventAdd:
			if !act.hasAdd {
				act.hasAdd = true
				act.firstAdd = event.Timestamp
			}
		case enums.CartEventCheckoutCompleted:
			act.hasCheckout = true
		}
	}

	report := Report{GeneratedAt: now, PotentialRevenueLost: decimal.Zero}
	for _, cartID := range order {
		cart := carts[cartID]
		if cart == nil || len(cart.Items) == 0 {
			continue
		}
		report.TotalCarts++

		act := activity[cartID]
		if !act.hasAdd || act.hasCheckout || !now.After(act.firstAdd.Add(abandonAfter)) {
			continue
		}
		report.TotalAbandonedCarts++
		report.PotentialRevenueLost = report.PotentialRevenueLost.Add(cartValue(cart))
	}

	if report.TotalCarts > 0 {
		report.AbandonmentRate = float64(report.TotalAbandonedCarts) / float64(report.TotalCarts) * 100
	}
	return report
}

func cartValue(cart *models.Cart) decimal.Decimal {
	total := decimal.Zero
	for _, item := range cart.Items {
		if item.Variant == nil {
			continue
		}
		total = total.Add(item.Variant.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}
