package analytics

import (
	"time"

	"github.com/shopspring/decimal"
)

// Report is the abandonment summary for one evaluation window.
type Report struct {
	Start                time.Time       `json:"start"`
	End                  time.Time       `json:"end"`
	GeneratedAt          time.Time       `json:"generated_at"`
	TotalCarts           int             `json:"total_carts"`
	TotalAbandonedCarts  int             `json:"total_abandoned_carts"`
	AbandonmentRate      float64         `json:"abandonment_rate"`
	PotentialRevenueLost decimal.Decimal `json:"potential_revenue_lost"`
}

// Range bounds the events considered, inclusive on both ends.
type Range struct {
	Start time.Time `json:"start" validate:"required"`
	End   time.Time `json:"end" validate:"required,gtefield=Start"`
}
