package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-cart/pkg/logger"
	"github.com/angelmondragon/storefront-cart/pkg/validation"
)

// Service produces abandonment reports over stored cart events.
type Service interface {
	GetAbandonmentReport(ctx context.Context, start, end time.Time) (*Report, error)
}

// ServiceParams wires the analytics service.
type ServiceParams struct {
	Reader       EventReader
	Logger       *logger.Logger
	AbandonAfter time.Duration
	Now          func() time.Time
}

type service struct {
	reader       EventReader
	logg         *logger.Logger
	abandonAfter time.Duration
	now          func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Reader == nil {
		return nil, fmt.Errorf("event reader required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	abandonAfter := params.AbandonAfter
	if abandonAfter <= 0 {
		abandonAfter = DefaultAbandonAfter
	}
	return &service{
		reader:       params.Reader,
		logg:         params.Logger,
		abandonAfter: abandonAfter,
		now:          now,
	}, nil
}

// GetAbandonmentReport scans events in [start, end] and classifies their
// carts as of the current time.
func (s *service) GetAbandonmentReport(ctx context.Context, start, end time.Time) (*Report, error) {
	window := Range{Start: start.UTC(), End: end.UTC()}
	if err := validation.Struct(window); err != nil {
		return nil, err
	}

	events, err := s.reader.ListEvents(ctx, window.Start, window.End)
	if err != nil {
		return nil, err
	}

	seen := make(map[uuid.UUID]struct{}, len(events))
	cartIDs := make([]uuid.UUID, 0)
	for _, event := range events {
		if _, ok := seen[event.CartID]; ok {
			continue
		}
		seen[event.CartID] = struct{}{}
		cartIDs = append(cartIDs, event.CartID)
	}

	carts, err := s.reader.LoadCarts(ctx, cartIDs)
	if err != nil {
		return nil, err
	}

	report := Compute(events, carts, s.now().UTC(), s.abandonAfter)
	report.Start = window.Start
	report.End = window.End

	s.logg.Debug(s.logg.WithFields(ctx, map[string]any{
		"events":          len(events),
		"carts":           report.TotalCarts,
		"abandoned_carts": report.TotalAbandonedCarts,
	}), "abandonment report computed")
	return &report, nil
}
