package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-cart/pkg/db/models"
	"github.com/angelmondragon/storefront-cart/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-cart/pkg/errors"
	"github.com/angelmondragon/storefront-cart/pkg/logger"
	"github.com/angelmondragon/storefront-cart/pkg/metrics"
)

const defaultMaxAddAttempts = 3

// Service applies the cart business rules on top of a Store.
type Service interface {
	ResolveOrCreateCart(ctx context.Context, identity Identity) (*models.Cart, error)
	AddItem(ctx context.Context, identity Identity, variantID uuid.UUID, quantity int) (*models.CartItem, error)
	UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) (*models.CartItem, error)
	RemoveItem(ctx context.Context, itemID uuid.UUID) error
	GetItemCount(ctx context.Context, identity Identity) (int, error)
	MergeOnLogin(ctx context.Context, sessionID string, userID uuid.UUID) (*models.Cart, error)
	CompleteCheckout(ctx context.Context, userID uuid.UUID) error
}

// ServiceParams wires the cart service dependencies.
type ServiceParams struct {
	Store          Store
	Tx             txRunner
	Stock          StockOracle
	Events         EventSink
	Logger         *logger.Logger
	Metrics        *metrics.CartMetrics
	MaxAddAttempts int
}

type service struct {
	store          Store
	tx             txRunner
	stock          StockOracle
	events         EventSink
	logg           *logger.Logger
	metrics        *metrics.CartMetrics
	maxAddAttempts int
}

// NewService builds a cart service backed by the provided stack.
func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Stock == nil {
		return nil, fmt.Errorf("stock oracle required")
	}
	if params.Events == nil {
		return nil, fmt.Errorf("event sink required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	attempts := params.MaxAddAttempts
	if attempts <= 0 {
		attempts = defaultMaxAddAttempts
	}
	return &service{
		store:          params.Store,
		tx:             params.Tx,
		stock:          params.Stock,
		events:         params.Events,
		logg:           params.Logger,
		metrics:        params.Metrics,
		maxAddAttempts: attempts,
	}, nil
}

// ResolveOrCreateCart returns the cart owned by identity, creating it on
// first access.
func (s *service) ResolveOrCreateCart(ctx context.Context, identity Identity) (*models.Cart, error) {
	identity = identity.normalized()
	if err := identity.validate(pkgerrors.CodeIdentityRequired); err != nil {
		return nil, err
	}
	return s.resolveOrCreate(ctx, identity)
}

func (s *service) resolveOrCreate(ctx context.Context, identity Identity) (*models.Cart, error) {
	cart, err := s.find(ctx, identity)
	if err != nil || cart != nil {
		return cart, err
	}

	cart, err = s.store.Create(ctx, identity)
	if pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		// created concurrently by another request for the same identity
		cart, err = s.find(ctx, identity)
		if err == nil && cart == nil {
			err = pkgerrors.New(pkgerrors.CodeConflict, "cart vanished after concurrent create")
		}
	}
	return cart, err
}

func (s *service) find(ctx context.Context, identity Identity) (*models.Cart, error) {
	if identity.HasUser() {
		return s.store.FindByUser(ctx, identity.UserID)
	}
	return s.store.FindBySession(ctx, identity.SessionID)
}

// errRetryAdd marks an add attempt that lost a race and should start over.
type errRetryAdd struct {
	reason string
	cause  error
}

func (e *errRetryAdd) Error() string { return "retry add: " + e.reason }
func (e *errRetryAdd) Unwrap() error { return e.cause }

// AddItem adds quantity units of the variant to the identity's cart,
// merging into an existing line for that variant. The cart is resolved again
// on every attempt so a cart deleted by a concurrent merge is replaced rather
// than written through.
func (s *service) AddItem(ctx context.Context, identity Identity, variantID uuid.UUID, quantity int) (*models.CartItem, error) {
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidQuantity, "quantity must be positive").
			WithDetails(map[string]any{"quantity": quantity})
	}

	var lastRetry error
	for attempt := 1; attempt <= s.maxAddAttempts; attempt++ {
		cart, err := s.ResolveOrCreateCart(ctx, identity)
		if err != nil {
			return nil, err
		}
		cartCtx := s.logg.WithCartID(ctx, cart.ID.String())

		item, err := s.addOnce(cartCtx, cart.ID, variantID, quantity)
		var retry *errRetryAdd
		if errors.As(err, &retry) {
			lastRetry = err
			s.metrics.IncAddRetry(retry.reason)
			s.logg.Info(s.logg.WithFields(cartCtx, map[string]any{
				"variant_id": variantID.String(),
				"attempt":    attempt,
				"reason":     retry.reason,
			}), "cart item changed concurrently, retrying add")
			continue
		}
		if err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock) {
				s.metrics.IncInsufficientStock("add")
			}
			return nil, err
		}

		s.metrics.IncItemsAdded()
		s.recordEvent(cartCtx, cart, enums.CartEventAdd)
		return item, nil
	}
	return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, lastRetry, "cart item kept changing while adding")
}

func (s *service) addOnce(ctx context.Context, cartID, variantID uuid.UUID, quantity int) (*models.CartItem, error) {
	existing, err := s.store.FindItem(ctx, cartID, variantID)
	if err != nil {
		return nil, err
	}
	stock, err := s.stock.GetStock(ctx, variantID)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		if existing.Quantity+quantity > stock {
			return nil, pkgerrors.InsufficientStock(variantID.String(), stock)
		}
		item, err := s.store.IncrementItem(ctx, existing.ID, quantity, stock)
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return nil, &errRetryAdd{reason: "vanished", cause: err}
		}
		return item, err
	}

	if quantity > stock {
		return nil, pkgerrors.InsufficientStock(variantID.String(), stock)
	}
	item, err := s.store.InsertItem(ctx, cartID, variantID, quantity)
	switch {
	case pkgerrors.IsCode(err, pkgerrors.CodeDuplicateItem):
		return nil, &errRetryAdd{reason: "duplicate", cause: err}
	case pkgerrors.IsCode(err, pkgerrors.CodeNotFound):
		// the cart was merged away between resolve and insert
		return nil, &errRetryAdd{reason: "cart_gone", cause: err}
	}
	return item, err
}

// UpdateItemQuantity sets a line's quantity. A line that no longer exists
// yields a nil item and no error.
func (s *service) UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) (*models.CartItem, error) {
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidQuantity, "quantity must be positive").
			WithDetails(map[string]any{"quantity": quantity})
	}
	item, err := s.store.FindItemByID(ctx, itemID)
	if err != nil || item == nil {
		return nil, err
	}

	stock, err := s.stock.GetStock(ctx, item.VariantID)
	if err != nil {
		return nil, err
	}
	if quantity > stock {
		s.metrics.IncInsufficientStock("update")
		return nil, pkgerrors.InsufficientStock(item.VariantID.String(), stock)
	}

	updated, err := s.store.SetItemQuantity(ctx, itemID, quantity)
	if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		return nil, nil
	}
	return updated, err
}

// RemoveItem deletes a line; removing a missing line succeeds.
func (s *service) RemoveItem(ctx context.Context, itemID uuid.UUID) error {
	return s.store.DeleteItem(ctx, itemID)
}

// GetItemCount returns the number of distinct lines in the identity's cart.
func (s *service) GetItemCount(ctx context.Context, identity Identity) (int, error) {
	cart, err := s.ResolveOrCreateCart(ctx, identity)
	if err != nil {
		return 0, err
	}
	return len(cart.Items), nil
}

// MergeOnLogin folds the session cart into the user's cart. Without a
// session cart it is a no-op returning the user's cart, if any. The merge is
// all-or-nothing: a line exceeding stock rejects it and leaves both carts
// untouched.
func (s *service) MergeOnLogin(ctx context.Context, sessionID string, userID uuid.UUID) (*models.Cart, error) {
	sessionID = strings.TrimSpace(sessionID)
	if userID == uuid.Nil || sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeIdentityRequired, "merge requires both session and user")
	}
	ctx = s.logg.WithSessionID(s.logg.WithUserID(ctx, userID.String()), sessionID)

	source, err := s.store.FindBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if source == nil {
		s.metrics.IncMerge("skipped")
		return s.store.FindByUser(ctx, userID)
	}

	target, err := s.resolveOrCreate(ctx, UserIdentity(userID))
	if err != nil {
		return nil, err
	}

	var merged *models.Cart
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		store := s.store.WithTx(tx)
		if err := store.MergeInto(ctx, source.ID, target.ID, s.checkMergedLine); err != nil {
			return err
		}
		var err error
		merged, err = store.FindByID(ctx, target.ID)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrMergeSourceGone) {
			// a concurrent login already merged the session cart
			s.metrics.IncMerge("skipped")
			return s.store.FindByUser(ctx, userID)
		}
		s.metrics.IncMerge("failed")
		if pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock) {
			s.metrics.IncInsufficientStock("merge")
		}
		return nil, err
	}

	s.metrics.IncMerge("merged")
	s.logg.Info(s.logg.WithCartID(ctx, target.ID.String()), "session cart merged into user cart")
	return merged, nil
}

func (s *service) checkMergedLine(ctx context.Context, variantID uuid.UUID, quantity int) error {
	stock, err := s.stock.GetStock(ctx, variantID)
	if err != nil {
		return err
	}
	if quantity > stock {
		return pkgerrors.InsufficientStock(variantID.String(), stock)
	}
	return nil
}

// CompleteCheckout marks the user's cart as checked out and empties it.
func (s *service) CompleteCheckout(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeIdentityRequired, "checkout requires a user")
	}
	cart, err := s.store.FindByUser(ctx, userID)
	if err != nil || cart == nil {
		return err
	}
	s.recordEvent(s.logg.WithCartID(ctx, cart.ID.String()), cart, enums.CartEventCheckoutCompleted)
	return s.store.ClearItems(ctx, userID)
}

// recordEvent appends an audit event. Failures are logged and dropped.
func (s *service) recordEvent(ctx context.Context, cart *models.Cart, eventType enums.CartEventType) {
	if err := s.events.Record(ctx, cart.ID, cart.UserID, eventType); err != nil {
		s.metrics.IncEventFailure()
		fields := pkgerrors.Dump(err).Fields()
		fields["event_type"] = eventType.String()
		ctx = s.logg.WithFields(ctx, fields)
		s.logg.Error(ctx, "failed to record cart event", err)
	}
}
