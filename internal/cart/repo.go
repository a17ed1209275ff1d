package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/storefront-cart/pkg/db"
	"github.com/angelmondragon/storefront-cart/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-cart/pkg/errors"
)

// ErrMergeSourceGone reports that the source cart of a merge no longer
// exists, typically because a concurrent login already merged it.
var ErrMergeSourceGone = pkgerrors.New(pkgerrors.CodeNotFound, "source cart already merged")

// Repository is the gorm-backed Store.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository bound to the provided DB.
func NewRepository(conn *gorm.DB) *Repository {
	return &Repository{db: conn}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) Store {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) FindByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	return r.findOne(ctx, "user_id = ?", userID)
}

func (r *Repository) FindBySession(ctx context.Context, sessionID string) (*models.Cart, error) {
	return r.findOne(ctx, "session_id = ?", strings.TrimSpace(sessionID))
}

func (r *Repository) FindByID(ctx context.Context, cartID uuid.UUID) (*models.Cart, error) {
	return r.findOne(ctx, "id = ?", cartID)
}

func (r *Repository) findOne(ctx context.Context, query string, arg any) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Preload("Items", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("created_at ASC, id ASC")
		}).
		Preload("Items.Variant").
		Where(query, arg).
		First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	return &cart, nil
}

// Create inserts an empty cart owned by identity. A concurrent create for the
// same identity surfaces as CodeConflict.
func (r *Repository) Create(ctx context.Context, identity Identity) (*models.Cart, error) {
	if err := identity.validate(pkgerrors.CodeInvalidIdentity); err != nil {
		return nil, err
	}

	cart := &models.Cart{}
	if identity.HasUser() {
		userID := identity.UserID
		cart.UserID = &userID
	} else {
		sessionID := strings.TrimSpace(identity.SessionID)
		cart.SessionID = &sessionID
	}

	if err := r.db.WithContext(ctx).Create(cart).Error; err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "cart already exists for identity")
		}
		return nil, fmt.Errorf("create cart: %w", err)
	}
	cart.Items = []models.CartItem{}
	return cart, nil
}

func (r *Repository) FindItem(ctx context.Context, cartID, variantID uuid.UUID) (*models.CartItem, error) {
	return r.findItem(ctx, "cart_id = ? AND variant_id = ?", cartID, variantID)
}

func (r *Repository) FindItemByID(ctx context.Context, itemID uuid.UUID) (*models.CartItem, error) {
	return r.findItem(ctx, "id = ?", itemID)
}

func (r *Repository) findItem(ctx context.Context, query string, args ...any) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).Where(query, args...).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart item: %w", err)
	}
	return &item, nil
}

// InsertItem adds a new line. A line for the same variant already in the
// cart yields CodeDuplicateItem. A missing cart or variant yields
// CodeNotFound where the database enforces the reference.
func (r *Repository) InsertItem(ctx context.Context, cartID, variantID uuid.UUID, quantity int) (*models.CartItem, error) {
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidQuantity, "quantity must be positive")
	}
	item := &models.CartItem{CartID: cartID, VariantID: variantID, Quantity: quantity}
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		if db.IsUniqueViolation(err, "ux_cart_items_cart_variant") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDuplicateItem, err, "variant already in cart")
		}
		if db.IsForeignKeyViolation(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "cart or variant no longer exists")
		}
		return nil, fmt.Errorf("insert cart item: %w", err)
	}
	return item, nil
}

// SetItemQuantity overwrites the quantity of an existing line.
func (r *Repository) SetItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) (*models.CartItem, error) {
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidQuantity, "quantity must be positive")
	}
	var item *models.CartItem
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.CartItem{}).
			Where("id = ?", itemID).
			Updates(map[string]any{"quantity": quantity})
		if res.Error != nil {
			return fmt.Errorf("set cart item quantity: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return itemNotFound(itemID)
		}
		var err error
		item, err = (&Repository{db: tx}).FindItemByID(ctx, itemID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// IncrementItem adds delta to a line as long as the result stays within
// limit. The check and the write are one statement so concurrent increments
// never lose an update.
func (r *Repository) IncrementItem(ctx context.Context, itemID uuid.UUID, delta, limit int) (*models.CartItem, error) {
	if delta <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidQuantity, "quantity must be positive")
	}
	var item *models.CartItem
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.CartItem{}).
			Where("id = ? AND quantity + ? <= ?", itemID, delta, limit).
			Updates(map[string]any{"quantity": gorm.Expr("quantity + ?", delta)})
		if res.Error != nil {
			return fmt.Errorf("increment cart item: %w", res.Error)
		}

		var err error
		item, err = (&Repository{db: tx}).FindItemByID(ctx, itemID)
		if err != nil {
			return err
		}
		if item == nil {
			return itemNotFound(itemID)
		}
		if res.RowsAffected == 0 {
			return pkgerrors.InsufficientStock(item.VariantID.String(), limit)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// DeleteItem removes a line. Deleting a missing line is not an error.
func (r *Repository) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	if err := r.db.WithContext(ctx).Where("id = ?", itemID).Delete(&models.CartItem{}).Error; err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}
	return nil
}

// DeleteCart removes a cart with its lines.
func (r *Repository) DeleteCart(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return deleteCart(tx, cartID)
	})
}

func deleteCart(tx *gorm.DB, cartID uuid.UUID) error {
	if err := tx.Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error; err != nil {
		return fmt.Errorf("delete cart items: %w", err)
	}
	if err := tx.Where("id = ?", cartID).Delete(&models.Cart{}).Error; err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	return nil
}

// MergeInto moves every line of the source cart into the target cart and
// deletes the source. Lines for a variant the target already holds are
// summed. check sees each resulting quantity before it is written; any error
// rolls the whole merge back. A missing source cart yields ErrMergeSourceGone.
func (r *Repository) MergeInto(ctx context.Context, sourceCartID, targetCartID uuid.UUID, check LineCheck) error {
	if sourceCartID == targetCartID {
		return pkgerrors.New(pkgerrors.CodeValidation, "cannot merge a cart into itself")
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locking := clause.Locking{Strength: "UPDATE"}

		var carts []models.Cart
		if err := tx.Clauses(locking).
			Where("id IN ?", []uuid.UUID{sourceCartID, targetCartID}).
			Order("id").
			Find(&carts).Error; err != nil {
			return fmt.Errorf("lock carts: %w", err)
		}
		locked := make(map[uuid.UUID]bool, len(carts))
		for _, c := range carts {
			locked[c.ID] = true
		}
		if !locked[sourceCartID] {
			return ErrMergeSourceGone
		}
		if !locked[targetCartID] {
			return pkgerrors.New(pkgerrors.CodeNotFound, "target cart vanished before merge")
		}

		var sourceItems, targetItems []models.CartItem
		if err := tx.Clauses(locking).
			Where("cart_id = ?", sourceCartID).
			Order("created_at ASC, id ASC").
			Find(&sourceItems).Error; err != nil {
			return fmt.Errorf("load source items: %w", err)
		}
		if err := tx.Clauses(locking).
			Where("cart_id = ?", targetCartID).
			Find(&targetItems).Error; err != nil {
			return fmt.Errorf("load target items: %w", err)
		}

		byVariant := make(map[uuid.UUID]models.CartItem, len(targetItems))
		for _, item := range targetItems {
			byVariant[item.VariantID] = item
		}

		for _, src := range sourceItems {
			existing, held := byVariant[src.VariantID]
			quantity := src.Quantity
			if held {
				quantity += existing.Quantity
			}
			if check != nil {
				if err := check(ctx, src.VariantID, quantity); err != nil {
					return err
				}
			}

			if !held {
				if err := tx.Model(&models.CartItem{}).
					Where("id = ?", src.ID).
					Updates(map[string]any{"cart_id": targetCartID}).Error; err != nil {
					return fmt.Errorf("relocate cart item: %w", err)
				}
				continue
			}
			if err := tx.Model(&models.CartItem{}).
				Where("id = ?", existing.ID).
				Updates(map[string]any{"quantity": quantity}).Error; err != nil {
				return fmt.Errorf("sum cart item: %w", err)
			}
			if err := tx.Where("id = ?", src.ID).Delete(&models.CartItem{}).Error; err != nil {
				return fmt.Errorf("drop merged cart item: %w", err)
			}
		}

		return deleteCart(tx, sourceCartID)
	})
}

// ClearItems empties the user's cart. A user without a cart is a no-op.
func (r *Repository) ClearItems(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cartIDs []uuid.UUID
		if err := tx.Model(&models.Cart{}).Where("user_id = ?", userID).Pluck("id", &cartIDs).Error; err != nil {
			return fmt.Errorf("load user cart: %w", err)
		}
		if len(cartIDs) == 0 {
			return nil
		}
		if err := tx.Where("cart_id IN ?", cartIDs).Delete(&models.CartItem{}).Error; err != nil {
			return fmt.Errorf("clear cart items: %w", err)
		}
		return nil
	})
}

func itemNotFound(itemID uuid.UUID) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("cart item %s not found", itemID))
}
