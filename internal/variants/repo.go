package variants

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-cart/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-cart/pkg/errors"
)

// Repository reads product variants. It is the authoritative stock source
// for cart writes.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts a variant.
func (r *Repository) Create(ctx context.Context, variant *models.ProductVariant) (*models.ProductVariant, error) {
	if err := r.db.WithContext(ctx).Create(variant).Error; err != nil {
		return nil, err
	}
	return variant, nil
}

// FindByID returns the variant or a NOT_FOUND error.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&variant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("variant %s not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("load variant %s: %w", id, err)
	}
	return &variant, nil
}

// GetStock returns the current on-hand count for the variant.
func (r *Repository) GetStock(ctx context.Context, id uuid.UUID) (int, error) {
	var stock []int
	err := r.db.WithContext(ctx).
		Model(&models.ProductVariant{}).
		Where("id = ?", id).
		Pluck("stock", &stock).Error
	if err != nil {
		return 0, fmt.Errorf("load stock for variant %s: %w", id, err)
	}
	if len(stock) == 0 {
		return 0, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("variant %s not found", id))
	}
	return stock[0], nil
}

// SetStock overwrites the on-hand count.
func (r *Repository) SetStock(ctx context.Context, id uuid.UUID, stock int) error {
	if stock < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "stock must not be negative")
	}
	res := r.db.WithContext(ctx).
		Model(&models.ProductVariant{}).
		Where("id = ?", id).
		Update("stock", stock)
	if res.Error != nil {
		return fmt.Errorf("set stock for variant %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("variant %s not found", id))
	}
	return nil
}
