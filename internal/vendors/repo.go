package vendors

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendorbooks/payables-backend/internal/repo"
	"github.com/vendorbooks/payables-backend/pkg/db/models"
)

// Repository handles vendor persistence.
type Repository struct {
	repo.Base
}

// NewRepository binds a GORM DB to vendor operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// Create persists a new vendor row.
func (r *Repository) Create(ctx context.Context, vendor *models.Vendor) error {
	if vendor == nil {
		return fmt.Errorf("vendor is required")
	}
	if vendor.ID == uuid.Nil {
		vendor.ID = uuid.New()
	}
	return r.DB(ctx).Create(vendor).Error
}

// FindByID loads a vendor by its UUID. Returns (nil, nil) when absent.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Vendor, error) {
	var vendor models.Vendor
	if err := r.DB(ctx).Where("id = ?", id).First(&vendor).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &vendor, nil
}

// List returns vendors ordered by name. When activeOnly is set, inactive
// vendors are filtered out.
func (r *Repository) List(ctx context.Context, activeOnly bool) ([]models.Vendor, error) {
	query := r.DB(ctx).Order("name ASC")
	if activeOnly {
		query = query.Where("active = ?", true)
	}
	var list []models.Vendor
	if err := query.Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// Update saves the provided vendor.
func (r *Repository) Update(ctx context.Context, vendor *models.Vendor) error {
	if vendor == nil {
		return fmt.Errorf("vendor is required")
	}
	return r.DB(ctx).Save(vendor).Error
}

// FindByIDWithTx loads a vendor using the provided transaction.
func (r *Repository) FindByIDWithTx(tx *gorm.DB, id uuid.UUID) (*models.Vendor, error) {
	if tx == nil {
		return nil, gorm.ErrInvalidTransaction
	}
	var vendor models.Vendor
	if err := tx.First(&vendor, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &vendor, nil
}

// UpdateBalanceWithTx writes the vendor's cached balance inside the provided
// transaction. Only the guard calls this.
func (r *Repository) UpdateBalanceWithTx(tx *gorm.DB, vendor *models.Vendor) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	if vendor == nil {
		return fmt.Errorf("vendor is required")
	}
	return tx.Model(&models.Vendor{}).
		Where("id = ?", vendor.ID).
		Update("balance", vendor.Balance).Error
}
