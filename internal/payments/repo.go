package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vendorbooks/payables-backend/internal/repo"
	"github.com/vendorbooks/payables-backend/pkg/db/models"
	"github.com/vendorbooks/payables-backend/pkg/enums"
	"github.com/vendorbooks/payables-backend/pkg/pagination"
)

// PaymentTotals is the aggregate shape scanned out of SumCompletedByVendor.
type PaymentTotals struct {
	Total decimal.Decimal `gorm:"column:total"`
	Count int64           `gorm:"column:count"`
}

// Repository handles payment persistence.
type Repository struct {
	repo.Base
}

// NewRepository binds a GORM DB to payment operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// CreateWithTx persists a payment row inside the provided transaction.
func (r *Repository) CreateWithTx(tx *gorm.DB, payment *models.Payment) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	if payment == nil {
		return fmt.Errorf("payment is required")
	}
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	return tx.Create(payment).Error
}

// FindByID loads a payment by its UUID. Returns (nil, nil) when absent.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	if err := r.DB(ctx).Where("id = ?", id).First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

// ListByVendor returns a vendor's payments, newest first, with a cursor for
// the next page.
func (r *Repository) ListByVendor(ctx context.Context, vendorID uuid.UUID, params pagination.Params) ([]models.Payment, string, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.DB(ctx).
		Where("vendor_id = ?", vendorID).
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit))

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}
	if cursor != nil {
		query = query.Where(
			"created_at < ? OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var list []models.Payment
	if err := query.Find(&list).Error; err != nil {
		return nil, "", err
	}

	next := ""
	if len(list) > limit {
		list = list[:limit]
		last := list[len(list)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return list, next, nil
}

// UpdateStatus transitions a payment's status.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.PaymentStatus) error {
	result := r.DB(ctx).Model(&models.Payment{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SumCompletedByVendor totals the completed payment amounts for a vendor.
func (r *Repository) SumCompletedByVendor(ctx context.Context, vendorID uuid.UUID) (PaymentTotals, error) {
	var totals PaymentTotals
	err := r.DB(ctx).Model(&models.Payment{}).
		Select("COALESCE(SUM(amount), 0) AS total, COUNT(*) AS count").
		Where("vendor_id = ? AND status = ?", vendorID, enums.PaymentStatusCompleted).
		Scan(&totals).Error
	if err != nil {
		return PaymentTotals{}, err
	}
	return totals, nil
}

// LastCompletedByVendor returns the most recent completed payment, or
// (nil, nil) when the vendor has none.
func (r *Repository) LastCompletedByVendor(ctx context.Context, vendorID uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	err := r.DB(ctx).
		Where("vendor_id = ? AND status = ?", vendorID, enums.PaymentStatusCompleted).
		Order("payment_date DESC, created_at DESC").
		First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}
