package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vendorbooks/payables-backend/internal/repo"
	"github.com/vendorbooks/payables-backend/pkg/db/models"
	"github.com/vendorbooks/payables-backend/pkg/enums"
)

// TransactionTotals is the aggregate shape scanned out of ApprovedTotals.
type TransactionTotals struct {
	Total decimal.Decimal `gorm:"column:total"`
	Count int64           `gorm:"column:count"`
}

// Repository handles inventory transaction persistence.
type Repository struct {
	repo.Base
}

// NewRepository binds a GORM DB to inventory transaction operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// Create persists a new inventory transaction.
func (r *Repository) Create(ctx context.Context, txn *models.InventoryTransaction) error {
	if txn == nil {
		return fmt.Errorf("transaction is required")
	}
	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}
	return r.DB(ctx).Create(txn).Error
}

// FindByID loads a transaction by its UUID. Returns (nil, nil) when absent.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.InventoryTransaction, error) {
	var txn models.InventoryTransaction
	if err := r.DB(ctx).Where("id = ?", id).First(&txn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &txn, nil
}

// FindByIDWithTx loads a transaction using the provided transaction handle.
func (r *Repository) FindByIDWithTx(tx *gorm.DB, id uuid.UUID) (*models.InventoryTransaction, error) {
	if tx == nil {
		return nil, gorm.ErrInvalidTransaction
	}
	var txn models.InventoryTransaction
	if err := tx.First(&txn, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &txn, nil
}

// terminalStatuses are the states a transaction can never leave.
var terminalStatuses = []enums.InventoryTransactionStatus{
	enums.InventoryTransactionStatusApproved,
	enums.InventoryTransactionStatusCancelled,
}

// MarkApprovedWithTx stamps the transaction approved inside tx. The update
// is conditional on the row not having reached a terminal state; the bool
// reports whether a row actually transitioned.
func (r *Repository) MarkApprovedWithTx(tx *gorm.DB, id uuid.UUID, approvedAt time.Time) (bool, error) {
	if tx == nil {
		return false, gorm.ErrInvalidTransaction
	}
	result := tx.Model(&models.InventoryTransaction{}).
		Where("id = ? AND status NOT IN ?", id, terminalStatuses).
		Updates(map[string]any{
			"status":      enums.InventoryTransactionStatusApproved,
			"approved_at": approvedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// CancelPending flips a transaction to cancelled. The update is conditional
// on the row not having reached a terminal state, so a cancel can never land
// on top of a concurrent approval; the bool reports whether a row actually
// transitioned.
func (r *Repository) CancelPending(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.DB(ctx).Model(&models.InventoryTransaction{}).
		Where("id = ? AND status NOT IN ?", id, terminalStatuses).
		Update("status", enums.InventoryTransactionStatusCancelled)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ApprovedTotals sums the absolute cost of a vendor's approved transactions
// of the given type.
func (r *Repository) ApprovedTotals(ctx context.Context, vendorID uuid.UUID, txType enums.InventoryTransactionType) (TransactionTotals, error) {
	var totals TransactionTotals
	err := r.DB(ctx).Model(&models.InventoryTransaction{}).
		Select("COALESCE(SUM(ABS(total_cost)), 0) AS total, COUNT(*) AS count").
		Where("vendor_id = ? AND status = ? AND transaction_type = ?",
			vendorID, enums.InventoryTransactionStatusApproved, txType).
		Scan(&totals).Error
	if err != nil {
		return TransactionTotals{}, err
	}
	return totals, nil
}

// LastApprovedByVendor returns the most recent approved transaction of the
// given type, or (nil, nil) when the vendor has none.
func (r *Repository) LastApprovedByVendor(ctx context.Context, vendorID uuid.UUID, txType enums.InventoryTransactionType) (*models.InventoryTransaction, error) {
	var txn models.InventoryTransaction
	err := r.DB(ctx).
		Where("vendor_id = ? AND status = ? AND transaction_type = ?",
			vendorID, enums.InventoryTransactionStatusApproved, txType).
		Order("transaction_date DESC, created_at DESC").
		First(&txn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &txn, nil
}
