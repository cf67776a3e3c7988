package payments

import (
	"fmt"
	"sync"

	"gorm.io/gorm"

	pkgdb "github.com/vendorbooks/payables-backend/pkg/db"
	"github.com/vendorbooks/payables-backend/pkg/db/models"
)

// Allocator hands out year-scoped payment numbers, format PAY-YYYY-NNNNNN.
// Each year owns a counter row in payment_sequences; the counter is bumped
// with an atomic in-place UPDATE inside the caller's transaction, so the
// allocated number commits or rolls back together with the payment itself.
// The process-level mutex keeps concurrent in-process callers off the row
// while a competing transaction holds it; across processes the row lock
// taken by the UPDATE serializes allocations.
type Allocator struct {
	mu sync.Mutex
}

// NewAllocator constructs a payment number allocator.
func NewAllocator() *Allocator {
	return &Allocator{}
}

// Next reserves the next sequence number for the year inside tx and returns
// the formatted payment number. Two callers can never observe the same
// number: the increment is a single atomic UPDATE and the read-back happens
// in the same transaction.
func (a *Allocator) Next(tx *gorm.DB, year int) (string, error) {
	if tx == nil {
		return "", gorm.ErrInvalidTransaction
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	seq, err := a.bump(tx, year)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("PAY-%d-%06d", year, seq), nil
}

func (a *Allocator) bump(tx *gorm.DB, year int) (int64, error) {
	result := tx.Model(&models.PaymentSequence{}).
		Where("year = ?", year).
		UpdateColumn("last_seq", gorm.Expr("last_seq + 1"))
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		// First allocation of the year. A concurrent first allocation loses
		// the insert race on the primary key and falls back to the update.
		err := tx.Create(&models.PaymentSequence{Year: year, LastSeq: 1}).Error
		if err == nil {
			return 1, nil
		}
		if !pkgdb.IsUniqueViolation(err, "") {
			return 0, err
		}
		retry := tx.Model(&models.PaymentSequence{}).
			Where("year = ?", year).
			UpdateColumn("last_seq", gorm.Expr("last_seq + 1"))
		if retry.Error != nil {
			return 0, retry.Error
		}
	}

	var row models.PaymentSequence
	if err := tx.Where("year = ?", year).First(&row).Error; err != nil {
		return 0, err
	}
	return row.LastSeq, nil
}
