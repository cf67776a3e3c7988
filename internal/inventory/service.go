package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vendorbooks/payables-backend/internal/ledger"
	"github.com/vendorbooks/payables-backend/internal/vendors"
	"github.com/vendorbooks/payables-backend/pkg/db/models"
	"github.com/vendorbooks/payables-backend/pkg/enums"
	"github.com/vendorbooks/payables-backend/pkg/errors"
	"github.com/vendorbooks/payables-backend/pkg/metrics"
)

// CreateTransactionInput registers an upstream inventory transaction in the
// feed the subledger watches.
type CreateTransactionInput struct {
	VendorID        *uuid.UUID
	TransactionType enums.InventoryTransactionType
	TotalCost       decimal.Decimal
	InvoiceNo       string
	TransactionDate time.Time
}

// ApproveResult reports what an approval committed. Entry is nil when the
// approval derived no ledger entry (no vendor, non-ledger type, or the
// entry already existed).
type ApproveResult struct {
	Transaction *models.InventoryTransaction `json:"transaction"`
	Entry       *models.LedgerEntry          `json:"entry,omitempty"`
	Skipped     bool                         `json:"skipped"`
}

// Service owns the approval transition for inventory transactions and
// derives ledger entries from it. Approval is idempotent per transaction:
// re-approving an approved transaction writes nothing.
type Service interface {
	Create(ctx context.Context, input CreateTransactionInput) (*models.InventoryTransaction, error)
	Get(ctx context.Context, id uuid.UUID) (*models.InventoryTransaction, error)
	Approve(ctx context.Context, id uuid.UUID, approvedBy *string) (*ApproveResult, error)
	Cancel(ctx context.Context, id uuid.UUID) (*models.InventoryTransaction, error)
}

type service struct {
	repo      *Repository
	guard     *vendors.Guard
	ledgerSvc ledger.Service
	metrics   *metrics.LedgerMetrics
}

// NewService wires the derived entry generator. The metrics collector may
// be nil.
func NewService(repo *Repository, guard *vendors.Guard, ledgerSvc ledger.Service, collector *metrics.LedgerMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory service requires a repository")
	}
	if guard == nil {
		return nil, fmt.Errorf("inventory service requires the balance guard")
	}
	if ledgerSvc == nil {
		return nil, fmt.Errorf("inventory service requires the ledger service")
	}
	return &service{repo: repo, guard: guard, ledgerSvc: ledgerSvc, metrics: collector}, nil
}

func (s *service) Create(ctx context.Context, input CreateTransactionInput) (*models.InventoryTransaction, error) {
	if !input.TransactionType.IsValid() {
		return nil, errors.New(errors.CodeValidation, fmt.Sprintf("unknown transaction type %q", input.TransactionType))
	}

	txDate := input.TransactionDate
	if txDate.IsZero() {
		txDate = time.Now().UTC()
	}

	txn := &models.InventoryTransaction{
		VendorID:        input.VendorID,
		TransactionType: input.TransactionType,
		Status:          enums.InventoryTransactionStatusPending,
		TotalCost:       input.TotalCost,
		InvoiceNo:       input.InvoiceNo,
		TransactionDate: txDate,
	}
	if err := s.repo.Create(ctx, txn); err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "persist inventory transaction")
	}
	return txn, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.InventoryTransaction, error) {
	if id == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "transaction id is required")
	}
	txn, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "load inventory transaction")
	}
	if txn == nil {
		return nil, errors.New(errors.CodeNotFound, fmt.Sprintf("inventory transaction %s not found", id))
	}
	return txn, nil
}

// Approve commits the transition into approved and, for purchases and
// returns with a vendor, books the derived ledger entry under the vendor's
// balance lock. Delivery is at-least-once: the ledger reference probe makes
// a replayed approval a no-op.
func (s *service) Approve(ctx context.Context, id uuid.UUID, approvedBy *string) (*ApproveResult, error) {
	txn, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if txn.Status == enums.InventoryTransactionStatusCancelled {
		return nil, errors.New(errors.CodeConflict, "cancelled transactions cannot be approved")
	}

	entryType, ok := entryTypeFor(txn.TransactionType)
	if !ok || txn.VendorID == nil {
		// Nothing to derive; the status transition still happens.
		return s.approveWithoutEntry(ctx, txn)
	}

	approvedAt := time.Now().UTC()
	result := &ApproveResult{}
	_, err = s.guard.WithVendorLock(ctx, *txn.VendorID, func(tx *gorm.DB, vendor *models.Vendor) (decimal.Decimal, error) {
		current, err := s.repo.FindByIDWithTx(tx, txn.ID)
		if err != nil {
			return decimal.Zero, errors.Wrap(errors.CodeInternal, err, "reload inventory transaction")
		}
		if current == nil {
			return decimal.Zero, errors.New(errors.CodeNotFound, fmt.Sprintf("inventory transaction %s not found", txn.ID))
		}
		result.Transaction = current

		// Re-check under the lock; a cancel may have landed since the
		// pre-lock read.
		if current.Status == enums.InventoryTransactionStatusCancelled {
			return decimal.Zero, errors.New(errors.CodeConflict, "cancelled transactions cannot be approved")
		}

		ledgerTx := s.ledgerSvc.WithTx(tx)
		exists, err := ledgerTx.HasReference(ctx, vendor.ID, current.ID, entryType)
		if err != nil {
			return decimal.Zero, err
		}
		if current.Status == enums.InventoryTransactionStatusApproved || exists {
			result.Skipped = true
			s.metrics.IncDerivedSkipped()
			return vendor.Balance, nil
		}

		amount := current.TotalCost.Abs()
		input := ledger.AppendInput{
			VendorID:        vendor.ID,
			EntryType:       entryType,
			ReferenceID:     &current.ID,
			ReferenceNo:     current.InvoiceNo,
			PriorBalance:    vendor.Balance,
			Description:     fmt.Sprintf("%s %s", entryType, current.InvoiceNo),
			PerformedBy:     approvedBy,
			TransactionDate: current.TransactionDate,
		}
		if entryType == enums.LedgerEntryTypePurchase {
			input.Debit = amount
		} else {
			input.Credit = amount
		}

		entry, err := ledgerTx.Append(ctx, input)
		if err != nil {
			return decimal.Zero, err
		}
		moved, err := s.repo.MarkApprovedWithTx(tx, current.ID, approvedAt)
		if err != nil {
			return decimal.Zero, errors.Wrap(errors.CodeInternal, err, "mark transaction approved")
		}
		if !moved {
			return decimal.Zero, errors.New(errors.CodeConflict, "transaction left the pending state during approval")
		}
		current.Status = enums.InventoryTransactionStatusApproved
		current.ApprovedAt = &approvedAt

		result.Entry = entry
		return entry.RunningBalance, nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) approveWithoutEntry(ctx context.Context, txn *models.InventoryTransaction) (*ApproveResult, error) {
	if txn.Status == enums.InventoryTransactionStatusApproved {
		return &ApproveResult{Transaction: txn, Skipped: true}, nil
	}
	approvedAt := time.Now().UTC()
	moved, err := s.repo.MarkApprovedWithTx(s.repo.DB(ctx), txn.ID, approvedAt)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "mark transaction approved")
	}
	if !moved {
		current, err := s.Get(ctx, txn.ID)
		if err != nil {
			return nil, err
		}
		if current.Status == enums.InventoryTransactionStatusApproved {
			return &ApproveResult{Transaction: current, Skipped: true}, nil
		}
		return nil, errors.New(errors.CodeConflict, "cancelled transactions cannot be approved")
	}
	txn.Status = enums.InventoryTransactionStatusApproved
	txn.ApprovedAt = &approvedAt
	return &ApproveResult{Transaction: txn}, nil
}

func (s *service) Cancel(ctx context.Context, id uuid.UUID) (*models.InventoryTransaction, error) {
	txn, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if txn.Status == enums.InventoryTransactionStatusApproved {
		return nil, errors.New(errors.CodeConflict, "approved transactions cannot be cancelled; book a reversing entry instead")
	}
	if txn.Status == enums.InventoryTransactionStatusCancelled {
		return txn, nil
	}
	moved, err := s.repo.CancelPending(ctx, id)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "cancel transaction")
	}
	if !moved {
		// The row reached a terminal state between the read and the
		// conditional update.
		current, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if current.Status == enums.InventoryTransactionStatusCancelled {
			return current, nil
		}
		return nil, errors.New(errors.CodeConflict, "approved transactions cannot be cancelled; book a reversing entry instead")
	}
	txn.Status = enums.InventoryTransactionStatusCancelled
	return txn, nil
}

// entryTypeFor maps an inventory transaction type to the ledger entry type
// it derives. Transfers and adjustments derive nothing.
func entryTypeFor(txType enums.InventoryTransactionType) (enums.LedgerEntryType, bool) {
	switch txType {
	case enums.InventoryTransactionTypePurchase:
		return enums.LedgerEntryTypePurchase, true
	case enums.InventoryTransactionTypePurchaseReturn:
		return enums.LedgerEntryTypePurchaseReturn, true
	default:
		return "", false
	}
}
