package payments

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
	"github.com/vendorbooks/payables-backend/pkg/pagination"
)

// RecordPaymentInput captures one operator-to-vendor disbursement.
type RecordPaymentInput struct {
	VendorID        uuid.UUID
	Amount          decimal.Decimal
	Method          enums.PaymentMethod
	ReferenceNumber *string
	Notes           *string
	PerformedBy     *string
	PaymentDate     time.Time
}

// RecordPaymentResult reports what a successful payment committed.
type RecordPaymentResult struct {
	Payment       *models.Payment `json:"payment"`
	LedgerEntryID uuid.UUID       `json:"ledger_entry_id"`
	BalanceBefore decimal.Decimal `json:"balance_before"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
}

// Service records vendor payments. Recording runs under the vendor's
// balance lock: the payment row, its ledger entry, and the cached balance
// commit as one unit or not at all.
type Service interface {
	RecordPayment(ctx context.Context, input RecordPaymentInput) (*RecordPaymentResult, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	ListByVendor(ctx context.Context, vendorID uuid.UUID, params pagination.Params) ([]models.Payment, string, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.PaymentStatus) (*models.Payment, error)
}

type service struct {
	repo      *Repository
	guard     *vendors.Guard
	ledgerSvc ledger.Service
	allocator *Allocator
	metrics   *metrics.LedgerMetrics
}

// NewService wires the payment recorder. The metrics collector may be nil.
func NewService(repo *Repository, guard *vendors.Guard, ledgerSvc ledger.Service, allocator *Allocator, collector *metrics.LedgerMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payment service requires a repository")
	}
	if guard == nil {
		return nil, fmt.Errorf("payment service requires the balance guard")
	}
	if ledgerSvc == nil {
		return nil, fmt.Errorf("payment service requires the ledger service")
	}
	if allocator == nil {
		return nil, fmt.Errorf("payment service requires the number allocator")
	}
	return &service{
		repo:      repo,
		guard:     guard,
		ledgerSvc: ledgerSvc,
		allocator: allocator,
		metrics:   collector,
	}, nil
}

func (s *service) RecordPayment(ctx context.Context, input RecordPaymentInput) (*RecordPaymentResult, error) {
	if input.VendorID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "vendor id is required")
	}
	if !input.Amount.IsPositive() {
		return nil, errors.New(errors.CodeValidation, "payment amount must be positive")
	}
	if !input.Method.IsValid() {
		return nil, errors.New(errors.CodeValidation, fmt.Sprintf("unknown payment method %q", input.Method))
	}

	paymentDate := input.PaymentDate
	if paymentDate.IsZero() {
		paymentDate = time.Now().UTC()
	}

	var result RecordPaymentResult
	_, err := s.guard.WithVendorLock(ctx, input.VendorID, func(tx *gorm.DB, vendor *models.Vendor) (decimal.Decimal, error) {
		before := vendor.Balance
		after := before.Sub(input.Amount)

		// Numbers are minted against the year the payment is recorded,
		// not the (possibly back-dated) payment date.
		paymentNo, err := s.allocator.Next(tx, time.Now().UTC().Year())
		if err != nil {
			return decimal.Zero, errors.Wrap(errors.CodeInternal, err, "allocate payment number")
		}

		payment := &models.Payment{
			VendorID:        input.VendorID,
			PaymentNo:       paymentNo,
			Amount:          input.Amount,
			PaymentMethod:   input.Method,
			ReferenceNumber: input.ReferenceNumber,
			Notes:           input.Notes,
			BalanceBefore:   before,
			BalanceAfter:    after,
			PaymentDate:     paymentDate,
			Status:          enums.PaymentStatusCompleted,
			CreatedBy:       input.PerformedBy,
			ApprovedBy:      input.PerformedBy,
		}
		if err := s.repo.CreateWithTx(tx, payment); err != nil {
			return decimal.Zero, errors.Wrap(errors.CodeInternal, err, "persist payment")
		}

		entry, err := s.ledgerSvc.WithTx(tx).Append(ctx, ledger.AppendInput{
			VendorID:        input.VendorID,
			EntryType:       enums.LedgerEntryTypePayment,
			ReferenceID:     &payment.ID,
			ReferenceNo:     paymentNo,
			Credit:          input.Amount,
			PriorBalance:    before,
			Description:     fmt.Sprintf("payment %s via %s", paymentNo, input.Method),
			PerformedBy:     input.PerformedBy,
			TransactionDate: paymentDate,
		})
		if err != nil {
			return decimal.Zero, err
		}

		result = RecordPaymentResult{
			Payment:       payment,
			LedgerEntryID: entry.ID,
			BalanceBefore: before,
			BalanceAfter:  entry.RunningBalance,
		}
		return entry.RunningBalance, nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncPaymentRecorded()
	return &result, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	if id == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "payment id is required")
	}
	payment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "load payment")
	}
	if payment == nil {
		return nil, errors.New(errors.CodeNotFound, fmt.Sprintf("payment %s not found", id))
	}
	return payment, nil
}

func (s *service) ListByVendor(ctx context.Context, vendorID uuid.UUID, params pagination.Params) ([]models.Payment, string, error) {
	if vendorID == uuid.Nil {
		return nil, "", errors.New(errors.CodeValidation, "vendor id is required")
	}
	list, next, err := s.repo.ListByVendor(ctx, vendorID, params)
	if err != nil {
		return nil, "", errors.Wrap(errors.CodeInternal, err, "list payments")
	}
	return list, next, nil
}

// UpdateStatus transitions a payment out of completed, e.g. to bounced or
// cancelled. No reversing ledger entry is written here; operators book the
// offsetting adjustment separately.
func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.PaymentStatus) (*models.Payment, error) {
	if !status.IsValid() {
		return nil, errors.New(errors.CodeValidation, fmt.Sprintf("unknown payment status %q", status))
	}
	payment, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if payment.Status == status {
		return payment, nil
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "update payment status")
	}
	payment.Status = status
	return payment, nil
}
