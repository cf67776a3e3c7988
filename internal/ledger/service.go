package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vendorbooks/payables-backend/pkg/db/models"
	"github.com/vendorbooks/payables-backend/pkg/enums"
	"github.com/vendorbooks/payables-backend/pkg/errors"
	"github.com/vendorbooks/payables-backend/pkg/metrics"
	"github.com/vendorbooks/payables-backend/pkg/pagination"
)

// AppendInput carries everything needed to append one ledger entry.
// Exactly one of Debit or Credit may be positive; the other must be zero.
type AppendInput struct {
	VendorID        uuid.UUID
	EntryType       enums.LedgerEntryType
	ReferenceID     *uuid.UUID
	ReferenceNo     string
	Debit           decimal.Decimal
	Credit          decimal.Decimal
	PriorBalance    decimal.Decimal
	Description     string
	PerformedBy     *string
	TransactionDate time.Time
}

// Service exposes the append-only entry store. Appends are expected to run
// inside a vendor-scoped transaction obtained from the balance guard;
// callers rebind with WithTx before writing.
type Service interface {
	WithTx(tx *gorm.DB) Service
	Append(ctx context.Context, input AppendInput) (*models.LedgerEntry, error)
	RunningBalance(ctx context.Context, vendorID uuid.UUID) (decimal.Decimal, error)
	HasReference(ctx context.Context, vendorID uuid.UUID, referenceID uuid.UUID, entryType enums.LedgerEntryType) (bool, error)
	ListByVendor(ctx context.Context, vendorID uuid.UUID, params pagination.Params) ([]models.LedgerEntry, string, error)
}

type service struct {
	repo    Repository
	metrics *metrics.LedgerMetrics
}

// NewService wires the entry store service. The metrics collector may be nil.
func NewService(repo Repository, collector *metrics.LedgerMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger service requires a repository")
	}
	return &service{repo: repo, metrics: collector}, nil
}

func (s *service) WithTx(tx *gorm.DB) Service {
	if tx == nil {
		return s
	}
	return &service{repo: s.repo.WithTx(tx), metrics: s.metrics}
}

func (s *service) Append(ctx context.Context, input AppendInput) (*models.LedgerEntry, error) {
	if err := s.validate(input); err != nil {
		return nil, err
	}

	latest, err := s.repo.LatestByVendor(ctx, input.VendorID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "load latest ledger entry")
	}
	prior := decimal.Zero
	if latest != nil {
		prior = latest.RunningBalance
	}
	if !input.PriorBalance.Equal(prior) {
		return nil, errors.New(errors.CodeInvariant, fmt.Sprintf(
			"running balance discontinuity for vendor %s: caller saw %s, ledger has %s",
			input.VendorID, input.PriorBalance.String(), prior.String(),
		))
	}

	txDate := input.TransactionDate
	if txDate.IsZero() {
		txDate = time.Now().UTC()
	}

	entry := &models.LedgerEntry{
		VendorID:        input.VendorID,
		EntryType:       input.EntryType,
		ReferenceID:     input.ReferenceID,
		ReferenceNo:     strings.TrimSpace(input.ReferenceNo),
		Debit:           input.Debit,
		Credit:          input.Credit,
		RunningBalance:  prior.Add(input.Debit).Sub(input.Credit),
		Description:     strings.TrimSpace(input.Description),
		PerformedBy:     input.PerformedBy,
		TransactionDate: txDate,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "persist ledger entry")
	}

	s.metrics.IncEntryAppended(entry.EntryType.String())
	return entry, nil
}

func (s *service) validate(input AppendInput) error {
	if input.VendorID == uuid.Nil {
		return errors.New(errors.CodeValidation, "vendor id is required")
	}
	if !input.EntryType.IsValid() {
		return errors.New(errors.CodeValidation, fmt.Sprintf("unknown entry type %q", input.EntryType))
	}
	if input.Debit.IsNegative() || input.Credit.IsNegative() {
		return errors.New(errors.CodeInvariant, "ledger amounts must not be negative")
	}
	if input.Debit.IsPositive() && input.Credit.IsPositive() {
		return errors.New(errors.CodeInvariant, "entry cannot carry both a debit and a credit")
	}
	return nil
}

func (s *service) RunningBalance(ctx context.Context, vendorID uuid.UUID) (decimal.Decimal, error) {
	latest, err := s.repo.LatestByVendor(ctx, vendorID)
	if err != nil {
		return decimal.Zero, errors.Wrap(errors.CodeInternal, err, "load latest ledger entry")
	}
	if latest == nil {
		return decimal.Zero, nil
	}
	return latest.RunningBalance, nil
}

func (s *service) HasReference(ctx context.Context, vendorID uuid.UUID, referenceID uuid.UUID, entryType enums.LedgerEntryType) (bool, error) {
	found, err := s.repo.HasReference(ctx, vendorID, referenceID, entryType)
	if err != nil {
		return false, errors.Wrap(errors.CodeInternal, err, "probe ledger reference")
	}
	return found, nil
}

func (s *service) ListByVendor(ctx context.Context, vendorID uuid.UUID, params pagination.Params) ([]models.LedgerEntry, string, error) {
	if vendorID == uuid.Nil {
		return nil, "", errors.New(errors.CodeValidation, "vendor id is required")
	}
	entries, next, err := s.repo.ListByVendor(ctx, vendorID, params)
	if err != nil {
		return nil, "", errors.Wrap(errors.CodeInternal, err, "list ledger entries")
	}
	return entries, next, nil
}
