package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendorbooks/payables-backend/internal/inventory"
	"github.com/vendorbooks/payables-backend/internal/payments"
	"github.com/vendorbooks/payables-backend/internal/vendors"
	"github.com/vendorbooks/payables-backend/pkg/enums"
	"github.com/vendorbooks/payables-backend/pkg/errors"
	"github.com/vendorbooks/payables-backend/pkg/metrics"
)

// VendorStats is the per-vendor dashboard projection. CalculatedBalance is
// rebuilt from the aggregates as an independent cross-check against the
// cached CurrentBalance; in a consistent ledger the two are equal.
type VendorStats struct {
	VendorID          uuid.UUID       `json:"vendor_id"`
	VendorName        string          `json:"vendor_name"`
	Active            bool            `json:"active"`
	TotalPurchases    decimal.Decimal `json:"total_purchases"`
	PurchaseCount     int64           `json:"purchase_count"`
	LastPurchaseDate  *time.Time      `json:"last_purchase_date,omitempty"`
	TotalReturns      decimal.Decimal `json:"total_returns"`
	ReturnCount       int64           `json:"return_count"`
	TotalPayments     decimal.Decimal `json:"total_payments"`
	PaymentCount      int64           `json:"payment_count"`
	LastPaymentDate   *time.Time      `json:"last_payment_date,omitempty"`
	CurrentBalance    decimal.Decimal `json:"current_balance"`
	CalculatedBalance decimal.Decimal `json:"calculated_balance"`
	LastActivityDate  *time.Time      `json:"last_activity_date,omitempty"`
}

// Service is the read-only statistics aggregator. It takes no locks; it
// observes committed state only.
type Service interface {
	VendorStats(ctx context.Context, vendorID uuid.UUID) (*VendorStats, error)
}

type service struct {
	vendorRepo    *vendors.Repository
	paymentRepo   *payments.Repository
	inventoryRepo *inventory.Repository
	metrics       *metrics.LedgerMetrics
}

// NewService wires the aggregator. The metrics collector may be nil.
func NewService(vendorRepo *vendors.Repository, paymentRepo *payments.Repository, inventoryRepo *inventory.Repository, collector *metrics.LedgerMetrics) (Service, error) {
	if vendorRepo == nil {
		return nil, fmt.Errorf("stats service requires the vendor repository")
	}
	if paymentRepo == nil {
		return nil, fmt.Errorf("stats service requires the payment repository")
	}
	if inventoryRepo == nil {
		return nil, fmt.Errorf("stats service requires the inventory repository")
	}
	return &service{
		vendorRepo:    vendorRepo,
		paymentRepo:   paymentRepo,
		inventoryRepo: inventoryRepo,
		metrics:       collector,
	}, nil
}

func (s *service) VendorStats(ctx context.Context, vendorID uuid.UUID) (*VendorStats, error) {
	if vendorID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "vendor id is required")
	}

	vendor, err := s.vendorRepo.FindByID(ctx, vendorID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "load vendor")
	}
	if vendor == nil {
		return nil, errors.New(errors.CodeNotFound, "vendor not found")
	}

	stats := &VendorStats{
		VendorID:          vendor.ID,
		VendorName:        vendor.Name,
		Active:            vendor.Active,
		TotalPurchases:    decimal.Zero,
		TotalReturns:      decimal.Zero,
		TotalPayments:     decimal.Zero,
		CurrentBalance:    vendor.Balance,
		CalculatedBalance: decimal.Zero,
	}

	// Deactivated vendors get the minimal shape; dashboards stay resilient
	// to vendors that have just been created or retired.
	if !vendor.Active {
		s.metrics.IncStatsServed()
		return stats, nil
	}

	purchases, err := s.inventoryRepo.ApprovedTotals(ctx, vendor.ID, enums.InventoryTransactionTypePurchase)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "aggregate purchases")
	}
	returns, err := s.inventoryRepo.ApprovedTotals(ctx, vendor.ID, enums.InventoryTransactionTypePurchaseReturn)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "aggregate returns")
	}
	paid, err := s.paymentRepo.SumCompletedByVendor(ctx, vendor.ID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "aggregate payments")
	}

	stats.TotalPurchases = purchases.Total
	stats.PurchaseCount = purchases.Count
	stats.TotalReturns = returns.Total
	stats.ReturnCount = returns.Count
	stats.TotalPayments = paid.Total
	stats.PaymentCount = paid.Count
	stats.CalculatedBalance = purchases.Total.Sub(returns.Total).Sub(paid.Total)

	if purchases.Count > 0 {
		last, err := s.inventoryRepo.LastApprovedByVendor(ctx, vendor.ID, enums.InventoryTransactionTypePurchase)
		if err != nil {
			return nil, errors.Wrap(errors.CodeInternal, err, "load last purchase")
		}
		if last != nil {
			d := last.TransactionDate
			stats.LastPurchaseDate = &d
		}
	}
	if paid.Count > 0 {
		last, err := s.paymentRepo.LastCompletedByVendor(ctx, vendor.ID)
		if err != nil {
			return nil, errors.Wrap(errors.CodeInternal, err, "load last payment")
		}
		if last != nil {
			d := last.PaymentDate
			stats.LastPaymentDate = &d
		}
	}
	stats.LastActivityDate = laterOf(stats.LastPurchaseDate, stats.LastPaymentDate)

	s.metrics.IncStatsServed()
	return stats, nil
}

func laterOf(a, b *time.Time) *time.Time {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case b.After(*a):
		return b
	default:
		return a
	}
}
