package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vendorbooks/payables-backend/pkg/db/models"
	"github.com/vendorbooks/payables-backend/pkg/enums"
	apperrors "github.com/vendorbooks/payables-backend/pkg/errors"
	"github.com/vendorbooks/payables-backend/pkg/metrics"
	"github.com/vendorbooks/payables-backend/pkg/pagination"
)

type fakeRepository struct {
	createFn       func(ctx context.Context, entry *models.LedgerEntry) error
	latestFn       func(ctx context.Context, vendorID uuid.UUID) (*models.LedgerEntry, error)
	hasReferenceFn func(ctx context.Context, vendorID, referenceID uuid.UUID, entryType enums.LedgerEntryType) (bool, error)
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository {
	return f
}

func (f *fakeRepository) Create(ctx context.Context, entry *models.LedgerEntry) error {
	if f.createFn != nil {
		return f.createFn(ctx, entry)
	}
	return nil
}

func (f *fakeRepository) LatestByVendor(ctx context.Context, vendorID uuid.UUID) (*models.LedgerEntry, error) {
	if f.latestFn != nil {
		return f.latestFn(ctx, vendorID)
	}
	return nil, nil
}

func (f *fakeRepository) HasReference(ctx context.Context, vendorID, referenceID uuid.UUID, entryType enums.LedgerEntryType) (bool, error) {
	if f.hasReferenceFn != nil {
		return f.hasReferenceFn(ctx, vendorID, referenceID, entryType)
	}
	return false, nil
}

func (f *fakeRepository) ListByVendor(ctx context.Context, vendorID uuid.UUID, params pagination.Params) ([]models.LedgerEntry, string, error) {
	return nil, "", nil
}

func newTestService(t *testing.T, repo Repository) Service {
	t.Helper()

	svc, err := NewService(repo, metrics.NewLedgerMetrics(nil))
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	return svc
}

func TestService_AppendFirstEntry(t *testing.T) {
	repo := &fakeRepository{}
	svc := newTestService(t, repo)

	var created *models.LedgerEntry
	repo.createFn = func(ctx context.Context, entry *models.LedgerEntry) error {
		created = entry
		return nil
	}

	vendorID := uuid.New()
	refID := uuid.New()
	got, err := svc.Append(context.Background(), AppendInput{
		VendorID:     vendorID,
		EntryType:    enums.LedgerEntryTypePurchase,
		ReferenceID:  &refID,
		ReferenceNo:  "INV-1001",
		Debit:        decimal.NewFromInt(250),
		Credit:       decimal.Zero,
		PriorBalance: decimal.Zero,
		Description:  "stock purchase",
	})
	if err != nil {
		t.Fatalf("Append error: %v", err)
	}
	if created == nil {
		t.Fatal("expected ledger entry to be created")
	}
	if got != created {
		t.Fatal("service should return the created entry")
	}
	if created.VendorID != vendorID || created.EntryType != enums.LedgerEntryTypePurchase {
		t.Fatalf("unexpected entry data: %+v", created)
	}
	if !created.RunningBalance.Equal(decimal.NewFromInt(250)) {
		t.Fatalf("running balance = %s, want 250", created.RunningBalance)
	}
	if created.TransactionDate.IsZero() {
		t.Fatal("expected transaction date to default to now")
	}
}

func TestService_AppendRunningBalanceChain(t *testing.T) {
	repo := &fakeRepository{}
	svc := newTestService(t, repo)

	prior := &models.LedgerEntry{RunningBalance: decimal.NewFromInt(1000)}
	repo.latestFn = func(ctx context.Context, vendorID uuid.UUID) (*models.LedgerEntry, error) {
		return prior, nil
	}

	got, err := svc.Append(context.Background(), AppendInput{
		VendorID:     uuid.New(),
		EntryType:    enums.LedgerEntryTypePayment,
		Credit:       decimal.NewFromInt(400),
		PriorBalance: decimal.NewFromInt(1000),
	})
	if err != nil {
		t.Fatalf("Append error: %v", err)
	}
	if !got.RunningBalance.Equal(decimal.NewFromInt(600)) {
		t.Fatalf("running balance = %s, want 600", got.RunningBalance)
	}
}

func TestService_AppendContinuityViolation(t *testing.T) {
	repo := &fakeRepository{}
	svc := newTestService(t, repo)

	repo.latestFn = func(ctx context.Context, vendorID uuid.UUID) (*models.LedgerEntry, error) {
		return &models.LedgerEntry{RunningBalance: decimal.NewFromInt(750)}, nil
	}

	_, err := svc.Append(context.Background(), AppendInput{
		VendorID:     uuid.New(),
		EntryType:    enums.LedgerEntryTypePayment,
		Credit:       decimal.NewFromInt(100),
		PriorBalance: decimal.NewFromInt(500),
	})
	if err == nil {
		t.Fatal("expected discontinuity error")
	}
	if apperrors.CodeOf(err) != apperrors.CodeInvariant {
		t.Fatalf("error code = %s, want %s", apperrors.CodeOf(err), apperrors.CodeInvariant)
	}
}

func TestService_AppendValidation(t *testing.T) {
	repo := &fakeRepository{}
	svc := newTestService(t, repo)

	tests := []struct {
		name  string
		input AppendInput
		code  apperrors.Code
	}{
		{
			name: "missing vendor id",
			input: AppendInput{
				EntryType: enums.LedgerEntryTypePurchase,
				Debit:     decimal.NewFromInt(10),
			},
			code: apperrors.CodeValidation,
		},
		{
			name: "unknown entry type",
			input: AppendInput{
				VendorID:  uuid.New(),
				EntryType: enums.LedgerEntryType("not_real"),
				Debit:     decimal.NewFromInt(10),
			},
			code: apperrors.CodeValidation,
		},
		{
			name: "negative debit",
			input: AppendInput{
				VendorID:  uuid.New(),
				EntryType: enums.LedgerEntryTypePurchase,
				Debit:     decimal.NewFromInt(-5),
			},
			code: apperrors.CodeInvariant,
		},
		{
			name: "negative credit",
			input: AppendInput{
				VendorID:  uuid.New(),
				EntryType: enums.LedgerEntryTypePayment,
				Credit:    decimal.NewFromInt(-5),
			},
			code: apperrors.CodeInvariant,
		},
		{
			name: "both sides positive",
			input: AppendInput{
				VendorID:  uuid.New(),
				EntryType: enums.LedgerEntryTypeAdjustment,
				Debit:     decimal.NewFromInt(5),
				Credit:    decimal.NewFromInt(5),
			},
			code: apperrors.CodeInvariant,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Append(context.Background(), tc.input)
			if err == nil {
				t.Fatalf("expected error for %s", tc.name)
			}
			if apperrors.CodeOf(err) != tc.code {
				t.Fatalf("error code = %s, want %s", apperrors.CodeOf(err), tc.code)
			}
		})
	}
}

func TestService_AppendRepoError(t *testing.T) {
	repo := &fakeRepository{}
	svc := newTestService(t, repo)

	expectedErr := errors.New("boom")
	repo.createFn = func(ctx context.Context, entry *models.LedgerEntry) error {
		return expectedErr
	}

	_, err := svc.Append(context.Background(), AppendInput{
		VendorID:  uuid.New(),
		EntryType: enums.LedgerEntryTypePurchase,
		Debit:     decimal.NewFromInt(10),
	})
	if !errors.Is(err, expectedErr) {
		t.Fatalf("expected repo error to bubble up, got %v", err)
	}
}

func TestService_RunningBalance(t *testing.T) {
	repo := &fakeRepository{}
	svc := newTestService(t, repo)

	balance, err := svc.RunningBalance(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("RunningBalance error: %v", err)
	}
	if !balance.IsZero() {
		t.Fatalf("balance for empty ledger = %s, want 0", balance)
	}

	repo.latestFn = func(ctx context.Context, vendorID uuid.UUID) (*models.LedgerEntry, error) {
		return &models.LedgerEntry{RunningBalance: decimal.NewFromInt(320)}, nil
	}
	balance, err = svc.RunningBalance(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("RunningBalance error: %v", err)
	}
	if !balance.Equal(decimal.NewFromInt(320)) {
		t.Fatalf("balance = %s, want 320", balance)
	}
}

func TestService_HasReference(t *testing.T) {
	repo := &fakeRepository{}
	svc := newTestService(t, repo)

	repo.hasReferenceFn = func(ctx context.Context, vendorID, referenceID uuid.UUID, entryType enums.LedgerEntryType) (bool, error) {
		return true, nil
	}

	found, err := svc.HasReference(context.Background(), uuid.New(), uuid.New(), enums.LedgerEntryTypePurchase)
	if err != nil {
		t.Fatalf("HasReference error: %v", err)
	}
	if !found {
		t.Fatal("expected reference probe to report true")
	}
}
