package inventory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/vendorbooks/payables-backend/internal/ledger"
	"github.com/vendorbooks/payables-backend/internal/vendors"
	"github.com/vendorbooks/payables-backend/pkg/db"
	"github.com/vendorbooks/payables-backend/pkg/db/models"
	"github.com/vendorbooks/payables-backend/pkg/enums"
	apperrors "github.com/vendorbooks/payables-backend/pkg/errors"
	"github.com/vendorbooks/payables-backend/pkg/metrics"
)

func setupInventoryTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{
		`CREATE TABLE IF NOT EXISTS vendors (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  contact_email TEXT,
  active INTEGER NOT NULL DEFAULT 1,
  balance NUMERIC NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS ledger_entries (
  id TEXT PRIMARY KEY,
  vendor_id TEXT NOT NULL,
  entry_type TEXT NOT NULL,
  reference_id TEXT,
  reference_no TEXT,
  debit NUMERIC NOT NULL DEFAULT 0,
  credit NUMERIC NOT NULL DEFAULT 0,
  running_balance NUMERIC NOT NULL,
  description TEXT,
  performed_by TEXT,
  transaction_date DATETIME NOT NULL,
  created_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS inventory_transactions (
  id TEXT PRIMARY KEY,
  vendor_id TEXT,
  transaction_type TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  total_cost NUMERIC NOT NULL DEFAULT 0,
  invoice_no TEXT,
  transaction_date DATETIME NOT NULL,
  approved_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
	}
	for _, stmt := range statements {
		require.NoError(t, conn.Exec(stmt).Error)
	}
	for _, table := range []string{"ledger_entries", "inventory_transactions", "vendors"} {
		require.NoError(t, conn.Exec(fmt.Sprintf("DELETE FROM %s", table)).Error)
	}
	return conn
}

type inventoryFixture struct {
	conn       *gorm.DB
	svc        Service
	vendorRepo *vendors.Repository
	ledgerSvc  ledger.Service
}

func newInventoryFixture(t *testing.T) *inventoryFixture {
	t.Helper()

	conn := setupInventoryTestDB(t)
	vendorRepo := vendors.NewRepository(conn)
	guard, err := vendors.NewGuard(db.FromGorm(conn), vendorRepo)
	require.NoError(t, err)

	collector := metrics.NewLedgerMetrics(nil)
	ledgerSvc, err := ledger.NewService(ledger.NewRepository(conn), collector)
	require.NoError(t, err)

	svc, err := NewService(NewRepository(conn), guard, ledgerSvc, collector)
	require.NoError(t, err)

	return &inventoryFixture{conn: conn, svc: svc, vendorRepo: vendorRepo, ledgerSvc: ledgerSvc}
}

func (f *inventoryFixture) newVendor(t *testing.T) *models.Vendor {
	t.Helper()

	vendor := &models.Vendor{
		ID:      uuid.New(),
		Name:    "Feed Supply",
		Active:  true,
		Balance: decimal.Zero,
	}
	require.NoError(t, f.conn.Create(vendor).Error)
	return vendor
}

func (f *inventoryFixture) entryCount(t *testing.T) int64 {
	t.Helper()

	var count int64
	require.NoError(t, f.conn.Model(&models.LedgerEntry{}).Count(&count).Error)
	return count
}

func TestApprovePurchaseDerivesDebitEntry(t *testing.T) {
	f := newInventoryFixture(t)
	vendor := f.newVendor(t)

	txn, err := f.svc.Create(context.Background(), CreateTransactionInput{
		VendorID:        &vendor.ID,
		TransactionType: enums.InventoryTransactionTypePurchase,
		TotalCost:       decimal.NewFromInt(1000),
		InvoiceNo:       "INV-2026-17",
		TransactionDate: time.Date(2026, time.February, 2, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, enums.InventoryTransactionStatusPending, txn.Status)

	actor := "buyer@ops"
	result, err := f.svc.Approve(context.Background(), txn.ID, &actor)
	require.NoError(t, err)
	assert.False(t, result.Skipped)
	assert.Equal(t, enums.InventoryTransactionStatusApproved, result.Transaction.Status)
	require.NotNil(t, result.Transaction.ApprovedAt)

	require.NotNil(t, result.Entry)
	assert.Equal(t, enums.LedgerEntryTypePurchase, result.Entry.EntryType)
	assert.True(t, result.Entry.Debit.Equal(decimal.NewFromInt(1000)))
	assert.True(t, result.Entry.Credit.IsZero())
	assert.True(t, result.Entry.RunningBalance.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, "INV-2026-17", result.Entry.ReferenceNo)

	stored, err := f.vendorRepo.FindByID(context.Background(), vendor.ID)
	require.NoError(t, err)
	assert.True(t, stored.Balance.Equal(decimal.NewFromInt(1000)))
}

func TestApproveReturnDerivesCreditEntry(t *testing.T) {
	f := newInventoryFixture(t)
	vendor := f.newVendor(t)

	// Returns can arrive with a negative cost; the derived entry uses the
	// absolute value.
	txn, err := f.svc.Create(context.Background(), CreateTransactionInput{
		VendorID:        &vendor.ID,
		TransactionType: enums.InventoryTransactionTypePurchaseReturn,
		TotalCost:       decimal.NewFromInt(-100),
		InvoiceNo:       "RET-2026-3",
	})
	require.NoError(t, err)

	result, err := f.svc.Approve(context.Background(), txn.ID, nil)
	require.NoError(t, err)
	require.NotNil(t, result.Entry)
	assert.Equal(t, enums.LedgerEntryTypePurchaseReturn, result.Entry.EntryType)
	assert.True(t, result.Entry.Credit.Equal(decimal.NewFromInt(100)))
	assert.True(t, result.Entry.Debit.IsZero())
	assert.True(t, result.Entry.RunningBalance.Equal(decimal.NewFromInt(-100)))
}

func TestApproveIsIdempotent(t *testing.T) {
	f := newInventoryFixture(t)
	vendor := f.newVendor(t)

	txn, err := f.svc.Create(context.Background(), CreateTransactionInput{
		VendorID:        &vendor.ID,
		TransactionType: enums.InventoryTransactionTypePurchase,
		TotalCost:       decimal.NewFromInt(500),
		InvoiceNo:       "INV-2026-18",
	})
	require.NoError(t, err)

	first, err := f.svc.Approve(context.Background(), txn.ID, nil)
	require.NoError(t, err)
	require.NotNil(t, first.Entry)
	require.EqualValues(t, 1, f.entryCount(t))

	second, err := f.svc.Approve(context.Background(), txn.ID, nil)
	require.NoError(t, err)
	assert.True(t, second.Skipped)
	assert.Nil(t, second.Entry)
	assert.EqualValues(t, 1, f.entryCount(t), "replayed approval must derive nothing")

	stored, err := f.vendorRepo.FindByID(context.Background(), vendor.ID)
	require.NoError(t, err)
	assert.True(t, stored.Balance.Equal(decimal.NewFromInt(500)))
}

func TestApproveWithoutVendorWritesNoEntry(t *testing.T) {
	f := newInventoryFixture(t)

	txn, err := f.svc.Create(context.Background(), CreateTransactionInput{
		TransactionType: enums.InventoryTransactionTypePurchase,
		TotalCost:       decimal.NewFromInt(75),
	})
	require.NoError(t, err)

	result, err := f.svc.Approve(context.Background(), txn.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, result.Entry)
	assert.Equal(t, enums.InventoryTransactionStatusApproved, result.Transaction.Status)
	assert.Zero(t, f.entryCount(t))
}

func TestApproveTransferWritesNoEntry(t *testing.T) {
	f := newInventoryFixture(t)
	vendor := f.newVendor(t)

	txn, err := f.svc.Create(context.Background(), CreateTransactionInput{
		VendorID:        &vendor.ID,
		TransactionType: enums.InventoryTransactionTypeTransfer,
		TotalCost:       decimal.NewFromInt(60),
	})
	require.NoError(t, err)

	result, err := f.svc.Approve(context.Background(), txn.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, result.Entry)
	assert.Equal(t, enums.InventoryTransactionStatusApproved, result.Transaction.Status)
	assert.Zero(t, f.entryCount(t))

	stored, err := f.vendorRepo.FindByID(context.Background(), vendor.ID)
	require.NoError(t, err)
	assert.True(t, stored.Balance.IsZero())
}

func TestCancelRules(t *testing.T) {
	f := newInventoryFixture(t)
	vendor := f.newVendor(t)

	txn, err := f.svc.Create(context.Background(), CreateTransactionInput{
		VendorID:        &vendor.ID,
		TransactionType: enums.InventoryTransactionTypePurchase,
		TotalCost:       decimal.NewFromInt(200),
	})
	require.NoError(t, err)

	cancelled, err := f.svc.Cancel(context.Background(), txn.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.InventoryTransactionStatusCancelled, cancelled.Status)

	_, err = f.svc.Approve(context.Background(), txn.ID, nil)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeConflict, apperrors.CodeOf(err))

	approved, err := f.svc.Create(context.Background(), CreateTransactionInput{
		VendorID:        &vendor.ID,
		TransactionType: enums.InventoryTransactionTypePurchase,
		TotalCost:       decimal.NewFromInt(120),
	})
	require.NoError(t, err)
	_, err = f.svc.Approve(context.Background(), approved.ID, nil)
	require.NoError(t, err)

	_, err = f.svc.Cancel(context.Background(), approved.ID)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeConflict, apperrors.CodeOf(err))
}

func TestCancelCannotLandOnApprovedRow(t *testing.T) {
	f := newInventoryFixture(t)
	vendor := f.newVendor(t)
	repo := NewRepository(f.conn)

	txn, err := f.svc.Create(context.Background(), CreateTransactionInput{
		VendorID:        &vendor.ID,
		TransactionType: enums.InventoryTransactionTypePurchase,
		TotalCost:       decimal.NewFromInt(300),
	})
	require.NoError(t, err)
	_, err = f.svc.Approve(context.Background(), txn.ID, nil)
	require.NoError(t, err)

	// A cancel that read the row as pending before the approval committed
	// must lose the write, not flip an approved row whose debit is already
	// in the vendor balance.
	moved, err := repo.CancelPending(context.Background(), txn.ID)
	require.NoError(t, err)
	assert.False(t, moved)

	stored, err := f.svc.Get(context.Background(), txn.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.InventoryTransactionStatusApproved, stored.Status)
	assert.Equal(t, int64(1), f.entryCount(t))

	vendorStored, err := f.vendorRepo.FindByID(context.Background(), vendor.ID)
	require.NoError(t, err)
	assert.True(t, vendorStored.Balance.Equal(decimal.NewFromInt(300)))
}

func TestApproveCannotReviveCancelledRow(t *testing.T) {
	f := newInventoryFixture(t)
	vendor := f.newVendor(t)
	repo := NewRepository(f.conn)

	txn, err := f.svc.Create(context.Background(), CreateTransactionInput{
		VendorID:        &vendor.ID,
		TransactionType: enums.InventoryTransactionTypePurchase,
		TotalCost:       decimal.NewFromInt(75),
	})
	require.NoError(t, err)
	_, err = f.svc.Cancel(context.Background(), txn.ID)
	require.NoError(t, err)

	// The approval path is conditional too; a cancel that committed first
	// stays final.
	moved, err := repo.MarkApprovedWithTx(f.conn, txn.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.False(t, moved)

	stored, err := f.svc.Get(context.Background(), txn.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.InventoryTransactionStatusCancelled, stored.Status)
	assert.Equal(t, int64(0), f.entryCount(t))
}
