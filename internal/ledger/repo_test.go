package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/vendorbooks/payables-backend/pkg/db/models"
	"github.com/vendorbooks/payables-backend/pkg/enums"
	"github.com/vendorbooks/payables-backend/pkg/pagination"
)

func setupLedgerTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	ledgerEntries := `
CREATE TABLE IF NOT EXISTS ledger_entries (
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
);`
	require.NoError(t, db.Exec(ledgerEntries).Error)
	require.NoError(t, db.Exec(`DELETE FROM ledger_entries`).Error)
	return db
}

func appendEntry(t *testing.T, repo Repository, vendorID uuid.UUID, entryType enums.LedgerEntryType, debit, credit, running decimal.Decimal, created time.Time) *models.LedgerEntry {
	t.Helper()

	entry := &models.LedgerEntry{
		VendorID:        vendorID,
		EntryType:       entryType,
		Debit:           debit,
		Credit:          credit,
		RunningBalance:  running,
		TransactionDate: created,
		CreatedAt:       created,
	}
	require.NoError(t, repo.Create(context.Background(), entry))
	return entry
}

func TestRepositoryLatestByVendor(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewRepository(db)

	vendorID := uuid.New()

	latest, err := repo.LatestByVendor(context.Background(), vendorID)
	require.NoError(t, err)
	assert.Nil(t, latest, "empty ledger should yield no latest entry")

	now := time.Now().UTC()
	appendEntry(t, repo, vendorID, enums.LedgerEntryTypePurchase, decimal.NewFromInt(300), decimal.Zero, decimal.NewFromInt(300), now.Add(-2*time.Minute))
	appendEntry(t, repo, vendorID, enums.LedgerEntryTypePayment, decimal.Zero, decimal.NewFromInt(100), decimal.NewFromInt(200), now.Add(-time.Minute))
	appendEntry(t, repo, uuid.New(), enums.LedgerEntryTypePurchase, decimal.NewFromInt(999), decimal.Zero, decimal.NewFromInt(999), now)

	latest, err = repo.LatestByVendor(context.Background(), vendorID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, enums.LedgerEntryTypePayment, latest.EntryType)
	assert.True(t, latest.RunningBalance.Equal(decimal.NewFromInt(200)))
}

func TestRepositoryHasReference(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewRepository(db)

	vendorID := uuid.New()
	refID := uuid.New()

	found, err := repo.HasReference(context.Background(), vendorID, refID, enums.LedgerEntryTypePurchase)
	require.NoError(t, err)
	assert.False(t, found)

	entry := &models.LedgerEntry{
		VendorID:        vendorID,
		EntryType:       enums.LedgerEntryTypePurchase,
		ReferenceID:     &refID,
		Debit:           decimal.NewFromInt(50),
		RunningBalance:  decimal.NewFromInt(50),
		TransactionDate: time.Now().UTC(),
	}
	require.NoError(t, repo.Create(context.Background(), entry))

	found, err = repo.HasReference(context.Background(), vendorID, refID, enums.LedgerEntryTypePurchase)
	require.NoError(t, err)
	assert.True(t, found)

	// Same reference under a different entry type is a distinct event.
	found, err = repo.HasReference(context.Background(), vendorID, refID, enums.LedgerEntryTypeVoidPurchase)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRepositoryListByVendor_pagination(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewRepository(db)

	vendorID := uuid.New()
	now := time.Now().UTC()
	running := decimal.Zero
	for i := 0; i < 3; i++ {
		running = running.Add(decimal.NewFromInt(100))
		appendEntry(t, repo, vendorID, enums.LedgerEntryTypePurchase, decimal.NewFromInt(100), decimal.Zero, running, now.Add(time.Duration(i)*time.Minute))
	}

	first, cursor, err := repo.ListByVendor(context.Background(), vendorID, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first, 2)
	require.NotEmpty(t, cursor)
	assert.True(t, first[0].RunningBalance.Equal(decimal.NewFromInt(300)), "newest entry first")

	second, next, err := repo.ListByVendor(context.Background(), vendorID, pagination.Params{Limit: 2, Cursor: cursor})
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Empty(t, next)
	assert.True(t, second[0].RunningBalance.Equal(decimal.NewFromInt(100)))
}

func TestRepositoryCreateAssignsID(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewRepository(db)

	entry := &models.LedgerEntry{
		VendorID:        uuid.New(),
		EntryType:       enums.LedgerEntryTypeOpeningBalance,
		Debit:           decimal.NewFromInt(10),
		RunningBalance:  decimal.NewFromInt(10),
		TransactionDate: time.Now().UTC(),
	}
	require.NoError(t, repo.Create(context.Background(), entry))
	assert.NotEqual(t, uuid.Nil, entry.ID)
}
