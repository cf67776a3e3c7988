package vendors

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/vendorbooks/payables-backend/pkg/db"
	"github.com/vendorbooks/payables-backend/pkg/db/models"
	apperrors "github.com/vendorbooks/payables-backend/pkg/errors"
)

func setupVendorsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	vendorsTable := `
CREATE TABLE IF NOT EXISTS vendors (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  contact_email TEXT,
  active INTEGER NOT NULL DEFAULT 1,
  balance NUMERIC NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, conn.Exec(vendorsTable).Error)
	require.NoError(t, conn.Exec(`DELETE FROM vendors`).Error)
	return conn
}

func newVendor(t *testing.T, conn *gorm.DB, name string, balance decimal.Decimal) *models.Vendor {
	t.Helper()

	vendor := &models.Vendor{
		ID:      uuid.New(),
		Name:    name,
		Active:  true,
		Balance: balance,
	}
	require.NoError(t, conn.Create(vendor).Error)
	return vendor
}

func newGuard(t *testing.T, conn *gorm.DB) (*Guard, *Repository) {
	t.Helper()

	repo := NewRepository(conn)
	guard, err := NewGuard(db.FromGorm(conn), repo)
	require.NoError(t, err)
	return guard, repo
}

func TestGuardPersistsReturnedBalance(t *testing.T) {
	conn := setupVendorsTestDB(t)
	guard, repo := newGuard(t, conn)

	vendor := newVendor(t, conn, "Acme Supply", decimal.NewFromInt(100))

	updated, err := guard.WithVendorLock(context.Background(), vendor.ID, func(tx *gorm.DB, v *models.Vendor) (decimal.Decimal, error) {
		require.True(t, v.Balance.Equal(decimal.NewFromInt(100)))
		return v.Balance.Add(decimal.NewFromInt(250)), nil
	})
	require.NoError(t, err)
	assert.True(t, updated.Balance.Equal(decimal.NewFromInt(350)))

	stored, err := repo.FindByID(context.Background(), vendor.ID)
	require.NoError(t, err)
	assert.True(t, stored.Balance.Equal(decimal.NewFromInt(350)))
}

func TestGuardRollsBackOnError(t *testing.T) {
	conn := setupVendorsTestDB(t)
	guard, repo := newGuard(t, conn)

	vendor := newVendor(t, conn, "Rollback Supply", decimal.NewFromInt(40))

	boom := errors.New("boom")
	_, err := guard.WithVendorLock(context.Background(), vendor.ID, func(tx *gorm.DB, v *models.Vendor) (decimal.Decimal, error) {
		// Stage a write inside the transaction, then fail.
		other := &models.Vendor{ID: uuid.New(), Name: "Ghost", Active: true, Balance: decimal.Zero}
		require.NoError(t, tx.Create(other).Error)
		return decimal.Zero, boom
	})
	require.ErrorIs(t, err, boom)

	stored, err := repo.FindByID(context.Background(), vendor.ID)
	require.NoError(t, err)
	assert.True(t, stored.Balance.Equal(decimal.NewFromInt(40)), "balance must survive a failed mutation")

	var count int64
	require.NoError(t, conn.Model(&models.Vendor{}).Where("name = ?", "Ghost").Count(&count).Error)
	assert.Zero(t, count, "staged writes must roll back with the transaction")
}

func TestGuardVendorNotFound(t *testing.T) {
	conn := setupVendorsTestDB(t)
	guard, _ := newGuard(t, conn)

	_, err := guard.WithVendorLock(context.Background(), uuid.New(), func(tx *gorm.DB, v *models.Vendor) (decimal.Decimal, error) {
		t.Fatal("fn must not run for a missing vendor")
		return decimal.Zero, nil
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(err))
}

func TestGuardSerializesSameVendor(t *testing.T) {
	conn := setupVendorsTestDB(t)
	guard, repo := newGuard(t, conn)

	vendor := newVendor(t, conn, "Busy Supply", decimal.Zero)

	const workers = 8
	const perWorker = 5

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				_, err := guard.WithVendorLock(context.Background(), vendor.ID, func(tx *gorm.DB, v *models.Vendor) (decimal.Decimal, error) {
					return v.Balance.Add(decimal.NewFromInt(1)), nil
				})
				if err != nil {
					t.Errorf("WithVendorLock error: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	stored, err := repo.FindByID(context.Background(), vendor.ID)
	require.NoError(t, err)
	assert.True(t, stored.Balance.Equal(decimal.NewFromInt(workers*perWorker)),
		"lost update detected: balance = %s", stored.Balance)
}

func TestGuardDropsIdleVendorLocks(t *testing.T) {
	conn := setupVendorsTestDB(t)
	guard, _ := newGuard(t, conn)

	const vendorCount = 4
	ids := make([]uuid.UUID, 0, vendorCount)
	for i := 0; i < vendorCount; i++ {
		ids = append(ids, newVendor(t, conn, "Churn Supply", decimal.Zero).ID)
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		for i := 0; i < 3; i++ {
			wg.Add(1)
			go func(id uuid.UUID) {
				defer wg.Done()
				_, err := guard.WithVendorLock(context.Background(), id, func(tx *gorm.DB, v *models.Vendor) (decimal.Decimal, error) {
					return v.Balance.Add(decimal.NewFromInt(1)), nil
				})
				if err != nil {
					t.Errorf("WithVendorLock error: %v", err)
				}
			}(id)
		}
	}
	wg.Wait()

	guard.mu.Lock()
	held := len(guard.locks)
	guard.mu.Unlock()
	assert.Zero(t, held, "idle vendor locks must be dropped, %d still held", held)
}
