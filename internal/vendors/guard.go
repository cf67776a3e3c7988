package vendors

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vendorbooks/payables-backend/pkg/db"
	"github.com/vendorbooks/payables-backend/pkg/db/models"
	"github.com/vendorbooks/payables-backend/pkg/errors"
)

// BalanceFn runs inside a vendor-scoped transaction and returns the vendor's
// new cached balance. Any error rolls the transaction back and leaves the
// cached balance untouched.
type BalanceFn func(tx *gorm.DB, vendor *models.Vendor) (decimal.Decimal, error)

// Guard serializes all balance-affecting work per vendor. Work on distinct
// vendors proceeds concurrently; work on the same vendor queues on that
// vendor's mutex. The cached vendor balance is written nowhere else.
type Guard struct {
	client *db.Client
	repo   *Repository

	mu    sync.Mutex
	locks map[uuid.UUID]*vendorLock
}

// vendorLock is reference-counted so the map entry can be dropped once the
// last holder releases it; the map stays bounded by in-flight vendors.
type vendorLock struct {
	mu   sync.Mutex
	refs int
}

// NewGuard wires the balance guard over the shared database client.
func NewGuard(client *db.Client, repo *Repository) (*Guard, error) {
	if client == nil {
		return nil, fmt.Errorf("balance guard requires a database client")
	}
	if repo == nil {
		return nil, fmt.Errorf("balance guard requires a vendor repository")
	}
	return &Guard{
		client: client,
		repo:   repo,
		locks:  make(map[uuid.UUID]*vendorLock),
	}, nil
}

func (g *Guard) acquire(vendorID uuid.UUID) *vendorLock {
	g.mu.Lock()
	lock, ok := g.locks[vendorID]
	if !ok {
		lock = &vendorLock{}
		g.locks[vendorID] = lock
	}
	lock.refs++
	g.mu.Unlock()

	lock.mu.Lock()
	return lock
}

func (g *Guard) release(vendorID uuid.UUID, lock *vendorLock) {
	lock.mu.Unlock()

	g.mu.Lock()
	lock.refs--
	if lock.refs == 0 {
		delete(g.locks, vendorID)
	}
	g.mu.Unlock()
}

// WithVendorLock acquires the vendor's lock, opens a transaction, loads the
// vendor inside it, and runs fn. On success the balance fn returned is
// persisted as the vendor's cached balance and the updated vendor is
// returned. The vendor must exist and be loaded fresh inside the
// transaction; callers never pass a vendor in.
func (g *Guard) WithVendorLock(ctx context.Context, vendorID uuid.UUID, fn BalanceFn) (*models.Vendor, error) {
	if vendorID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "vendor id is required")
	}
	if fn == nil {
		return nil, errors.New(errors.CodeInternal, "balance fn is required")
	}

	lock := g.acquire(vendorID)
	defer g.release(vendorID, lock)

	var updated *models.Vendor
	err := g.client.WithTx(ctx, func(tx *gorm.DB) error {
		vendor, err := g.repo.FindByIDWithTx(tx, vendorID)
		if err != nil {
			return errors.Wrap(errors.CodeInternal, err, "load vendor")
		}
		if vendor == nil {
			return errors.New(errors.CodeNotFound, fmt.Sprintf("vendor %s not found", vendorID))
		}

		balance, err := fn(tx, vendor)
		if err != nil {
			return err
		}

		vendor.Balance = balance
		if err := g.repo.UpdateBalanceWithTx(tx, vendor); err != nil {
			return errors.Wrap(errors.CodeInternal, err, "persist vendor balance")
		}
		updated = vendor
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
