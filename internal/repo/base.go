// Package repo holds the embedding base the ledger, vendor, payment, and
// inventory repositories share.
package repo

import (
	"context"

	"gorm.io/gorm"
)

// Base carries the GORM handle for a domain repository. Repositories embed
// it and reach the database through DB so request contexts propagate into
// every query.
type Base struct {
	db *gorm.DB
}

// NewBase wraps the shared GORM connection.
func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB binds the connection to ctx. A nil context returns the bare handle,
// which the subledger test fixtures rely on.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}
