package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Vendor is the supplier master record. Balance is the cached signed amount
// the operator owes the vendor; it is written only through the balance guard
// and must always equal the running balance of the vendor's latest ledger
// entry.
type Vendor struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name         string          `gorm:"column:name;not null"`
	ContactEmail *string         `gorm:"column:contact_email"`
	Active       bool            `gorm:"column:active;not null;default:true"`
	Balance      decimal.Decimal `gorm:"column:balance;type:numeric(14,2);not null;default:0"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
