package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendorbooks/payables-backend/pkg/enums"
)

// LedgerEntry is one immutable debit/credit row in a vendor's subledger.
// Exactly one of debit/credit may be positive. RunningBalance is the vendor
// balance immediately after this entry. Corrections append offsetting
// entries; rows are never updated or deleted.
type LedgerEntry struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VendorID        uuid.UUID             `gorm:"column:vendor_id;type:uuid;not null;index"`
	EntryType       enums.LedgerEntryType `gorm:"column:entry_type;type:ledger_entry_type;not null"`
	ReferenceID     *uuid.UUID            `gorm:"column:reference_id;type:uuid"`
	ReferenceNo     string                `gorm:"column:reference_no"`
	Debit           decimal.Decimal       `gorm:"column:debit;type:numeric(14,2);not null;default:0"`
	Credit          decimal.Decimal       `gorm:"column:credit;type:numeric(14,2);not null;default:0"`
	RunningBalance  decimal.Decimal       `gorm:"column:running_balance;type:numeric(14,2);not null"`
	Description     string                `gorm:"column:description"`
	PerformedBy     *string               `gorm:"column:performed_by"`
	TransactionDate time.Time             `gorm:"column:transaction_date;not null"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime"`
}
