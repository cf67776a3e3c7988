package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendorbooks/payables-backend/pkg/enums"
)

// InventoryTransaction mirrors the upstream inventory feed. The subledger
// reacts to the transition into approved status; TotalCost may be negative
// for returns, derived entries always use its absolute value.
type InventoryTransaction struct {
	ID              uuid.UUID                        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VendorID        *uuid.UUID                       `gorm:"column:vendor_id;type:uuid;index"`
	TransactionType enums.InventoryTransactionType   `gorm:"column:transaction_type;type:inventory_transaction_type;not null"`
	Status          enums.InventoryTransactionStatus `gorm:"column:status;type:inventory_transaction_status;not null;default:'pending'"`
	TotalCost       decimal.Decimal                  `gorm:"column:total_cost;type:numeric(14,2);not null;default:0"`
	InvoiceNo       string                           `gorm:"column:invoice_no"`
	TransactionDate time.Time                        `gorm:"column:transaction_date;not null"`
	ApprovedAt      *time.Time                       `gorm:"column:approved_at"`
	CreatedAt       time.Time                        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time                        `gorm:"column:updated_at;autoUpdateTime"`
}
