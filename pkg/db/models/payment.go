package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendorbooks/payables-backend/pkg/enums"
)

// Payment records one operator-to-vendor disbursement. A completed payment
// has exactly one ledger entry of type payment whose reference_id is this
// row's id and whose credit equals Amount.
type Payment struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VendorID        uuid.UUID           `gorm:"column:vendor_id;type:uuid;not null;index"`
	PaymentNo       string              `gorm:"column:payment_no;not null;uniqueIndex"`
	Amount          decimal.Decimal     `gorm:"column:amount;type:numeric(14,2);not null"`
	PaymentMethod   enums.PaymentMethod `gorm:"column:payment_method;type:payment_method;not null;default:'cash'"`
	ReferenceNumber *string             `gorm:"column:reference_number"`
	Notes           *string             `gorm:"column:notes"`
	BalanceBefore   decimal.Decimal     `gorm:"column:balance_before;type:numeric(14,2);not null"`
	BalanceAfter    decimal.Decimal     `gorm:"column:balance_after;type:numeric(14,2);not null"`
	PaymentDate     time.Time           `gorm:"column:payment_date;not null"`
	Status          enums.PaymentStatus `gorm:"column:status;type:payment_status;not null;default:'pending'"`
	CreatedBy       *string             `gorm:"column:created_by"`
	ApprovedBy      *string             `gorm:"column:approved_by"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
