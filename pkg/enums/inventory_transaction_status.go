package enums

import "fmt"

// InventoryTransactionStatus tracks the lifecycle of an inventory transaction.
type InventoryTransactionStatus string

const (
	InventoryTransactionStatusDraft     InventoryTransactionStatus = "draft"
	InventoryTransactionStatusPending   InventoryTransactionStatus = "pending"
	InventoryTransactionStatusApproved  InventoryTransactionStatus = "approved"
	InventoryTransactionStatusCancelled InventoryTransactionStatus = "cancelled"
)

var validInventoryTransactionStatuses = []InventoryTransactionStatus{
	InventoryTransactionStatusDraft,
	InventoryTransactionStatusPending,
	InventoryTransactionStatusApproved,
	InventoryTransactionStatusCancelled,
}

// String implements fmt.Stringer.
func (s InventoryTransactionStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known InventoryTransactionStatus.
func (s InventoryTransactionStatus) IsValid() bool {
	for _, candidate := range validInventoryTransactionStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseInventoryTransactionStatus converts raw input into an InventoryTransactionStatus.
func ParseInventoryTransactionStatus(value string) (InventoryTransactionStatus, error) {
	for _, candidate := range validInventoryTransactionStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid inventory transaction status %q", value)
}
