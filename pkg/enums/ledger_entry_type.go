package enums

import "fmt"

// LedgerEntryType maps to the ledger_entry_type enum in Postgres.
type LedgerEntryType string

const (
	LedgerEntryTypePurchase       LedgerEntryType = "purchase"
	LedgerEntryTypePurchaseReturn LedgerEntryType = "purchase_return"
	LedgerEntryTypePayment        LedgerEntryType = "payment"
	LedgerEntryTypeDebitNote      LedgerEntryType = "debit_note"
	LedgerEntryTypeCreditNote     LedgerEntryType = "credit_note"
	LedgerEntryTypeVoidPurchase   LedgerEntryType = "void_purchase"
	LedgerEntryTypeVoidReturn     LedgerEntryType = "void_return"
	LedgerEntryTypeOpeningBalance LedgerEntryType = "opening_balance"
	LedgerEntryTypeAdjustment     LedgerEntryType = "adjustment"
)

var validLedgerEntryTypes = []LedgerEntryType{
	LedgerEntryTypePurchase,
	LedgerEntryTypePurchaseReturn,
	LedgerEntryTypePayment,
	LedgerEntryTypeDebitNote,
	LedgerEntryTypeCreditNote,
	LedgerEntryTypeVoidPurchase,
	LedgerEntryTypeVoidReturn,
	LedgerEntryTypeOpeningBalance,
	LedgerEntryTypeAdjustment,
}

// String implements fmt.Stringer.
func (t LedgerEntryType) String() string {
	return string(t)
}

// IsValid reports whether the value matches the canonical ledger entry enum.
func (t LedgerEntryType) IsValid() bool {
	for _, candidate := range validLedgerEntryTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseLedgerEntryType converts raw input into LedgerEntryType.
func ParseLedgerEntryType(value string) (LedgerEntryType, error) {
	for _, candidate := range validLedgerEntryTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ledger entry type %q", value)
}
