package models

// PaymentSequence is the per-year counter backing payment number allocation.
// LastSeq only ever increases; the allocator bumps it inside the same
// transaction that inserts the payment row.
type PaymentSequence struct {
	Year    int   `gorm:"column:year;primaryKey"`
	LastSeq int64 `gorm:"column:last_seq;not null;default:0"`
}
