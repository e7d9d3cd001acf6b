package domain

import (
	"time"

	"github.com/google/uuid"
)

// VoucherEntry is a pre-loaded, single-use code in a denomination pool.
// The consumed flag flips exactly once; entries are never reused or deleted.
// Serial ids preserve load order, so allocation is first-loaded-first-served.
type VoucherEntry struct {
	ID           int64      `json:"id"`
	Denomination string     `json:"denomination"`
	Code         string     `json:"code"`
	Consumed     bool       `json:"consumed"`
	ConsumedBy   *uuid.UUID `json:"consumed_by,omitempty"`
	ConsumedAt   *time.Time `json:"consumed_at,omitempty"`
}
