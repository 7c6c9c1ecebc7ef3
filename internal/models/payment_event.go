package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentEvent is one append-only rent ledger entry owned by a unit.
// DayOffset is signed: negative = early, zero = on the due date,
// positive = days late. Events are never mutated or deleted; the series
// per tenant is the sole input to scoring.
type PaymentEvent struct {
	ID            uuid.UUID `json:"id"`
	UnitID        uuid.UUID `json:"unit_id"`
	TenantPhone   string    `json:"tenant_phone"`
	AmountCents   int64     `json:"amount_cents"`
	TransactionID string    `json:"transaction_id"`
	PaymentDate   time.Time `json:"payment_date"`
	DayOffset     int       `json:"day_offset"`
	CreatedAt     time.Time `json:"created_at"`
}
