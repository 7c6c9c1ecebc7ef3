package models

import (
	"time"

	"github.com/google/uuid"
)

// NotificationStatusType defines the resolution state of an inbound
// provider transaction.
type NotificationStatusType string

const (
	// NotificationStatusPending – received but not yet applied to the
	// ledger (initial state, and the retry state after a storage fault).
	NotificationStatusPending NotificationStatusType = "PENDING"
	// NotificationStatusVerified – matched to a unit and applied.
	NotificationStatusVerified NotificationStatusType = "VERIFIED"
	// NotificationStatusFailed – no match or amount outside tolerance;
	// parked for the manual reconciliation queue.
	NotificationStatusFailed NotificationStatusType = "FAILED"
)

// PaymentNotification is the audit record for one provider transaction.
// TransactionID is provider-assigned and globally unique; re-processing the
// same id must short-circuit without a second ledger append. Once VERIFIED
// or FAILED the record is immutable.
type PaymentNotification struct {
	Versioned
	ID              uuid.UUID              `json:"id"`
	TransactionID   string                 `json:"transaction_id"`
	PayerPhone      string                 `json:"payer_phone"` // canonical MSISDN
	AmountCents     int64                  `json:"amount_cents"`
	TransactionTime time.Time              `json:"transaction_time"`
	ShortCode       string                 `json:"short_code"`
	Reference       string                 `json:"reference"`
	Status          NotificationStatusType `json:"status"`
	FailureReason   *string                `json:"failure_reason,omitempty"`

	// Weak references, populated on a successful match.
	UnitID      *uuid.UUID `json:"unit_id,omitempty"`
	TenantPhone *string    `json:"tenant_phone,omitempty"`
	UnitNumber  *string    `json:"unit_number,omitempty"`

	RetryCount int       `json:"retry_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (n *PaymentNotification) GetID() string { return n.ID.String() }
