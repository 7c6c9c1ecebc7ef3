package models

import (
	"time"

	"github.com/google/uuid"
)

// RentStatusType defines the billing state of a unit's current cycle.
type RentStatusType string

const (
	RentStatusPaid    RentStatusType = "PAID"
	RentStatusPending RentStatusType = "PENDING"
	RentStatusOverdue RentStatusType = "OVERDUE"
)

// DepositStatusType defines the state of a lease deposit.
type DepositStatusType string

const (
	DepositStatusHeld     DepositStatusType = "HELD"
	DepositStatusPartial  DepositStatusType = "PARTIAL"
	DepositStatusRefunded DepositStatusType = "REFUNDED"
)

// Unit represents a tenant-addressable space inside a building, together
// with its current occupant and rent obligation. A vacant unit carries no
// lease and its rent status is presentation-only.
//
// Occupant phone numbers are stored in canonical MSISDN form (e.g.
// "254712345678") and are unique across units; the registry enforces this
// at occupant-assignment time.
type Unit struct {
	Versioned
	ID          uuid.UUID `json:"id"`
	UnitNumber  string    `json:"unit_number"`
	FloorNumber int16     `json:"floor_number"`

	// Occupant; all nil for a vacant unit.
	OccupantName  *string    `json:"occupant_name,omitempty"`
	OccupantPhone *string    `json:"occupant_phone,omitempty"`
	MovedInAt     *time.Time `json:"moved_in_at,omitempty"`

	// Current rent cycle. RentDueDate is carried explicitly per cycle so
	// back-dated reconciliation never depends on wall-clock "now".
	RentAmountCents int64          `json:"rent_amount_cents"`
	RentDueDate     time.Time      `json:"rent_due_date"`
	RentStatus      RentStatusType `json:"rent_status"`
	LastPaymentDate *time.Time     `json:"last_payment_date,omitempty"`

	// Lease; nil for a vacant unit.
	LeaseStartDate *time.Time         `json:"lease_start_date,omitempty"`
	LeaseEndDate   *time.Time         `json:"lease_end_date,omitempty"`
	DepositCents   *int64             `json:"deposit_cents,omitempty"`
	DepositStatus  *DepositStatusType `json:"deposit_status,omitempty"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

func (u *Unit) GetID() string { return u.ID.String() }

// IsOccupied reports whether the unit currently has a tenant.
func (u *Unit) IsOccupied() bool {
	return u.OccupantPhone != nil && *u.OccupantPhone != ""
}
