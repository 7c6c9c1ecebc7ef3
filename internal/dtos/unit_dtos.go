package dtos

// AssignOccupantRequest moves a tenant into a unit. Dates are
// YYYY-MM-DD.
type AssignOccupantRequest struct {
	Name           string `json:"name" validate:"required"`
	Phone          string `json:"phone" validate:"required"`
	MovedInAt      string `json:"moved_in_at" validate:"required,datetime=2006-01-02"`
	LeaseStartDate string `json:"lease_start_date" validate:"required,datetime=2006-01-02"`
	LeaseEndDate   string `json:"lease_end_date" validate:"required,datetime=2006-01-02"`
	DepositCents   int64  `json:"deposit_cents" validate:"gte=0"`
}
