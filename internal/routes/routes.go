package routes

const (
	Health = "/health"

	// Daraja C2B callbacks (public; secured by URL registration upstream).
	MpesaValidation   = "/api/v1/payments/mpesa/validation"
	MpesaConfirmation = "/api/v1/payments/mpesa/confirmation"

	// Manager-facing, behind JWT.
	PaymentsUnmatched = "/api/v1/payments/unmatched"
	TenantScore       = "/api/v1/tenants/{phone}/score"
	Units             = "/api/v1/units"
	UnitPayments      = "/api/v1/units/{id}/payments"
	UnitOccupant      = "/api/v1/units/{id}/occupant"
)
