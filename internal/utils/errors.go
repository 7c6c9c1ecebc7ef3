package utils

import (
	"errors"
	"net/http"
)

// Domain-level errors used by the service layer to provide
// fine-grained failure reasons.
var (
	// Reconciliation outcomes. These travel as values inside a
	// MatchResult / PaymentNotification, never as panics.
	ErrNoMatch        = errors.New("tenant_not_found")
	ErrAmountMismatch = errors.New("amount_mismatch")

	// Ledger append failed after a successful match; the notification
	// stays pending and is retried by the sweep job.
	ErrLedgerUpdateFailed = errors.New("ledger_update_failed")

	ErrInvalidPhone         = errors.New("invalid_phone")
	ErrPhoneAlreadyAssigned = errors.New("phone_already_assigned")
	ErrUnitVacant           = errors.New("unit_vacant")
	ErrUnitNotFound         = errors.New("unit_not_found")

	// For concurrency conflicts
	ErrRowVersionConflict = errors.New("row_version_conflict")

	// For external service failures (Twilio, SendGrid)
	ErrExternalServiceFailure = errors.New("external_service_failure")
)

// AppError for structured error handling from services to controllers.
type AppError struct {
	StatusCode int
	Code       string
	Message    string
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// HandleAppError centralizes responding to AppErrors.
func HandleAppError(w http.ResponseWriter, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		RespondErrorWithCode(w, appErr.StatusCode, appErr.Code, appErr.Message, nil, appErr.Err)
	} else {
		RespondErrorWithCode(w, http.StatusInternalServerError, ErrCodeInternal, "An unexpected error occurred", nil, err)
	}
}

// Ptr is a simple helper to get a pointer to a literal.
func Ptr[T any](v T) *T {
	return &v
}

// Val dereferences p, returning the zero value for nil.
func Val[T any](p *T) T {
	if p != nil {
		return *p
	}
	var zero T
	return zero
}
