package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ronnyabuto/rent-service/internal/constants"
	"github.com/ronnyabuto/rent-service/internal/repositories"
	"github.com/ronnyabuto/rent-service/internal/utils"
)

// RawTransaction is the provider-shape input to reconciliation, already
// parsed out of the wire format by the controller layer.
type RawTransaction struct {
	TransactionID   string
	AmountCents     int64
	MSISDN          string
	TransactionTime time.Time
	ShortCode       string
	Reference       string
}

// MatchResult resolves a raw transaction to a unit/tenant pair, or carries
// a structured failure. Reason is one of the sentinel errors
// (utils.ErrNoMatch, utils.ErrAmountMismatch, utils.ErrInvalidPhone);
// Detail is the human-readable line for the reconciliation queue.
type MatchResult struct {
	Success     bool
	UnitID      uuid.UUID
	TenantPhone string
	UnitNumber  string

	Reason        error
	Detail        string
	ExpectedCents int64
	ActualCents   int64
}

type MatcherService struct {
	unitRepo repositories.UnitRepository
}

func NewMatcherService(unitRepo repositories.UnitRepository) *MatcherService {
	return &MatcherService{unitRepo: unitRepo}
}

// Match resolves tx against the unit registry. Deterministic for a fixed
// registry snapshot, and never panics on malformed input: bad phones and
// non-positive amounts come back as failures.
func (s *MatcherService) Match(ctx context.Context, tx RawTransaction) (MatchResult, error) {
	if tx.AmountCents <= 0 {
		return MatchResult{
			Reason: utils.ErrNoMatch,
			Detail: "non-positive payment amount",
		}, nil
	}

	phone, err := NormalizeMSISDN(tx.MSISDN)
	if err != nil {
		return MatchResult{
			Reason: utils.ErrInvalidPhone,
			Detail: fmt.Sprintf("unparseable payer phone %q", tx.MSISDN),
		}, nil
	}

	unit, err := s.unitRepo.FindByOccupantPhone(ctx, phone)
	if err != nil {
		return MatchResult{}, err
	}
	if unit == nil {
		return MatchResult{
			Reason: utils.ErrNoMatch,
			Detail: "tenant not found in building",
		}, nil
	}

	expected := unit.RentAmountCents
	diff := tx.AmountCents - expected
	if diff < 0 {
		diff = -diff
	}
	if diff > constants.AmountToleranceCents {
		return MatchResult{
			Reason: utils.ErrAmountMismatch,
			Detail: fmt.Sprintf("amount KES %.2f outside tolerance of expected KES %.2f",
				float64(tx.AmountCents)/100, float64(expected)/100),
			ExpectedCents: expected,
			ActualCents:   tx.AmountCents,
		}, nil
	}

	return MatchResult{
		Success:     true,
		UnitID:      unit.ID,
		TenantPhone: phone,
		UnitNumber:  unit.UnitNumber,
	}, nil
}
