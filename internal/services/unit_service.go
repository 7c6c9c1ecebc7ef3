package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ronnyabuto/rent-service/internal/models"
	"github.com/ronnyabuto/rent-service/internal/repositories"
	"github.com/ronnyabuto/rent-service/internal/utils"
)

// UnitService is the registry surface: occupant assignment (with the
// phone-uniqueness invariant), listings and the per-unit ledger feed.
type UnitService struct {
	unitRepo  repositories.UnitRepository
	eventRepo repositories.PaymentEventRepository
}

func NewUnitService(unitRepo repositories.UnitRepository, eventRepo repositories.PaymentEventRepository) *UnitService {
	return &UnitService{unitRepo: unitRepo, eventRepo: eventRepo}
}

func (s *UnitService) ListUnits(ctx context.Context) ([]*models.Unit, error) {
	return s.unitRepo.List(ctx)
}

func (s *UnitService) GetUnit(ctx context.Context, id uuid.UUID) (*models.Unit, error) {
	unit, err := s.unitRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if unit == nil {
		return nil, utils.ErrUnitNotFound
	}
	return unit, nil
}

func (s *UnitService) ListUnitPayments(ctx context.Context, id uuid.UUID) ([]*models.PaymentEvent, error) {
	if _, err := s.GetUnit(ctx, id); err != nil {
		return nil, err
	}
	return s.eventRepo.ListByUnitID(ctx, id)
}

// AssignOccupant moves a tenant into a unit. Occupant phones are unique
// across the registry; a second unit claiming the same phone is a
// data-integrity error, not a silent first-match.
func (s *UnitService) AssignOccupant(
	ctx context.Context,
	unitID uuid.UUID,
	name, phone string,
	movedInAt time.Time,
	leaseStart, leaseEnd time.Time,
	depositCents int64,
) (*models.Unit, error) {
	normalized, err := NormalizeMSISDN(phone)
	if err != nil {
		return nil, err
	}

	holder, err := s.unitRepo.FindByOccupantPhone(ctx, normalized)
	if err != nil {
		return nil, err
	}
	if holder != nil && holder.ID != unitID {
		return nil, utils.ErrPhoneAlreadyAssigned
	}

	err = s.unitRepo.UpdateWithRetry(ctx, unitID, func(u *models.Unit) error {
		u.OccupantName = utils.Ptr(name)
		u.OccupantPhone = utils.Ptr(normalized)
		u.MovedInAt = utils.Ptr(movedInAt)
		u.LeaseStartDate = utils.Ptr(leaseStart)
		u.LeaseEndDate = utils.Ptr(leaseEnd)
		u.DepositCents = utils.Ptr(depositCents)
		u.DepositStatus = utils.Ptr(models.DepositStatusHeld)
		u.RentStatus = models.RentStatusPending
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetUnit(ctx, unitID)
}

// ClearOccupant handles move-out: occupant and lease go away together,
// honoring the vacant-unit invariant.
func (s *UnitService) ClearOccupant(ctx context.Context, unitID uuid.UUID) (*models.Unit, error) {
	err := s.unitRepo.UpdateWithRetry(ctx, unitID, func(u *models.Unit) error {
		if !u.IsOccupied() {
			return utils.ErrUnitVacant
		}
		u.OccupantName = nil
		u.OccupantPhone = nil
		u.MovedInAt = nil
		u.LeaseStartDate = nil
		u.LeaseEndDate = nil
		u.DepositCents = nil
		u.DepositStatus = nil
		u.LastPaymentDate = nil
		u.RentStatus = models.RentStatusPending
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetUnit(ctx, unitID)
}
