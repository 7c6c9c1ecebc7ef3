package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ronnyabuto/rent-service/internal/models"
	"github.com/ronnyabuto/rent-service/internal/repositories"
	"github.com/ronnyabuto/rent-service/internal/utils"
)

// SentinelUnitID marks a seeded registry; used for the idempotency check.
const SentinelUnitID = "dddddddd-dddd-4ddd-dddd-ddddddddddd1"

// SeedDemoUnits populates the registry with a small demo building. Safe
// to call repeatedly: the sentinel unit short-circuits a second run.
func SeedDemoUnits(ctx context.Context, unitRepo repositories.UnitRepository) error {
	sentinelID := uuid.MustParse(SentinelUnitID)

	if existing, err := unitRepo.GetByID(ctx, sentinelID); err != nil {
		return fmt.Errorf("failed to check for sentinel unit: %w", err)
	} else if existing != nil {
		utils.Logger.Info("rent-service: Seed data already present; skipping seeding.")
		return nil
	}

	now := time.Now().UTC()
	dueDate := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	movedIn := dueDate.AddDate(-1, -2, 0) // 14 months of tenancy

	units := []models.Unit{
		{
			ID:              sentinelID,
			UnitNumber:      "1A",
			FloorNumber:     1,
			OccupantName:    utils.Ptr("John Kamau"),
			OccupantPhone:   utils.Ptr("254712345678"),
			MovedInAt:       utils.Ptr(movedIn),
			RentAmountCents: 4_500_000, // KES 45,000
			RentDueDate:     dueDate,
			RentStatus:      models.RentStatusPending,
			LeaseStartDate:  utils.Ptr(movedIn),
			LeaseEndDate:    utils.Ptr(movedIn.AddDate(2, 0, 0)),
			DepositCents:    utils.Ptr(int64(9_000_000)),
			DepositStatus:   utils.Ptr(models.DepositStatusHeld),
		},
		{
			ID:              uuid.New(),
			UnitNumber:      "1B",
			FloorNumber:     1,
			OccupantName:    utils.Ptr("Grace Wanjiru"),
			OccupantPhone:   utils.Ptr("254723456789"),
			MovedInAt:       utils.Ptr(dueDate.AddDate(0, -3, 0)),
			RentAmountCents: 3_800_000,
			RentDueDate:     dueDate,
			RentStatus:      models.RentStatusPending,
			LeaseStartDate:  utils.Ptr(dueDate.AddDate(0, -3, 0)),
			LeaseEndDate:    utils.Ptr(dueDate.AddDate(1, -3, 0)),
			DepositCents:    utils.Ptr(int64(7_600_000)),
			DepositStatus:   utils.Ptr(models.DepositStatusHeld),
		},
		{
			// Vacant; presentation-only rent status.
			ID:              uuid.New(),
			UnitNumber:      "2A",
			FloorNumber:     2,
			RentAmountCents: 5_200_000,
			RentDueDate:     dueDate,
			RentStatus:      models.RentStatusPending,
		},
	}

	if err := unitRepo.CreateMany(ctx, units); err != nil {
		return fmt.Errorf("failed to seed demo units: %w", err)
	}

	utils.Logger.Infof("rent-service: Seeded %d demo units.", len(units))
	return nil
}
