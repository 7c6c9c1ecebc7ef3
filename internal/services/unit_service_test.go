package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ronnyabuto/rent-service/internal/models"
	"github.com/ronnyabuto/rent-service/internal/repositories"
	"github.com/ronnyabuto/rent-service/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUnitServiceFixture(t *testing.T) (*UnitService, repositories.UnitRepository) {
	t.Helper()
	unitRepo := repositories.NewMemoryUnitRepository()
	eventRepo := repositories.NewMemoryPaymentEventRepository()
	return NewUnitService(unitRepo, eventRepo), unitRepo
}

func TestAssignOccupant(t *testing.T) {
	svc, repo := newUnitServiceFixture(t)
	ctx := context.Background()

	vacant := newTestUnit(t, repo, "2A", "")
	movedIn := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	leaseEnd := movedIn.AddDate(1, 0, 0)

	unit, err := svc.AssignOccupant(ctx, vacant.ID, "Grace Wanjiru", "0722000111", movedIn, movedIn, leaseEnd, 4_500_000)
	require.NoError(t, err)
	require.True(t, unit.IsOccupied())
	assert.Equal(t, "254722000111", utils.Val(unit.OccupantPhone), "stored in canonical form")
	assert.Equal(t, "Grace Wanjiru", utils.Val(unit.OccupantName))
	assert.Equal(t, models.RentStatusPending, unit.RentStatus)
	require.NotNil(t, unit.DepositStatus)
	assert.Equal(t, models.DepositStatusHeld, *unit.DepositStatus)
}

func TestAssignOccupantEnforcesPhoneUniqueness(t *testing.T) {
	svc, repo := newUnitServiceFixture(t)
	ctx := context.Background()

	occupied := newTestUnit(t, repo, "1A", testTenantPhone)
	vacant := newTestUnit(t, repo, "2A", "")
	movedIn := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

	_, err := svc.AssignOccupant(ctx, vacant.ID, "Someone Else", "+254712345678", movedIn, movedIn, movedIn.AddDate(1, 0, 0), 4_500_000)
	require.ErrorIs(t, err, utils.ErrPhoneAlreadyAssigned)

	// Re-assigning the same phone to the unit that already holds it is
	// fine (lease renewal, corrected name).
	unit, err := svc.AssignOccupant(ctx, occupied.ID, "John K. Kamau", testTenantPhone, movedIn, movedIn, movedIn.AddDate(1, 0, 0), 4_500_000)
	require.NoError(t, err)
	assert.Equal(t, "John K. Kamau", utils.Val(unit.OccupantName))
}

func TestAssignOccupantRejectsBadPhone(t *testing.T) {
	svc, repo := newUnitServiceFixture(t)
	vacant := newTestUnit(t, repo, "2A", "")
	now := time.Now().UTC()

	_, err := svc.AssignOccupant(context.Background(), vacant.ID, "X", "12345", now, now, now, 0)
	require.ErrorIs(t, err, utils.ErrInvalidPhone)
}

func TestClearOccupant(t *testing.T) {
	svc, repo := newUnitServiceFixture(t)
	ctx := context.Background()

	occupied := newTestUnit(t, repo, "1A", testTenantPhone)

	unit, err := svc.ClearOccupant(ctx, occupied.ID)
	require.NoError(t, err)
	assert.False(t, unit.IsOccupied())
	assert.Nil(t, unit.OccupantName)
	assert.Nil(t, unit.MovedInAt)
	assert.Nil(t, unit.LeaseStartDate)
	assert.Nil(t, unit.LastPaymentDate)
	assert.Equal(t, models.RentStatusPending, unit.RentStatus)

	// Clearing an already-vacant unit is an error.
	_, err = svc.ClearOccupant(ctx, occupied.ID)
	require.ErrorIs(t, err, utils.ErrUnitVacant)
}

func TestGetUnitNotFound(t *testing.T) {
	svc, _ := newUnitServiceFixture(t)
	_, err := svc.GetUnit(context.Background(), uuid.New())
	require.ErrorIs(t, err, utils.ErrUnitNotFound)

	_, err = svc.ListUnitPayments(context.Background(), uuid.New())
	require.ErrorIs(t, err, utils.ErrUnitNotFound)
}
