package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ronnyabuto/rent-service/internal/models"
	"github.com/ronnyabuto/rent-service/internal/repositories"
	"github.com/ronnyabuto/rent-service/internal/utils"
	"github.com/stretchr/testify/require"
)

const (
	testTenantPhone = "254712345678"
	testRentCents   = int64(4_500_000) // KES 45,000
)

func newTestUnit(t *testing.T, repo repositories.UnitRepository, unitNumber, phone string) *models.Unit {
	t.Helper()
	unit := &models.Unit{
		ID:              uuid.New(),
		UnitNumber:      unitNumber,
		FloorNumber:     1,
		RentAmountCents: testRentCents,
		RentDueDate:     time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC),
		RentStatus:      models.RentStatusPending,
	}
	if phone != "" {
		unit.OccupantName = utils.Ptr("John Kamau")
		unit.OccupantPhone = utils.Ptr(phone)
		unit.MovedInAt = utils.Ptr(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	}
	require.NoError(t, repo.Create(context.Background(), unit))
	return unit
}

func newRawTx(transactionID string, amountCents int64, msisdn string) RawTransaction {
	return RawTransaction{
		TransactionID:   transactionID,
		AmountCents:     amountCents,
		MSISDN:          msisdn,
		TransactionTime: time.Date(2025, 8, 1, 7, 0, 0, 0, time.UTC),
		ShortCode:       "174379",
		Reference:       "1A",
	}
}

func TestMatchResolvesTenantByPhone(t *testing.T) {
	repo := repositories.NewMemoryUnitRepository()
	unit := newTestUnit(t, repo, "1A", testTenantPhone)
	m := NewMatcherService(repo)

	result, err := m.Match(context.Background(), newRawTx("TX1", testRentCents, "+254712345678"))
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Equal(t, unit.ID, result.UnitID)
	require.Equal(t, testTenantPhone, result.TenantPhone)
	require.Equal(t, "1A", result.UnitNumber)
}

func TestMatchToleranceBoundary(t *testing.T) {
	repo := repositories.NewMemoryUnitRepository()
	newTestUnit(t, repo, "1A", testTenantPhone)
	m := NewMatcherService(repo)
	ctx := context.Background()

	// KES 1,000 over the expected rent is exactly on the tolerance edge.
	result, err := m.Match(ctx, newRawTx("TX-edge", testRentCents+100_000, testTenantPhone))
	require.NoError(t, err)
	require.True(t, result.Success)

	// KES 1,000 under passes as well.
	result, err = m.Match(ctx, newRawTx("TX-under", testRentCents-100_000, testTenantPhone))
	require.NoError(t, err)
	require.True(t, result.Success)

	// One more cent past the edge is a mismatch.
	result, err = m.Match(ctx, newRawTx("TX-over", testRentCents+100_001, testTenantPhone))
	require.NoError(t, err)
	require.False(t, result.Success)
	require.ErrorIs(t, result.Reason, utils.ErrAmountMismatch)
	require.Equal(t, testRentCents, result.ExpectedCents)
	require.Equal(t, testRentCents+100_001, result.ActualCents)
}

func TestMatchUnknownTenant(t *testing.T) {
	repo := repositories.NewMemoryUnitRepository()
	newTestUnit(t, repo, "1A", testTenantPhone)
	m := NewMatcherService(repo)

	result, err := m.Match(context.Background(), newRawTx("TX2", testRentCents, "254799999999"))
	require.NoError(t, err)
	require.False(t, result.Success)
	require.ErrorIs(t, result.Reason, utils.ErrNoMatch)
}

func TestMatchMalformedInputNeverErrors(t *testing.T) {
	repo := repositories.NewMemoryUnitRepository()
	newTestUnit(t, repo, "1A", testTenantPhone)
	m := NewMatcherService(repo)
	ctx := context.Background()

	result, err := m.Match(ctx, newRawTx("TX3", testRentCents, "not-a-phone"))
	require.NoError(t, err)
	require.False(t, result.Success)
	require.ErrorIs(t, result.Reason, utils.ErrInvalidPhone)

	result, err = m.Match(ctx, newRawTx("TX4", 0, testTenantPhone))
	require.NoError(t, err)
	require.False(t, result.Success)
	require.ErrorIs(t, result.Reason, utils.ErrNoMatch)

	result, err = m.Match(ctx, newRawTx("TX5", -100, testTenantPhone))
	require.NoError(t, err)
	require.False(t, result.Success)
	require.ErrorIs(t, result.Reason, utils.ErrNoMatch)
}

func TestMatchIsDeterministic(t *testing.T) {
	repo := repositories.NewMemoryUnitRepository()
	newTestUnit(t, repo, "1A", testTenantPhone)
	m := NewMatcherService(repo)
	ctx := context.Background()

	tx := newRawTx("TX6", testRentCents, testTenantPhone)
	first, err := m.Match(ctx, tx)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := m.Match(ctx, tx)
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}
