package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ronnyabuto/rent-service/internal/config"
	"github.com/ronnyabuto/rent-service/internal/constants"
	"github.com/ronnyabuto/rent-service/internal/models"
	"github.com/ronnyabuto/rent-service/internal/repositories"
	"github.com/ronnyabuto/rent-service/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopNotifier struct{}

func (noopNotifier) SendPaymentReceipt(context.Context, PaymentReceipt) error { return nil }
func (noopNotifier) SendReconciliationAlert(context.Context, *models.PaymentNotification) error {
	return nil
}

// flakyEventRepo fails a configurable number of Append calls before
// delegating, to exercise the pending-retry path.
type flakyEventRepo struct {
	repositories.PaymentEventRepository
	mu       sync.Mutex
	failures int
}

func (r *flakyEventRepo) Append(ctx context.Context, e *models.PaymentEvent) error {
	r.mu.Lock()
	fail := r.failures > 0
	if fail {
		r.failures--
	}
	r.mu.Unlock()
	if fail {
		return errors.New("simulated ledger outage")
	}
	return r.PaymentEventRepository.Append(ctx, e)
}

type paymentFixture struct {
	unitRepo  repositories.UnitRepository
	notifRepo repositories.PaymentNotificationRepository
	eventRepo repositories.PaymentEventRepository
	service   *PaymentService
	unit      *models.Unit
}

func newPaymentFixture(t *testing.T, eventRepo repositories.PaymentEventRepository) *paymentFixture {
	t.Helper()
	unitRepo := repositories.NewMemoryUnitRepository()
	notifRepo := repositories.NewMemoryPaymentNotificationRepository()
	if eventRepo == nil {
		eventRepo = repositories.NewMemoryPaymentEventRepository()
	}

	unit := newTestUnit(t, unitRepo, "1A", testTenantPhone)

	svc := NewPaymentService(
		&config.Config{},
		unitRepo, notifRepo, eventRepo,
		NewMatcherService(unitRepo),
		noopNotifier{},
	)
	return &paymentFixture{
		unitRepo:  unitRepo,
		notifRepo: notifRepo,
		eventRepo: eventRepo,
		service:   svc,
		unit:      unit,
	}
}

func TestProcessTransactionHappyPath(t *testing.T) {
	f := newPaymentFixture(t, nil)
	ctx := context.Background()

	// Payment lands on the due date itself.
	tx := newRawTx("TXN100", testRentCents, "+254712345678")
	n, err := f.service.ProcessTransaction(ctx, tx)
	require.NoError(t, err)
	require.NotNil(t, n)
	require.Equal(t, models.NotificationStatusVerified, n.Status)
	require.NotNil(t, n.UnitID)
	require.Equal(t, f.unit.ID, *n.UnitID)
	require.Equal(t, testTenantPhone, utils.Val(n.TenantPhone))

	unit, err := f.unitRepo.GetByID(ctx, f.unit.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RentStatusPaid, unit.RentStatus)
	require.NotNil(t, unit.LastPaymentDate)
	assert.True(t, unit.LastPaymentDate.Equal(tx.TransactionTime))

	events, err := f.eventRepo.ListByUnitID(ctx, f.unit.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "TXN100", events[0].TransactionID)
	assert.Equal(t, 0, events[0].DayOffset)
}

func TestProcessTransactionIsIdempotent(t *testing.T) {
	f := newPaymentFixture(t, nil)
	ctx := context.Background()

	tx := newRawTx("TXN200", testRentCents, testTenantPhone)
	first, err := f.service.ProcessTransaction(ctx, tx)
	require.NoError(t, err)
	second, err := f.service.ProcessTransaction(ctx, tx)
	require.NoError(t, err)

	require.Equal(t, first.ID, second.ID)
	require.Equal(t, models.NotificationStatusVerified, second.Status)

	events, err := f.eventRepo.ListByUnitID(ctx, f.unit.ID)
	require.NoError(t, err)
	require.Len(t, events, 1, "replay must not double-post the ledger")
}

func TestProcessTransactionAmountMismatchParksForReconciliation(t *testing.T) {
	f := newPaymentFixture(t, nil)
	ctx := context.Background()

	// KES 1,001 over rent: outside tolerance.
	tx := newRawTx("TXN300", testRentCents+100_100, testTenantPhone)
	n, err := f.service.ProcessTransaction(ctx, tx)
	require.NoError(t, err)
	require.Equal(t, models.NotificationStatusFailed, n.Status)
	require.NotNil(t, n.FailureReason)
	assert.Contains(t, *n.FailureReason, "outside tolerance")

	// Ledger and rent status untouched.
	unit, err := f.unitRepo.GetByID(ctx, f.unit.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RentStatusPending, unit.RentStatus)
	events, err := f.eventRepo.ListByUnitID(ctx, f.unit.ID)
	require.NoError(t, err)
	assert.Empty(t, events)

	unmatched, err := f.service.ListUnmatched(ctx)
	require.NoError(t, err)
	require.Len(t, unmatched, 1)
	assert.Equal(t, "TXN300", unmatched[0].TransactionID)
}

func TestProcessTransactionUnknownPayerParksForReconciliation(t *testing.T) {
	f := newPaymentFixture(t, nil)
	ctx := context.Background()

	n, err := f.service.ProcessTransaction(ctx, newRawTx("TXN400", testRentCents, "254733000111"))
	require.NoError(t, err)
	require.Equal(t, models.NotificationStatusFailed, n.Status)
	require.Nil(t, n.UnitID)

	unmatched, err := f.service.ListUnmatched(ctx)
	require.NoError(t, err)
	require.Len(t, unmatched, 1)
}

func TestConcurrentPaymentsForOneUnitSerialize(t *testing.T) {
	f := newPaymentFixture(t, nil)
	ctx := context.Background()

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tx := newRawTx(fmt.Sprintf("TXN-CC-%d", i), testRentCents, testTenantPhone)
			_, err := f.service.ProcessTransaction(ctx, tx)
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	events, err := f.eventRepo.ListByUnitID(ctx, f.unit.ID)
	require.NoError(t, err)
	require.Len(t, events, workers, "every distinct transaction lands exactly once")

	unit, err := f.unitRepo.GetByID(ctx, f.unit.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RentStatusPaid, unit.RentStatus)
}

func TestConcurrentReplayOfOneTransaction(t *testing.T) {
	f := newPaymentFixture(t, nil)
	ctx := context.Background()

	const workers = 8
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.service.ProcessTransaction(ctx, newRawTx("TXN-DUP", testRentCents, testTenantPhone))
		}()
	}
	wg.Wait()

	events, err := f.eventRepo.ListByUnitID(ctx, f.unit.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
}

func TestLedgerFaultLeavesPendingThenRetryVerifies(t *testing.T) {
	flaky := &flakyEventRepo{
		PaymentEventRepository: repositories.NewMemoryPaymentEventRepository(),
		failures:               1,
	}
	f := newPaymentFixture(t, flaky)
	ctx := context.Background()

	tx := newRawTx("TXN500", testRentCents, testTenantPhone)
	n, err := f.service.ProcessTransaction(ctx, tx)
	require.NoError(t, err, "ledger fault must not surface to the caller")
	require.Equal(t, models.NotificationStatusPending, n.Status)

	events, err := f.eventRepo.ListByUnitID(ctx, f.unit.ID)
	require.NoError(t, err)
	require.Empty(t, events)

	// Sweep job picks it up once the outage clears.
	require.NoError(t, f.service.RetryPendingNotifications(ctx))

	stored, err := f.notifRepo.GetByTransactionID(ctx, "TXN500")
	require.NoError(t, err)
	require.Equal(t, models.NotificationStatusVerified, stored.Status)

	events, err = f.eventRepo.ListByUnitID(ctx, f.unit.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)

	unit, err := f.unitRepo.GetByID(ctx, f.unit.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RentStatusPaid, unit.RentStatus)
}

func TestRetryExhaustionParksNotification(t *testing.T) {
	flaky := &flakyEventRepo{
		PaymentEventRepository: repositories.NewMemoryPaymentEventRepository(),
		failures:               1 + constants.MaxNotificationRetries,
	}
	f := newPaymentFixture(t, flaky)
	ctx := context.Background()

	_, err := f.service.ProcessTransaction(ctx, newRawTx("TXN600", testRentCents, testTenantPhone))
	require.NoError(t, err)

	for i := 0; i < constants.MaxNotificationRetries; i++ {
		require.NoError(t, f.service.RetryPendingNotifications(ctx))
	}

	stored, err := f.notifRepo.GetByTransactionID(ctx, "TXN600")
	require.NoError(t, err)
	require.Equal(t, models.NotificationStatusFailed, stored.Status)
	require.NotNil(t, stored.FailureReason)
	assert.Contains(t, *stored.FailureReason, "retry budget")
}

func TestDayOffset(t *testing.T) {
	due := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)

	// 23:30 UTC on July 31 is already Aug 1 in Nairobi (UTC+3).
	assert.Equal(t, 0, dayOffset(time.Date(2025, 7, 31, 23, 30, 0, 0, time.UTC), due))
	assert.Equal(t, -1, dayOffset(time.Date(2025, 7, 31, 12, 0, 0, 0, time.UTC), due))
	assert.Equal(t, 0, dayOffset(time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC), due))
	assert.Equal(t, 4, dayOffset(time.Date(2025, 8, 5, 6, 0, 0, 0, time.UTC), due))
	assert.Equal(t, -31, dayOffset(time.Date(2025, 7, 1, 6, 0, 0, 0, time.UTC), due))
}

func TestMarkOverdueUnits(t *testing.T) {
	f := newPaymentFixture(t, nil)
	ctx := context.Background()

	// Vacant units never flip.
	vacant := newTestUnit(t, f.unitRepo, "2A", "")

	require.NoError(t, f.service.MarkOverdueUnits(ctx, time.Date(2025, 8, 10, 0, 0, 0, 0, time.UTC)))

	unit, err := f.unitRepo.GetByID(ctx, f.unit.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RentStatusOverdue, unit.RentStatus)

	v, err := f.unitRepo.GetByID(ctx, vacant.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RentStatusPending, v.RentStatus)

	// Before the due date nothing changes.
	f2 := newPaymentFixture(t, nil)
	require.NoError(t, f2.service.MarkOverdueUnits(ctx, time.Date(2025, 7, 20, 0, 0, 0, 0, time.UTC)))
	u2, err := f2.unitRepo.GetByID(ctx, f2.unit.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RentStatusPending, u2.RentStatus)
}

func TestValidateTransaction(t *testing.T) {
	f := newPaymentFixture(t, nil)
	ctx := context.Background()

	code, err := f.service.ValidateTransaction(ctx, testTenantPhone, testRentCents)
	require.NoError(t, err)
	assert.Equal(t, constants.MpesaResultAccepted, code)

	code, err = f.service.ValidateTransaction(ctx, testTenantPhone, 0)
	require.NoError(t, err)
	assert.Equal(t, constants.MpesaResultRejectAmount, code)

	code, err = f.service.ValidateTransaction(ctx, "garbage", testRentCents)
	require.NoError(t, err)
	assert.Equal(t, constants.MpesaResultRejectInvalid, code)

	code, err = f.service.ValidateTransaction(ctx, "254733999888", testRentCents)
	require.NoError(t, err)
	assert.Equal(t, constants.MpesaResultRejectInvalid, code)
}
