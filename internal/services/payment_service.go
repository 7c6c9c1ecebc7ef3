package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ronnyabuto/rent-service/internal/config"
	"github.com/ronnyabuto/rent-service/internal/constants"
	"github.com/ronnyabuto/rent-service/internal/models"
	"github.com/ronnyabuto/rent-service/internal/repositories"
	"github.com/ronnyabuto/rent-service/internal/utils"
)

// Lock key for transactions that never resolve to a unit; their
// duplicate-check still needs a critical section.
const unmatchedLockKey = "unmatched"

// PaymentService runs the reconciliation pipeline: match an inbound
// provider transaction to a unit, apply it to the rent ledger under the
// unit's lock, record the audit notification, and hand a receipt intent
// to the dispatcher once the lock is released.
type PaymentService struct {
	cfg       *config.Config
	unitRepo  repositories.UnitRepository
	notifRepo repositories.PaymentNotificationRepository
	eventRepo repositories.PaymentEventRepository
	matcher   *MatcherService
	notifier  NotificationService
	locks     *keyedLocks
}

func NewPaymentService(
	cfg *config.Config,
	unitRepo repositories.UnitRepository,
	notifRepo repositories.PaymentNotificationRepository,
	eventRepo repositories.PaymentEventRepository,
	matcher *MatcherService,
	notifier NotificationService,
) *PaymentService {
	return &PaymentService{
		cfg:       cfg,
		unitRepo:  unitRepo,
		notifRepo: notifRepo,
		eventRepo: eventRepo,
		matcher:   matcher,
		notifier:  notifier,
		locks:     newKeyedLocks(),
	}
}

// ProcessTransaction is the single entry point for an inbound provider
// transaction. It always produces a PaymentNotification record; only a
// storage fault surfaces as an error. Re-processing a known transaction
// id is a no-op returning the original resolution.
func (s *PaymentService) ProcessTransaction(ctx context.Context, tx RawTransaction) (*models.PaymentNotification, error) {
	result, err := s.matcher.Match(ctx, tx)
	if err != nil {
		return nil, err
	}

	if !result.Success {
		return s.recordUnmatched(ctx, tx, result)
	}
	return s.applyMatched(ctx, tx, result)
}

// recordUnmatched parks a failed transaction for the manual
// reconciliation queue. The duplicate check and insert share a global
// critical section because no unit lock applies.
func (s *PaymentService) recordUnmatched(ctx context.Context, tx RawTransaction, result MatchResult) (*models.PaymentNotification, error) {
	s.locks.Lock(unmatchedLockKey)
	existing, err := s.notifRepo.GetByTransactionID(ctx, tx.TransactionID)
	if err != nil {
		s.locks.Unlock(unmatchedLockKey)
		return nil, err
	}
	if existing != nil {
		s.locks.Unlock(unmatchedLockKey)
		utils.Logger.Infof("Duplicate transaction %s; returning original resolution", tx.TransactionID)
		return existing, nil
	}

	n := s.newNotification(tx)
	n.Status = models.NotificationStatusFailed
	n.FailureReason = utils.Ptr(result.Detail)
	if err := s.notifRepo.Create(ctx, n); err != nil {
		s.locks.Unlock(unmatchedLockKey)
		return nil, err
	}
	s.locks.Unlock(unmatchedLockKey)

	utils.Logger.Warnf("Transaction %s parked for reconciliation: %s", tx.TransactionID, result.Detail)
	go func() {
		if err := s.notifier.SendReconciliationAlert(context.Background(), n); err != nil {
			utils.Logger.WithError(err).Warnf("Reconciliation alert for %s not delivered", tx.TransactionID)
		}
	}()
	return n, nil
}

// applyMatched holds the unit's lock across duplicate-check, ledger
// append and rent-status update so concurrent payments for one unit
// serialize. The receipt SMS goes out after the lock is released.
func (s *PaymentService) applyMatched(ctx context.Context, tx RawTransaction, result MatchResult) (*models.PaymentNotification, error) {
	key := result.UnitID.String()
	s.locks.Lock(key)

	existing, err := s.notifRepo.GetByTransactionID(ctx, tx.TransactionID)
	if err != nil {
		s.locks.Unlock(key)
		return nil, err
	}
	if existing != nil {
		s.locks.Unlock(key)
		utils.Logger.Infof("Duplicate transaction %s; returning original resolution", tx.TransactionID)
		return existing, nil
	}

	unit, err := s.unitRepo.GetByID(ctx, result.UnitID)
	if err != nil {
		s.locks.Unlock(key)
		return nil, err
	}
	if unit == nil {
		s.locks.Unlock(key)
		return nil, utils.ErrUnitNotFound
	}

	// The audit record goes in first, as PENDING: a ledger fault below
	// must never lose the transaction.
	n := s.newNotification(tx)
	n.Status = models.NotificationStatusPending
	n.UnitID = utils.Ptr(result.UnitID)
	n.TenantPhone = utils.Ptr(result.TenantPhone)
	n.UnitNumber = utils.Ptr(result.UnitNumber)
	if err := s.notifRepo.Create(ctx, n); err != nil {
		s.locks.Unlock(key)
		return nil, err
	}

	if err := s.applyToLedger(ctx, unit, n); err != nil {
		// Left PENDING; the sweep job retries it, keyed by transaction id.
		s.locks.Unlock(key)
		utils.Logger.WithError(err).Errorf("Ledger update failed for transaction %s; left pending for retry", tx.TransactionID)
		return n, nil
	}

	if err := s.markVerified(ctx, n); err != nil {
		s.locks.Unlock(key)
		utils.Logger.WithError(err).Errorf("Failed to mark notification %s verified", n.ID)
		return n, nil
	}
	n.Status = models.NotificationStatusVerified
	s.locks.Unlock(key)

	receipt := PaymentReceipt{
		TenantPhone: result.TenantPhone,
		AmountCents: tx.AmountCents,
		UnitNumber:  result.UnitNumber,
	}
	go func() {
		if err := s.notifier.SendPaymentReceipt(context.Background(), receipt); err != nil {
			utils.Logger.WithError(err).Warnf("Receipt SMS for %s not delivered", tx.TransactionID)
		}
	}()
	return n, nil
}

// applyToLedger appends the payment event and transitions the unit's rent
// cycle. Caller holds the unit lock.
func (s *PaymentService) applyToLedger(ctx context.Context, unit *models.Unit, n *models.PaymentNotification) error {
	offset := dayOffset(n.TransactionTime, unit.RentDueDate)

	event := &models.PaymentEvent{
		ID:            uuid.New(),
		UnitID:        unit.ID,
		TenantPhone:   utils.Val(n.TenantPhone),
		AmountCents:   n.AmountCents,
		TransactionID: n.TransactionID,
		PaymentDate:   n.TransactionTime,
		DayOffset:     offset,
	}
	if err := s.eventRepo.Append(ctx, event); err != nil {
		return fmt.Errorf("%w: %v", utils.ErrLedgerUpdateFailed, err)
	}

	paymentDate := n.TransactionTime
	err := s.unitRepo.UpdateWithRetry(ctx, unit.ID, func(u *models.Unit) error {
		u.RentStatus = models.RentStatusPaid
		u.LastPaymentDate = &paymentDate
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", utils.ErrLedgerUpdateFailed, err)
	}
	return nil
}

func (s *PaymentService) markVerified(ctx context.Context, n *models.PaymentNotification) error {
	return s.notifRepo.UpdateWithRetry(ctx, n.ID, func(cur *models.PaymentNotification) error {
		cur.Status = models.NotificationStatusVerified
		return nil
	})
}

// RetryPendingNotifications is the sweep-job body: re-applies PENDING
// notifications whose ledger write previously failed. Idempotent via the
// transaction-id existence check on the event ledger.
func (s *PaymentService) RetryPendingNotifications(ctx context.Context) error {
	pending, err := s.notifRepo.ListByStatus(ctx, models.NotificationStatusPending)
	if err != nil {
		return err
	}

	for _, n := range pending {
		if n.UnitID == nil {
			// Should not happen: unmatched transactions are FAILED, not
			// PENDING. Park it so it stops cycling.
			utils.Logger.Errorf("Pending notification %s has no unit; parking as failed", n.ID)
			_ = s.notifRepo.UpdateWithRetry(ctx, n.ID, func(cur *models.PaymentNotification) error {
				cur.Status = models.NotificationStatusFailed
				cur.FailureReason = utils.Ptr("pending without resolved unit")
				return nil
			})
			continue
		}
		if err := s.retryOne(ctx, n); err != nil {
			utils.Logger.WithError(err).Warnf("Retry of pending notification %s failed", n.ID)
		}
	}
	return nil
}

func (s *PaymentService) retryOne(ctx context.Context, n *models.PaymentNotification) error {
	key := n.UnitID.String()
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	applied, err := s.eventRepo.ExistsByTransactionID(ctx, n.TransactionID)
	if err != nil {
		return err
	}
	if !applied {
		unit, err := s.unitRepo.GetByID(ctx, *n.UnitID)
		if err != nil {
			return err
		}
		if unit == nil {
			return utils.ErrUnitNotFound
		}
		if err := s.applyToLedger(ctx, unit, n); err != nil {
			return s.bumpRetryCount(ctx, n)
		}
	}
	return s.markVerified(ctx, n)
}

func (s *PaymentService) bumpRetryCount(ctx context.Context, n *models.PaymentNotification) error {
	return s.notifRepo.UpdateWithRetry(ctx, n.ID, func(cur *models.PaymentNotification) error {
		cur.RetryCount++
		if cur.RetryCount >= constants.MaxNotificationRetries {
			cur.Status = models.NotificationStatusFailed
			cur.FailureReason = utils.Ptr("ledger retry budget exhausted")
		}
		return nil
	})
}

// MarkOverdueUnits flips units still PENDING past their due date to
// OVERDUE. Daily sweep-job body.
func (s *PaymentService) MarkOverdueUnits(ctx context.Context, asOf time.Time) error {
	units, err := s.unitRepo.ListPendingPastDue(ctx, asOf)
	if err != nil {
		return err
	}
	for _, unit := range units {
		err := s.unitRepo.UpdateWithRetry(ctx, unit.ID, func(u *models.Unit) error {
			if u.RentStatus == models.RentStatusPending {
				u.RentStatus = models.RentStatusOverdue
			}
			return nil
		})
		if err != nil {
			utils.Logger.WithError(err).Warnf("Failed to mark unit %s overdue", unit.UnitNumber)
		}
	}
	if len(units) > 0 {
		utils.Logger.Infof("Marked %d unit(s) overdue", len(units))
	}
	return nil
}

// ListUnmatched feeds the manual reconciliation queue.
func (s *PaymentService) ListUnmatched(ctx context.Context) ([]*models.PaymentNotification, error) {
	return s.notifRepo.ListByStatus(ctx, models.NotificationStatusFailed)
}

// ValidateTransaction backs the C2B validation endpoint: accept or reject
// before the provider completes the transaction. Rejections use Daraja's
// result codes.
func (s *PaymentService) ValidateTransaction(ctx context.Context, msisdn string, amountCents int64) (string, error) {
	if amountCents <= 0 {
		return constants.MpesaResultRejectAmount, nil
	}
	phone, err := NormalizeMSISDN(msisdn)
	if err != nil {
		return constants.MpesaResultRejectInvalid, nil
	}
	unit, err := s.unitRepo.FindByOccupantPhone(ctx, phone)
	if err != nil {
		return "", err
	}
	if unit == nil {
		return constants.MpesaResultRejectInvalid, nil
	}
	return constants.MpesaResultAccepted, nil
}

func (s *PaymentService) newNotification(tx RawTransaction) *models.PaymentNotification {
	payer := tx.MSISDN
	if normalized, err := NormalizeMSISDN(tx.MSISDN); err == nil {
		payer = normalized
	}
	return &models.PaymentNotification{
		ID:              uuid.New(),
		TransactionID:   tx.TransactionID,
		PayerPhone:      payer,
		AmountCents:     tx.AmountCents,
		TransactionTime: tx.TransactionTime,
		ShortCode:       tx.ShortCode,
		Reference:       tx.Reference,
	}
}

// dayOffset counts whole calendar days between the payment date and the
// unit's due date in the business timezone: negative = early, zero = on
// the due date, positive = late.
func dayOffset(paymentTime, dueDate time.Time) int {
	loc, err := time.LoadLocation(constants.BusinessTimezone)
	if err != nil {
		loc = time.UTC
	}
	p := paymentTime.In(loc)
	d := dueDate.In(loc)
	pDay := time.Date(p.Year(), p.Month(), p.Day(), 0, 0, 0, 0, time.UTC)
	dDay := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	return int(pDay.Sub(dDay).Hours() / 24)
}
