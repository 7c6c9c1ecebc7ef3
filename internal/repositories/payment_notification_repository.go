package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/ronnyabuto/rent-service/internal/models"
)

/* ───────────── public interface ───────────── */

type PaymentNotificationRepository interface {
	Create(ctx context.Context, n *models.PaymentNotification) error

	GetByID(ctx context.Context, id uuid.UUID) (*models.PaymentNotification, error)
	// GetByTransactionID is the idempotency lookup; nil,nil when unseen.
	GetByTransactionID(ctx context.Context, transactionID string) (*models.PaymentNotification, error)
	ListByStatus(ctx context.Context, status models.NotificationStatusType) ([]*models.PaymentNotification, error)

	UpdateIfVersion(ctx context.Context, n *models.PaymentNotification, expected int64) (pgconn.CommandTag, error)
	UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.PaymentNotification) error) error
}

/* ───────────── implementation ───────────── */

type paymentNotificationRepo struct {
	*BaseVersionedRepo[*models.PaymentNotification]
	db DB
}

func NewPaymentNotificationRepository(db DB) PaymentNotificationRepository {
	r := &paymentNotificationRepo{db: db}
	selectStmt := baseSelectNotification() + " WHERE id=$1"
	r.BaseVersionedRepo = NewBaseRepo(db, selectStmt, r.scanNotification)
	return r
}

func (r *paymentNotificationRepo) Create(ctx context.Context, n *models.PaymentNotification) error {
	// ON CONFLICT DO NOTHING backs up the in-process duplicate check:
	// transaction_id carries a unique constraint.
	_, err := r.db.Exec(ctx, `
		INSERT INTO payment_notifications (
			id, transaction_id, payer_phone, amount_cents, transaction_time,
			short_code, reference, status, failure_reason,
			unit_id, tenant_phone, unit_number, retry_count,
			created_at, updated_at, row_version
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13, NOW(), NOW(), 1)
		ON CONFLICT (transaction_id) DO NOTHING
	`, n.ID, n.TransactionID, n.PayerPhone, n.AmountCents, n.TransactionTime,
		n.ShortCode, n.Reference, n.Status, n.FailureReason,
		n.UnitID, n.TenantPhone, n.UnitNumber, n.RetryCount)
	return err
}

func (r *paymentNotificationRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.PaymentNotification, error) {
	return r.BaseVersionedRepo.GetByID(ctx, id.String())
}

func (r *paymentNotificationRepo) GetByTransactionID(ctx context.Context, transactionID string) (*models.PaymentNotification, error) {
	row := r.db.QueryRow(ctx, baseSelectNotification()+" WHERE transaction_id=$1 LIMIT 1", transactionID)
	return r.scanNotification(row)
}

func (r *paymentNotificationRepo) ListByStatus(ctx context.Context, status models.NotificationStatusType) ([]*models.PaymentNotification, error) {
	rows, err := r.db.Query(ctx, baseSelectNotification()+" WHERE status=$1 ORDER BY created_at", status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.PaymentNotification
	for rows.Next() {
		n, err := r.scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *paymentNotificationRepo) UpdateIfVersion(ctx context.Context, n *models.PaymentNotification, expected int64) (pgconn.CommandTag, error) {
	q := `
		UPDATE payment_notifications SET
			status=$1, failure_reason=$2, unit_id=$3, tenant_phone=$4,
			unit_number=$5, retry_count=$6, updated_at=NOW(),
			row_version=row_version+1
		WHERE id=$7 AND row_version=$8
	`
	return r.db.Exec(ctx, q,
		n.Status, n.FailureReason, n.UnitID, n.TenantPhone,
		n.UnitNumber, n.RetryCount, n.ID, expected)
}

func (r *paymentNotificationRepo) UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.PaymentNotification) error) error {
	return r.BaseVersionedRepo.UpdateWithRetry(ctx, id.String(), mutate, r.UpdateIfVersion)
}

/* ---------- internals ---------- */

func baseSelectNotification() string {
	return `
		SELECT id, transaction_id, payer_phone, amount_cents, transaction_time,
		short_code, reference, status, failure_reason,
		unit_id, tenant_phone, unit_number, retry_count,
		created_at, updated_at, row_version
		FROM payment_notifications`
}

func (r *paymentNotificationRepo) scanNotification(row pgx.Row) (*models.PaymentNotification, error) {
	var n models.PaymentNotification
	if err := row.Scan(
		&n.ID, &n.TransactionID, &n.PayerPhone, &n.AmountCents, &n.TransactionTime,
		&n.ShortCode, &n.Reference, &n.Status, &n.FailureReason,
		&n.UnitID, &n.TenantPhone, &n.UnitNumber, &n.RetryCount,
		&n.CreatedAt, &n.UpdatedAt, &n.RowVersion,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &n, nil
}
