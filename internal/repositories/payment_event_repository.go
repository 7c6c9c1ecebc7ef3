package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/ronnyabuto/rent-service/internal/models"
)

/* ───────────── public interface ───────────── */

// PaymentEventRepository is append-only: no update or delete surface.
type PaymentEventRepository interface {
	Append(ctx context.Context, e *models.PaymentEvent) error

	ListByUnitID(ctx context.Context, unitID uuid.UUID) ([]*models.PaymentEvent, error)
	// ListByTenantPhone returns the series ordered by payment date
	// ascending, the shape the scoring engine consumes.
	ListByTenantPhone(ctx context.Context, phone string) ([]*models.PaymentEvent, error)
	// ExistsByTransactionID keys the idempotent retry of pending
	// notifications: a retry must not append a second event.
	ExistsByTransactionID(ctx context.Context, transactionID string) (bool, error)
}

/* ───────────── implementation ───────────── */

type paymentEventRepo struct {
	db DB
}

func NewPaymentEventRepository(db DB) PaymentEventRepository {
	return &paymentEventRepo{db: db}
}

func (r *paymentEventRepo) Append(ctx context.Context, e *models.PaymentEvent) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO payment_events (
			id, unit_id, tenant_phone, amount_cents, transaction_id,
			payment_date, day_offset, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7, NOW())
	`, e.ID, e.UnitID, e.TenantPhone, e.AmountCents, e.TransactionID,
		e.PaymentDate, e.DayOffset)
	return err
}

func (r *paymentEventRepo) ListByUnitID(ctx context.Context, unitID uuid.UUID) ([]*models.PaymentEvent, error) {
	rows, err := r.db.Query(ctx, baseSelectEvent()+" WHERE unit_id=$1 ORDER BY payment_date", unitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanEvents(rows)
}

func (r *paymentEventRepo) ListByTenantPhone(ctx context.Context, phone string) ([]*models.PaymentEvent, error) {
	rows, err := r.db.Query(ctx, baseSelectEvent()+" WHERE tenant_phone=$1 ORDER BY payment_date", phone)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanEvents(rows)
}

func (r *paymentEventRepo) ExistsByTransactionID(ctx context.Context, transactionID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM payment_events WHERE transaction_id=$1)`,
		transactionID).Scan(&exists)
	return exists, err
}

/* ---------- internals ---------- */

func baseSelectEvent() string {
	return `
		SELECT id, unit_id, tenant_phone, amount_cents, transaction_id,
		payment_date, day_offset, created_at
		FROM payment_events`
}

func (r *paymentEventRepo) scanEvents(rows pgx.Rows) ([]*models.PaymentEvent, error) {
	var out []*models.PaymentEvent
	for rows.Next() {
		var e models.PaymentEvent
		if err := rows.Scan(
			&e.ID, &e.UnitID, &e.TenantPhone, &e.AmountCents, &e.TransactionID,
			&e.PaymentDate, &e.DayOffset, &e.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}
