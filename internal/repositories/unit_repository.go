package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/ronnyabuto/rent-service/internal/models"
)

/* ───────────── public interface ───────────── */

type UnitRepository interface {
	Create(ctx context.Context, u *models.Unit) error
	CreateMany(ctx context.Context, list []models.Unit) error

	GetByID(ctx context.Context, id uuid.UUID) (*models.Unit, error)
	List(ctx context.Context) ([]*models.Unit, error)
	FindByOccupantPhone(ctx context.Context, phone string) (*models.Unit, error)
	ListPendingPastDue(ctx context.Context, asOf time.Time) ([]*models.Unit, error)

	Update(ctx context.Context, u *models.Unit) error
	UpdateIfVersion(ctx context.Context, u *models.Unit, expected int64) (pgconn.CommandTag, error)
	UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.Unit) error) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

/* ───────────── implementation ───────────── */

type unitRepo struct {
	*BaseVersionedRepo[*models.Unit]
	db DB
}

func NewUnitRepository(db DB) UnitRepository {
	r := &unitRepo{db: db}
	selectStmt := baseSelectUnit() + " WHERE id=$1 AND deleted_at IS NULL"
	r.BaseVersionedRepo = NewBaseRepo(db, selectStmt, r.scanUnit)
	return r
}

/* ---------- create ---------- */

func (r *unitRepo) Create(ctx context.Context, u *models.Unit) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO units (
			id, unit_number, floor_number,
			occupant_name, occupant_phone, moved_in_at,
			rent_amount_cents, rent_due_date, rent_status, last_payment_date,
			lease_start_date, lease_end_date, deposit_cents, deposit_status,
			created_at, updated_at, row_version
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14, NOW(), NOW(), 1)
	`, u.ID, u.UnitNumber, u.FloorNumber,
		u.OccupantName, u.OccupantPhone, u.MovedInAt,
		u.RentAmountCents, u.RentDueDate, u.RentStatus, u.LastPaymentDate,
		u.LeaseStartDate, u.LeaseEndDate, u.DepositCents, u.DepositStatus)
	return err
}

func (r *unitRepo) CreateMany(ctx context.Context, list []models.Unit) error {
	for i := range list {
		if err := r.Create(ctx, &list[i]); err != nil {
			return err
		}
	}
	return nil
}

/* ---------- reads ---------- */

func (r *unitRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Unit, error) {
	return r.BaseVersionedRepo.GetByID(ctx, id.String())
}

func (r *unitRepo) List(ctx context.Context) ([]*models.Unit, error) {
	rows, err := r.db.Query(ctx, baseSelectUnit()+" WHERE deleted_at IS NULL ORDER BY floor_number, unit_number")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanUnits(rows)
}

func (r *unitRepo) FindByOccupantPhone(ctx context.Context, phone string) (*models.Unit, error) {
	row := r.db.QueryRow(ctx, baseSelectUnit()+" WHERE occupant_phone=$1 AND deleted_at IS NULL LIMIT 1", phone)
	return r.scanUnit(row)
}

func (r *unitRepo) ListPendingPastDue(ctx context.Context, asOf time.Time) ([]*models.Unit, error) {
	rows, err := r.db.Query(ctx, baseSelectUnit()+`
		WHERE rent_status=$1 AND occupant_phone IS NOT NULL
		AND rent_due_date < $2 AND deleted_at IS NULL`, models.RentStatusPending, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanUnits(rows)
}

/* ---------- update / delete ---------- */

func (r *unitRepo) Update(ctx context.Context, u *models.Unit) error {
	_, err := r.update(ctx, u, false, 0)
	return err
}

func (r *unitRepo) UpdateIfVersion(ctx context.Context, u *models.Unit, expected int64) (pgconn.CommandTag, error) {
	return r.update(ctx, u, true, expected)
}

func (r *unitRepo) UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.Unit) error) error {
	return r.BaseVersionedRepo.UpdateWithRetry(ctx, id.String(), mutate, r.UpdateIfVersion)
}

func (r *unitRepo) update(ctx context.Context, u *models.Unit, check bool, expected int64) (pgconn.CommandTag, error) {
	sql := `
		UPDATE units
		SET unit_number=$1, floor_number=$2,
			occupant_name=$3, occupant_phone=$4, moved_in_at=$5,
			rent_amount_cents=$6, rent_due_date=$7, rent_status=$8, last_payment_date=$9,
			lease_start_date=$10, lease_end_date=$11, deposit_cents=$12, deposit_status=$13,
			updated_at=NOW()
	`
	args := []any{
		u.UnitNumber, u.FloorNumber,
		u.OccupantName, u.OccupantPhone, u.MovedInAt,
		u.RentAmountCents, u.RentDueDate, u.RentStatus, u.LastPaymentDate,
		u.LeaseStartDate, u.LeaseEndDate, u.DepositCents, u.DepositStatus,
	}
	if check {
		sql += `, row_version=row_version+1 WHERE id=$14 AND row_version=$15`
		args = append(args, u.ID, expected)
	} else {
		sql += ` WHERE id=$14`
		args = append(args, u.ID)
	}
	return r.db.Exec(ctx, sql, args...)
}

func (r *unitRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `UPDATE units SET deleted_at=NOW() WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

/* ---------- internals ---------- */

func baseSelectUnit() string {
	return `
		SELECT id, unit_number, floor_number,
		occupant_name, occupant_phone, moved_in_at,
		rent_amount_cents, rent_due_date, rent_status, last_payment_date,
		lease_start_date, lease_end_date, deposit_cents, deposit_status,
		created_at, updated_at, deleted_at, row_version
		FROM units`
}

func (r *unitRepo) scanUnit(row pgx.Row) (*models.Unit, error) {
	var u models.Unit
	if err := row.Scan(
		&u.ID, &u.UnitNumber, &u.FloorNumber,
		&u.OccupantName, &u.OccupantPhone, &u.MovedInAt,
		&u.RentAmountCents, &u.RentDueDate, &u.RentStatus, &u.LastPaymentDate,
		&u.LeaseStartDate, &u.LeaseEndDate, &u.DepositCents, &u.DepositStatus,
		&u.CreatedAt, &u.UpdatedAt, &u.DeletedAt, &u.RowVersion,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *unitRepo) scanUnits(rows pgx.Rows) ([]*models.Unit, error) {
	var out []*models.Unit
	for rows.Next() {
		u, err := r.scanUnit(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
