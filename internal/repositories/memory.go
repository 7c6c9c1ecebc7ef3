package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/ronnyabuto/rent-service/internal/models"
)

// In-memory implementations of the repository interfaces. They back the
// DEV_MODE bootstrap (no Postgres needed) and the unit tests, and mimic
// the row_version semantics of the pgx repositories so the optimistic
// locking paths behave identically in both backends.

/* ───────────── units ───────────── */

type memoryUnitRepo struct {
	mu    sync.RWMutex
	units map[uuid.UUID]*models.Unit
}

func NewMemoryUnitRepository() UnitRepository {
	return &memoryUnitRepo{units: make(map[uuid.UUID]*models.Unit)}
}

func (r *memoryUnitRepo) Create(_ context.Context, u *models.Unit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *u
	now := time.Now().UTC()
	cp.CreatedAt, cp.UpdatedAt, cp.RowVersion = now, now, 1
	r.units[cp.ID] = &cp
	return nil
}

func (r *memoryUnitRepo) CreateMany(ctx context.Context, list []models.Unit) error {
	for i := range list {
		if err := r.Create(ctx, &list[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *memoryUnitRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Unit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.units[id]
	if !ok || u.DeletedAt != nil {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *memoryUnitRepo) List(_ context.Context) ([]*models.Unit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*models.Unit
	for _, u := range r.units {
		if u.DeletedAt != nil {
			continue
		}
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FloorNumber != out[j].FloorNumber {
			return out[i].FloorNumber < out[j].FloorNumber
		}
		return out[i].UnitNumber < out[j].UnitNumber
	})
	return out, nil
}

func (r *memoryUnitRepo) FindByOccupantPhone(_ context.Context, phone string) (*models.Unit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.units {
		if u.DeletedAt == nil && u.OccupantPhone != nil && *u.OccupantPhone == phone {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memoryUnitRepo) ListPendingPastDue(_ context.Context, asOf time.Time) ([]*models.Unit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*models.Unit
	for _, u := range r.units {
		if u.DeletedAt == nil && u.IsOccupied() &&
			u.RentStatus == models.RentStatusPending && u.RentDueDate.Before(asOf) {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memoryUnitRepo) Update(_ context.Context, u *models.Unit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.units[u.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	cp := *u
	cp.RowVersion = cur.RowVersion
	cp.UpdatedAt = time.Now().UTC()
	r.units[u.ID] = &cp
	return nil
}

func (r *memoryUnitRepo) UpdateIfVersion(_ context.Context, u *models.Unit, expected int64) (pgconn.CommandTag, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.units[u.ID]
	if !ok || cur.RowVersion != expected {
		return pgconn.CommandTag("UPDATE 0"), nil
	}
	cp := *u
	cp.RowVersion = expected + 1
	cp.UpdatedAt = time.Now().UTC()
	r.units[u.ID] = &cp
	return pgconn.CommandTag("UPDATE 1"), nil
}

func (r *memoryUnitRepo) UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.Unit) error) error {
	getByID := func(ctx context.Context, idStr string) (*models.Unit, error) {
		parsed, err := uuid.Parse(idStr)
		if err != nil {
			return nil, err
		}
		return r.GetByID(ctx, parsed)
	}
	return WithRetry(ctx, 3, id.String(), getByID, r.UpdateIfVersion, mutate)
}

func (r *memoryUnitRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.units[id]
	if !ok || u.DeletedAt != nil {
		return pgx.ErrNoRows
	}
	now := time.Now().UTC()
	u.DeletedAt = &now
	return nil
}

/* ───────────── payment notifications ───────────── */

type memoryNotificationRepo struct {
	mu     sync.RWMutex
	byID   map[uuid.UUID]*models.PaymentNotification
	byTxID map[string]uuid.UUID
}

func NewMemoryPaymentNotificationRepository() PaymentNotificationRepository {
	return &memoryNotificationRepo{
		byID:   make(map[uuid.UUID]*models.PaymentNotification),
		byTxID: make(map[string]uuid.UUID),
	}
}

func (r *memoryNotificationRepo) Create(_ context.Context, n *models.PaymentNotification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.byTxID[n.TransactionID]; dup {
		// Mirrors ON CONFLICT (transaction_id) DO NOTHING.
		return nil
	}
	cp := *n
	now := time.Now().UTC()
	cp.CreatedAt, cp.UpdatedAt, cp.RowVersion = now, now, 1
	r.byID[cp.ID] = &cp
	r.byTxID[cp.TransactionID] = cp.ID
	return nil
}

func (r *memoryNotificationRepo) GetByID(_ context.Context, id uuid.UUID) (*models.PaymentNotification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *n
	return &cp, nil
}

func (r *memoryNotificationRepo) GetByTransactionID(_ context.Context, transactionID string) (*models.PaymentNotification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byTxID[transactionID]
	if !ok {
		return nil, nil
	}
	cp := *r.byID[id]
	return &cp, nil
}

func (r *memoryNotificationRepo) ListByStatus(_ context.Context, status models.NotificationStatusType) ([]*models.PaymentNotification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*models.PaymentNotification
	for _, n := range r.byID {
		if n.Status == status {
			cp := *n
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *memoryNotificationRepo) UpdateIfVersion(_ context.Context, n *models.PaymentNotification, expected int64) (pgconn.CommandTag, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.byID[n.ID]
	if !ok || cur.RowVersion != expected {
		return pgconn.CommandTag("UPDATE 0"), nil
	}
	cp := *n
	cp.RowVersion = expected + 1
	cp.UpdatedAt = time.Now().UTC()
	r.byID[n.ID] = &cp
	return pgconn.CommandTag("UPDATE 1"), nil
}

func (r *memoryNotificationRepo) UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.PaymentNotification) error) error {
	getByID := func(ctx context.Context, idStr string) (*models.PaymentNotification, error) {
		parsed, err := uuid.Parse(idStr)
		if err != nil {
			return nil, err
		}
		return r.GetByID(ctx, parsed)
	}
	return WithRetry(ctx, 3, id.String(), getByID, r.UpdateIfVersion, mutate)
}

/* ───────────── payment events ───────────── */

type memoryEventRepo struct {
	mu     sync.RWMutex
	events []*models.PaymentEvent
}

func NewMemoryPaymentEventRepository() PaymentEventRepository {
	return &memoryEventRepo{}
}

func (r *memoryEventRepo) Append(_ context.Context, e *models.PaymentEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *e
	cp.CreatedAt = time.Now().UTC()
	r.events = append(r.events, &cp)
	return nil
}

func (r *memoryEventRepo) ListByUnitID(_ context.Context, unitID uuid.UUID) ([]*models.PaymentEvent, error) {
	return r.list(func(e *models.PaymentEvent) bool { return e.UnitID == unitID })
}

func (r *memoryEventRepo) ListByTenantPhone(_ context.Context, phone string) ([]*models.PaymentEvent, error) {
	return r.list(func(e *models.PaymentEvent) bool { return e.TenantPhone == phone })
}

func (r *memoryEventRepo) ExistsByTransactionID(_ context.Context, transactionID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.events {
		if e.TransactionID == transactionID {
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryEventRepo) list(keep func(*models.PaymentEvent) bool) ([]*models.PaymentEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*models.PaymentEvent
	for _, e := range r.events {
		if keep(e) {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PaymentDate.Before(out[j].PaymentDate) })
	return out, nil
}
