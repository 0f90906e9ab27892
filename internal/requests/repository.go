package requests

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/helpinghands/helpinghands/internal/apperr"
	"github.com/helpinghands/helpinghands/internal/infra"
	"github.com/helpinghands/helpinghands/internal/catalog"
)

// ErrNotFound is returned for unknown request ids.
var ErrNotFound = apperr.NotFound("Request not found.")

// Repository persists requests. Update runs fn against the locked row and
// stores the result; an error from fn aborts without writing.
type Repository interface {
	Create(ctx context.Context, r Request) error
	Get(ctx context.Context, id string) (Request, error)
	List(ctx context.Context, f Filter) ([]Request, error)
	Update(ctx context.Context, id string, fn func(*Request) error) (Request, error)
	CountByStatus(ctx context.Context) (map[Status]int, error)
	// EarliestCreated returns the creation time of the oldest request.
	EarliestCreated(ctx context.Context) (time.Time, bool, error)
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db  *pgxpool.Pool
	now func() time.Time
}

// NewPostgresRepository builds a Postgres-backed request repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db, now: time.Now}
}

const selectRequest = `SELECT id, pin_id, COALESCE(cv_id, ''), service_type, appointment_date,
    to_char(appointment_time, 'HH24:MI'), pickup_location, service_location, description, status,
    COALESCE(committed_by_csr, ''), committed_at, created_at, updated_at, completed_at FROM requests`

func (r *PostgresRepository) Create(ctx context.Context, req Request) error {
	req.settle(req.CreatedAt)
	_, err := infra.Conn(ctx, r.db).Exec(ctx, `INSERT INTO requests (id, pin_id, cv_id, service_type, appointment_date, appointment_time,
        pickup_location, service_location, description, status, committed_by_csr, committed_at, created_at, updated_at, completed_at)
        VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6::time, $7, $8, $9, $10, NULLIF($11, ''), $12, $13, $14, $15)`,
		req.ID, req.PINID, req.CVID, string(req.ServiceType), req.AppointmentDate.Time, req.AppointmentTime,
		req.PickupLocation, req.ServiceLocation, req.Description, string(req.Status),
		req.CommittedBy, req.CommittedAt, req.CreatedAt, req.UpdatedAt, req.CompletedAt)
	return err
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (Request, error) {
	return scanRequest(infra.Conn(ctx, r.db).QueryRow(ctx, selectRequest+` WHERE id = $1`, id))
}

func (r *PostgresRepository) List(ctx context.Context, f Filter) ([]Request, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.PINID != "" {
		add("pin_id = $%d", f.PINID)
	}
	if f.CVID != "" {
		add("cv_id = $%d", f.CVID)
	}
	if f.CommittedBy != "" {
		add("committed_by_csr = $%d", f.CommittedBy)
	}
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			statuses[i] = string(s)
		}
		add("status = ANY($%d)", statuses)
	}
	if f.IDs != nil {
		add("id = ANY($%d)", f.IDs)
	}
	if f.ServiceType != "" {
		add("service_type = $%d", f.ServiceType)
	}
	if !f.CreatedFrom.IsZero() {
		add("created_at >= $%d", f.CreatedFrom)
	}
	if !f.CreatedTo.IsZero() {
		add("created_at < $%d", f.CreatedTo)
	}
	if !f.AppointmentFrom.IsZero() {
		add("appointment_date >= $%d", f.AppointmentFrom)
	}
	if !f.AppointmentTo.IsZero() {
		add("appointment_date <= $%d", f.AppointmentTo)
	}

	sql := selectRequest
	if len(conds) > 0 {
		sql += " WHERE " + strings.Join(conds, " AND ")
	}
	switch f.Order {
	case OrderAppointment:
		sql += " ORDER BY appointment_date, appointment_time, id"
	case OrderCompleted:
		sql += " ORDER BY completed_at DESC NULLS LAST, created_at DESC"
	default:
		sql += " ORDER BY created_at DESC, id"
	}

	rows, err := infra.Conn(ctx, r.db).Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Request, error) { return scanRequest(row) })
}

func (r *PostgresRepository) Update(ctx context.Context, id string, fn func(*Request) error) (Request, error) {
	tx, err := infra.Conn(ctx, r.db).Begin(ctx)
	if err != nil {
		return Request{}, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	req, err := scanRequest(tx.QueryRow(ctx, selectRequest+` WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return Request{}, err
	}
	if err := fn(&req); err != nil {
		return Request{}, err
	}
	req.settle(r.now().UTC())
	_, err = tx.Exec(ctx, `UPDATE requests SET cv_id = NULLIF($2, ''), service_type = $3, appointment_date = $4,
        appointment_time = $5::time, pickup_location = $6, service_location = $7, description = $8, status = $9,
        committed_by_csr = NULLIF($10, ''), committed_at = $11, updated_at = $12, completed_at = $13 WHERE id = $1`,
		req.ID, req.CVID, string(req.ServiceType), req.AppointmentDate.Time, req.AppointmentTime,
		req.PickupLocation, req.ServiceLocation, req.Description, string(req.Status),
		req.CommittedBy, req.CommittedAt, req.UpdatedAt, req.CompletedAt)
	if err != nil {
		return Request{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Request{}, err
	}
	return req, nil
}

func (r *PostgresRepository) CountByStatus(ctx context.Context) (map[Status]int, error) {
	rows, err := infra.Conn(ctx, r.db).Query(ctx, `SELECT status, count(*) FROM requests GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[Status]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[Status(status)] = n
	}
	return out, rows.Err()
}

func (r *PostgresRepository) EarliestCreated(ctx context.Context) (time.Time, bool, error) {
	var at *time.Time
	if err := infra.Conn(ctx, r.db).QueryRow(ctx, `SELECT min(created_at) FROM requests`).Scan(&at); err != nil {
		return time.Time{}, false, err
	}
	if at == nil {
		return time.Time{}, false, nil
	}
	return at.UTC(), true, nil
}

func scanRequest(row pgx.Row) (Request, error) {
	var (
		req                 Request
		serviceType, status string
		date                time.Time
	)
	err := row.Scan(&req.ID, &req.PINID, &req.CVID, &serviceType, &date, &req.AppointmentTime,
		&req.PickupLocation, &req.ServiceLocation, &req.Description, &status,
		&req.CommittedBy, &req.CommittedAt, &req.CreatedAt, &req.UpdatedAt, &req.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Request{}, ErrNotFound
	}
	if err != nil {
		return Request{}, err
	}
	req.ServiceType = catalog.Category(serviceType)
	req.Status = Status(status)
	req.AppointmentDate = NewDay(date)
	return req, nil
}
