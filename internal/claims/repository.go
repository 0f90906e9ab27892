package claims

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/helpinghands/helpinghands/internal/apperr"
	"github.com/helpinghands/helpinghands/internal/requests"
)

// ErrNotFound is returned for unknown claim ids.
var ErrNotFound = apperr.NotFound("Claim not found.")

// Repository persists claims and disputes.
type Repository interface {
	Create(ctx context.Context, c Claim) error
	Get(ctx context.Context, id string) (Claim, error)
	SetStatus(ctx context.Context, id string, status Status, at time.Time) (Claim, error)
	// ListForRequests returns the claims of the given requests, newest first.
	ListForRequests(ctx context.Context, requestIDs []string) ([]Claim, error)
	// AddDispute stores d and marks its claim disputed.
	AddDispute(ctx context.Context, d Dispute) (Dispute, error)
	ListDisputes(ctx context.Context, claimIDs []string) ([]Dispute, error)
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed claim repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectClaim = `SELECT id, request_id, cv_id, category, expense_date, amount::text, payment_method,
    description, receipt, status, created_at, updated_at FROM claim_reports`

func (r *PostgresRepository) Create(ctx context.Context, c Claim) error {
	_, err := r.db.Exec(ctx, `INSERT INTO claim_reports (id, request_id, cv_id, category, expense_date, amount,
        payment_method, description, receipt, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6::numeric, $7, $8, $9, $10, $11, $12)`,
		c.ID, c.RequestID, c.CVID, string(c.Category), c.ExpenseDate.Time, c.Amount, string(c.PaymentMethod),
		c.Description, c.ReceiptKey, string(c.Status), c.CreatedAt, c.UpdatedAt)
	return err
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (Claim, error) {
	return scanClaim(r.db.QueryRow(ctx, selectClaim+` WHERE id = $1`, id))
}

func (r *PostgresRepository) SetStatus(ctx context.Context, id string, status Status, at time.Time) (Claim, error) {
	cmd, err := r.db.Exec(ctx, `UPDATE claim_reports SET status = $2, updated_at = $3 WHERE id = $1`, id, string(status), at)
	if err != nil {
		return Claim{}, err
	}
	if cmd.RowsAffected() == 0 {
		return Claim{}, ErrNotFound
	}
	return r.Get(ctx, id)
}

func (r *PostgresRepository) ListForRequests(ctx context.Context, requestIDs []string) ([]Claim, error) {
	rows, err := r.db.Query(ctx, selectClaim+` WHERE request_id = ANY($1) ORDER BY created_at DESC, id`, requestIDs)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Claim, error) { return scanClaim(row) })
}

func (r *PostgresRepository) AddDispute(ctx context.Context, d Dispute) (Dispute, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return Dispute{}, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	cmd, err := tx.Exec(ctx, `UPDATE claim_reports SET status = $2, updated_at = $3 WHERE id = $1`,
		d.ClaimID, string(StatusDisputed), d.CreatedAt)
	if err != nil {
		return Dispute{}, err
	}
	if cmd.RowsAffected() == 0 {
		return Dispute{}, ErrNotFound
	}
	if err := tx.QueryRow(ctx, `INSERT INTO claim_disputes (claim_id, pin_id, reason, comment, created_at)
        VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		d.ClaimID, d.PINID, string(d.Reason), d.Comment, d.CreatedAt).Scan(&d.ID); err != nil {
		return Dispute{}, err
	}
	return d, tx.Commit(ctx)
}

func (r *PostgresRepository) ListDisputes(ctx context.Context, claimIDs []string) ([]Dispute, error) {
	rows, err := r.db.Query(ctx, `SELECT id, claim_id, pin_id, reason, comment, created_at FROM claim_disputes
        WHERE claim_id = ANY($1) ORDER BY created_at, id`, claimIDs)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Dispute, error) {
		var (
			d      Dispute
			reason string
		)
		err := row.Scan(&d.ID, &d.ClaimID, &d.PINID, &reason, &d.Comment, &d.CreatedAt)
		d.Reason = DisputeReason(reason)
		return d, err
	})
}

func scanClaim(row pgx.Row) (Claim, error) {
	var (
		c                        Claim
		category, method, status string
		expense                  time.Time
	)
	err := row.Scan(&c.ID, &c.RequestID, &c.CVID, &category, &expense, &c.Amount, &method,
		&c.Description, &c.ReceiptKey, &status, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Claim{}, ErrNotFound
	}
	if err != nil {
		return Claim{}, err
	}
	c.Category, c.PaymentMethod, c.Status = Category(category), PaymentMethod(method), Status(status)
	c.ExpenseDate = requests.NewDay(expense)
	return c, nil
}
