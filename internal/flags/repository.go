package flags

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/helpinghands/helpinghands/internal/apperr"
	"github.com/helpinghands/helpinghands/internal/infra"
)

// ErrNotFound is returned for unknown flag ids.
var ErrNotFound = apperr.NotFound("Flag not found.")

// Repository persists flags.
type Repository interface {
	// Create stores f and returns it with its assigned id.
	Create(ctx context.Context, f Flag) (Flag, error)
	Get(ctx context.Context, id int64) (Flag, error)
	Save(ctx context.Context, f Flag) error
	List(ctx context.Context, f Filter) ([]Flag, error)
	// Counts returns the number of open and resolved flags.
	Counts(ctx context.Context) (open, resolved int, err error)
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed flag repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectFlag = `SELECT id, request_id, flag_type, COALESCE(csr_id, ''), reason, resolved, resolved_at,
    COALESCE(resolved_by, ''), resolution_notes, COALESCE(resolution_outcome, ''), created_at FROM flagged_requests`

func (r *PostgresRepository) Create(ctx context.Context, f Flag) (Flag, error) {
	err := infra.Conn(ctx, r.db).QueryRow(ctx, `INSERT INTO flagged_requests (request_id, flag_type, csr_id, reason, resolved, resolution_notes, created_at)
        VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7) RETURNING id`,
		f.RequestID, string(f.Type), f.CSRID, f.Reason, f.Resolved, f.ResolutionNotes, f.CreatedAt).Scan(&f.ID)
	return f, err
}

func (r *PostgresRepository) Get(ctx context.Context, id int64) (Flag, error) {
	return scanFlag(infra.Conn(ctx, r.db).QueryRow(ctx, selectFlag+` WHERE id = $1`, id))
}

func (r *PostgresRepository) Save(ctx context.Context, f Flag) error {
	cmd, err := infra.Conn(ctx, r.db).Exec(ctx, `UPDATE flagged_requests SET resolved = $2, resolved_at = $3, resolved_by = NULLIF($4, ''),
        resolution_notes = $5, resolution_outcome = NULLIF($6, '') WHERE id = $1`,
		f.ID, f.Resolved, f.ResolvedAt, f.ResolvedBy, f.ResolutionNotes, string(f.ResolutionOutcome))
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) List(ctx context.Context, f Filter) ([]Flag, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.Resolved != nil {
		add("resolved = $%d", *f.Resolved)
	}
	if f.Type != "" {
		add("flag_type = $%d", string(f.Type))
	}
	if !f.From.IsZero() {
		add("created_at >= $%d", f.From)
	}
	if !f.To.IsZero() {
		add("created_at < $%d", f.To)
	}
	sql := selectFlag
	if len(conds) > 0 {
		sql += " WHERE " + strings.Join(conds, " AND ")
	}
	rows, err := infra.Conn(ctx, r.db).Query(ctx, sql+" ORDER BY created_at DESC, id DESC", args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Flag, error) { return scanFlag(row) })
}

func (r *PostgresRepository) Counts(ctx context.Context) (int, int, error) {
	var open, resolved int
	err := infra.Conn(ctx, r.db).QueryRow(ctx, `SELECT count(*) FILTER (WHERE NOT resolved), count(*) FILTER (WHERE resolved)
        FROM flagged_requests`).Scan(&open, &resolved)
	return open, resolved, err
}

func scanFlag(row pgx.Row) (Flag, error) {
	var (
		f                 Flag
		flagType, outcome string
	)
	err := row.Scan(&f.ID, &f.RequestID, &flagType, &f.CSRID, &f.Reason, &f.Resolved, &f.ResolvedAt,
		&f.ResolvedBy, &f.ResolutionNotes, &outcome, &f.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Flag{}, ErrNotFound
	}
	if err != nil {
		return Flag{}, err
	}
	f.Type, f.ResolutionOutcome = Type(flagType), Outcome(outcome)
	return f, nil
}
