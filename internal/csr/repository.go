package csr

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ShortlistRepository persists shortlist rows, one per CSR and request.
type ShortlistRepository interface {
	// Add returns the existing row when the pair is already shortlisted.
	Add(ctx context.Context, s Shortlist) (Shortlist, error)
	Remove(ctx context.Context, csrID, requestID string) (bool, error)
	ListForCSR(ctx context.Context, csrID string) ([]Shortlist, error)
	CountByRequest(ctx context.Context, requestIDs []string) (map[string]int, error)
}

// PostgresShortlistRepository implements ShortlistRepository using PostgreSQL.
type PostgresShortlistRepository struct {
	db *pgxpool.Pool
}

// NewPostgresShortlistRepository builds a Postgres-backed shortlist repository.
func NewPostgresShortlistRepository(db *pgxpool.Pool) *PostgresShortlistRepository {
	return &PostgresShortlistRepository{db: db}
}

func (r *PostgresShortlistRepository) Add(ctx context.Context, s Shortlist) (Shortlist, error) {
	err := r.db.QueryRow(ctx, `WITH ins AS (
            INSERT INTO shortlists (csr_id, request_id, created_at) VALUES ($1, $2, $3)
            ON CONFLICT (csr_id, request_id) DO NOTHING
            RETURNING id, csr_id, request_id, created_at)
        SELECT id, csr_id, request_id, created_at FROM ins
        UNION ALL
        SELECT id, csr_id, request_id, created_at FROM shortlists WHERE csr_id = $1 AND request_id = $2
        LIMIT 1`, s.CSRID, s.RequestID, s.CreatedAt).Scan(&s.ID, &s.CSRID, &s.RequestID, &s.CreatedAt)
	return s, err
}

func (r *PostgresShortlistRepository) Remove(ctx context.Context, csrID, requestID string) (bool, error) {
	cmd, err := r.db.Exec(ctx, `DELETE FROM shortlists WHERE csr_id = $1 AND request_id = $2`, csrID, requestID)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *PostgresShortlistRepository) ListForCSR(ctx context.Context, csrID string) ([]Shortlist, error) {
	rows, err := r.db.Query(ctx, `SELECT id, csr_id, request_id, created_at FROM shortlists
        WHERE csr_id = $1 ORDER BY created_at DESC, id DESC`, csrID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Shortlist, error) {
		var s Shortlist
		err := row.Scan(&s.ID, &s.CSRID, &s.RequestID, &s.CreatedAt)
		return s, err
	})
}

func (r *PostgresShortlistRepository) CountByRequest(ctx context.Context, requestIDs []string) (map[string]int, error) {
	out := make(map[string]int, len(requestIDs))
	if len(requestIDs) == 0 {
		return out, nil
	}
	rows, err := r.db.Query(ctx, `SELECT request_id, count(*) FROM shortlists WHERE request_id = ANY($1) GROUP BY request_id`, requestIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			id string
			n  int
		)
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		out[id] = n
	}
	return out, rows.Err()
}
