package matching

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/helpinghands/helpinghands/internal/apperr"
	"github.com/helpinghands/helpinghands/internal/infra"
)

// ErrNoQueue is returned when a request has no offer queue yet.
var ErrNoQueue = apperr.NotFound("Assignment pool not found.")

// Repository persists offer queues. Update locks the queue row while fn runs.
type Repository interface {
	Get(ctx context.Context, requestID string) (Queue, error)
	Upsert(ctx context.Context, q Queue) error
	Update(ctx context.Context, requestID string, fn func(*Queue) error) (Queue, error)
	// ListExpired returns the requests whose active offer deadline is before now.
	ListExpired(ctx context.Context, now time.Time) ([]string, error)
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed queue repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectQueue = `SELECT request_id, COALESCE(cv1, ''), COALESCE(cv2, ''), COALESCE(cv3, ''),
        current_index, status, sent_at, deadline, updated_at FROM match_queues`

func (r *PostgresRepository) Get(ctx context.Context, requestID string) (Queue, error) {
	return scanQueue(infra.Conn(ctx, r.db).QueryRow(ctx, selectQueue+` WHERE request_id = $1`, requestID))
}

func (r *PostgresRepository) Upsert(ctx context.Context, q Queue) error {
	cvs := slots(q.CVs)
	_, err := infra.Conn(ctx, r.db).Exec(ctx, `INSERT INTO match_queues (request_id, cv1, cv2, cv3, current_index, status, sent_at, deadline, updated_at)
        VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), NULLIF($4, ''), $5, $6, $7, $8, $9)
        ON CONFLICT (request_id) DO UPDATE SET cv1 = EXCLUDED.cv1, cv2 = EXCLUDED.cv2, cv3 = EXCLUDED.cv3,
        current_index = EXCLUDED.current_index, status = EXCLUDED.status, sent_at = EXCLUDED.sent_at,
        deadline = EXCLUDED.deadline, updated_at = EXCLUDED.updated_at`,
		q.RequestID, cvs[0], cvs[1], cvs[2], q.CurrentIndex, string(q.Status), q.SentAt, q.Deadline, q.UpdatedAt)
	return err
}

func (r *PostgresRepository) Update(ctx context.Context, requestID string, fn func(*Queue) error) (Queue, error) {
	tx, err := infra.Conn(ctx, r.db).Begin(ctx)
	if err != nil {
		return Queue{}, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	q, err := scanQueue(tx.QueryRow(ctx, selectQueue+` WHERE request_id = $1 FOR UPDATE`, requestID))
	if err != nil {
		return Queue{}, err
	}
	if err := fn(&q); err != nil {
		return Queue{}, err
	}
	q.UpdatedAt = time.Now().UTC()
	_, err = tx.Exec(ctx, `UPDATE match_queues SET current_index = $2, status = $3, sent_at = $4, deadline = $5,
        updated_at = $6 WHERE request_id = $1`,
		q.RequestID, q.CurrentIndex, string(q.Status), q.SentAt, q.Deadline, q.UpdatedAt)
	if err != nil {
		return Queue{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Queue{}, err
	}
	return q, nil
}

func (r *PostgresRepository) ListExpired(ctx context.Context, now time.Time) ([]string, error) {
	rows, err := infra.Conn(ctx, r.db).Query(ctx, `SELECT request_id FROM match_queues
        WHERE status = $1 AND deadline IS NOT NULL AND deadline < $2 ORDER BY deadline`, string(StatusActive), now)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func scanQueue(row pgx.Row) (Queue, error) {
	var (
		q      Queue
		cvs    [MaxCandidates]string
		status string
	)
	err := row.Scan(&q.RequestID, &cvs[0], &cvs[1], &cvs[2], &q.CurrentIndex, &status, &q.SentAt, &q.Deadline, &q.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Queue{}, ErrNoQueue
	}
	if err != nil {
		return Queue{}, err
	}
	for _, id := range cvs {
		if id != "" {
			q.CVs = append(q.CVs, id)
		}
	}
	q.Status = Status(status)
	return q, nil
}

func slots(cvs []string) [MaxCandidates]string {
	var out [MaxCandidates]string
	copy(out[:], cvs)
	return out
}
