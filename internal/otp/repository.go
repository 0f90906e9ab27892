package otp

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var errNoCode = errors.New("otp: no matching code")

// Repository persists one-time codes.
type Repository interface {
	Create(ctx context.Context, c Code) (Code, error)
	// FindValid returns the newest unconsumed, unexpired code matching the triple.
	FindValid(ctx context.Context, email, code string, purpose Purpose, now time.Time) (Code, error)
	// Consume marks the code used and reports whether it was still unused.
	Consume(ctx context.Context, id int64) (bool, error)
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed code repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, c Code) (Code, error) {
	err := r.db.QueryRow(ctx, `INSERT INTO email_otps (email, code, purpose, created_at, expires_at, consumed)
        VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		c.Email, c.Code, string(c.Purpose), c.CreatedAt, c.ExpiresAt, c.Consumed).Scan(&c.ID)
	return c, err
}

func (r *PostgresRepository) FindValid(ctx context.Context, email, code string, purpose Purpose, now time.Time) (Code, error) {
	c := Code{Email: email, Code: code, Purpose: purpose}
	err := r.db.QueryRow(ctx, `SELECT id, created_at, expires_at FROM email_otps
        WHERE email = $1 AND code = $2 AND purpose = $3 AND NOT consumed AND expires_at > $4
        ORDER BY created_at DESC LIMIT 1`, email, code, string(purpose), now).
		Scan(&c.ID, &c.CreatedAt, &c.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Code{}, errNoCode
	}
	return c, err
}

func (r *PostgresRepository) Consume(ctx context.Context, id int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `UPDATE email_otps SET consumed = true WHERE id = $1 AND NOT consumed`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

type memoryRepository struct {
	mu     sync.Mutex
	codes  []Code
	nextID int64
}

// NewMemoryRepository builds an in-memory code store for development and tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{}
}

func (r *memoryRepository) Create(_ context.Context, c Code) (Code, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	c.ID = r.nextID
	r.codes = append(r.codes, c)
	return c, nil
}

func (r *memoryRepository) FindValid(_ context.Context, email, code string, purpose Purpose, now time.Time) (Code, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var found []Code
	for _, c := range r.codes {
		if c.Email == email && c.Code == code && c.Purpose == purpose && c.ValidAt(now) {
			found = append(found, c)
		}
	}
	if len(found) == 0 {
		return Code{}, errNoCode
	}
	sort.Slice(found, func(i, j int) bool { return found[i].ID > found[j].ID })
	return found[0], nil
}

func (r *memoryRepository) Consume(_ context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.codes {
		if r.codes[i].ID == id {
			if r.codes[i].Consumed {
				return false, nil
			}
			r.codes[i].Consumed = true
			return true, nil
		}
	}
	return false, nil
}
