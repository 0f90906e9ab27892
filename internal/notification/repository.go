package notification

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists notifications.
type Repository interface {
	Create(ctx context.Context, n Notification) (Notification, error)
	ListForRecipient(ctx context.Context, recipientID string, limit int) ([]Notification, error)
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed notification repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, n Notification) (Notification, error) {
	meta, err := json.Marshal(n.Meta)
	if err != nil {
		return Notification{}, err
	}
	err = r.db.QueryRow(ctx, `INSERT INTO notifications (recipient_id, type, message, request_id, cv_id, meta, created_at)
        VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6, $7) RETURNING id`,
		n.RecipientID, string(n.Type), n.Message, n.RequestID, n.CVID, meta, n.CreatedAt).Scan(&n.ID)
	return n, err
}

func (r *PostgresRepository) ListForRecipient(ctx context.Context, recipientID string, limit int) ([]Notification, error) {
	sql := `SELECT id, recipient_id::text, type, message, COALESCE(request_id, ''), COALESCE(cv_id, ''), meta, created_at
        FROM notifications WHERE recipient_id::text = $1 ORDER BY created_at DESC, id DESC`
	args := []any{recipientID}
	if limit > 0 {
		sql += ` LIMIT $2`
		args = append(args, limit)
	}
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Notification, error) {
		var (
			n    Notification
			kind string
			meta []byte
		)
		if err := row.Scan(&n.ID, &n.RecipientID, &kind, &n.Message, &n.RequestID, &n.CVID, &meta, &n.CreatedAt); err != nil {
			return Notification{}, err
		}
		n.Type = Type(kind)
		n.Meta = map[string]any{}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &n.Meta); err != nil {
				return Notification{}, err
			}
		}
		return n, nil
	})
}

type memoryRepository struct {
	mu     sync.RWMutex
	nextID int64
	items  []Notification
}

// NewMemoryRepository builds an in-memory notification store for development and tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{}
}

func (r *memoryRepository) Create(_ context.Context, n Notification) (Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	n.ID = r.nextID
	r.items = append(r.items, n)
	return n, nil
}

func (r *memoryRepository) ListForRecipient(_ context.Context, recipientID string, limit int) ([]Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Notification, 0)
	for _, n := range r.items {
		if n.RecipientID == recipientID {
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
