package chat

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/helpinghands/helpinghands/internal/apperr"
)

// ErrNotFound is returned for unknown chat ids.
var ErrNotFound = apperr.NotFound("Chat not found.")

// Repository persists chat rooms and their messages.
type Repository interface {
	// GetOrCreate returns the room of r.RequestID, inserting r when there is none.
	GetOrCreate(ctx context.Context, r Room) (Room, bool, error)
	Get(ctx context.Context, id string) (Room, error)
	SetExpiry(ctx context.Context, id string, expiresAt time.Time) error
	ListForRequests(ctx context.Context, requestIDs []string) ([]Room, error)
	AddMessage(ctx context.Context, m Message) (Message, error)
	Messages(ctx context.Context, roomID string) ([]Message, error)
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed chat repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectRoom = `SELECT id, request_id, opens_at, expires_at, created_at FROM chat_rooms`

func (r *PostgresRepository) GetOrCreate(ctx context.Context, room Room) (Room, bool, error) {
	tag, err := r.db.Exec(ctx, `INSERT INTO chat_rooms (id, request_id, opens_at, expires_at, created_at)
        VALUES ($1, $2, $3, $4, $5) ON CONFLICT (request_id) DO NOTHING`,
		room.ID, room.RequestID, room.OpensAt, room.ExpiresAt, room.CreatedAt)
	if err != nil {
		return Room{}, false, err
	}
	stored, err := scanRoom(r.db.QueryRow(ctx, selectRoom+` WHERE request_id = $1`, room.RequestID))
	return stored, tag.RowsAffected() == 1, err
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (Room, error) {
	return scanRoom(r.db.QueryRow(ctx, selectRoom+` WHERE id = $1`, id))
}

func (r *PostgresRepository) SetExpiry(ctx context.Context, id string, expiresAt time.Time) error {
	tag, err := r.db.Exec(ctx, `UPDATE chat_rooms SET expires_at = $2 WHERE id = $1`, id, expiresAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) ListForRequests(ctx context.Context, requestIDs []string) ([]Room, error) {
	rows, err := r.db.Query(ctx, selectRoom+` WHERE request_id = ANY($1) ORDER BY opens_at DESC, id`, requestIDs)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Room, error) { return scanRoom(row) })
}

func (r *PostgresRepository) AddMessage(ctx context.Context, m Message) (Message, error) {
	err := r.db.QueryRow(ctx, `INSERT INTO chat_messages (room_id, sender_id, body, created_at)
        VALUES ($1, $2, $3, $4) RETURNING id`, m.RoomID, m.SenderID, m.Body, m.CreatedAt).Scan(&m.ID)
	return m, err
}

func (r *PostgresRepository) Messages(ctx context.Context, roomID string) ([]Message, error) {
	rows, err := r.db.Query(ctx, `SELECT m.id, m.room_id, m.sender_id::text, u.username, m.body, m.created_at
        FROM chat_messages m JOIN users u ON u.id = m.sender_id
        WHERE m.room_id = $1 ORDER BY m.created_at, m.id`, roomID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Message, error) {
		var m Message
		err := row.Scan(&m.ID, &m.RoomID, &m.SenderID, &m.Sender, &m.Body, &m.CreatedAt)
		return m, err
	})
}

func scanRoom(row pgx.Row) (Room, error) {
	var room Room
	err := row.Scan(&room.ID, &room.RequestID, &room.OpensAt, &room.ExpiresAt, &room.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Room{}, ErrNotFound
	}
	if err != nil {
		return Room{}, err
	}
	return room, nil
}
