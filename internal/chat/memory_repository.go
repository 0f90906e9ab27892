package chat

import (
	"context"
	"sort"
	"sync"
	"time"
)

type memoryRepository struct {
	mu        sync.RWMutex
	rooms     map[string]Room
	byRequest map[string]string
	messages  []Message
	nextMsgID int64
}

// NewMemoryRepository builds an in-memory chat store for development and tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{rooms: make(map[string]Room), byRequest: make(map[string]string)}
}

func (r *memoryRepository) GetOrCreate(_ context.Context, room Room) (Room, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.byRequest[room.RequestID]; ok {
		return r.rooms[id], false, nil
	}
	r.rooms[room.ID] = room
	r.byRequest[room.RequestID] = room.ID
	return room, true, nil
}

func (r *memoryRepository) Get(_ context.Context, id string) (Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[id]
	if !ok {
		return Room{}, ErrNotFound
	}
	return room, nil
}

func (r *memoryRepository) SetExpiry(_ context.Context, id string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[id]
	if !ok {
		return ErrNotFound
	}
	room.ExpiresAt = &expiresAt
	r.rooms[id] = room
	return nil
}

func (r *memoryRepository) ListForRequests(_ context.Context, requestIDs []string) ([]Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Room, 0)
	for _, reqID := range requestIDs {
		if id, ok := r.byRequest[reqID]; ok {
			out = append(out, r.rooms[id])
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].OpensAt.Equal(out[j].OpensAt) {
			return out[i].OpensAt.After(out[j].OpensAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *memoryRepository) AddMessage(_ context.Context, m Message) (Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextMsgID++
	m.ID = r.nextMsgID
	r.messages = append(r.messages, m)
	return m, nil
}

func (r *memoryRepository) Messages(_ context.Context, roomID string) ([]Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Message, 0)
	for _, m := range r.messages {
		if m.RoomID == roomID {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
