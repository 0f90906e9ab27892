package chat

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/helpinghands/helpinghands/internal/accounts"
	"github.com/helpinghands/helpinghands/internal/apperr"
	"github.com/helpinghands/helpinghands/internal/auth"
	"github.com/helpinghands/helpinghands/internal/ids"
	"github.com/helpinghands/helpinghands/internal/requests"
)

var (
	ErrNotAllowed = apperr.Forbidden("Not allowed.")
	ErrClosed     = apperr.Forbidden("Chat is closed.")
	ErrEmptyBody  = apperr.Invalid("Message body cannot be empty.")
	ErrBodyLength = apperr.Invalid(fmt.Sprintf("Ensure this field has no more than %d characters.", MaxBody))
	ErrBadFilter  = apperr.Invalid("status must be one of all, open, closed.")
	ErrNotActive  = apperr.Conflict("Only ACTIVE requests can be completed.")
)

// Users resolves message senders.
type Users interface {
	Get(ctx context.Context, id string) (accounts.User, error)
}

// Service runs request chats between a PIN and the CV assigned to them.
type Service struct {
	repo     Repository
	requests requests.Repository
	users    Users
	now      func() time.Time
}

// NewService wires the chat service.
func NewService(repo Repository, reqs requests.Repository, users Users) *Service {
	return &Service{repo: repo, requests: reqs, users: users, now: time.Now}
}

// participates reports whether p is the request's PIN or assigned CV.
func participates(p auth.Principal, r requests.Request) bool {
	switch p.Role {
	case accounts.RoleCV:
		return r.CVID != "" && r.CVID == p.ProfileID
	case accounts.RolePIN:
		return r.PINID == p.ProfileID
	default:
		return false
	}
}

func (s *Service) request(ctx context.Context, p auth.Principal, requestID string) (requests.Request, error) {
	r, err := s.requests.Get(ctx, requestID)
	if err != nil {
		return requests.Request{}, err
	}
	if !participates(p, r) {
		return requests.Request{}, ErrNotAllowed
	}
	return r, nil
}

func (s *Service) room(ctx context.Context, p auth.Principal, roomID string) (Room, error) {
	room, err := s.repo.Get(ctx, roomID)
	if err != nil {
		return Room{}, err
	}
	if _, err := s.request(ctx, p, room.RequestID); err != nil {
		return Room{}, err
	}
	return room, nil
}

func (s *Service) ensureRoom(ctx context.Context, r requests.Request) (Room, bool, error) {
	return s.repo.GetOrCreate(ctx, Room{
		ID:        ids.New(ids.Chat),
		RequestID: r.ID,
		OpensAt:   r.AppointmentDate.Time,
		CreatedAt: s.now().UTC(),
	})
}

func (s *Service) view(room Room, r requests.Request) RoomView {
	return RoomView{Room: room, ServiceType: string(r.ServiceType), IsOpen: room.IsOpen(s.now())}
}

// GetOrCreate returns the chat of a request, creating it on first use. The
// boolean reports whether it was created.
func (s *Service) GetOrCreate(ctx context.Context, p auth.Principal, requestID string) (RoomView, bool, error) {
	r, err := s.request(ctx, p, requestID)
	if err != nil {
		return RoomView{}, false, err
	}
	room, created, err := s.ensureRoom(ctx, r)
	if err != nil {
		return RoomView{}, false, err
	}
	return s.view(room, r), created, nil
}

// MyChats lists the caller's chats, latest opening first.
func (s *Service) MyChats(ctx context.Context, p auth.Principal, status string) ([]RoomView, error) {
	filter := StatusFilter(status)
	switch filter {
	case "":
		filter = FilterAll
	case FilterAll, FilterOpen, FilterClosed:
	default:
		return nil, ErrBadFilter
	}
	f := requests.Filter{}
	switch p.Role {
	case accounts.RoleCV:
		f.CVID = p.ProfileID
	case accounts.RolePIN:
		f.PINID = p.ProfileID
	default:
		return []RoomView{}, nil
	}
	if f.CVID == "" && f.PINID == "" {
		return []RoomView{}, nil
	}
	reqs, err := s.requests.List(ctx, f)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]requests.Request, len(reqs))
	reqIDs := make([]string, 0, len(reqs))
	for _, r := range reqs {
		byID[r.ID] = r
		reqIDs = append(reqIDs, r.ID)
	}
	rooms, err := s.repo.ListForRequests(ctx, reqIDs)
	if err != nil {
		return nil, err
	}
	out := make([]RoomView, 0, len(rooms))
	for _, room := range rooms {
		v := s.view(room, byID[room.RequestID])
		if (filter == FilterOpen && !v.IsOpen) || (filter == FilterClosed && v.IsOpen) {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

// Messages lists a chat's messages, oldest first.
func (s *Service) Messages(ctx context.Context, p auth.Principal, roomID string) ([]Message, error) {
	if _, err := s.room(ctx, p, roomID); err != nil {
		return nil, err
	}
	msgs, err := s.repo.Messages(ctx, roomID)
	if err != nil {
		return nil, err
	}
	names := map[string]string{}
	for i, m := range msgs {
		if m.Sender != "" {
			continue
		}
		name, ok := names[m.SenderID]
		if !ok {
			if u, err := s.users.Get(ctx, m.SenderID); err == nil {
				name = u.Username
			}
			names[m.SenderID] = name
		}
		msgs[i].Sender = name
	}
	return msgs, nil
}

// Send posts body to an open chat.
func (s *Service) Send(ctx context.Context, p auth.Principal, roomID, body string) (Message, error) {
	room, err := s.room(ctx, p, roomID)
	if err != nil {
		return Message{}, err
	}
	now := s.now().UTC()
	if !room.IsOpen(now) {
		return Message{}, ErrClosed
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return Message{}, ErrEmptyBody
	}
	if utf8.RuneCountInString(body) > MaxBody {
		return Message{}, ErrBodyLength
	}
	m, err := s.repo.AddMessage(ctx, Message{RoomID: room.ID, SenderID: p.UserID, Body: body, CreatedAt: now})
	if err != nil {
		return Message{}, fmt.Errorf("store message: %w", err)
	}
	if u, err := s.users.Get(ctx, p.UserID); err == nil {
		m.Sender = u.Username
	}
	return m, nil
}

// Complete marks an active request complete and closes its chat a day after
// completion. Completing twice keeps the first completion time.
func (s *Service) Complete(ctx context.Context, p auth.Principal, requestID string) (requests.Request, error) {
	if _, err := s.request(ctx, p, requestID); err != nil {
		return requests.Request{}, err
	}
	r, err := s.requests.Update(ctx, requestID, func(r *requests.Request) error {
		if r.Status != requests.StatusActive && r.Status != requests.StatusComplete {
			return ErrNotActive
		}
		r.Status = requests.StatusComplete
		return nil
	})
	if err != nil {
		return requests.Request{}, err
	}
	room, _, err := s.ensureRoom(ctx, r)
	if err != nil {
		return requests.Request{}, err
	}
	if err := s.repo.SetExpiry(ctx, room.ID, r.CompletedAt.Add(ExpiryAfterCompletion)); err != nil {
		return requests.Request{}, fmt.Errorf("set chat expiry: %w", err)
	}
	return r, nil
}
