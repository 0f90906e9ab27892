package matching

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/helpinghands/helpinghands/internal/apperr"
	"github.com/helpinghands/helpinghands/internal/infra"
	"github.com/helpinghands/helpinghands/internal/notification"
	"github.com/helpinghands/helpinghands/internal/profiles"
	"github.com/helpinghands/helpinghands/internal/requests"
)

var (
	ErrPoolSize      = apperr.Invalid("You must pick 1 to 3 CVs.")
	ErrUnknownCV     = apperr.Invalid("Some CVs not found.")
	ErrDecisionState = apperr.Invalid("Invalid CV decision state.")
	ErrNotCommitted  = apperr.Conflict("Only COMMITTED requests can be matched.")
	ErrPoolClosed    = apperr.Conflict("Assignment pool is closed; set a new pool first.")
)

// errUnchanged aborts a queue update that has nothing to write.
var errUnchanged = errors.New("queue unchanged")

// Directory looks up the profiles matching needs.
type Directory interface {
	GetPIN(ctx context.Context, id string) (profiles.PIN, error)
	ListCVs(ctx context.Context) ([]profiles.CV, error)
	GetCVs(ctx context.Context, ids []string) ([]profiles.CV, error)
	CSRUserID(ctx context.Context, csrID string) (string, error)
}

// Service suggests CVs for committed requests and runs their offer queues.
// Queue rows are always locked before the request row, and both writes
// share the transaction opened by tx.
type Service struct {
	queues    Repository
	requests  requests.Repository
	directory Directory
	notifier  notification.Notifier
	tx        infra.Transactor
	logger    *slog.Logger
	now       func() time.Time
}

// NewService wires the matching service.
func NewService(queues Repository, reqs requests.Repository, directory Directory, notifier notification.Notifier, logger *slog.Logger) *Service {
	return &Service{
		queues:    queues,
		requests:  reqs,
		directory: directory,
		notifier:  notifier,
		tx:        infra.NoTx{},
		logger:    logger,
		now:       time.Now,
	}
}

// WithTransactor runs each queue decision and its request update in one
// transaction.
func (s *Service) WithTransactor(tx infra.Transactor) *Service {
	s.tx = tx
	return s
}

// Suggest ranks every CV against the request and returns the best SuggestLimit.
func (s *Service) Suggest(ctx context.Context, requestID string) ([]Suggestion, error) {
	req, err := s.requests.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	pin, err := s.directory.GetPIN(ctx, req.PINID)
	if err != nil {
		return nil, fmt.Errorf("load pin %s: %w", req.PINID, err)
	}
	cvs, err := s.directory.ListCVs(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Suggestion, 0, len(cvs))
	for _, cv := range cvs {
		if score, reason := Score(req, pin, cv); score > 0 {
			out = append(out, Suggestion{CVID: cv.ID, Score: score, Reason: reason})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > SuggestLimit {
		out = out[:SuggestLimit]
	}
	return out, nil
}

// Score rates how well cv fits the request and its PIN.
func Score(req requests.Request, pin profiles.PIN, cv profiles.CV) (float64, map[string]bool) {
	score := 1.0
	reason := map[string]bool{}
	if cv.CategoryPreference == req.ServiceType {
		score += 3
		reason["category"] = true
	}
	if pin.PreferredGender != "" && cv.Gender == pin.PreferredGender {
		score += 2
		reason["gender"] = true
	}
	switch {
	case cv.MainLanguage == pin.PreferredLanguage:
		score += 2
		reason["language_main"] = true
	case cv.SecondLanguage != "" && cv.SecondLanguage == pin.PreferredLanguage:
		score++
		reason["language_second"] = true
	}
	return score, reason
}

// SetPool creates or resets the request's queue with cvIDs in the given order.
func (s *Service) SetPool(ctx context.Context, requestID string, cvIDs []string) (Pool, error) {
	if len(cvIDs) < 1 || len(cvIDs) > MaxCandidates {
		return Pool{}, ErrPoolSize
	}
	req, err := s.requests.Get(ctx, requestID)
	if err != nil {
		return Pool{}, err
	}
	if req.Status != requests.StatusCommitted {
		return Pool{}, ErrNotCommitted
	}
	cvs, err := s.directory.GetCVs(ctx, cvIDs)
	if errors.Is(err, apperr.ErrNotFound) {
		return Pool{}, ErrUnknownCV
	}
	if err != nil {
		return Pool{}, err
	}
	q := Queue{
		RequestID:    requestID,
		CVs:          append([]string(nil), cvIDs...),
		CurrentIndex: 1,
		Status:       StatusPending,
		UpdatedAt:    s.now().UTC(),
	}
	if err := s.queues.Upsert(ctx, q); err != nil {
		return Pool{}, fmt.Errorf("save queue for %s: %w", requestID, err)
	}
	return newPool(q, cvs), nil
}

// GetPool returns the request's queue with its candidates, or nil when the
// CSR has not picked any yet. An expired offer is advanced first.
func (s *Service) GetPool(ctx context.Context, requestID string) (*Pool, error) {
	if _, err := s.requests.Get(ctx, requestID); err != nil {
		return nil, err
	}
	if _, err := s.expire(ctx, requestID, s.now().UTC()); err != nil && !errors.Is(err, ErrNoQueue) {
		return nil, err
	}
	q, err := s.queues.Get(ctx, requestID)
	if errors.Is(err, ErrNoQueue) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	cvs, err := s.directory.GetCVs(ctx, q.CVs)
	if err != nil {
		return nil, err
	}
	pool := newPool(q, cvs)
	return &pool, nil
}

func newPool(q Queue, cvs []profiles.CV) Pool {
	out := Pool{Queue: q, Candidates: make([]Candidate, 0, len(cvs))}
	for i, cv := range cvs {
		out.Candidates = append(out.Candidates, Candidate{
			Rank:               i + 1,
			CVID:               cv.ID,
			Name:               cv.Name,
			Gender:             cv.Gender,
			MainLanguage:       cv.MainLanguage,
			SecondLanguage:     cv.SecondLanguage,
			CategoryPreference: cv.CategoryPreference,
			CompanyID:          cv.CompanyID,
		})
	}
	return out
}

// SendOffers offers the request to the current candidate for timeout.
func (s *Service) SendOffers(ctx context.Context, requestID string, timeout time.Duration) (Queue, error) {
	if timeout <= 0 {
		timeout = DefaultOfferTimeout
	}
	req, err := s.requests.Get(ctx, requestID)
	if err != nil {
		return Queue{}, err
	}
	if req.Status != requests.StatusCommitted {
		return Queue{}, ErrNotCommitted
	}
	q, err := s.queues.Update(ctx, requestID, func(q *Queue) error {
		if q.Status != StatusPending && q.Status != StatusActive {
			return ErrPoolClosed
		}
		q.offer(q.CurrentIndex, s.now().UTC(), timeout)
		return nil
	})
	if err != nil {
		return Queue{}, err
	}
	s.send(ctx, offerNotice(notification.TypeOfferSent, s.recipient(ctx, req), req.ID, q,
		fmt.Sprintf("Offer sent to CV #%d for %s", q.CurrentIndex, req.ID)))
	return q, nil
}

// Decide records the current candidate's answer. Accepting matches the
// request; declining moves the offer down the queue.
func (s *Service) Decide(ctx context.Context, requestID, cvID string, accepted bool) (requests.Request, error) {
	req, err := s.requests.Get(ctx, requestID)
	if err != nil {
		return requests.Request{}, err
	}
	recipient := s.recipient(ctx, req)
	name := s.cvName(ctx, cvID)

	var events []notification.Notification
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		_, err := s.queues.Update(ctx, requestID, func(q *Queue) error {
			return s.decide(ctx, q, &req, cvID, name, recipient, accepted, &events)
		})
		return err
	})
	if errors.Is(err, ErrNoQueue) {
		return requests.Request{}, ErrDecisionState
	}
	if err != nil {
		return requests.Request{}, err
	}
	s.send(ctx, events...)
	return req, nil
}

// decide applies one answer to a locked queue.
func (s *Service) decide(ctx context.Context, q *Queue, req *requests.Request, cvID, name, recipient string, accepted bool, events *[]notification.Notification) error {
	requestID := req.ID
	if q.Status != StatusActive || q.Current() != cvID {
		return ErrDecisionState
	}
	*events = (*events)[:0]
	if accepted {
		updated, err := s.requests.Update(ctx, requestID, func(r *requests.Request) error {
			r.CVID = cvID
			r.Status = requests.StatusActive
			return nil
		})
		if err != nil {
			return err
		}
		*req = updated
		q.Status = StatusFilled
		*events = append(*events, notification.Notification{
			RecipientID: recipient,
			Type:        notification.TypeMatchAccepted,
			Message:     fmt.Sprintf("%s accepted %s.", name, requestID),
			RequestID:   requestID,
			CVID:        cvID,
		})
		return nil
	}
	*events = append(*events, notification.Notification{
		RecipientID: recipient,
		Type:        notification.TypeOfferDeclined,
		Message:     fmt.Sprintf("%s declined %s. Advancing.", name, requestID),
		RequestID:   requestID,
		CVID:        cvID,
	})
	next, updated, err := s.advance(ctx, q, *req, recipient)
	if err != nil {
		return err
	}
	*req = updated
	*events = append(*events, next)
	return nil
}

// advance moves the offer to the next candidate, or exhausts the queue and
// returns the request to its CSR's committed list.
func (s *Service) advance(ctx context.Context, q *Queue, req requests.Request, recipient string) (notification.Notification, requests.Request, error) {
	now := s.now().UTC()
	if next := q.at(q.CurrentIndex + 1); next != "" {
		q.offer(q.CurrentIndex+1, now, DefaultOfferTimeout)
		n := offerNotice(notification.TypeQueueAdvanced, recipient, req.ID, *q,
			fmt.Sprintf("Offer moved to CV #%d for %s.", q.CurrentIndex, req.ID))
		return n, req, nil
	}
	q.Status = StatusExhausted
	updated, err := s.requests.Update(ctx, req.ID, func(r *requests.Request) error {
		r.Status = requests.StatusCommitted
		r.CVID = ""
		return nil
	})
	if err != nil {
		return notification.Notification{}, req, err
	}
	return notification.Notification{
		RecipientID: recipient,
		Type:        notification.TypeNoMatchFound,
		Message:     fmt.Sprintf("No match found from queue for %s.", req.ID),
		RequestID:   req.ID,
	}, updated, nil
}

// SweepDormant advances every queue whose offer expired before now and
// returns how many were advanced.
func (s *Service) SweepDormant(ctx context.Context, now time.Time) (int, error) {
	expired, err := s.queues.ListExpired(ctx, now)
	if err != nil {
		return 0, err
	}
	advanced := 0
	for _, requestID := range expired {
		ok, err := s.expire(ctx, requestID, now)
		if err != nil {
			return advanced, fmt.Errorf("advance queue for %s: %w", requestID, err)
		}
		if ok {
			advanced++
		}
	}
	return advanced, nil
}

// expire advances the request's queue if its offer ran out before now.
func (s *Service) expire(ctx context.Context, requestID string, now time.Time) (bool, error) {
	req, err := s.requests.Get(ctx, requestID)
	if err != nil {
		return false, err
	}
	recipient := s.recipient(ctx, req)

	var events []notification.Notification
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		_, err := s.queues.Update(ctx, requestID, func(q *Queue) error {
			if !q.Expired(now) {
				return errUnchanged
			}
			lapsed := q.Current()
			next, _, err := s.advance(ctx, q, req, recipient)
			if err != nil {
				return err
			}
			events = []notification.Notification{next, {
				RecipientID: recipient,
				Type:        notification.TypeOfferExpired,
				Message:     fmt.Sprintf("No response, auto-advanced for %s.", requestID),
				RequestID:   requestID,
				CVID:        lapsed,
			}}
			return nil
		})
		return err
	})
	if errors.Is(err, errUnchanged) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	s.send(ctx, events...)
	return true, nil
}

func offerNotice(t notification.Type, recipient, requestID string, q Queue, msg string) notification.Notification {
	n := notification.Notification{
		RecipientID: recipient,
		Type:        t,
		Message:     msg,
		RequestID:   requestID,
		CVID:        q.Current(),
		Meta:        map[string]any{"rank": q.CurrentIndex},
	}
	if q.Deadline != nil {
		n.Meta["expires_at"] = q.Deadline.Format(time.RFC3339)
	}
	return n
}

// recipient resolves the login account of the CSR that committed req.
func (s *Service) recipient(ctx context.Context, req requests.Request) string {
	if req.CommittedBy == "" {
		return ""
	}
	userID, err := s.directory.CSRUserID(ctx, req.CommittedBy)
	if err != nil {
		s.logger.Warn("resolve csr user", slog.String("csr_id", req.CommittedBy), slog.Any("error", err))
		return ""
	}
	return userID
}

func (s *Service) cvName(ctx context.Context, cvID string) string {
	cvs, err := s.directory.GetCVs(ctx, []string{cvID})
	if err != nil || len(cvs) == 0 {
		return cvID
	}
	return cvs[0].Name
}

func (s *Service) send(ctx context.Context, events ...notification.Notification) {
	now := s.now().UTC()
	for _, n := range events {
		n.CreatedAt = now
		if err := s.notifier.Send(ctx, n); err != nil {
			s.logger.Error("send notification", slog.String("type", string(n.Type)), slog.Any("error", err))
		}
	}
}
