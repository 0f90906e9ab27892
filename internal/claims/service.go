package claims

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/helpinghands/helpinghands/internal/apperr"
	"github.com/helpinghands/helpinghands/internal/ids"
	"github.com/helpinghands/helpinghands/internal/notification"
	"github.com/helpinghands/helpinghands/internal/requests"
	"github.com/helpinghands/helpinghands/internal/storage"
)

var (
	ErrNotYourRequest  = apperr.Forbidden("Not your request.")
	ErrNotYourClaim    = apperr.Forbidden("Not your claim.")
	ErrReceiptRequired = apperr.Invalid("Receipt file is required.")
	ErrInvalidReason   = apperr.Invalid("Invalid dispute reason.")
	ErrInvalidDecision = apperr.Invalid("action must be reimburse or reject")
)

var amountPattern = regexp.MustCompile(`^\d{1,8}(\.\d{1,2})?$`)

const maxClaimDescription = 600

// CSRUsers resolves the login account of a CSR profile.
type CSRUsers interface {
	CSRUserID(ctx context.Context, csrID string) (string, error)
}

// ReportInput is the form a CV submits with a receipt.
type ReportInput struct {
	Category      string `json:"category" form:"category"`
	ExpenseDate   string `json:"expense_date" form:"expense_date"`
	Amount        string `json:"amount" form:"amount"`
	PaymentMethod string `json:"payment_method" form:"payment_method"`
	Description   string `json:"description" form:"description"`
}

// Receipt is an uploaded receipt file.
type Receipt struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// Service implements expense claims.
type Service struct {
	repo     Repository
	requests requests.Repository
	store    storage.ReceiptStore
	notifier notification.Notifier
	csrUsers CSRUsers
	now      func() time.Time
}

// NewService wires the claim service. notifier and csrUsers may be nil.
func NewService(repo Repository, reqs requests.Repository, store storage.ReceiptStore, notifier notification.Notifier, csrUsers CSRUsers) *Service {
	return &Service{repo: repo, requests: reqs, store: store, notifier: notifier, csrUsers: csrUsers, now: time.Now}
}

// Report files a claim for the CV assigned to requestID.
func (s *Service) Report(ctx context.Context, cvID, requestID string, in ReportInput, receipt *Receipt) (Claim, error) {
	req, err := s.requests.Get(ctx, requestID)
	if err != nil {
		return Claim{}, err
	}
	if cvID == "" || req.CVID != cvID {
		return Claim{}, ErrNotYourRequest
	}
	if receipt == nil || receipt.Body == nil {
		return Claim{}, ErrReceiptRequired
	}
	c, err := s.validate(in)
	if err != nil {
		return Claim{}, err
	}
	now := s.now().UTC()
	c.ID = ids.New(ids.Claim)
	c.RequestID, c.CVID = req.ID, cvID
	c.Status = StatusSubmitted
	c.CreatedAt, c.UpdatedAt = now, now
	c.ReceiptKey = storage.ReceiptKey(c.ID, receipt.Filename)

	if err := s.store.Save(ctx, c.ReceiptKey, receipt.ContentType, receipt.Body); err != nil {
		return Claim{}, fmt.Errorf("store receipt: %w", err)
	}
	if err := s.repo.Create(ctx, c); err != nil {
		_ = s.store.Delete(ctx, c.ReceiptKey)
		return Claim{}, err
	}
	s.notifyCSR(ctx, req, c)
	return c, nil
}

func (s *Service) validate(in ReportInput) (Claim, error) {
	var c Claim
	c.Category = Category(strings.TrimSpace(in.Category))
	if !oneOf(c.Category, categories) {
		return Claim{}, apperr.Invalid("invalid category")
	}
	day, err := requests.ParseDay(strings.TrimSpace(in.ExpenseDate))
	if err != nil {
		return Claim{}, apperr.Invalid("expense_date must be YYYY-MM-DD")
	}
	c.ExpenseDate = day
	amount, err := normaliseAmount(in.Amount)
	if err != nil {
		return Claim{}, err
	}
	c.Amount = amount
	c.PaymentMethod = PaymentMethod(strings.TrimSpace(in.PaymentMethod))
	if !oneOf(c.PaymentMethod, paymentMethods) {
		return Claim{}, apperr.Invalid("invalid payment_method")
	}
	c.Description = strings.TrimSpace(in.Description)
	if utf8.RuneCountInString(c.Description) > maxClaimDescription {
		return Claim{}, apperr.Invalid("description must be at most 600 characters")
	}
	return c, nil
}

// normaliseAmount checks a non-negative decimal with at most two places and
// renders it with exactly two.
func normaliseAmount(v string) (string, error) {
	v = strings.TrimSpace(v)
	if !amountPattern.MatchString(v) {
		return "", apperr.Invalid("amount must be a non-negative number with at most 2 decimal places")
	}
	whole, frac, _ := strings.Cut(v, ".")
	whole = strings.TrimLeft(whole, "0")
	if whole == "" {
		whole = "0"
	}
	for len(frac) < 2 {
		frac += "0"
	}
	return whole + "." + frac, nil
}

func (s *Service) notifyCSR(ctx context.Context, req requests.Request, c Claim) {
	if s.notifier == nil || s.csrUsers == nil || req.CommittedBy == "" {
		return
	}
	userID, err := s.csrUsers.CSRUserID(ctx, req.CommittedBy)
	if err != nil || userID == "" {
		return
	}
	_ = s.notifier.Send(ctx, notification.Notification{
		RecipientID: userID,
		Type:        notification.TypeClaimSubmitted,
		Message:     fmt.Sprintf("New claim %s submitted for request %s.", c.ID, req.ID),
		RequestID:   req.ID,
		CVID:        c.CVID,
		Meta:        map[string]any{"claim_id": c.ID, "amount": c.Amount, "category": string(c.Category)},
	})
}

func (s *Service) ownedByPIN(ctx context.Context, pinID, claimID string) (Claim, error) {
	c, err := s.repo.Get(ctx, claimID)
	if err != nil {
		return Claim{}, err
	}
	req, err := s.requests.Get(ctx, c.RequestID)
	if err != nil {
		return Claim{}, err
	}
	if pinID == "" || req.PINID != pinID {
		return Claim{}, ErrNotYourClaim
	}
	return c, nil
}

// Verify confirms a claim on behalf of the PIN who owns its request.
func (s *Service) Verify(ctx context.Context, pinID, claimID string) (Claim, error) {
	if _, err := s.ownedByPIN(ctx, pinID, claimID); err != nil {
		return Claim{}, err
	}
	return s.repo.SetStatus(ctx, claimID, StatusVerified, s.now().UTC())
}

// Dispute records the PIN's objection and marks the claim disputed.
func (s *Service) Dispute(ctx context.Context, pinID, claimID, reason, comment string) (Dispute, error) {
	r := DisputeReason(strings.TrimSpace(reason))
	if !oneOf(r, disputeReasons) {
		return Dispute{}, ErrInvalidReason
	}
	if _, err := s.ownedByPIN(ctx, pinID, claimID); err != nil {
		return Dispute{}, err
	}
	comment = strings.TrimSpace(comment)
	if utf8.RuneCountInString(comment) > maxClaimDescription {
		return Dispute{}, apperr.Invalid("comment must be at most 600 characters")
	}
	return s.repo.AddDispute(ctx, Dispute{
		ClaimID:   claimID,
		PINID:     pinID,
		Reason:    r,
		Comment:   comment,
		CreatedAt: s.now().UTC(),
	})
}

// Decide settles a claim for the CSR who committed to its request. action is
// "reimburse" or "reject".
func (s *Service) Decide(ctx context.Context, csrID, claimID, action string) (Claim, error) {
	var next Status
	switch strings.ToLower(strings.TrimSpace(action)) {
	case "reimburse":
		next = StatusReimbursed
	case "reject":
		next = StatusRejected
	default:
		return Claim{}, ErrInvalidDecision
	}
	c, err := s.repo.Get(ctx, claimID)
	if err != nil {
		return Claim{}, err
	}
	req, err := s.requests.Get(ctx, c.RequestID)
	if err != nil {
		return Claim{}, err
	}
	if csrID == "" || req.CommittedBy != csrID {
		return Claim{}, ErrNotYourRequest
	}
	return s.repo.SetStatus(ctx, claimID, next, s.now().UTC())
}

// ForRequest lists a request's claims with disputes, newest first.
func (s *Service) ForRequest(ctx context.Context, requestID string) ([]Detail, error) {
	if _, err := s.requests.Get(ctx, requestID); err != nil {
		return nil, err
	}
	grouped, err := s.details(ctx, []string{requestID})
	if err != nil {
		return nil, err
	}
	return grouped[requestID], nil
}

// CompletedForPIN lists the PIN's completed requests with their claims and disputes.
func (s *Service) CompletedForPIN(ctx context.Context, pinID string) ([]RequestClaims, error) {
	return s.completed(ctx, requests.Filter{PINID: pinID}, false)
}

// CompletedWithClaims lists every completed request that carries at least
// one claim, for the CSR completed page.
func (s *Service) CompletedWithClaims(ctx context.Context) ([]RequestClaims, error) {
	return s.completed(ctx, requests.Filter{}, true)
}

func (s *Service) completed(ctx context.Context, f requests.Filter, withClaimsOnly bool) ([]RequestClaims, error) {
	f.Statuses = []requests.Status{requests.StatusComplete}
	f.Order = requests.OrderCompleted
	list, err := s.requests.List(ctx, f)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return []RequestClaims{}, nil
	}
	reqIDs := make([]string, len(list))
	for i, r := range list {
		reqIDs[i] = r.ID
	}
	grouped, err := s.details(ctx, reqIDs)
	if err != nil {
		return nil, err
	}
	out := make([]RequestClaims, 0, len(list))
	for _, r := range list {
		claims := grouped[r.ID]
		if withClaimsOnly && len(claims) == 0 {
			continue
		}
		if claims == nil {
			claims = []Detail{}
		}
		out = append(out, RequestClaims{Request: r, Claims: claims})
	}
	return out, nil
}

func (s *Service) details(ctx context.Context, requestIDs []string) (map[string][]Detail, error) {
	list, err := s.repo.ListForRequests(ctx, requestIDs)
	if err != nil {
		return nil, err
	}
	claimIDs := make([]string, len(list))
	for i, c := range list {
		claimIDs[i] = c.ID
	}
	disputes := map[string][]Dispute{}
	if len(claimIDs) > 0 {
		all, err := s.repo.ListDisputes(ctx, claimIDs)
		if err != nil {
			return nil, err
		}
		for _, d := range all {
			disputes[d.ClaimID] = append(disputes[d.ClaimID], d)
		}
	}
	out := make(map[string][]Detail)
	for _, c := range list {
		ds := disputes[c.ID]
		if ds == nil {
			ds = []Dispute{}
		}
		out[c.RequestID] = append(out[c.RequestID], Detail{Claim: c, Disputes: ds})
	}
	return out, nil
}

func oneOf[T comparable](v T, allowed []T) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
