package claims

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpinghands/helpinghands/internal/apperr"
	"github.com/helpinghands/helpinghands/internal/logging"
	"github.com/helpinghands/helpinghands/internal/notification"
	"github.com/helpinghands/helpinghands/internal/requests"
	"github.com/helpinghands/helpinghands/internal/storage"
)

type csrUsers map[string]string

func (u csrUsers) CSRUserID(_ context.Context, csrID string) (string, error) { return u[csrID], nil }

type fixture struct {
	svc    *Service
	notes  *notification.Service
	reqs   requests.Repository
	stored string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	reqs := requests.NewMemoryRepository()
	now := time.Now().UTC()
	ctx := context.Background()
	require.NoError(t, reqs.Create(ctx, requests.Request{
		ID: "REQ00000001", PINID: "PIN1", CVID: "CV1", Status: requests.StatusComplete,
		CommittedBy: "CSR1", CommittedAt: &now, CreatedAt: now, CompletedAt: &now,
	}))
	require.NoError(t, reqs.Create(ctx, requests.Request{
		ID: "REQ00000002", PINID: "PIN1", Status: requests.StatusComplete, CreatedAt: now.Add(-time.Hour),
	}))
	dir := t.TempDir()
	store, err := storage.NewLocalStore(dir)
	require.NoError(t, err)
	notes := notification.NewService(notification.NewMemoryRepository(), logging.Discard())
	return &fixture{
		svc:    NewService(NewMemoryRepository(), reqs, store, notes, csrUsers{"CSR1": "csr-user"}),
		notes:  notes,
		reqs:   reqs,
		stored: dir,
	}
}

func validReport() ReportInput {
	return ReportInput{Category: "transport", ExpenseDate: "2025-10-01", Amount: "12.5", PaymentMethod: "paynow", Description: "Taxi"}
}

func receipt() *Receipt {
	return &Receipt{Filename: "taxi.jpg", ContentType: "image/jpeg", Body: strings.NewReader("jpeg")}
}

func TestReportStoresReceiptAndNotifiesCSR(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.svc.Report(ctx, "CV1", "REQ00000001", validReport(), receipt())
	require.NoError(t, err)
	assert.Equal(t, "12.50", c.Amount)
	assert.Equal(t, StatusSubmitted, c.Status)
	assert.Equal(t, "receipts/"+c.ID+".jpg", c.ReceiptKey)
	assert.FileExists(t, f.stored+"/"+c.ReceiptKey)

	list, err := f.notes.List(ctx, "csr-user", 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, notification.TypeClaimSubmitted, list[0].Type)
}

func TestReportRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Report(ctx, "CV2", "REQ00000001", validReport(), receipt())
	assert.ErrorIs(t, err, ErrNotYourRequest)

	_, err = f.svc.Report(ctx, "CV1", "REQ00000001", validReport(), nil)
	assert.ErrorIs(t, err, ErrReceiptRequired)

	bad := validReport()
	bad.Amount = "-3"
	_, err = f.svc.Report(ctx, "CV1", "REQ00000001", bad, receipt())
	assert.ErrorIs(t, err, apperr.ErrInvalid)

	bad = validReport()
	bad.PaymentMethod = "bitcoin"
	_, err = f.svc.Report(ctx, "CV1", "REQ00000001", bad, receipt())
	assert.ErrorIs(t, err, apperr.ErrInvalid)
}

func TestNormaliseAmount(t *testing.T) {
	for in, want := range map[string]string{"0": "0.00", "007.5": "7.50", "12.34": "12.34", "100": "100.00"} {
		got, err := normaliseAmount(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	for _, in := range []string{"", "1.234", "abc", "1e3"} {
		_, err := normaliseAmount(in)
		assert.Error(t, err, in)
	}
}

func TestVerifyAndDispute(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c, err := f.svc.Report(ctx, "CV1", "REQ00000001", validReport(), receipt())
	require.NoError(t, err)

	_, err = f.svc.Verify(ctx, "PIN2", c.ID)
	assert.ErrorIs(t, err, ErrNotYourClaim)

	verified, err := f.svc.Verify(ctx, "PIN1", c.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusVerified, verified.Status)

	_, err = f.svc.Dispute(ctx, "PIN1", c.ID, "too_expensive", "")
	assert.ErrorIs(t, err, ErrInvalidReason)

	d, err := f.svc.Dispute(ctx, "PIN1", c.ID, "incorrect_amount", "was 10")
	require.NoError(t, err)
	assert.Equal(t, ReasonIncorrectAmount, d.Reason)

	grouped, err := f.svc.CompletedForPIN(ctx, "PIN1")
	require.NoError(t, err)
	require.Len(t, grouped, 2)
	assert.Equal(t, "REQ00000001", grouped[0].ID)
	require.Len(t, grouped[0].Claims, 1)
	assert.Equal(t, StatusDisputed, grouped[0].Claims[0].Status)
	assert.Len(t, grouped[0].Claims[0].Disputes, 1)
	assert.Empty(t, grouped[1].Claims)
}

func TestDecide(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c, err := f.svc.Report(ctx, "CV1", "REQ00000001", validReport(), receipt())
	require.NoError(t, err)

	_, err = f.svc.Decide(ctx, "CSR1", c.ID, "pay")
	assert.ErrorIs(t, err, ErrInvalidDecision)
	_, err = f.svc.Decide(ctx, "CSR9", c.ID, "reject")
	assert.ErrorIs(t, err, ErrNotYourRequest)

	got, err := f.svc.Decide(ctx, "CSR1", c.ID, "reimburse")
	require.NoError(t, err)
	assert.Equal(t, StatusReimbursed, got.Status)

	completed, err := f.svc.CompletedWithClaims(ctx)
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, "REQ00000001", completed[0].ID)
}

func TestCompletedWithClaimsSpansEveryCSR(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	later := time.Now().UTC().Add(time.Hour)
	require.NoError(t, f.reqs.Create(ctx, requests.Request{
		ID: "REQ00000003", PINID: "PIN2", CVID: "CV2", Status: requests.StatusComplete,
		CommittedBy: "CSR2", CommittedAt: &later, CreatedAt: later, CompletedAt: &later,
	}))
	_, err := f.svc.Report(ctx, "CV1", "REQ00000001", validReport(), receipt())
	require.NoError(t, err)
	_, err = f.svc.Report(ctx, "CV2", "REQ00000003", validReport(), receipt())
	require.NoError(t, err)

	completed, err := f.svc.CompletedWithClaims(ctx)
	require.NoError(t, err)
	require.Len(t, completed, 2, "requests without claims are left out")
	assert.Equal(t, "REQ00000003", completed[0].ID, "newest completion first")
	assert.Equal(t, "REQ00000001", completed[1].ID)
	assert.Len(t, completed[0].Claims, 1)
}
