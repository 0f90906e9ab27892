package csr

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpinghands/helpinghands/internal/apperr"
	"github.com/helpinghands/helpinghands/internal/catalog"
	"github.com/helpinghands/helpinghands/internal/logging"
	"github.com/helpinghands/helpinghands/internal/notification"
	"github.com/helpinghands/helpinghands/internal/requests"
)

var today = time.Date(2025, 11, 3, 8, 0, 0, 0, time.UTC)

type fixture struct {
	svc   *Service
	reqs  requests.Repository
	notes *notification.Service
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	shortlist := NewMemoryShortlistRepository()
	reqRepo := requests.NewMemoryRepository()
	notes := notification.NewService(notification.NewMemoryRepository(), logging.Discard())
	svc := NewService(shortlist, requests.NewService(reqRepo, nil, shortlist), notes)
	svc.now = func() time.Time { return today }
	return fixture{svc: svc, reqs: reqRepo, notes: notes}
}

func (f fixture) seed(t *testing.T, id string, status requests.Status, day time.Time, committedBy string) {
	t.Helper()
	r := requests.Request{
		ID:              id,
		PINID:           "PIN00000001",
		ServiceType:     catalog.Category("Healthcare"),
		AppointmentDate: requests.NewDay(day),
		AppointmentTime: "09:00",
		PickupLocation:  "Blk 1",
		ServiceLocation: "Clinic",
		Status:          status,
		CommittedBy:     committedBy,
		CreatedAt:       day.Add(-72 * time.Hour),
	}
	require.NoError(t, f.reqs.Create(context.Background(), r))
}

func TestPoolSplitsComingSoon(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "REQ00000001", requests.StatusPending, today, "")
	f.seed(t, "REQ00000002", requests.StatusPending, today.AddDate(0, 0, 7), "")
	f.seed(t, "REQ00000003", requests.StatusPending, today.AddDate(0, 0, 8), "")
	f.seed(t, "REQ00000004", requests.StatusReview, today, "")

	pool, err := f.svc.Pool(context.Background())
	require.NoError(t, err)
	require.Len(t, pool.AllRequests, 3)
	assert.Equal(t, "REQ00000001", pool.AllRequests[0].ID)
	require.Len(t, pool.ComingSoon, 2)
	assert.Equal(t, "REQ00000002", pool.ComingSoon[1].ID)
}

func TestShortlistIsIdempotentAndCounted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, "REQ00000001", requests.StatusPending, today, "")

	first, err := f.svc.AddShortlist(ctx, "CSR00000001", "REQ00000001")
	require.NoError(t, err)
	again, err := f.svc.AddShortlist(ctx, "CSR00000001", "REQ00000001")
	require.NoError(t, err)
	assert.Equal(t, first.ShortlistID, again.ShortlistID)
	_, err = f.svc.AddShortlist(ctx, "CSR00000002", "REQ00000001")
	require.NoError(t, err)

	pool, err := f.svc.Pool(ctx)
	require.NoError(t, err)
	require.Len(t, pool.AllRequests, 1)
	assert.Equal(t, 2, pool.AllRequests[0].ShortlistCount)

	_, err = f.svc.AddShortlist(ctx, "CSR00000001", "REQ0000FFFF")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	removed, err := f.svc.RemoveShortlist(ctx, "CSR00000001", "REQ00000001")
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = f.svc.RemoveShortlist(ctx, "CSR00000001", "REQ00000001")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestShortlistHidesCommittedRequests(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, "REQ00000001", requests.StatusPending, today, "")
	f.seed(t, "REQ00000002", requests.StatusPending, today, "")

	_, err := f.svc.AddShortlist(ctx, "CSR00000001", "REQ00000001")
	require.NoError(t, err)
	_, err = f.svc.AddShortlist(ctx, "CSR00000001", "REQ00000002")
	require.NoError(t, err)
	_, err = f.svc.Commit(ctx, "CSR00000002", "REQ00000002")
	require.NoError(t, err)

	items, err := f.svc.Shortlist(ctx, "CSR00000001")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "REQ00000001", items[0].RequestID)
	assert.Equal(t, "2025-11-03", items[0].AppointmentDate)
}

func TestCommitOnlyFromPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, "REQ00000001", requests.StatusPending, today, "")

	r, err := f.svc.Commit(ctx, "CSR00000001", "REQ00000001")
	require.NoError(t, err)
	assert.Equal(t, requests.StatusCommitted, r.Status)
	assert.Equal(t, "CSR00000001", r.CommittedBy)
	require.NotNil(t, r.CommittedAt)

	_, err = f.svc.Commit(ctx, "CSR00000002", "REQ00000001")
	assert.ErrorIs(t, err, apperr.ErrConflict)
	assert.Equal(t, ErrNotPending, err)

	committed, err := f.svc.Committed(ctx, "CSR00000001")
	require.NoError(t, err)
	require.Len(t, committed, 1)
	other, err := f.svc.Committed(ctx, "CSR00000002")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestDashboardShowsTodayForAllAndEveryCommitOfCSR(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, "REQ00000001", requests.StatusActive, today, "CSR00000001")
	f.seed(t, "REQ00000002", requests.StatusActive, today.AddDate(0, 0, 1), "CSR00000001")
	f.seed(t, "REQ00000003", requests.StatusActive, today, "CSR00000002")
	f.seed(t, "REQ00000004", requests.StatusCommitted, today, "CSR00000001")
	f.seed(t, "REQ00000005", requests.StatusComplete, today.AddDate(0, 0, -2), "CSR00000001")
	f.seed(t, "REQ00000006", requests.StatusCommitted, today, "CSR00000002")
	f.seed(t, "REQ00000007", requests.StatusPending, today, "")
	require.NoError(t, f.notes.Send(ctx, notification.Notification{RecipientID: "user-csr", Type: notification.TypeOfferSent}))

	d, err := f.svc.Dashboard(ctx, "CSR00000001", "user-csr")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"REQ00000001", "REQ00000003"}, summaryIDs(d.TodayActive),
		"today's active requests are shown whoever committed them")
	assert.ElementsMatch(t, []string{"REQ00000001", "REQ00000002", "REQ00000004", "REQ00000005"}, summaryIDs(d.Committed),
		"every request this CSR committed to, in any status")
	assert.Len(t, d.Notifications, 1)

	committed, err := f.svc.Committed(ctx, "CSR00000001")
	require.NoError(t, err)
	assert.Equal(t, []string{"REQ00000004"}, summaryIDs(committed))
}

func TestDashboardTodayIsTheUTCDate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	singapore := time.FixedZone("SGT", 8*60*60)
	f.svc.now = func() time.Time { return time.Date(2025, 11, 4, 1, 0, 0, 0, singapore) }
	f.seed(t, "REQ00000001", requests.StatusActive, today, "CSR00000001")
	f.seed(t, "REQ00000002", requests.StatusActive, today.AddDate(0, 0, 1), "CSR00000001")

	d, err := f.svc.Dashboard(ctx, "CSR00000001", "user-csr")
	require.NoError(t, err)
	assert.Equal(t, []string{"REQ00000001"}, summaryIDs(d.TodayActive))
}

func summaryIDs(list []requests.Summary) []string {
	out := make([]string, len(list))
	for i, r := range list {
		out[i] = r.ID
	}
	return out
}
