package seed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpinghands/helpinghands/internal/accounts"
	"github.com/helpinghands/helpinghands/internal/chat"
	"github.com/helpinghands/helpinghands/internal/flags"
	"github.com/helpinghands/helpinghands/internal/logging"
	"github.com/helpinghands/helpinghands/internal/otp"
	"github.com/helpinghands/helpinghands/internal/profiles"
	"github.com/helpinghands/helpinghands/internal/requests"
)

type fixture struct {
	seeder   *Seeder
	users    *accounts.Service
	profiles *profiles.Service
	requests requests.Repository
	flags    flags.Repository
	chats    chat.Repository
	now      time.Time
}

func newFixture() fixture {
	users := accounts.NewServiceWithCost(accounts.NewMemoryRepository(), 4)
	profs := profiles.NewService(profiles.NewMemoryRepository(), users)
	reqs := requests.NewMemoryRepository()
	fl := flags.NewMemoryRepository()
	chats := chat.NewMemoryRepository()
	s := New(profs, reqs, fl, chats, otp.NewMemoryRepository(), logging.Discard())
	now := time.Date(2025, 11, 3, 15, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	return fixture{seeder: s, users: users, profiles: profs, requests: reqs, flags: fl, chats: chats, now: now}
}

func smallOptions() Options {
	return Options{Companies: 2, PINs: 4, CVs: 3, CSRs: 2, Requests: 6, Seed: 42}
}

func TestRunCreatesDataSet(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	sum, err := f.seeder.Run(ctx, smallOptions())
	require.NoError(t, err)

	assert.Equal(t, 2, sum.Companies)
	assert.Equal(t, 4, sum.PINs)
	assert.Equal(t, 3, sum.CVs)
	assert.Equal(t, 2, sum.CSRs)
	assert.True(t, sum.PA)
	assert.Equal(t, 6, sum.Completed)
	assert.Equal(t, 4, sum.Pending)
	assert.Equal(t, 4, sum.Active)
	assert.Equal(t, rejectedCount, sum.Rejected)
	assert.Equal(t, 10, sum.Chats)
	assert.Equal(t, flagCount, sum.Flags)
	assert.Equal(t, 4, sum.OTPs)

	counts, err := f.requests.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, counts[requests.StatusComplete])
	assert.Equal(t, 4, counts[requests.StatusPending])
	assert.Equal(t, 4, counts[requests.StatusActive])
	assert.Equal(t, rejectedCount, counts[requests.StatusRejected])

	open, resolved, err := f.flags.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, flagCount, open)
	assert.Zero(t, resolved)

	n, err := f.profiles.Count(ctx, profiles.KindPA)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRunRequestShapes(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.seeder.Run(ctx, smallOptions())
	require.NoError(t, err)

	today := requests.NewDay(f.now).Time

	completed, err := f.requests.List(ctx, requests.Filter{Statuses: []requests.Status{requests.StatusComplete}})
	require.NoError(t, err)
	require.Len(t, completed, 6)
	var ids []string
	for _, r := range completed {
		ids = append(ids, r.ID)
		assert.NotEmpty(t, r.CVID)
		assert.NotEmpty(t, r.CommittedBy)
		require.NotNil(t, r.CompletedAt)
		assert.Equal(t, r.Appointment().Add(2*time.Hour), *r.CompletedAt)
		assert.True(t, r.AppointmentDate.Before(today.AddDate(0, 0, -6)))
	}
	rooms, err := f.chats.ListForRequests(ctx, ids)
	require.NoError(t, err)
	require.Len(t, rooms, 6)
	for _, room := range rooms {
		assert.False(t, room.IsOpen(f.now), "completed chats are closed")
		msgs, err := f.chats.Messages(ctx, room.ID)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, len(msgs), 4)
		assert.Zero(t, len(msgs)%2)
	}

	pending, err := f.requests.List(ctx, requests.Filter{Statuses: []requests.Status{requests.StatusPending}})
	require.NoError(t, err)
	for _, r := range pending {
		assert.Empty(t, r.CVID)
		assert.Empty(t, r.CommittedBy)
		assert.Nil(t, r.CommittedAt)
		assert.True(t, r.AppointmentDate.After(today))
	}
}

func TestRunSeedsLoginAccounts(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.seeder.Run(ctx, smallOptions())
	require.NoError(t, err)

	u, err := f.users.Authenticate(ctx, "pin1", DefaultPassword)
	require.NoError(t, err)
	assert.Equal(t, accounts.RolePIN, u.Role)

	admin, err := f.users.Authenticate(ctx, AdminUsername, AdminPassword)
	require.NoError(t, err)
	assert.Equal(t, accounts.RoleAdmin, admin.Role)
}

func TestRunSkipPA(t *testing.T) {
	f := newFixture()
	opts := smallOptions()
	opts.SkipPA = true

	sum, err := f.seeder.Run(context.Background(), opts)
	require.NoError(t, err)
	assert.False(t, sum.PA)
}

func TestRunRejectsEmptyOptions(t *testing.T) {
	f := newFixture()
	_, err := f.seeder.Run(context.Background(), Options{})
	require.Error(t, err)
}

func TestRunFailsOnDuplicateUsers(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	opts := smallOptions()
	opts.SkipPA = true
	_, err := f.seeder.Run(ctx, opts)
	require.NoError(t, err)

	_, err = f.seeder.Run(ctx, opts)
	require.Error(t, err)
}

func TestFakerIsReproducibleAndLocal(t *testing.T) {
	now := time.Date(2025, 11, 3, 15, 0, 0, 0, time.UTC)
	a, b := newFaker(42), newFaker(42)
	assert.Equal(t, a.name(), b.name())
	assert.Equal(t, a.company(0), b.company(0))

	f := newFaker(7)
	for i := 0; i < 50; i++ {
		phone := f.phone()
		assert.Regexp(t, `^[89][0-9]{7}$`, phone)
		assert.Regexp(t, `^Blk [0-9]{3} .+ #[0-9]{2}-[0-9]{2} Singapore [0-9]{6}$`, f.address())

		dob := f.dob(now, 60, 90)
		assert.False(t, dob.After(now.AddDate(-60, 0, 0)))
		assert.False(t, dob.Before(now.AddDate(-90, 0, -1)))

		hour, minute := f.clock()
		assert.True(t, hour >= 8 && hour <= 17)
		assert.Contains(t, []int{0, 15, 30, 45}, minute)
		assert.True(t, f.intn(3) < 3)
	}
	assert.NotEqual(t, f.company(0), f.company(1))
}
