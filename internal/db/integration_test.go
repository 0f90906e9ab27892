//go:build integration

package db_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/helpinghands/helpinghands/internal/accounts"
	"github.com/helpinghands/helpinghands/internal/catalog"
	"github.com/helpinghands/helpinghands/internal/chat"
	"github.com/helpinghands/helpinghands/internal/db"
	"github.com/helpinghands/helpinghands/internal/flags"
	"github.com/helpinghands/helpinghands/internal/infra"
	"github.com/helpinghands/helpinghands/internal/logging"
	"github.com/helpinghands/helpinghands/internal/matching"
	"github.com/helpinghands/helpinghands/internal/notification"
	"github.com/helpinghands/helpinghands/internal/profiles"
	"github.com/helpinghands/helpinghands/internal/requests"
)

func startPostgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("helpinghands_test"),
		tcpostgres.WithUsername("helpinghands"),
		tcpostgres.WithPassword("helpinghands"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return url
}

func TestMigrationsAndRepositories(t *testing.T) {
	url := startPostgres(t)
	ctx := context.Background()

	changed, err := db.MigrateUp(url)
	require.NoError(t, err)
	assert.True(t, changed)
	changed, err = db.MigrateUp(url)
	require.NoError(t, err)
	assert.False(t, changed)

	pool, err := infra.NewPostgresPool(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	users := accounts.NewPostgresRepository(pool)
	profs := profiles.NewPostgresRepository(pool)
	reqs := requests.NewPostgresRepository(pool)
	queues := matching.NewPostgresRepository(pool)
	rooms := chat.NewPostgresRepository(pool)

	now := time.Now().UTC().Truncate(time.Second)
	pinUser := accounts.User{ID: uuid.NewString(), Username: "pin1", PasswordHash: []byte("hash"), Role: accounts.RolePIN, CreatedAt: now}
	require.NoError(t, users.Create(ctx, pinUser))
	cvUser := accounts.User{ID: uuid.NewString(), Username: "cv1", PasswordHash: []byte("hash"), Role: accounts.RoleCV, CreatedAt: now}
	require.NoError(t, users.Create(ctx, cvUser))
	assert.ErrorIs(t, users.Create(ctx, accounts.User{ID: uuid.NewString(), Username: "pin1", PasswordHash: []byte("hash"), Role: accounts.RolePIN, CreatedAt: now}), accounts.ErrUsernameTaken)

	require.NoError(t, profs.CreateCompany(ctx, profiles.Company{ID: "CMP00000001", Name: "Acme", Joined: now}))
	dob := time.Date(1950, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, profs.CreatePIN(ctx, profiles.PIN{
		Base:              profiles.Base{ID: "PIN00000001", UserID: pinUser.ID, Name: "Tan Ah Kow", DOB: dob, Phone: "91234567", Address: "Blk 1", CreatedAt: now, UpdatedAt: now},
		PreferredLanguage: catalog.English,
	}))
	require.NoError(t, profs.CreateCV(ctx, profiles.CV{
		Base:               profiles.Base{ID: "CV00000001", UserID: cvUser.ID, Name: "Volunteer", DOB: dob.AddDate(40, 0, 0), Phone: "81234567", Address: "Blk 2", CreatedAt: now, UpdatedAt: now},
		Gender:             catalog.Female,
		MainLanguage:       catalog.English,
		CategoryPreference: catalog.Healthcare,
		CompanyID:          "CMP00000001",
	}))

	req := requests.Request{
		ID:              "REQ00000001",
		PINID:           "PIN00000001",
		ServiceType:     catalog.Healthcare,
		AppointmentDate: requests.NewDay(now.AddDate(0, 0, 3)),
		AppointmentTime: "09:30",
		PickupLocation:  "Blk 1",
		ServiceLocation: "Clinic",
		Status:          requests.StatusCommitted,
		CreatedAt:       now,
	}
	require.NoError(t, reqs.Create(ctx, req))
	got, err := reqs.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, "09:30", got.AppointmentTime)
	assert.Equal(t, req.AppointmentDate.String(), got.AppointmentDate.String())

	require.NoError(t, queues.Upsert(ctx, matching.Queue{RequestID: req.ID, CVs: []string{"CV00000001"}, Status: matching.StatusPending}))
	q, err := queues.Update(ctx, req.ID, func(q *matching.Queue) error {
		q.Status = matching.StatusActive
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, matching.StatusActive, q.Status)
	assert.Equal(t, []string{"CV00000001"}, q.CVs)

	room, created, err := rooms.GetOrCreate(ctx, chat.Room{ID: "ROOM0000001", RequestID: req.ID, OpensAt: req.AppointmentDate.Time, CreatedAt: now})
	require.NoError(t, err)
	assert.True(t, created)
	again, created, err := rooms.GetOrCreate(ctx, chat.Room{ID: "ROOM0000002", RequestID: req.ID, OpensAt: req.AppointmentDate.Time, CreatedAt: now})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, room.ID, again.ID)

	conn, err := db.Open(url)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, db.Ping(ctx, conn))
	require.NoError(t, db.Flush(ctx, conn))
	_, err = reqs.Get(ctx, req.ID)
	assert.ErrorIs(t, err, requests.ErrNotFound)
}

type brokenFlagger struct{}

func (brokenFlagger) AutoFlag(context.Context, string, string) error {
	return errors.New("flag store unavailable")
}

func TestServicesCommitOnOneConnection(t *testing.T) {
	url := startPostgres(t)
	ctx := context.Background()
	_, err := db.MigrateUp(url)
	require.NoError(t, err)

	pool, err := infra.NewPostgresPool(ctx, url+"&pool_max_conns=1")
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	tx := infra.NewTransactor(pool)

	users := accounts.NewPostgresRepository(pool)
	profs := profiles.NewPostgresRepository(pool)
	reqs := requests.NewPostgresRepository(pool)
	profileSvc := profiles.NewService(profs, accounts.NewService(users))

	now := time.Now().UTC().Truncate(time.Second)
	dob := time.Date(1950, 1, 1, 0, 0, 0, 0, time.UTC)
	pinUser := accounts.User{ID: uuid.NewString(), Username: "pin1", PasswordHash: []byte("hash"), Role: accounts.RolePIN, CreatedAt: now}
	require.NoError(t, users.Create(ctx, pinUser))
	require.NoError(t, profs.CreatePIN(ctx, profiles.PIN{
		Base:              profiles.Base{ID: "PIN00000001", UserID: pinUser.ID, Name: "Tan Ah Kow", DOB: dob, Phone: "91234567", Address: "Blk 1", CreatedAt: now, UpdatedAt: now},
		PreferredLanguage: catalog.English,
	}))
	cvUser := accounts.User{ID: uuid.NewString(), Username: "cv1", PasswordHash: []byte("hash"), Role: accounts.RoleCV, CreatedAt: now}
	require.NoError(t, users.Create(ctx, cvUser))
	require.NoError(t, profs.CreateCompany(ctx, profiles.Company{ID: "CMP00000001", Name: "Acme", Joined: now}))
	require.NoError(t, profs.CreateCV(ctx, profiles.CV{
		Base:               profiles.Base{ID: "CV00000001", UserID: cvUser.ID, Name: "Volunteer", DOB: dob.AddDate(40, 0, 0), Phone: "81234567", Address: "Blk 2", CreatedAt: now, UpdatedAt: now},
		Gender:             catalog.Female,
		MainLanguage:       catalog.English,
		CategoryPreference: catalog.Healthcare,
		CompanyID:          "CMP00000001",
	}))

	in := requests.SubmitInput{
		ServiceType:     string(catalog.Healthcare),
		AppointmentDate: now.AddDate(0, 0, 3).Format("2006-01-02"),
		AppointmentTime: "09:30",
		PickupLocation:  "Blk 1",
		ServiceLocation: "Clinic",
		Description:     "A neighbour keeps harassing me at the void deck",
	}

	flagSvc := flags.NewService(flags.NewPostgresRepository(pool), reqs, profileSvc).WithTransactor(tx)
	flagged, err := requests.NewService(reqs, flagSvc, nil).WithTransactor(tx).Submit(ctx, "PIN00000001", in)
	require.NoError(t, err)
	assert.Equal(t, requests.StatusReview, flagged.Status)

	_, err = requests.NewService(reqs, brokenFlagger{}, nil).WithTransactor(tx).Submit(ctx, "PIN00000001", in)
	require.Error(t, err)
	stored, err := reqs.List(ctx, requests.Filter{PINID: "PIN00000001"})
	require.NoError(t, err)
	require.Len(t, stored, 1, "a request whose flag failed is rolled back")
	assert.Equal(t, flagged.ID, stored[0].ID)

	req := requests.Request{
		ID:              "REQ00000009",
		PINID:           "PIN00000001",
		ServiceType:     catalog.Healthcare,
		AppointmentDate: requests.NewDay(now.AddDate(0, 0, 3)),
		AppointmentTime: "09:30",
		PickupLocation:  "Blk 1",
		ServiceLocation: "Clinic",
		Status:          requests.StatusCommitted,
		CreatedAt:       now,
	}
	require.NoError(t, reqs.Create(ctx, req))
	notes := notification.NewService(notification.NewPostgresRepository(pool), logging.Discard())
	match := matching.NewService(matching.NewPostgresRepository(pool), reqs, profileSvc, notes, logging.Discard()).WithTransactor(tx)
	_, err = match.SetPool(ctx, req.ID, []string{"CV00000001"})
	require.NoError(t, err)
	_, err = match.SendOffers(ctx, req.ID, time.Minute)
	require.NoError(t, err)

	decideCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	got, err := match.Decide(decideCtx, req.ID, "CV00000001", true)
	require.NoError(t, err, "the queue and request rows share the single pooled connection")
	assert.Equal(t, requests.StatusActive, got.Status)
	assert.Equal(t, "CV00000001", got.CVID)
}
