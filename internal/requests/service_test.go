package requests

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpinghands/helpinghands/internal/apperr"
	"github.com/helpinghands/helpinghands/internal/ids"
)

type recordingFlagger struct {
	repo    Repository
	reasons map[string]string
}

func (f *recordingFlagger) AutoFlag(ctx context.Context, requestID, reason string) error {
	f.reasons[requestID] = reason
	_, err := f.repo.Update(ctx, requestID, func(r *Request) error {
		r.Status = StatusReview
		return nil
	})
	return err
}

type fixedCounts map[string]int

func (c fixedCounts) CountByRequest(context.Context, []string) (map[string]int, error) {
	return c, nil
}

func validInput() SubmitInput {
	return SubmitInput{
		ServiceType:     "Healthcare",
		AppointmentDate: "2025-11-03",
		AppointmentTime: "09:30",
		PickupLocation:  "Blk 123 Ang Mo Kio",
		ServiceLocation: "Tan Tock Seng Hospital",
		Description:     "Need a hand getting to my check-up.",
	}
}

func TestSubmitCleanRequestIsPending(t *testing.T) {
	repo := NewMemoryRepository()
	flagger := &recordingFlagger{repo: repo, reasons: map[string]string{}}
	svc := NewService(repo, flagger, nil)

	req, err := svc.Submit(context.Background(), "PIN00000001", validInput())
	require.NoError(t, err)
	assert.True(t, ids.HasPrefix(req.ID, ids.Request))
	assert.Equal(t, StatusPending, req.Status)
	assert.Equal(t, "2025-11-03", req.AppointmentDate.String())
	assert.Equal(t, "09:30", req.AppointmentTime)
	assert.Empty(t, flagger.reasons)
}

func TestSubmitFlaggedRequestGoesToReview(t *testing.T) {
	repo := NewMemoryRepository()
	flagger := &recordingFlagger{repo: repo, reasons: map[string]string{}}
	svc := NewService(repo, flagger, nil)

	in := validInput()
	in.Description = "My neighbour keeps trying to HARASS me"
	req, err := svc.Submit(context.Background(), "PIN00000001", in)
	require.NoError(t, err)
	assert.Equal(t, StatusReview, req.Status)
	assert.Equal(t, "abuse", flagger.reasons[req.ID])
}

func TestSubmitValidation(t *testing.T) {
	svc := NewService(NewMemoryRepository(), nil, nil)
	ctx := context.Background()

	cases := map[string]func(*SubmitInput){
		"category":    func(in *SubmitInput) { in.ServiceType = "Gardening" },
		"date":        func(in *SubmitInput) { in.AppointmentDate = "03/11/2025" },
		"time":        func(in *SubmitInput) { in.AppointmentTime = "9.30am" },
		"location":    func(in *SubmitInput) { in.PickupLocation = "  " },
		"description": func(in *SubmitInput) { in.Description = strings.Repeat("a", 701) },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := validInput()
			mutate(&in)
			_, err := svc.Submit(ctx, "PIN00000001", in)
			assert.ErrorIs(t, err, apperr.ErrInvalid)
		})
	}
}

func TestListForPINNewestFirstWithCounts(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	base := time.Date(2025, 10, 1, 8, 0, 0, 0, time.UTC)
	for i, id := range []string{"REQAAAAAAA1", "REQAAAAAAA2", "REQAAAAAAA3"} {
		require.NoError(t, repo.Create(ctx, Request{
			ID: id, PINID: "PIN1", Status: StatusPending, AppointmentDate: NewDay(base), AppointmentTime: "10:00",
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}
	require.NoError(t, repo.Create(ctx, Request{ID: "REQOTHER001", PINID: "PIN2", Status: StatusPending, CreatedAt: base}))

	svc.shortlist = fixedCounts{"REQAAAAAAA2": 2}
	list, err := svc.ListForPIN(ctx, "PIN1", "")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "REQAAAAAAA3", list[0].ID)
	assert.Equal(t, 2, list[1].ShortlistCount)

	_, err = svc.ListForPIN(ctx, "PIN1", "bogus")
	assert.ErrorIs(t, err, apperr.ErrInvalid)
}

func TestUpdateSettlesInvariants(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	now := time.Now().UTC()
	require.NoError(t, repo.Create(ctx, Request{ID: "REQ00000001", PINID: "PIN1", Status: StatusCommitted, CommittedBy: "CSR1", CommittedAt: &now, CreatedAt: now}))

	got, err := repo.Update(ctx, "REQ00000001", func(r *Request) error {
		r.Status = StatusPending
		return nil
	})
	require.NoError(t, err)
	assert.Empty(t, got.CommittedBy)
	assert.Nil(t, got.CommittedAt)

	got, err = repo.Update(ctx, "REQ00000001", func(r *Request) error {
		r.Status = StatusComplete
		return nil
	})
	require.NoError(t, err)
	require.NotNil(t, got.CompletedAt)
}

type txMarker struct{}

type recordingTx struct {
	commits, rollbacks int
}

func (r *recordingTx) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := fn(context.WithValue(ctx, txMarker{}, true)); err != nil {
		r.rollbacks++
		return err
	}
	r.commits++
	return nil
}

// txRepo counts creates made on the transaction's ctx.
type txRepo struct {
	Repository
	createdInTx int
}

func (r *txRepo) Create(ctx context.Context, req Request) error {
	if ctx.Value(txMarker{}) != nil {
		r.createdInTx++
	}
	return r.Repository.Create(ctx, req)
}

type failingFlagger struct{ sawTx bool }

func (f *failingFlagger) AutoFlag(ctx context.Context, _, _ string) error {
	f.sawTx = ctx.Value(txMarker{}) != nil
	return errors.New("flag store unavailable")
}

func TestSubmitStoresRequestAndFlagInOneTransaction(t *testing.T) {
	repo := &txRepo{Repository: NewMemoryRepository()}
	tx := &recordingTx{}
	flagger := &failingFlagger{}
	svc := NewService(repo, flagger, nil).WithTransactor(tx)

	in := validInput()
	in.Description = "I think about suicide sometimes"
	_, err := svc.Submit(context.Background(), "PIN00000001", in)
	require.Error(t, err)
	assert.Equal(t, 1, repo.createdInTx)
	assert.True(t, flagger.sawTx)
	assert.Equal(t, 1, tx.rollbacks)
	assert.Zero(t, tx.commits)

	_, err = svc.Submit(context.Background(), "PIN00000001", validInput())
	require.NoError(t, err)
	assert.Equal(t, 1, tx.commits)
}
