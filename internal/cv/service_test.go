package cv

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpinghands/helpinghands/internal/requests"
)

func TestListRequests(t *testing.T) {
	repo := requests.NewMemoryRepository()
	ctx := context.Background()
	day := time.Date(2025, 11, 3, 0, 0, 0, 0, time.UTC)
	done := day.Add(30 * time.Hour)
	for i, r := range []requests.Request{
		{ID: "REQ00000001", CVID: "CV00000001", Status: requests.StatusActive, AppointmentDate: requests.NewDay(day.AddDate(0, 0, 2))},
		{ID: "REQ00000002", CVID: "CV00000001", Status: requests.StatusActive, AppointmentDate: requests.NewDay(day)},
		{ID: "REQ00000003", CVID: "CV00000001", Status: requests.StatusComplete, AppointmentDate: requests.NewDay(day), CompletedAt: &done},
		{ID: "REQ00000004", CVID: "CV00000002", Status: requests.StatusActive, AppointmentDate: requests.NewDay(day)},
	} {
		r.PINID = "PIN00000001"
		r.ServiceType = "Healthcare"
		r.AppointmentTime = "09:00"
		r.CreatedAt = day.Add(-time.Duration(i) * time.Hour)
		require.NoError(t, repo.Create(ctx, r))
	}
	svc := NewService(requests.NewService(repo, nil, nil))

	active, err := svc.ListRequests(ctx, "CV00000001", "")
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "REQ00000002", active[0].ID)

	complete, err := svc.ListRequests(ctx, "CV00000001", "complete")
	require.NoError(t, err)
	require.Len(t, complete, 1)
	assert.Equal(t, "REQ00000003", complete[0].ID)

	_, err = svc.ListRequests(ctx, "CV00000001", "pending")
	assert.Equal(t, ErrInvalidStatus, err)
}
