package notification

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpinghands/helpinghands/internal/logging"
)

func TestSendStoresAndLogs(t *testing.T) {
	var buf bytes.Buffer
	svc := NewService(NewMemoryRepository(), logging.NewWithWriter(&buf, "info"))
	ctx := context.Background()

	base := time.Date(2025, 10, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, svc.Send(ctx, Notification{
			RecipientID: "user-1",
			Type:        TypeOfferSent,
			Message:     "Offer sent",
			RequestID:   "REQ00000001",
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, svc.Send(ctx, Notification{RecipientID: "user-2", Type: TypeNoMatchFound}))
	require.NoError(t, svc.Send(ctx, Notification{Type: TypeOfferExpired}))

	list, err := svc.List(ctx, "user-1", 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, base.Add(2*time.Minute), list[0].CreatedAt)
	assert.NotNil(t, list[0].Meta)

	all, err := svc.List(ctx, "user-1", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	assert.Contains(t, buf.String(), `"type":"OFFER_SENT"`)
	assert.Contains(t, buf.String(), `"type":"OFFER_EXPIRED"`)
}
