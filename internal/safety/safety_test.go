package safety

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpinghands/helpinghands/internal/config"
	"github.com/helpinghands/helpinghands/internal/logging"
	"github.com/helpinghands/helpinghands/internal/profiles"
	"github.com/helpinghands/helpinghands/internal/requests"
)

type pinBook map[string]profiles.PIN

func (b pinBook) GetPIN(_ context.Context, id string) (profiles.PIN, error) {
	p, ok := b[id]
	if !ok {
		return profiles.PIN{}, profiles.ErrNotFound
	}
	return p, nil
}

type stubAdvisor struct {
	tips []string
	err  error
}

func (a stubAdvisor) Tips(context.Context, Brief) ([]string, error) { return a.tips, a.err }

func TestRuleTips(t *testing.T) {
	base := RuleTips(Brief{ServiceType: "Healthcare", PINAge: 40})
	assert.Len(t, base, 2)

	all := RuleTips(Brief{ServiceType: "Vaccination Escort", PINAge: 65, PreferredGender: "female"})
	assert.Equal(t, []string{
		"Verify identity at pickup location.",
		"Keep communication in-app; avoid sharing personal numbers.",
		"Ensure medical documents are brought and stored safely.",
		"Be mindful of mobility and allow extra time for transitions.",
		"If appropriate, keep interactions in public or well-lit areas.",
	}, all)
}

func newTestService(t *testing.T, advisor Advisor) *Service {
	t.Helper()
	reqs := requests.NewMemoryRepository()
	require.NoError(t, reqs.Create(context.Background(), requests.Request{
		ID:              "REQ00000001",
		PINID:           "PIN00000001",
		CVID:            "CV00000001",
		ServiceType:     "Healthcare",
		AppointmentDate: requests.NewDay(time.Date(2025, 11, 3, 0, 0, 0, 0, time.UTC)),
		AppointmentTime: "10:00",
		Status:          requests.StatusActive,
		CreatedAt:       time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC),
	}))
	pins := pinBook{"PIN00000001": {Base: profiles.Base{ID: "PIN00000001", DOB: time.Date(1950, 1, 1, 0, 0, 0, 0, time.UTC)}}}
	svc := NewService(reqs, pins, advisor, logging.Discard())
	svc.now = func() time.Time { return time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC) }
	return svc
}

func TestTipsForAssignedCVOnly(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.Tips(ctx, "CV00000002", "REQ00000001")
	assert.Equal(t, ErrNotYourRequest, err)

	res, err := svc.Tips(ctx, "CV00000001", "REQ00000001")
	require.NoError(t, err)
	assert.Equal(t, SourceRules, res.Source)
	assert.Contains(t, res.Tips, "Be mindful of mobility and allow extra time for transitions.")
}

func TestAdvisorExtendsOrFallsBack(t *testing.T) {
	ctx := context.Background()
	res, err := newTestService(t, stubAdvisor{tips: []string{"Carry water."}}).Tips(ctx, "CV00000001", "REQ00000001")
	require.NoError(t, err)
	assert.Equal(t, SourceLLM, res.Source)
	assert.Equal(t, "Carry water.", res.Tips[len(res.Tips)-1])

	res, err = newTestService(t, stubAdvisor{err: errors.New("timeout")}).Tips(ctx, "CV00000001", "REQ00000001")
	require.NoError(t, err)
	assert.Equal(t, SourceRules, res.Source)
	assert.Len(t, res.Tips, 3)
}

func TestLLMClientParsesCompletion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		var body chatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "model-x", body.Model)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"1. Plan the route.\n- Bring an umbrella.\n\n* Check in with the family.\nExtra."}}]}`))
	}))
	defer srv.Close()

	client := NewLLMClient(config.LLMConfig{APIKey: "key", Endpoint: srv.URL, Model: "model-x"})
	tips, err := client.Tips(context.Background(), Brief{ServiceType: "Healthcare"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Plan the route.", "Bring an umbrella.", "Check in with the family."}, tips)
}

func TestNewAdvisorDisabled(t *testing.T) {
	assert.Nil(t, NewAdvisor(config.LLMConfig{}))
	assert.NotNil(t, NewAdvisor(config.LLMConfig{APIKey: "k", Endpoint: "http://localhost"}))
}
