package profiles

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/helpinghands/helpinghands/internal/accounts"
	"github.com/helpinghands/helpinghands/internal/apperr"
	"github.com/helpinghands/helpinghands/internal/catalog"
	"github.com/helpinghands/helpinghands/internal/ids"
)

func newTestService(t *testing.T) (*Service, *accounts.Service) {
	t.Helper()
	users := accounts.NewServiceWithCost(accounts.NewMemoryRepository(), bcrypt.MinCost)
	return NewService(NewMemoryRepository(), users), users
}

func details(name string) Details {
	return Details{Name: name, DOB: time.Date(1950, 3, 14, 0, 0, 0, 0, time.UTC), Phone: "91234567", Address: "1 Orchard Rd"}
}

func TestCreatePINAssignsRole(t *testing.T) {
	svc, users := newTestService(t)
	ctx := context.Background()

	pin, err := svc.CreatePIN(ctx, NewPIN{
		Account:           Account{Username: "pin1", Email: "pin1@example.com", Password: "Test1234!"},
		Details:           details("Tan Ah Kow"),
		PreferredLanguage: "zh",
		PreferredGender:   "female",
	})
	require.NoError(t, err)
	assert.True(t, ids.HasPrefix(pin.ID, ids.PIN))

	user, err := users.Get(ctx, pin.UserID)
	require.NoError(t, err)
	assert.Equal(t, accounts.RolePIN, user.Role)

	id, err := svc.ProfileID(ctx, pin.UserID, accounts.RolePIN)
	require.NoError(t, err)
	assert.Equal(t, pin.ID, id)
}

func TestCreatePINValidates(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	d := details("Short Phone")
	d.Phone = "1234"
	_, err := svc.CreatePIN(ctx, NewPIN{Account: Account{Username: "a", Password: "Test1234!"}, Details: d, PreferredLanguage: "en"})
	assert.ErrorIs(t, err, apperr.ErrInvalid)

	_, err = svc.CreatePIN(ctx, NewPIN{Account: Account{Username: "b", Password: "Test1234!"}, Details: details("x"), PreferredLanguage: "fr"})
	assert.ErrorIs(t, err, apperr.ErrInvalid)
}

func TestCreateCVDefaultsCategory(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.CreateCompany(ctx, "ACME", "Acme Pte Ltd")
	require.NoError(t, err)

	cv, err := svc.CreateCV(ctx, NewCV{
		Account:      Account{Username: "cv1", Password: "Test1234!"},
		Details:      details("Volunteer"),
		Gender:       "male",
		MainLanguage: "en",
		CompanyID:    "ACME",
	})
	require.NoError(t, err)
	assert.Equal(t, catalog.Healthcare, cv.CategoryPreference)

	_, err = svc.CreateCV(ctx, NewCV{
		Account:      Account{Username: "cv2", Password: "Test1234!"},
		Details:      details("Nobody"),
		Gender:       "male",
		MainLanguage: "en",
		CompanyID:    "MISSING",
	})
	assert.ErrorIs(t, err, ErrCompanyNotFound)
}

func TestUpdatePIN(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	pin, err := svc.CreatePIN(ctx, NewPIN{
		Account: Account{Username: "pin1", Password: "Test1234!"}, Details: details("Old"), PreferredLanguage: "en", PreferredGender: "male",
	})
	require.NoError(t, err)

	name, phone, gender := "New Name", "88887777", ""
	updated, err := svc.UpdatePIN(ctx, pin.ID, PINUpdate{Name: &name, Phone: &phone, PreferredGender: &gender})
	require.NoError(t, err)
	assert.Equal(t, "New Name", updated.Name)
	assert.Equal(t, "88887777", updated.Phone)
	assert.Empty(t, updated.PreferredGender)
	assert.Equal(t, catalog.English, updated.PreferredLanguage)

	bad := "123"
	_, err = svc.UpdatePIN(ctx, pin.ID, PINUpdate{Phone: &bad})
	assert.ErrorIs(t, err, apperr.ErrInvalid)
}

func TestCountsAndNames(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	a, err := svc.CreatePIN(ctx, NewPIN{Account: Account{Username: "p1", Password: "Test1234!"}, Details: details("Alice"), PreferredLanguage: "en"})
	require.NoError(t, err)
	_, err = svc.CreatePIN(ctx, NewPIN{Account: Account{Username: "p2", Password: "Test1234!"}, Details: details("Bob"), PreferredLanguage: "ms"})
	require.NoError(t, err)

	n, err := svc.Count(ctx, KindPIN)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	names, err := svc.PINNames(ctx, []string{a.ID, "PINFFFFFFFF"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{a.ID: "Alice"}, names)

	times, err := svc.CreatedBetween(ctx, KindPIN, time.Now().Add(-time.Hour), time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Len(t, times, 2)
}

func TestAgeOn(t *testing.T) {
	b := Base{DOB: time.Date(1960, 6, 15, 0, 0, 0, 0, time.UTC)}
	assert.Equal(t, 64, b.AgeOn(time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 65, b.AgeOn(time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)))
}
