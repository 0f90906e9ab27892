// Package seed fills an empty database with realistic demo data: companies,
// every kind of profile, requests across their lifecycle, chats, flags and
// used OTP codes.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/helpinghands/helpinghands/internal/chat"
	"github.com/helpinghands/helpinghands/internal/flags"
	"github.com/helpinghands/helpinghands/internal/ids"
	"github.com/helpinghands/helpinghands/internal/otp"
	"github.com/helpinghands/helpinghands/internal/profiles"
	"github.com/helpinghands/helpinghands/internal/requests"
)

const (
	// DefaultPassword is set on every seeded PIN, CV and CSR account.
	DefaultPassword = "Test1234!"
	// AdminUsername and AdminPassword log in as the seeded platform admin.
	AdminUsername = "pa_admin"
	AdminPassword = "Admin1234!"

	flagCount     = 30
	rejectedCount = 5
)

// Options sizes the generated data set.
type Options struct {
	Companies int
	PINs      int
	CVs       int
	CSRs      int
	// Requests is the number of completed requests.
	Requests int
	SkipPA   bool
	// Seed makes the run reproducible when non-zero.
	Seed int64
}

// DefaultOptions mirrors the demo data set used in development.
func DefaultOptions() Options {
	return Options{Companies: 2, PINs: 60, CVs: 30, CSRs: 2, Requests: 130}
}

func (o Options) validate() error {
	if o.Companies < 1 || o.PINs < 1 || o.CVs < 1 || o.CSRs < 1 {
		return fmt.Errorf("seed needs at least one company, PIN, CV and CSR")
	}
	if o.Requests < 0 {
		return fmt.Errorf("requests must not be negative")
	}
	return nil
}

// Summary counts what a run created.
type Summary struct {
	Companies int
	PINs      int
	CVs       int
	CSRs      int
	PA        bool
	Completed int
	Pending   int
	Active    int
	Rejected  int
	Chats     int
	Messages  int
	Flags     int
	OTPs      int
}

// Seeder writes demo data through the regular services and repositories.
type Seeder struct {
	profiles *profiles.Service
	requests requests.Repository
	flags    flags.Repository
	chats    chat.Repository
	otps     otp.Repository
	log      *slog.Logger
	now      func() time.Time
}

// New builds a Seeder.
func New(profs *profiles.Service, reqs requests.Repository, fl flags.Repository, chats chat.Repository, otps otp.Repository, log *slog.Logger) *Seeder {
	return &Seeder{
		profiles: profs,
		requests: reqs,
		flags:    fl,
		chats:    chats,
		otps:     otps,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

type run struct {
	*Seeder
	f       faker
	now     time.Time
	summary Summary

	companies []profiles.Company
	pins      []profiles.PIN
	cvs       []profiles.CV
	csrs      []profiles.CSR
	completed []requests.Request
	emails    map[string]string
}

// Run creates the data set described by opts.
func (s *Seeder) Run(ctx context.Context, opts Options) (Summary, error) {
	if err := opts.validate(); err != nil {
		return Summary{}, err
	}
	src := opts.Seed
	if src == 0 {
		src = time.Now().UnixNano()
	}
	r := &run{Seeder: s, f: newFaker(uint64(src)), now: s.now(), emails: map[string]string{}}

	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"companies", func(ctx context.Context) error { return r.seedCompanies(ctx, opts.Companies) }},
		{"pa", func(ctx context.Context) error {
			if opts.SkipPA {
				return nil
			}
			return r.seedPA(ctx)
		}},
		{"pins", func(ctx context.Context) error { return r.seedPINs(ctx, opts.PINs) }},
		{"cvs", func(ctx context.Context) error { return r.seedCVs(ctx, opts.CVs) }},
		{"csrs", func(ctx context.Context) error { return r.seedCSRs(ctx, opts.CSRs) }},
		{"completed requests", func(ctx context.Context) error { return r.seedCompleted(ctx, opts.Requests) }},
		{"pending requests", r.seedPending},
		{"active requests", r.seedActive},
		{"rejected requests", r.seedRejected},
		{"flags", r.seedFlags},
		{"otps", r.seedOTPs},
	}
	for _, step := range steps {
		if err := step.fn(ctx); err != nil {
			return r.summary, fmt.Errorf("seed %s: %w", step.name, err)
		}
		s.log.Info("seeded", slog.String("step", step.name))
	}
	return r.summary, nil
}

func (r *run) seedCompanies(ctx context.Context, n int) error {
	for i := 0; i < n; i++ {
		c, err := r.profiles.CreateCompany(ctx, fmt.Sprintf("CMP-%d", 1000+i), r.f.company(i))
		if err != nil {
			return err
		}
		r.companies = append(r.companies, c)
	}
	r.summary.Companies = len(r.companies)
	return nil
}

func (r *run) details(minAge, maxAge int) profiles.Details {
	return profiles.Details{
		Name:    r.f.name(),
		DOB:     r.f.dob(r.now, minAge, maxAge),
		Phone:   r.f.phone(),
		Address: r.f.address(),
	}
}

func account(username string) profiles.Account {
	return profiles.Account{Username: username, Email: username + "@example.com", Password: DefaultPassword}
}

func (r *run) seedPA(ctx context.Context) error {
	acct := profiles.Account{Username: AdminUsername, Email: "pa_admin@example.com", Password: AdminPassword}
	d := r.details(30, 55)
	d.Name = "Platform Admin"
	if _, err := r.profiles.CreatePA(ctx, acct, d); err != nil {
		return err
	}
	r.summary.PA = true
	return nil
}

func (r *run) seedPINs(ctx context.Context, n int) error {
	for i := 1; i <= n; i++ {
		in := profiles.NewPIN{
			Account:           account(fmt.Sprintf("pin%d", i)),
			Details:           r.details(60, 90),
			PreferredLanguage: string(r.f.language()),
		}
		if r.f.intn(3) > 0 {
			in.PreferredGender = string(r.f.gender())
		}
		p, err := r.profiles.CreatePIN(ctx, in)
		if err != nil {
			return err
		}
		r.pins = append(r.pins, p)
		r.emails[p.ID] = in.Account.Email
	}
	r.summary.PINs = len(r.pins)
	return nil
}

func (r *run) seedCVs(ctx context.Context, n int) error {
	for i := 1; i <= n; i++ {
		first := r.f.language()
		in := profiles.NewCV{
			Account:            account(fmt.Sprintf("cv%d", i)),
			Details:            r.details(21, 60),
			Gender:             string(r.f.gender()),
			MainLanguage:       string(first),
			CategoryPreference: string(r.f.category()),
			CompanyID:          r.companies[(i-1)%len(r.companies)].ID,
		}
		if second := r.f.language(); second != first && r.f.intn(2) == 0 {
			in.SecondLanguage = string(second)
		}
		cv, err := r.profiles.CreateCV(ctx, in)
		if err != nil {
			return err
		}
		r.cvs = append(r.cvs, cv)
	}
	r.summary.CVs = len(r.cvs)
	return nil
}

func (r *run) seedCSRs(ctx context.Context, n int) error {
	for i := 1; i <= n; i++ {
		csr, err := r.profiles.CreateCSR(ctx, profiles.NewCSR{
			Account:   account(fmt.Sprintf("csr%d", i)),
			Details:   r.details(25, 55),
			Gender:    string(r.f.gender()),
			CompanyID: r.companies[(i-1)%len(r.companies)].ID,
		})
		if err != nil {
			return err
		}
		r.csrs = append(r.csrs, csr)
	}
	r.summary.CSRs = len(r.csrs)
	return nil
}

// request draws the fields shared by every seeded request.
func (r *run) request(pin profiles.PIN, day time.Time, status requests.Status) requests.Request {
	hour, minute := r.f.clock()
	return requests.Request{
		ID:              ids.New(ids.Request),
		PINID:           pin.ID,
		ServiceType:     r.f.category(),
		AppointmentDate: requests.NewDay(day),
		AppointmentTime: fmt.Sprintf("%02d:%02d", hour, minute),
		PickupLocation:  r.f.street(),
		ServiceLocation: r.f.clinic(),
		Description:     pick(r.f, descriptions),
		Status:          status,
	}
}

func (r *run) seedCompleted(ctx context.Context, n int) error {
	for i := 0; i < n; i++ {
		pin := pick(r.f, r.pins)
		cv := pick(r.f, r.cvs)
		csr := pick(r.f, r.csrs)
		req := r.request(pin, r.now.AddDate(0, 0, -(7+r.f.intn(34))), requests.StatusComplete)
		appt := req.Appointment()
		committed := appt.Add(-24 * time.Hour)
		completed := appt.Add(2 * time.Hour)
		req.CVID = cv.ID
		req.CommittedBy = csr.ID
		req.CommittedAt = &committed
		req.CompletedAt = &completed
		req.CreatedAt = committed.Add(-time.Duration(1+r.f.intn(72)) * time.Hour)
		if err := r.requests.Create(ctx, req); err != nil {
			return err
		}
		r.completed = append(r.completed, req)

		expires := completed.Add(chat.ExpiryAfterCompletion)
		opens := requests.NewDay(appt).Time
		if err := r.openChat(ctx, req, pin, cv, opens, &expires, 2+r.f.intn(3)); err != nil {
			return err
		}
	}
	r.summary.Completed = n
	return nil
}

func (r *run) seedPending(ctx context.Context) error {
	for _, pin := range r.pins {
		req := r.request(pin, r.now.AddDate(0, 0, 3+r.f.intn(28)), requests.StatusPending)
		req.CreatedAt = r.now.Add(-time.Duration(1+r.f.intn(48)) * time.Hour)
		if err := r.requests.Create(ctx, req); err != nil {
			return err
		}
		r.summary.Pending++
	}
	return nil
}

func (r *run) seedActive(ctx context.Context) error {
	for _, pin := range r.pins {
		cv := pick(r.f, r.cvs)
		csr := pick(r.f, r.csrs)
		req := r.request(pin, r.now.AddDate(0, 0, r.f.intn(9)-1), requests.StatusActive)
		appt := req.Appointment()
		committed := appt.Add(-4 * time.Hour)
		req.CVID = cv.ID
		req.CommittedBy = csr.ID
		req.CommittedAt = &committed
		req.CreatedAt = committed.Add(-time.Duration(1+r.f.intn(72)) * time.Hour)
		if err := r.requests.Create(ctx, req); err != nil {
			return err
		}
		r.summary.Active++

		expires := appt.Add(24 * time.Hour)
		if err := r.openChat(ctx, req, pin, cv, appt, &expires, 1); err != nil {
			return err
		}
	}
	return nil
}

func (r *run) seedRejected(ctx context.Context) error {
	for i := 0; i < rejectedCount; i++ {
		req := r.request(pick(r.f, r.pins), r.now.AddDate(0, 0, 3+r.f.intn(28)), requests.StatusRejected)
		req.CreatedAt = r.now.Add(-time.Duration(1+r.f.intn(240)) * time.Hour)
		if err := r.requests.Create(ctx, req); err != nil {
			return err
		}
		r.summary.Rejected++
	}
	return nil
}

// openChat opens the room of req and writes pairs of alternating PIN and CV lines
// starting at opens.
func (r *run) openChat(ctx context.Context, req requests.Request, pin profiles.PIN, cv profiles.CV, opens time.Time, expires *time.Time, pairs int) error {
	room, _, err := r.chats.GetOrCreate(ctx, chat.Room{
		ID:        ids.New(ids.Chat),
		RequestID: req.ID,
		OpensAt:   opens,
		ExpiresAt: expires,
		CreatedAt: opens,
	})
	if err != nil {
		return err
	}
	r.summary.Chats++

	at := opens.Add(time.Duration(5+r.f.intn(55)) * time.Minute)
	for i := 0; i < pairs; i++ {
		for _, m := range []chat.Message{
			{RoomID: room.ID, SenderID: pin.UserID, Body: pick(r.f, pinLines)},
			{RoomID: room.ID, SenderID: cv.UserID, Body: pick(r.f, cvLines)},
		} {
			m.CreatedAt = at
			if _, err := r.chats.AddMessage(ctx, m); err != nil {
				return err
			}
			r.summary.Messages++
			at = at.Add(time.Duration(1+r.f.intn(15)) * time.Minute)
		}
	}
	return nil
}

func (r *run) seedFlags(ctx context.Context) error {
	if len(r.completed) == 0 {
		return nil
	}
	for i := 0; i < flagCount; i++ {
		req := pick(r.f, r.completed)
		f := flags.Flag{
			RequestID: req.ID,
			Type:      flags.TypeManual,
			CSRID:     req.CommittedBy,
			Reason:    pick(r.f, flagReasons),
			CreatedAt: req.CompletedAt.Add(time.Duration(1+r.f.intn(48)) * time.Hour),
		}
		if r.f.intn(4) == 0 {
			f.Type = flags.TypeAuto
			f.CSRID = ""
		}
		if _, err := r.flags.Create(ctx, f); err != nil {
			return err
		}
		r.summary.Flags++
	}
	return nil
}

// seedOTPs leaves one spent profile update code per PIN.
func (r *run) seedOTPs(ctx context.Context) error {
	for _, pin := range r.pins {
		created := r.now.Add(-time.Duration(1+r.f.intn(240)) * time.Hour)
		if _, err := r.otps.Create(ctx, otp.Code{
			Email:     r.emails[pin.ID],
			Code:      fmt.Sprintf("%06d", r.f.intn(1000000)),
			Purpose:   otp.PurposeProfileUpdate,
			CreatedAt: created,
			ExpiresAt: created.Add(10 * time.Minute),
			Consumed:  true,
		}); err != nil {
			return err
		}
		r.summary.OTPs++
	}
	return nil
}
