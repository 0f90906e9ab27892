package profiles

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/helpinghands/helpinghands/internal/accounts"
	"github.com/helpinghands/helpinghands/internal/apperr"
	"github.com/helpinghands/helpinghands/internal/catalog"
	"github.com/helpinghands/helpinghands/internal/ids"
)

// NewPIN describes a PIN sign up.
type NewPIN struct {
	Account           Account `json:"account"`
	Details           Details `json:"details"`
	PreferredLanguage string  `json:"preferred_cv_language"`
	PreferredGender   string  `json:"preferred_cv_gender"`
}

// NewCV describes a CV sign up.
type NewCV struct {
	Account            Account `json:"account"`
	Details            Details `json:"details"`
	Gender             string  `json:"gender"`
	MainLanguage       string  `json:"main_language"`
	SecondLanguage     string  `json:"second_language"`
	CategoryPreference string  `json:"service_category_preference"`
	CompanyID          string  `json:"company_id"`
}

// NewCSR describes a CSR sign up.
type NewCSR struct {
	Account   Account `json:"account"`
	Details   Details `json:"details"`
	Gender    string  `json:"gender"`
	CompanyID string  `json:"company_id"`
}

// Service creates and reads profiles together with their accounts.
type Service struct {
	repo  Repository
	users *accounts.Service
	now   func() time.Time
}

// NewService wires the profile service.
func NewService(repo Repository, users *accounts.Service) *Service {
	return &Service{repo: repo, users: users, now: time.Now}
}

// Repository exposes the store for read-mostly collaborators.
func (s *Service) Repository() Repository {
	return s.repo
}

// CreateCompany registers a company under a caller chosen id.
func (s *Service) CreateCompany(ctx context.Context, id, name string) (Company, error) {
	id, name = strings.TrimSpace(id), strings.TrimSpace(name)
	if id == "" || name == "" {
		return Company{}, apperr.Invalid("company_id and companyname are required")
	}
	c := Company{ID: id, Name: name, Joined: truncateDay(s.now())}
	if err := s.repo.CreateCompany(ctx, c); err != nil {
		return Company{}, err
	}
	return c, nil
}

// CreatePIN opens a PIN account and profile.
func (s *Service) CreatePIN(ctx context.Context, in NewPIN) (PIN, error) {
	if !catalog.ValidLanguage(in.PreferredLanguage) {
		return PIN{}, apperr.Invalid("invalid preferred_cv_language")
	}
	if in.PreferredGender != "" && !catalog.ValidGender(in.PreferredGender) {
		return PIN{}, apperr.Invalid("invalid preferred_cv_gender")
	}
	base, err := s.open(ctx, in.Account, in.Details, accounts.RolePIN, ids.PIN)
	if err != nil {
		return PIN{}, err
	}
	p := PIN{
		Base:              base,
		PreferredLanguage: catalog.Language(in.PreferredLanguage),
		PreferredGender:   catalog.Gender(in.PreferredGender),
	}
	if err := s.repo.CreatePIN(ctx, p); err != nil {
		return PIN{}, err
	}
	return p, s.users.AssignRole(ctx, base.UserID, accounts.RolePIN)
}

// CreateCV opens a CV account and profile attached to a company.
func (s *Service) CreateCV(ctx context.Context, in NewCV) (CV, error) {
	if !catalog.ValidGender(in.Gender) {
		return CV{}, apperr.Invalid("invalid gender")
	}
	if !catalog.ValidLanguage(in.MainLanguage) {
		return CV{}, apperr.Invalid("invalid main_language")
	}
	if in.SecondLanguage != "" && !catalog.ValidLanguage(in.SecondLanguage) {
		return CV{}, apperr.Invalid("invalid second_language")
	}
	if in.CategoryPreference == "" {
		in.CategoryPreference = string(catalog.Healthcare)
	}
	if !catalog.ValidCategory(in.CategoryPreference) {
		return CV{}, apperr.Invalid("invalid service_category_preference")
	}
	if _, err := s.repo.GetCompany(ctx, in.CompanyID); err != nil {
		return CV{}, err
	}
	base, err := s.open(ctx, in.Account, in.Details, accounts.RoleCV, ids.CV)
	if err != nil {
		return CV{}, err
	}
	p := CV{
		Base:               base,
		Gender:             catalog.Gender(in.Gender),
		MainLanguage:       catalog.Language(in.MainLanguage),
		SecondLanguage:     catalog.Language(in.SecondLanguage),
		CategoryPreference: catalog.Category(in.CategoryPreference),
		CompanyID:          in.CompanyID,
	}
	if err := s.repo.CreateCV(ctx, p); err != nil {
		return CV{}, err
	}
	return p, s.users.AssignRole(ctx, base.UserID, accounts.RoleCV)
}

// CreateCSR opens a CSR account and profile attached to a company.
func (s *Service) CreateCSR(ctx context.Context, in NewCSR) (CSR, error) {
	if in.Gender != "" && !catalog.ValidGender(in.Gender) {
		return CSR{}, apperr.Invalid("invalid gender")
	}
	if _, err := s.repo.GetCompany(ctx, in.CompanyID); err != nil {
		return CSR{}, err
	}
	base, err := s.open(ctx, in.Account, in.Details, accounts.RoleCSR, ids.CSR)
	if err != nil {
		return CSR{}, err
	}
	p := CSR{Base: base, Gender: catalog.Gender(in.Gender), CompanyID: in.CompanyID}
	if err := s.repo.CreateCSR(ctx, p); err != nil {
		return CSR{}, err
	}
	return p, s.users.AssignRole(ctx, base.UserID, accounts.RoleCSR)
}

// CreatePA opens a platform admin account and profile.
func (s *Service) CreatePA(ctx context.Context, acct Account, d Details) (PA, error) {
	base, err := s.open(ctx, acct, d, accounts.RoleAdmin, ids.PA)
	if err != nil {
		return PA{}, err
	}
	p := PA{Base: base}
	if err := s.repo.CreatePA(ctx, p); err != nil {
		return PA{}, err
	}
	return p, s.users.AssignRole(ctx, base.UserID, accounts.RoleAdmin)
}

// open validates the base fields and registers the login account. The role is
// assigned once the profile row exists.
func (s *Service) open(ctx context.Context, acct Account, d Details, role accounts.Role, prefix string) (Base, error) {
	if err := validateDetails(d); err != nil {
		return Base{}, err
	}
	user, err := s.users.Register(ctx, accounts.NewUser{
		Username: acct.Username,
		Email:    acct.Email,
		Password: acct.Password,
		Role:     accounts.RoleUnknown,
	})
	if err != nil {
		return Base{}, err
	}
	now := s.now().UTC()
	return Base{
		ID:        ids.New(prefix),
		UserID:    user.ID,
		Name:      strings.TrimSpace(d.Name),
		DOB:       truncateDay(d.DOB),
		Phone:     d.Phone,
		Address:   strings.TrimSpace(d.Address),
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func validateDetails(d Details) error {
	if strings.TrimSpace(d.Name) == "" {
		return apperr.Invalid("name is required")
	}
	if d.DOB.IsZero() {
		return apperr.Invalid("dob is required")
	}
	if err := validatePhone(d.Phone); err != nil {
		return err
	}
	if strings.TrimSpace(d.Address) == "" {
		return apperr.Invalid("address is required")
	}
	return nil
}

func validatePhone(phone string) error {
	if len(phone) != 8 {
		return apperr.Invalid("phone must be exactly 8 characters")
	}
	return nil
}

// ProfileID resolves the profile backing a user's role.
func (s *Service) ProfileID(ctx context.Context, userID string, role accounts.Role) (string, error) {
	kind, ok := kindForRole(role)
	if !ok {
		return "", nil
	}
	id, err := s.repo.ProfileIDByUser(ctx, kind, userID)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return id, err
}

func kindForRole(role accounts.Role) (Kind, bool) {
	switch role {
	case accounts.RolePIN:
		return KindPIN, true
	case accounts.RoleCV:
		return KindCV, true
	case accounts.RoleCSR:
		return KindCSR, true
	case accounts.RoleAdmin:
		return KindPA, true
	default:
		return "", false
	}
}

func (s *Service) GetPIN(ctx context.Context, id string) (PIN, error) { return s.repo.GetPIN(ctx, id) }
func (s *Service) GetCV(ctx context.Context, id string) (CV, error)   { return s.repo.GetCV(ctx, id) }
func (s *Service) GetCSR(ctx context.Context, id string) (CSR, error) { return s.repo.GetCSR(ctx, id) }
func (s *Service) ListCVs(ctx context.Context) ([]CV, error)          { return s.repo.ListCVs(ctx) }

// GetCVs loads the CVs with the given ids, failing if any is unknown.
func (s *Service) GetCVs(ctx context.Context, cvIDs []string) ([]CV, error) {
	out := make([]CV, 0, len(cvIDs))
	for _, id := range cvIDs {
		cv, err := s.repo.GetCV(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, cv)
	}
	return out, nil
}

// Count returns the number of profiles of kind.
func (s *Service) Count(ctx context.Context, kind Kind) (int, error) {
	return s.repo.Count(ctx, kind)
}

// CreatedBetween lists profile creation times of kind in [from, to).
func (s *Service) CreatedBetween(ctx context.Context, kind Kind, from, to time.Time) ([]time.Time, error) {
	return s.repo.CreatedBetween(ctx, kind, from, to)
}

// PINNames maps PIN ids to names.
func (s *Service) PINNames(ctx context.Context, pinIDs []string) (map[string]string, error) {
	return s.repo.Names(ctx, KindPIN, pinIDs)
}

// CVNames maps CV ids to names.
func (s *Service) CVNames(ctx context.Context, cvIDs []string) (map[string]string, error) {
	return s.repo.Names(ctx, KindCV, cvIDs)
}

// UpdatePIN applies the non-nil fields of u to the PIN profile.
func (s *Service) UpdatePIN(ctx context.Context, pinID string, u PINUpdate) (PIN, error) {
	p, err := s.repo.GetPIN(ctx, pinID)
	if err != nil {
		return PIN{}, err
	}
	if u.Name != nil {
		name := strings.TrimSpace(*u.Name)
		if name == "" {
			return PIN{}, apperr.Invalid("name cannot be empty")
		}
		p.Name = name
	}
	if u.Phone != nil {
		if err := validatePhone(*u.Phone); err != nil {
			return PIN{}, err
		}
		p.Phone = *u.Phone
	}
	if u.Address != nil {
		p.Address = strings.TrimSpace(*u.Address)
	}
	if u.PreferredLanguage != nil {
		if !catalog.ValidLanguage(*u.PreferredLanguage) {
			return PIN{}, apperr.Invalid("invalid preferred_cv_language")
		}
		p.PreferredLanguage = catalog.Language(*u.PreferredLanguage)
	}
	if u.PreferredGender != nil {
		if *u.PreferredGender != "" && !catalog.ValidGender(*u.PreferredGender) {
			return PIN{}, apperr.Invalid("invalid preferred_cv_gender")
		}
		p.PreferredGender = catalog.Gender(*u.PreferredGender)
	}
	p.UpdatedAt = s.now().UTC()
	if err := s.repo.UpdatePIN(ctx, p); err != nil {
		return PIN{}, fmt.Errorf("update pin %s: %w", pinID, err)
	}
	return p, nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CSRNames maps CSR ids to names.
func (s *Service) CSRNames(ctx context.Context, csrIDs []string) (map[string]string, error) {
	return s.repo.Names(ctx, KindCSR, csrIDs)
}

// CSRUserID returns the account behind a CSR profile.
func (s *Service) CSRUserID(ctx context.Context, csrID string) (string, error) {
	c, err := s.repo.GetCSR(ctx, csrID)
	if err != nil {
		return "", err
	}
	return c.UserID, nil
}

// CVUserID returns the account behind a CV profile.
func (s *Service) CVUserID(ctx context.Context, cvID string) (string, error) {
	cv, err := s.repo.GetCV(ctx, cvID)
	if err != nil {
		return "", err
	}
	return cv.UserID, nil
}
