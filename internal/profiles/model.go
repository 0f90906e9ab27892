package profiles

import (
	"time"

	"github.com/helpinghands/helpinghands/internal/catalog"
)

// Kind names a profile table.
type Kind string

const (
	KindPIN Kind = "pin"
	KindCV  Kind = "cv"
	KindCSR Kind = "csr"
	KindPA  Kind = "pa"
)

// Company employs CVs and CSRs.
type Company struct {
	ID     string    `json:"company_id"`
	Name   string    `json:"companyname"`
	Joined time.Time `json:"joined"`
}

// Base holds the fields every profile carries.
type Base struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	DOB       time.Time `json:"dob"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AgeOn returns the age in whole years on day.
func (b Base) AgeOn(day time.Time) int {
	years := day.Year() - b.DOB.Year()
	if day.Month() < b.DOB.Month() || (day.Month() == b.DOB.Month() && day.Day() < b.DOB.Day()) {
		years--
	}
	return years
}

// PIN is a person in need.
type PIN struct {
	Base
	PreferredLanguage catalog.Language `json:"preferred_cv_language"`
	PreferredGender   catalog.Gender   `json:"preferred_cv_gender,omitempty"`
}

// CV is a corporate volunteer.
type CV struct {
	Base
	Gender             catalog.Gender   `json:"gender"`
	MainLanguage       catalog.Language `json:"main_language"`
	SecondLanguage     catalog.Language `json:"second_language,omitempty"`
	CategoryPreference catalog.Category `json:"service_category_preference"`
	CompanyID          string           `json:"company_id"`
}

// CSR is a company representative.
type CSR struct {
	Base
	Gender    catalog.Gender `json:"gender,omitempty"`
	CompanyID string         `json:"company_id"`
}

// PA is a platform admin.
type PA struct {
	Base
}

// Account is the login part of a new profile.
type Account struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Details is the base part of a new profile.
type Details struct {
	Name    string    `json:"name"`
	DOB     time.Time `json:"dob"`
	Phone   string    `json:"phone"`
	Address string    `json:"address"`
}

// PINUpdate lists the PIN fields a user may change. Nil fields are kept.
type PINUpdate struct {
	Name              *string `json:"name"`
	Phone             *string `json:"phone"`
	Address           *string `json:"address"`
	PreferredLanguage *string `json:"preferred_cv_language"`
	PreferredGender   *string `json:"preferred_cv_gender"`
}

// Empty reports whether the update changes nothing.
func (u PINUpdate) Empty() bool {
	return u.Name == nil && u.Phone == nil && u.Address == nil && u.PreferredLanguage == nil && u.PreferredGender == nil
}
