package claims

import (
	"time"

	"github.com/helpinghands/helpinghands/internal/requests"
)

// Category is what an expense was for.
type Category string

const (
	CategoryTransport   Category = "transport"
	CategoryFood        Category = "food"
	CategoryMeds        Category = "meds"
	CategoryAppointment Category = "appointment"
	CategoryOther       Category = "other"
)

var categories = []Category{CategoryTransport, CategoryFood, CategoryMeds, CategoryAppointment, CategoryOther}

// PaymentMethod is how the CV paid.
type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "cash"
	PaymentCard   PaymentMethod = "card"
	PaymentPayNow PaymentMethod = "paynow"
	PaymentPayLah PaymentMethod = "paylah"
)

var paymentMethods = []PaymentMethod{PaymentCash, PaymentCard, PaymentPayNow, PaymentPayLah}

// Status is the review state of a claim.
type Status string

const (
	StatusSubmitted  Status = "submitted"
	StatusVerified   Status = "verified_by_pin"
	StatusDisputed   Status = "disputed_by_pin"
	StatusRejected   Status = "rejected_by_csr"
	StatusReimbursed Status = "reimbursed_by_csr"
)

// DisputeReason is why a PIN contests a claim.
type DisputeReason string

const (
	ReasonIncorrectAmount  DisputeReason = "incorrect_amount"
	ReasonNeverHappened    DisputeReason = "never_happened"
	ReasonIncorrectItem    DisputeReason = "incorrect_item"
	ReasonDescriptionError DisputeReason = "description_error"
)

var disputeReasons = []DisputeReason{ReasonIncorrectAmount, ReasonNeverHappened, ReasonIncorrectItem, ReasonDescriptionError}

// Claim is an expense reported by the CV of a request.
type Claim struct {
	ID            string        `json:"id"`
	RequestID     string        `json:"request_id"`
	CVID          string        `json:"cv_id"`
	Category      Category      `json:"category"`
	ExpenseDate   requests.Day  `json:"expense_date"`
	Amount        string        `json:"amount"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	Description   string        `json:"description"`
	ReceiptKey    string        `json:"receipt"`
	Status        Status        `json:"status"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// Dispute is a PIN's objection to a claim.
type Dispute struct {
	ID        int64         `json:"id"`
	ClaimID   string        `json:"claim_id"`
	PINID     string        `json:"pin_id"`
	Reason    DisputeReason `json:"reason"`
	Comment   string        `json:"comment"`
	CreatedAt time.Time     `json:"created_at"`
}

// Detail is a claim with its disputes.
type Detail struct {
	Claim
	Disputes []Dispute `json:"disputes"`
}

// RequestClaims groups a completed request with its claims.
type RequestClaims struct {
	requests.Request
	Claims []Detail `json:"claims"`
}
