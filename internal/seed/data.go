package seed

import (
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/helpinghands/helpinghands/internal/catalog"
)

var (
	streets = []string{
		"Toa Payoh Lorong 1", "Ang Mo Kio Ave 3", "Bedok North Road", "Jurong West St 42",
		"Tampines Street 21", "Yishun Ring Road", "Clementi Ave 4", "Hougang Ave 8",
	}
	clinics = []string{
		"Tan Tock Seng", "Changi General", "Ng Teng Fong", "Khoo Teck Puat", "Sengkang Polyclinic",
	}

	pinLines = []string{
		"Hi! Just confirming tomorrow's appointment.",
		"Could we meet at the lobby? I need wheelchair assistance.",
		"Thank you for helping today.",
		"I will be at the pick-up point 10 minutes earlier.",
		"Please note I have difficulty with stairs.",
	}
	cvLines = []string{
		"Got it! I will arrive 10 minutes earlier.",
		"Understood - I'll bring a foldable wheelchair.",
		"Please have your appointment card ready.",
		"No problem. See you at the lobby.",
		"Glad to help. Do you have any questions?",
	}
	flagReasons = []string{
		"Inappropriate language in request description",
		"Suspicious or spam-like request",
		"Potential misuse of the service",
		"False or misleading information reported",
		"Safety concern raised by CSR",
	}
	descriptions = []string{
		"Escort to a follow-up consultation and help with registration.",
		"Need a companion for the weekly session and the ride home.",
		"Assistance getting to the clinic and collecting medication.",
		"Help moving between the pickup point and the community centre.",
		"Accompany me to the check-up and help carry documents.",
	}
)

// faker draws seed values from gofakeit, keeping the Singapore specific
// formats the profiles validate.
type faker struct {
	fk *gofakeit.Faker
}

func newFaker(seed uint64) faker {
	return faker{fk: gofakeit.New(seed)}
}

// intn returns a value in [0, n).
func (f faker) intn(n int) int {
	return f.fk.IntRange(0, n-1)
}

func pick[T any](f faker, items []T) T {
	return items[f.intn(len(items))]
}

func (f faker) name() string {
	return f.fk.FirstName() + " " + f.fk.LastName()
}

// company returns a distinct name for the i-th company of a run.
func (f faker) company(i int) string {
	return fmt.Sprintf("%s %d", f.fk.Company(), i+1)
}

// phone returns a Singapore style mobile number.
func (f faker) phone() string {
	return pick(f, []string{"8", "9"}) + f.fk.Numerify("#######")
}

func (f faker) address() string {
	return fmt.Sprintf("Blk %d %s #%02d-%02d Singapore %s",
		f.fk.IntRange(100, 899), pick(f, streets), f.fk.IntRange(1, 20), f.fk.IntRange(1, 60), f.fk.Numerify("######"))
}

func (f faker) street() string {
	return fmt.Sprintf("Blk %d %s", f.fk.IntRange(100, 899), pick(f, streets))
}

func (f faker) clinic() string {
	return pick(f, clinics) + " Clinic"
}

// dob returns a birth date for someone aged between minAge and maxAge on now.
func (f faker) dob(now time.Time, minAge, maxAge int) time.Time {
	d := f.fk.DateRange(now.AddDate(-maxAge, 0, 0), now.AddDate(-minAge, 0, 0))
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}

// clock returns an appointment time between 08:00 and 17:45 on the quarter hour.
func (f faker) clock() (int, int) {
	return f.fk.IntRange(8, 17), 15 * f.intn(4)
}

func (f faker) gender() catalog.Gender {
	return pick(f, []catalog.Gender{catalog.Male, catalog.Female})
}

func (f faker) language() catalog.Language {
	return pick(f, catalog.Languages)
}

func (f faker) category() catalog.Category {
	return pick(f, catalog.Categories)
}
