// Package catalog holds the fixed vocabularies shared by profiles, requests
// and matching.
package catalog

// Category is a kind of assistance a request asks for.
type Category string

const (
	Healthcare   Category = "Healthcare"
	Therapy      Category = "Therapy"
	Dialysis     Category = "Dialysis"
	Vaccination  Category = "Vaccination / Check-up"
	Mobility     Category = "Mobility Assistance"
	CommunityEvt Category = "Community Event"
)

// Categories lists every category in display order.
var Categories = []Category{Healthcare, Therapy, Dialysis, Vaccination, Mobility, CommunityEvt}

// ValidCategory reports whether v names a known category.
func ValidCategory(v string) bool {
	for _, c := range Categories {
		if string(c) == v {
			return true
		}
	}
	return false
}

// Language is a spoken language code.
type Language string

const (
	English Language = "en"
	Chinese Language = "zh"
	Tamil   Language = "ta"
	Malay   Language = "ms"
)

var Languages = []Language{English, Chinese, Tamil, Malay}

func ValidLanguage(v string) bool {
	for _, l := range Languages {
		if string(l) == v {
			return true
		}
	}
	return false
}

// Gender is used for CV profiles and PIN preferences.
type Gender string

const (
	Male   Gender = "male"
	Female Gender = "female"
)

func ValidGender(v string) bool {
	return v == string(Male) || v == string(Female)
}
