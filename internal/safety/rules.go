// Package safety produces the safety tips shown to a CV before a request.
package safety

import (
	"strings"

	"github.com/helpinghands/helpinghands/internal/catalog"
)

// Sources of a tip list.
const (
	SourceRules = "rules"
	SourceLLM   = "rules+llm"
)

// SeniorAge is the age from which mobility tips apply.
const SeniorAge = 65

// Brief is what the tips are derived from. It carries no personal details.
type Brief struct {
	ServiceType     string
	ServiceLocation string
	PINAge          int
	PreferredGender catalog.Gender
}

// RuleTips returns the fixed tips for b.
func RuleTips(b Brief) []string {
	tips := []string{
		"Verify identity at pickup location.",
		"Keep communication in-app; avoid sharing personal numbers.",
	}
	if strings.HasPrefix(strings.ToLower(b.ServiceType), "vaccination") {
		tips = append(tips, "Ensure medical documents are brought and stored safely.")
	}
	if b.PINAge >= SeniorAge {
		tips = append(tips, "Be mindful of mobility and allow extra time for transitions.")
	}
	if b.PreferredGender == "female" {
		tips = append(tips, "If appropriate, keep interactions in public or well-lit areas.")
	}
	return tips
}
