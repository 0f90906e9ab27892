package requests

import "strings"

type keywordGroup struct {
	reason   string
	keywords []string
}

// Groups are checked in order; the first hit names the reason.
var moderationGroups = []keywordGroup{
	{"violence", []string{"kill", "murder", "bomb", "gun", "fight", "assault"}},
	{"abuse", []string{"abuse", "harass", "rape", "molest", "bully"}},
	{"discrimination", []string{"racist", "sexist", "hate", "terrorist"}},
	{"self_harm", []string{"suicide", "self-harm", "cutting", "die", "depress"}},
	{"explicit", []string{"nude", "porn", "sex", "drugs", "alcohol"}},
}

// Moderate reports whether text contains a banned keyword and which group it
// belongs to. Matching is a case-insensitive substring check.
func Moderate(text string) (flagged bool, reason string) {
	lower := strings.ToLower(text)
	for _, g := range moderationGroups {
		for _, kw := range g.keywords {
			if strings.Contains(lower, kw) {
				return true, g.reason
			}
		}
	}
	return false, ""
}
