// Package ids generates the prefixed public identifiers used across the
// domain, e.g. REQ1A2B3C4D.
package ids

import (
	"strings"

	"github.com/google/uuid"
)

const (
	PIN     = "PIN"
	CV      = "CV"
	CSR     = "CSR"
	PA      = "PA"
	Request = "REQ"
	Claim   = "CLM"
	Chat    = "CHAT"
)

// New returns prefix followed by eight uppercase hex characters.
func New(prefix string) string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return prefix + strings.ToUpper(hex[:8])
}

// HasPrefix reports whether id was minted with prefix.
func HasPrefix(id, prefix string) bool {
	return len(id) == len(prefix)+8 && strings.HasPrefix(id, prefix)
}
