package ids

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewFormat(t *testing.T) {
	re := regexp.MustCompile(`^REQ[0-9A-F]{8}$`)
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		id := New(Request)
		assert.Regexp(t, re, id)
		assert.True(t, HasPrefix(id, Request))
		seen[id] = true
	}
	assert.Greater(t, len(seen), 45)
}

func TestHasPrefixRejectsOtherKinds(t *testing.T) {
	assert.False(t, HasPrefix(New(CV), CSR))
	assert.False(t, HasPrefix("PIN123", PIN))
}
