package tracking

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewCode_Format(t *testing.T) {
	code := NewCode()

	assert.True(t, strings.HasPrefix(code, "SR"))
	// "SR" + at least 8 base-36 timestamp chars + 6 suffix chars
	assert.GreaterOrEqual(t, len(code), 2+8+6)

	suffix := code[len(code)-6:]
	for _, r := range suffix {
		assert.Contains(t, suffixAlphabet, string(r))
	}
}

func TestNewCode_NoCollisions(t *testing.T) {
	const n = 10000
	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		code := NewCode()
		if _, dup := seen[code]; dup {
			t.Fatalf("duplicate tracking code after %d generations: %s", i, code)
		}
		seen[code] = struct{}{}
	}
}
