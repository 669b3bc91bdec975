// Package tracking generates public tracking codes for service requests.
package tracking

import (
	"crypto/rand"
	"strconv"
	"time"
)

const suffixAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
const suffixLen = 6

// NewCode returns a tracking code of the form "SR" + base-36 millisecond
// timestamp + 6-character uppercase random suffix. Codes are opaque to
// customers; uniqueness is additionally enforced by a database index.
func NewCode() string {
	ts := strconv.FormatInt(time.Now().UnixMilli(), 36)

	buf := make([]byte, suffixLen)
	// crypto/rand.Read only fails when the OS entropy source is broken.
	if _, err := rand.Read(buf); err != nil {
		panic("tracking: entropy source unavailable: " + err.Error())
	}
	for i, b := range buf {
		buf[i] = suffixAlphabet[int(b)%len(suffixAlphabet)]
	}

	return "SR" + ts + string(buf)
}
