// Package tracking issues human-readable shipment identifiers of the form
// ZEP-YYYYMMDD-XXXXXX. Identifiers are not checked for global uniqueness;
// the suffix space is large enough that collisions are negligible at the
// platform's volume.
package tracking

import (
	"math/rand/v2"
	"strings"
	"time"
)

const (
	prefix    = "ZEP"
	charset   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	suffixLen = 6
)

// Generate returns a new tracking id for the current UTC date.
func Generate() string {
	var sb strings.Builder
	sb.WriteString(prefix)
	sb.WriteByte('-')
	sb.WriteString(time.Now().UTC().Format("20060102"))
	sb.WriteByte('-')
	for i := 0; i < suffixLen; i++ {
		sb.WriteByte(charset[rand.IntN(len(charset))])
	}
	return sb.String()
}
