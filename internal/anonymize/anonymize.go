// Package anonymize derives the public case identifiers shown on the
// counsellor dashboard, so raw student identifiers never leave the backend.
package anonymize

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// CaseID derives a stable public identifier for an internal student
// identifier, formatted as STU-<year>-<HASH8>. The identifier is
// deterministic within a calendar year and rotates at year boundaries, which
// keeps dashboard identifiers weakly unlinkable across years.
func CaseID(internalID string, now time.Time) string {
	sum := sha256.Sum256([]byte(internalID))
	hash := strings.ToUpper(hex.EncodeToString(sum[:4]))
	return fmt.Sprintf("STU-%d-%s", now.Year(), hash)
}
