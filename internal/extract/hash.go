package extract

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// ContentHash returns the hex SHA-256 over fields joined with "|". Used only
// to detect no-op re-crawls; never shown to users and not an integrity check.
func ContentHash(fields ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(fields, "|")))
	return hex.EncodeToString(sum[:])
}
