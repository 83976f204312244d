package conversion

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// HashValue lowercases and trims v, then returns its hex SHA-256. Empty input
// hashes to "" so absent fields are omitted rather than sent as the digest
// of nothing.
func HashValue(v string) string {
	n := strings.ToLower(strings.TrimSpace(v))
	if n == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(n))
	return hex.EncodeToString(sum[:])
}

// NormalizePhone returns the number as E.164 digits without the plus sign,
// which is the form ad platforms match on. Numbers the library cannot place
// fall back to their bare digits.
func NormalizePhone(phone, defaultRegion string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ""
	}
	if defaultRegion == "" {
		defaultRegion = "BD"
	}

	if parsed, err := phonenumbers.Parse(phone, defaultRegion); err == nil && phonenumbers.IsValidNumber(parsed) {
		return strings.TrimPrefix(phonenumbers.Format(parsed, phonenumbers.E164), "+")
	}
	return digitsOnly(phone)
}

func SplitName(full string) (first, last string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], parts[len(parts)-1]
	}
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
