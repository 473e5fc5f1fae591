package email

import (
	"strings"
	"unicode"
)

// Normalize lowercases and trims an address for storage and lookups.
func Normalize(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

// DeriveNameFromEmail guesses a display name from the local part of an address
// ("jane.doe+kyc@acme.io" -> "Jane", "Doe"). Used when registration carries
// no names. Missing parts fall back to "User".
func DeriveNameFromEmail(address string) (string, string) {
	localPart := Normalize(address)
	if at := strings.IndexByte(localPart, '@'); at > 0 {
		localPart = localPart[:at]
	}
	if plus := strings.IndexByte(localPart, '+'); plus > 0 {
		localPart = localPart[:plus]
	}

	parts := strings.FieldsFunc(localPart, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || unicode.IsDigit(r)
	})
	if len(parts) == 0 {
		return "User", "User"
	}

	first := capitalize(parts[0])
	last := "User"
	if len(parts) > 1 {
		last = capitalize(parts[len(parts)-1])
	}
	return first, last
}

func capitalize(s string) string {
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
