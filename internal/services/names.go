package services

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const (
	defaultNameMaxLen     = 128
	defaultNicknameMaxLen = 64
	defaultKitchenName    = "My Kitchen"
)

// normalizeName trims surrounding whitespace and applies Unicode NFC so that
// visually identical names compare equal byte-for-byte. Case is preserved.
func normalizeName(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// checkName normalizes s and validates it is non-blank and within maxLen runes
// (maxLen <= 0 disables the length check).
func checkName(s string, maxLen int) (string, error) {
	s = normalizeName(s)
	if s == "" {
		return "", ErrNameRequired
	}
	if maxLen > 0 && utf8.RuneCountInString(s) > maxLen {
		return "", ErrNameTooLong
	}
	return s, nil
}

// normalizeOptional trims an optional text field; blank becomes nil.
func normalizeOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
