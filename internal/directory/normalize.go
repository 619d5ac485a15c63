// Package directory holds the record rules shared by every entry point:
// normalization, validation, unit derivation and relevance search.
package directory

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var titleCaser = cases.Title(language.English)

// NormalizeEmail lower-cases and trims an address. Spreadsheet exports
// regularly carry non-breaking and zero-width spaces, which are dropped too.
func NormalizeEmail(email string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.Is(unicode.Cf, r) || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, norm.NFKC.String(email))
	return strings.ToLower(cleaned)
}

// NormalizeName collapses whitespace and title-cases a person's name.
func NormalizeName(name string) string {
	fields := strings.Fields(norm.NFC.String(name))
	if len(fields) == 0 {
		return ""
	}
	return titleCaser.String(strings.Join(fields, " "))
}

// NormalizeMobile keeps digits only and strips a +91 or trunk 0 prefix from
// Indian numbers. Input that is not a recognisable number is returned as digits.
func NormalizeMobile(mobile string) string {
	var b strings.Builder
	for _, r := range mobile {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	switch {
	case len(digits) == 12 && strings.HasPrefix(digits, "91"):
		return digits[2:]
	case len(digits) == 11 && strings.HasPrefix(digits, "0"):
		return digits[1:]
	}
	return digits
}

// words lower-cases s and replaces punctuation with single spaces, padded
// so that " keyword " containment means a whole-word match.
func words(s string) string {
	var b strings.Builder
	b.WriteByte(' ')
	space := true
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			space = false
			continue
		}
		if !space {
			b.WriteByte(' ')
			space = true
		}
	}
	if !space {
		b.WriteByte(' ')
	}
	return b.String()
}
