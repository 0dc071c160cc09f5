package validation

import (
	"strings"
	"unicode"
)

const maxTokenLength = 32

// SanitizeToken cleans a user-supplied token symbol: strips
// unprintable characters and surrounding whitespace and caps the
// length. Case is preserved; spelling inconsistencies are the hygiene
// engine's job to detect, not this function's to erase.
func SanitizeToken(token string) string {
	cleaned := strings.TrimSpace(StripUnprintable(token))
	if len(cleaned) > maxTokenLength {
		cleaned = cleaned[:maxTokenLength]
	}
	return cleaned
}

// SanitizeForFormulaInjection prepends a single quote if the string starts with a formula character.
// This makes most spreadsheet software treat it as text.
func SanitizeForFormulaInjection(s string) string {
	trimmed := strings.TrimSpace(s)
	if len(trimmed) > 0 {
		firstChar := rune(trimmed[0])
		if firstChar == '=' || firstChar == '+' || firstChar == '-' || firstChar == '@' || firstChar == '\t' || firstChar == '\r' {
			return "'" + s
		}
	}
	return s
}

// StripUnprintable removes non-printable characters, allowing common whitespace
// like space, tab, newline, and carriage return.
func StripUnprintable(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || r == '\t' || r == '\n' || r == '\r' {
			return r
		}
		return -1
	}, s)
}
