package utils

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

// SanitizeString trims whitespace and drops control characters. Values are
// stored as typed; escaping belongs to whatever renders them.
func SanitizeString(input string) string {
	return removeControlChars(strings.TrimSpace(input))
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// SanitizeEmail lower-cases, strips tags and control characters.
func SanitizeEmail(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	email = htmlTagPattern.ReplaceAllString(email, "")

	return removeControlChars(email)
}

// SanitizeStringPtr applies SanitizeString to an optional value.
func SanitizeStringPtr(input *string) *string {
	if input == nil {
		return nil
	}
	sanitized := SanitizeString(*input)
	return &sanitized
}

func removeControlChars(input string) string {
	var result strings.Builder
	for _, r := range input {
		if unicode.IsPrint(r) {
			result.WriteRune(r)
		}
	}
	return result.String()
}
