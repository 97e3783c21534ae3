package reconcile

import (
	"strings"
	"unicode"
)

// NormalizeCode lower-cases a code and removes whitespace, hyphens,
// underscores and dots. Whitespace is any Unicode space, NBSP included.
func NormalizeCode(code string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '-' || r == '_' || r == '.' {
			return -1
		}
		return r
	}, strings.ToLower(code))
}

// Tokenize splits a code on anything that is not a letter or digit.
func Tokenize(code string) []string {
	return strings.FieldsFunc(strings.ToLower(code), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
