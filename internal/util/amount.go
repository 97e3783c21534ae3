package util

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	reNonAmount       = regexp.MustCompile(`[^0-9.,]`)
	reThousandsDot    = regexp.MustCompile(`^\d{1,3}(?:\.\d{3})+(?:,\d+)?$`)
	reThousandsComma  = regexp.MustCompile(`^\d{1,3}(?:,\d{3})+(?:\.\d+)?$`)
	reDecimalCommaEnd = regexp.MustCompile(`^\d+,\d{1,2}$`)
)

// CleanPrice drops everything except digits, '.' and ','.
func CleanPrice(input string) string {
	return reNonAmount.ReplaceAllString(input, "")
}

// ParseAmount reads a cleaned price using either '.' or ',' as thousands separator.
func ParseAmount(input string) *float64 {
	compact := CleanPrice(input)
	compact = strings.Trim(compact, ".,")
	if compact == "" {
		return nil
	}
	switch {
	case reThousandsDot.MatchString(compact) && (strings.Contains(compact, ",") || strings.Count(compact, ".") > 1):
		compact = strings.ReplaceAll(compact, ".", "")
		compact = strings.ReplaceAll(compact, ",", ".")
	case reThousandsComma.MatchString(compact):
		compact = strings.ReplaceAll(compact, ",", "")
	case reDecimalCommaEnd.MatchString(compact):
		compact = strings.ReplaceAll(compact, ",", ".")
	default:
		compact = strings.ReplaceAll(compact, ",", "")
	}
	parsed, err := strconv.ParseFloat(compact, 64)
	if err != nil {
		return nil
	}
	return &parsed
}
