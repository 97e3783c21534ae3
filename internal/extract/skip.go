package extract

import (
	"regexp"
	"strings"
)

var (
	rePhone  = regexp.MustCompile(`^\+?[\d\s().\-]{8,}$`)
	reEmail  = regexp.MustCompile(`(?i)^[\w.+\-]+@[\w\-]+(\.[\w\-]+)+$`)
	reDomain = regexp.MustCompile(`(?i)^(https?://)?(www\.)?[a-z0-9\-]+(\.[a-z0-9\-]+)*\.(com|net|org|biz|info|io|co|au|nz|uk)(\.[a-z]{2})?(/\S*)?$`)
)

// SkipFilter recognises letterhead and footer text that suppliers place in the
// same tables as product rows.
type SkipFilter struct {
	words map[string]struct{}
}

func NewSkipFilter(words []string) *SkipFilter {
	f := &SkipFilter{words: make(map[string]struct{}, len(words))}
	for _, w := range words {
		f.words[strings.ToUpper(strings.TrimSpace(w))] = struct{}{}
	}
	return f
}

func (f *SkipFilter) Skippable(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return true
	}
	if _, ok := f.words[strings.ToUpper(text)]; ok {
		return true
	}
	if reEmail.MatchString(text) || reDomain.MatchString(text) {
		return true
	}
	return isPhone(text)
}

func isPhone(text string) bool {
	if !rePhone.MatchString(text) {
		return false
	}
	digits := 0
	for _, r := range text {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits >= 8
}
