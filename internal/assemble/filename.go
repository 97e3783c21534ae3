package assemble

import (
	"strings"
	"time"
	"unicode"
)

var dateLayouts = []string{"2006-01-02", "02/01/2006", "2/1/2006", "02-01-2006", "02.01.2006", time.RFC3339}

// Initials takes the first letter or digit of every word of an address.
func Initials(address string) string {
	var b strings.Builder
	for _, word := range strings.Fields(address) {
		for _, r := range word {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				b.WriteRune(unicode.ToUpper(r))
				break
			}
		}
	}
	return b.String()
}

// ParseDate accepts the date spellings operators type into the order form.
func ParseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Filename is "<initials>_<DDMMYYYY><ext>". Unparseable dates fall back to now.
func Filename(address, date string, now time.Time, ext string) string {
	t, ok := ParseDate(date)
	if !ok {
		t = now
	}
	initials := Initials(address)
	if initials == "" {
		initials = "ORDER"
	}
	return initials + "_" + t.Format("02012006") + ext
}
