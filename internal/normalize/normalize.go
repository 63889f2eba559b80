// Package normalize converts loosely-typed extracted fields into
// canonical typed values, tolerating the handful of formats receipts
// actually use.
package normalize

import (
	"strconv"
	"strings"
	"time"
)

// dateLayouts is tried strictly in order; the first layout that parses
// wins. Ordering is load-bearing: DD/MM is attempted before MM/DD, so
// an ambiguous "03/04/2024" resolves as day 3, month 4. This inherited
// ambiguity is deliberate and pinned by tests.
var dateLayouts = []string{
	"2006-01-02",      // YYYY-MM-DD
	"02/01/2006",      // DD/MM/YYYY
	"01/02/2006",      // MM/DD/YYYY
	"January 2, 2006", // Month DD, YYYY
	"02-01-2006",      // DD-MM-YYYY
	"01-02-2006",      // MM-DD-YYYY
	"2 January 2006",  // DD Month YYYY
	"2006/01/02",      // YYYY/MM/DD
}

// ParseDate parses a free-text date. Returns false when no layout
// matches.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

var currencyReplacer = strings.NewReplacer("$", "", "€", "", "£", "", ",", "")

// ParseAmount parses a monetary string, stripping currency symbols and
// thousands separators. Returns false on any residual parse failure.
func ParseAmount(s string) (float64, bool) {
	cleaned := strings.TrimSpace(currencyReplacer.Replace(s))
	if cleaned == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
