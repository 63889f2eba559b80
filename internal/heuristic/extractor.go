// Package heuristic derives a best-effort receipt record from raw text
// using line-oriented pattern matching. It has no network dependency and
// no failure mode: the worst case is an all-empty result with the
// merchant left as "Unknown".
package heuristic

import (
	"regexp"
	"strings"

	"github.com/aishwarya1-1/AutomateAccounts/internal/extract"
)

// UnknownMerchant is the merchant placeholder when no plausible name is
// found near the top of the document.
const UnknownMerchant = "Unknown"

// merchantDenylist disqualifies header lines that are receipt boilerplate
// rather than a merchant name.
var merchantDenylist = []string{"receipt", "invoice", "tel", "fax", "phone", "date", "time"}

var (
	reAmount = regexp.MustCompile(`\d+\.\d+`)

	// Tried in priority order per line; the first line matching any
	// pattern fixes the date as the literal matched substring.
	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\d{1,2}/\d{1,2}/\d{2,4}`), // MM/DD/YYYY or DD/MM/YYYY
		regexp.MustCompile(`\d{1,2}-\d{1,2}-\d{2,4}`), // MM-DD-YYYY or DD-MM-YYYY
		regexp.MustCompile(`\d{4}-\d{2}-\d{2}`),       // YYYY-MM-DD
	}
)

// Extract runs the pattern rules over text. It always succeeds; fields
// that match nothing stay empty. No line-item extraction is attempted.
func Extract(text string) extract.Result {
	fields := extract.Fields{
		MerchantName: UnknownMerchant,
		Items:        []extract.LineItem{},
	}

	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		lower := strings.ToLower(line)

		// Merchant name is usually at the top: first of the leading
		// five lines that is longer than 3 chars and not boilerplate.
		if i < 5 && len(line) > 3 && fields.MerchantName == UnknownMerchant {
			if !containsAny(lower, merchantDenylist) {
				fields.MerchantName = line
			}
		}

		// Last decimal on the first matching "total" line wins: item
		// subtotals often precede the final total on the same line.
		if strings.Contains(lower, "total") && fields.TotalAmount.IsEmpty() {
			if amounts := reAmount.FindAllString(line, -1); len(amounts) > 0 {
				fields.TotalAmount = extract.FlexValue(amounts[len(amounts)-1])
			}
		}

		if fields.PurchasedAt == "" {
			for _, p := range datePatterns {
				if m := p.FindString(line); m != "" {
					fields.PurchasedAt = m
					break
				}
			}
		}
	}

	return extract.Successful(fields)
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
