package extract

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// number with optional thousands commas and up to two decimal digits
const numberPattern = `([\d,]+(?:\.\d{1,2})?)`

// AmountExtractor finds the most likely bill total in recognized text.
// Receipts carry many numbers (item prices, tax lines, subtotals,
// change); the true total is almost always the largest qualifying
// figure, so the extractor collects candidates from two independent
// pattern tiers and picks the maximum.
type AmountExtractor struct {
	keywordPatterns  []*regexp.Regexp
	currencyPatterns []*regexp.Regexp
	floor            decimal.Decimal
}

// NewAmountExtractor compiles the match patterns for the given lexicon.
// floor is the minimum qualifying value; anything below it is treated
// as a quantity or line-item, not a total.
func NewAmountExtractor(lex *Lexicon, floor int64) *AmountExtractor {
	e := &AmountExtractor{floor: decimal.NewFromInt(floor)}

	// Tier 1: keyword-anchored, e.g. "grand total: Rs. 1,234.50".
	for _, kw := range lex.AmountKeywords {
		p := regexp.QuoteMeta(kw) + `[:\-]?\s*(?:rs\.?|₹|rupees)?\s*` + numberPattern
		e.keywordPatterns = append(e.keywordPatterns, regexp.MustCompile(p))
	}

	// Tier 2: currency- or suffix-anchored, independent of keywords.
	// The final payable figure is often written as "₹250", "250/-" or
	// "250 only" with no label at all.
	for _, p := range []string{
		`rs\.?\s*` + numberPattern,
		`rupees\s*` + numberPattern,
		`₹\s*` + numberPattern,
		numberPattern + `\s*/-`,
		numberPattern + `\s*only`,
	} {
		e.currencyPatterns = append(e.currencyPatterns, regexp.MustCompile(p))
	}

	return e
}

// Extract returns the best total candidate as a decimal string, or ""
// when no candidate qualifies. Callers must treat "" as unknown, never
// as zero.
func (e *AmountExtractor) Extract(text string) string {
	text = strings.ToLower(text)

	seen := make(map[string]struct{})
	var best decimal.Decimal
	found := false

	collect := func(patterns []*regexp.Regexp) {
		for _, p := range patterns {
			for _, m := range p.FindAllStringSubmatch(text, -1) {
				raw := strings.ReplaceAll(m[1], ",", "")
				val, err := decimal.NewFromString(raw)
				if err != nil {
					continue
				}
				if val.LessThan(e.floor) {
					continue
				}
				key := trimZeros(val.String())
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}
				if !found || val.GreaterThan(best) {
					best = val
					found = true
				}
			}
		}
	}

	collect(e.keywordPatterns)
	collect(e.currencyPatterns)

	if !found {
		return ""
	}
	return trimZeros(best.String())
}

// trimZeros drops a trailing zero fraction so "1234.50" and "560.00"
// render as "1234.5" and "560".
func trimZeros(s string) string {
	if !strings.Contains(s, ".") {
		return s
	}
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}
