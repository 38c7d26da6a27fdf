package extract

import (
	"regexp"
	"strings"
	"unicode"
)

// merchant identity is assumed to sit in the receipt's header block
const placeScanLines = 12

var nonLetterPattern = regexp.MustCompile(`[^a-z ]`)

// PlaceExtractor guesses the merchant or location from the top lines of
// a receipt via a priority cascade: known brand, then business-looking
// line, then area/city line.
type PlaceExtractor struct {
	lex *Lexicon
}

// NewPlaceExtractor creates a place extractor over the given lexicon.
func NewPlaceExtractor(lex *Lexicon) *PlaceExtractor {
	return &PlaceExtractor{lex: lex}
}

// Extract scans the first lines of the receipt and returns the best
// merchant/location guess, or "".
//
// A brand hit short-circuits the scan. For the other two tiers, a later
// qualifying line overwrites an earlier one, so the LAST match in scan
// order decides. That recency bias toward the end of the header block
// is intentional and load-bearing: changing it to first-match-wins
// changes observable output on multi-line headers.
func (e *PlaceExtractor) Extract(lines []string) string {
	shopName := ""
	areaName := ""

	n := len(lines)
	if n > placeScanLines {
		n = placeScanLines
	}

	for _, line := range lines[:n] {
		raw := strings.TrimSpace(line)
		clean := strings.TrimSpace(nonLetterPattern.ReplaceAllString(strings.ToLower(raw), ""))

		if len(clean) < 3 {
			continue
		}

		for _, brand := range e.lex.Brands {
			if strings.Contains(clean, brand) {
				return titleCase(brand)
			}
		}

		if containsAny(clean, e.lex.BusinessWords) && !containsAny(clean, e.lex.AddressWords) {
			shopName = titleCase(raw)
		}

		if containsAny(clean, e.lex.AreaWords) {
			areaName = titleCase(raw)
		}

		// Full-caps single-word alphabetic lines are usually city names
		// printed as headers, e.g. "ARUPPUKOTTAI".
		if isUpperAlpha(raw) && len(clean) > 5 && !strings.Contains(clean, " ") {
			areaName = titleCase(raw)
		}
	}

	if shopName != "" {
		return shopName
	}
	return areaName
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// isUpperAlpha reports whether s contains at least one letter and no
// lowercase letters.
func isUpperAlpha(s string) bool {
	hasLetter := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			hasLetter = true
		}
	}
	return hasLetter
}

// titleCase uppercases the first letter of every word and lowercases
// the rest, like Python's str.title().
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
		} else {
			b.WriteRune(r)
			prevLetter = false
		}
	}
	return b.String()
}
