package extract

import "regexp"

// Receipt layouts vary too much for calendar validation to pay off, so
// both scanners take the first plausible token in document order and
// leave correctness to the user confirmation step.
var (
	datePattern = regexp.MustCompile(`\d{2}[/-]\d{2}[/-]\d{2,4}`)
	timePattern = regexp.MustCompile(`\d{1,2}:\d{2}`)
)

// ExtractDate returns the first DD/MM/YY or DD-MM-YYYY style token in
// the text, or "" when none is present.
func ExtractDate(text string) string {
	return datePattern.FindString(text)
}

// ExtractTime returns the first H:MM or HH:MM token in the text, or ""
// when none is present.
func ExtractTime(text string) string {
	return timePattern.FindString(text)
}
