package extract

import "strings"

// FallbackCategory is returned when no category keyword matches.
const FallbackCategory = "Other"

// Classifier assigns an expense category by counting keyword hits per
// category over the full recognized text.
type Classifier struct {
	lex *Lexicon
}

// NewClassifier creates a classifier over the given lexicon.
func NewClassifier(lex *Lexicon) *Classifier {
	return &Classifier{lex: lex}
}

// Classify scores every category and returns the highest-scoring one.
// Categories are scanned in lexicon declaration order and ties keep the
// earlier category, so the result is deterministic. All-zero scores
// yield the fallback category.
func (c *Classifier) Classify(text string) string {
	t := strings.ToLower(text)

	best := FallbackCategory
	bestScore := 0

	for _, cat := range c.lex.Categories {
		score := 0
		for _, kw := range cat.Keywords {
			if strings.Contains(t, kw) {
				score++
			}
		}
		if score > bestScore {
			best = cat.Name
			bestScore = score
		}
	}

	return best
}
