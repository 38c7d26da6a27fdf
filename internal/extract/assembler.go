package extract

import (
	"strings"
	"time"

	"go.uber.org/zap"
)

// Display formats for the assembled record.
const (
	DateLayout = "02-01-2006"
	TimeLayout = "15:04"
)

// Assembler orchestrates the four extractors into one Record. It is a
// pure function over the recognized lines apart from the clock used for
// date/time fallbacks.
type Assembler struct {
	amounts    *AmountExtractor
	places     *PlaceExtractor
	categories *Classifier
	now        func() time.Time
	logger     *zap.Logger
}

// AssemblerOption configures an Assembler.
type AssemblerOption func(*Assembler)

// WithClock overrides the time source used when the receipt carries no
// recognizable date or time.
func WithClock(now func() time.Time) AssemblerOption {
	return func(a *Assembler) {
		a.now = now
	}
}

// NewAssembler creates an assembler with extractors built from the
// given lexicon. floor is the minimum qualifying amount candidate.
func NewAssembler(lex *Lexicon, floor int64, logger *zap.Logger, opts ...AssemblerOption) *Assembler {
	a := &Assembler{
		amounts:    NewAmountExtractor(lex, floor),
		places:     NewPlaceExtractor(lex),
		categories: NewClassifier(lex),
		now:        time.Now,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assemble maps recognized text lines to a structured Record. Missing
// date and time default to the current local values; missing place and
// amount stay empty and an unmatched category falls back to "Other".
// All of those are expected outcomes surfaced for user confirmation,
// not errors.
func (a *Assembler) Assemble(lines []string) Record {
	cleaned := make([]string, 0, len(lines))
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			cleaned = append(cleaned, l)
		}
	}
	full := strings.Join(cleaned, " ")

	rec := Record{
		Date:     ExtractDate(full),
		Time:     ExtractTime(full),
		Place:    a.places.Extract(cleaned),
		Category: a.categories.Classify(full),
		Amount:   a.amounts.Extract(full),
	}

	if rec.Date == "" {
		rec.Date = a.now().Format(DateLayout)
	}
	if rec.Time == "" {
		rec.Time = a.now().Format(TimeLayout)
	}

	a.logger.Debug("Assembled record from recognized text",
		zap.Int("line_count", len(cleaned)),
		zap.String("place", rec.Place),
		zap.String("category", rec.Category),
		zap.String("amount", rec.Amount))

	return rec
}
