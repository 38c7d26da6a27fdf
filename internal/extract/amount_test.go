package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestAmountExtractor(t *testing.T) *AmountExtractor {
	t.Helper()
	return NewAmountExtractor(DefaultLexicon(), 50)
}

func TestAmountExtractorKeywordAnchored(t *testing.T) {
	e := newTestAmountExtractor(t)

	tests := []struct {
		name string
		text string
		want string
	}{
		{"labeled total with currency and commas", "total: rs. 1,234.50", "1234.5"},
		{"grand total", "grand total 560.00", "560"},
		{"net amount with dash", "net amount- 780", "780"},
		{"amount with rupee sign", "amount: ₹2500", "2500"},
		{"no label no currency", "subtotal figures 890 alone", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.Extract(tt.text))
		})
	}
}

func TestAmountExtractorCurrencyAnchored(t *testing.T) {
	e := newTestAmountExtractor(t)

	tests := []struct {
		name string
		text string
		want string
	}{
		{"rs prefix", "pay rs 450 at counter", "450"},
		{"rupee sign", "₹ 1,050.25 net banking", "1050.25"},
		{"slash dash suffix", "1250/- received with thanks", "1250"},
		{"only suffix", "rupees two thousand 2000 only", "2000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.Extract(tt.text))
		})
	}
}

func TestAmountExtractorPicksLargestCandidate(t *testing.T) {
	e := newTestAmountExtractor(t)

	// Item lines, subtotal and total all qualify; the bill total is the
	// largest figure.
	text := "dosa rs 120 coffee rs 60 total: rs. 198.00 cash 200/-"
	assert.Equal(t, "200", e.Extract(text))
}

func TestAmountExtractorFloorsSmallFigures(t *testing.T) {
	e := newTestAmountExtractor(t)

	// Quantities and per-item prices under the floor never qualify.
	assert.Equal(t, "", e.Extract("qty 2 total 20"))
	assert.Equal(t, "55", e.Extract("total 55"))
}

func TestAmountExtractorNoCandidates(t *testing.T) {
	e := newTestAmountExtractor(t)

	assert.Equal(t, "", e.Extract("thank you visit again"))
	assert.Equal(t, "", e.Extract(""))
}

func TestAmountExtractorDeduplicates(t *testing.T) {
	e := newTestAmountExtractor(t)

	// The same figure matched by both tiers still yields one candidate.
	assert.Equal(t, "500", e.Extract("total: rs 500 paid 500/-"))
}

func TestAmountExtractorCustomFloor(t *testing.T) {
	e := NewAmountExtractor(DefaultLexicon(), 10)

	assert.Equal(t, "20", e.Extract("total 20"))
}
