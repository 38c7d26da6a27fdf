package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/sundarv/expense-bot/internal/models"
)

var csvHeader = []string{"Date", "Time", "Place", "Category", "Amount"}

// WriteCSV renders the chat's expenses as a CSV report: header, one row
// per record in insertion order, a blank row, then a TOTAL row.
func WriteCSV(expenses []*models.Expense) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	total := decimal.Zero
	for _, e := range expenses {
		row := []string{
			e.Date,
			e.Time,
			e.Place,
			e.Category,
			formatAmount(e.Amount),
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
		total = total.Add(decimal.NewFromFloat(e.Amount))
	}

	if err := w.Write([]string{""}); err != nil {
		return nil, fmt.Errorf("failed to write CSV separator row: %w", err)
	}
	if err := w.Write([]string{"", "", "", "TOTAL", total.String()}); err != nil {
		return nil, fmt.Errorf("failed to write CSV total row: %w", err)
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush CSV: %w", err)
	}

	return buf.Bytes(), nil
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
