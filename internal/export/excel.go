package export

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sundarv/expense-bot/internal/models"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const sheetName = "Expenses"

// ExcelWriter renders expense reports to XLSX workbooks.
type ExcelWriter struct {
	logger *zap.Logger
}

// NewExcelWriter creates a new Excel report writer.
func NewExcelWriter(logger *zap.Logger) *ExcelWriter {
	return &ExcelWriter{logger: logger}
}

// Write renders the chat's expenses into an XLSX workbook with the same
// shape as the CSV report: header, data rows, blank row, TOTAL row.
func (w *ExcelWriter) Write(expenses []*models.Expense) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to drop default sheet: %w", err)
	}

	for col, title := range []string{"Date", "Time", "Place", "Category", "Amount"} {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheetName, cell, title); err != nil {
			return nil, fmt.Errorf("failed to set header cell: %w", err)
		}
	}

	total := decimal.Zero
	row := 2
	for _, e := range expenses {
		values := []interface{}{e.Date, e.Time, e.Place, e.Category, e.Amount}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return nil, fmt.Errorf("failed to set cell: %w", err)
			}
		}
		total = total.Add(decimal.NewFromFloat(e.Amount))
		row++
	}

	// blank row, then the total row mirroring the CSV layout
	row++
	totalCell, _ := excelize.CoordinatesToCellName(4, row)
	if err := f.SetCellValue(sheetName, totalCell, "TOTAL"); err != nil {
		return nil, fmt.Errorf("failed to set total label: %w", err)
	}
	amountCell, _ := excelize.CoordinatesToCellName(5, row)
	totalValue, _ := total.Float64()
	if err := f.SetCellValue(sheetName, amountCell, totalValue); err != nil {
		return nil, fmt.Errorf("failed to set total value: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}

	w.logger.Debug("Excel report written",
		zap.Int("rows", len(expenses)),
		zap.Int("bytes", buf.Len()))

	return buf.Bytes(), nil
}
