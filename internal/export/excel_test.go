package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/sundarv/expense-bot/internal/models"
)

func TestExcelWriter(t *testing.T) {
	w := NewExcelWriter(zap.NewNop())

	expenses := []*models.Expense{
		{Date: "05-01-2024", Time: "18:45", Place: "Zudio", Category: "Shopping", Amount: 1998},
		{Date: "06-01-2024", Time: "09:10", Place: "Anand Bakery", Category: "Food", Amount: 236.5},
	}

	data, err := w.Write(expenses)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{sheetName}, f.GetSheetList())

	header, err := f.GetCellValue(sheetName, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Date", header)

	place, err := f.GetCellValue(sheetName, "C2")
	require.NoError(t, err)
	assert.Equal(t, "Zudio", place)

	label, err := f.GetCellValue(sheetName, "D5")
	require.NoError(t, err)
	assert.Equal(t, "TOTAL", label)

	total, err := f.GetCellValue(sheetName, "E5")
	require.NoError(t, err)
	assert.Equal(t, "2234.5", total)
}

func TestExcelWriterEmpty(t *testing.T) {
	w := NewExcelWriter(zap.NewNop())

	data, err := w.Write(nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	label, err := f.GetCellValue(sheetName, "D3")
	require.NoError(t, err)
	assert.Equal(t, "TOTAL", label)
}
