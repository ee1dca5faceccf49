package services

import (
	"bytes"
	"fmt"

	"bizdesk/internal/common"
	"bizdesk/internal/models"

	"github.com/xuri/excelize/v2"
)

const (
	kudirSheet   = "КУДиР"
	summarySheet = "Итоги"
)

var kudirHeader = []string{"№", "Дата", "Документ", "Содержание операции", "Доходы, руб.", "Расходы, руб.", "Категория"}

// RenderKudir writes the ledger for a year as an xlsx workbook: one sheet
// with the entries and one with quarter totals and expense categories.
func RenderKudir(year int, entries []*models.KudirEntry, summary *models.KudirSummary) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(kudirSheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
	})
	if err != nil {
		return nil, err
	}
	amountStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "right"},
	})
	if err != nil {
		return nil, err
	}

	_ = f.SetCellValue(kudirSheet, "A1", fmt.Sprintf("Книга учета доходов и расходов за %d год", year))
	_ = f.MergeCell(kudirSheet, "A1", cellName(len(kudirHeader), 1))
	_ = f.SetCellStyle(kudirSheet, "A1", "A1", headerStyle)

	for i, h := range kudirHeader {
		_ = f.SetCellValue(kudirSheet, cellName(i+1, 2), h)
	}
	_ = f.SetCellStyle(kudirSheet, "A2", cellName(len(kudirHeader), 2), headerStyle)
	_ = f.SetColWidth(kudirSheet, "A", "A", 6)
	_ = f.SetColWidth(kudirSheet, "B", "B", 12)
	_ = f.SetColWidth(kudirSheet, "C", "C", 18)
	_ = f.SetColWidth(kudirSheet, "D", "D", 48)
	_ = f.SetColWidth(kudirSheet, "E", "F", 16)
	_ = f.SetColWidth(kudirSheet, "G", "G", 18)

	row := 3
	var income, expense int64
	for i, e := range entries {
		values := []any{
			i + 1,
			e.EntryDate.Format("02.01.2006"),
			e.DocumentRef,
			e.Description,
			amountCell(e.Income),
			amountCell(e.Expense),
			e.Category,
		}
		for col, v := range values {
			_ = f.SetCellValue(kudirSheet, cellName(col+1, row), v)
		}
		income += e.Income
		expense += e.Expense
		row++
	}
	_ = f.SetCellValue(kudirSheet, cellName(4, row), "Итого")
	_ = f.SetCellValue(kudirSheet, cellName(5, row), common.FormatRubles(income))
	_ = f.SetCellValue(kudirSheet, cellName(6, row), common.FormatRubles(expense))
	_ = f.SetCellStyle(kudirSheet, cellName(5, 3), cellName(6, row), amountStyle)

	if summary != nil {
		if err := writeKudirSummary(f, summary, headerStyle); err != nil {
			return nil, err
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("write kudir workbook: %w", err)
	}
	return buf, nil
}

func writeKudirSummary(f *excelize.File, summary *models.KudirSummary, headerStyle int) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return err
	}
	_ = f.SetColWidth(summarySheet, "A", "A", 22)
	_ = f.SetColWidth(summarySheet, "B", "C", 18)

	for i, h := range []string{"Квартал", "Доходы, руб.", "Расходы, руб."} {
		_ = f.SetCellValue(summarySheet, cellName(i+1, 1), h)
	}
	_ = f.SetCellStyle(summarySheet, "A1", "C1", headerStyle)
	row := 2
	for _, q := range summary.Quarters {
		_ = f.SetCellValue(summarySheet, cellName(1, row), fmt.Sprintf("%d квартал", q.Quarter))
		_ = f.SetCellValue(summarySheet, cellName(2, row), common.FormatRubles(q.Income))
		_ = f.SetCellValue(summarySheet, cellName(3, row), common.FormatRubles(q.Expense))
		row++
	}
	_ = f.SetCellValue(summarySheet, cellName(1, row), "Итого за год")
	_ = f.SetCellValue(summarySheet, cellName(2, row), common.FormatRubles(summary.TotalIncome))
	_ = f.SetCellValue(summarySheet, cellName(3, row), common.FormatRubles(summary.TotalExpense))

	row += 2
	_ = f.SetCellValue(summarySheet, cellName(1, row), "Категория расходов")
	_ = f.SetCellValue(summarySheet, cellName(2, row), "Сумма, руб.")
	_ = f.SetCellStyle(summarySheet, cellName(1, row), cellName(2, row), headerStyle)
	row++
	for _, c := range summary.ExpenseByCategory {
		_ = f.SetCellValue(summarySheet, cellName(1, row), c.Category)
		_ = f.SetCellValue(summarySheet, cellName(2, row), common.FormatRubles(c.Amount))
		row++
	}
	return nil
}

func amountCell(kopecks int64) string {
	if kopecks == 0 {
		return ""
	}
	return common.FormatRubles(kopecks)
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
