package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/jonathan/job-recommender/internal/types"
)

// SheetName is the worksheet holding recommendations.
const SheetName = "Recommendations"

// ExcelExporter writes an .xlsx workbook with a single sheet.
type ExcelExporter struct{}

func (ExcelExporter) Format() string    { return FormatExcel }
func (ExcelExporter) Extension() string { return ".xlsx" }

func (ExcelExporter) Export(w io.Writer, postings []types.ScoredPosting, _ time.Time) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := Header()
	if err := setRow(f, 1, toCells(header)); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	if err := f.SetRowStyle(SheetName, 1, 1, bold); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, p := range postings {
		cells := toCells(row(i+1, p))
		// keep numeric columns numeric so the sheet can be sorted
		cells[0] = i + 1
		cells[11] = p.RecommendationScore
		for j, factor := range types.FactorNames {
			cells[12+j] = p.ScoreBreakdown.Get(factor)
		}
		if err := setRow(f, i+2, cells); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(SheetName, "B", "D", 32); err != nil {
		return fmt.Errorf("failed to size columns: %w", err)
	}

	return f.Write(w)
}

func setRow(f *excelize.File, rowNum int, cells []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(SheetName, cell, &cells); err != nil {
		return fmt.Errorf("failed to write row %d: %w", rowNum, err)
	}
	return nil
}

func toCells(values []string) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}
