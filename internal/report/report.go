// Package report renders a batch outcome as an XLSX workbook so operators
// can reconcile a processing run outside the API response.
package report

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/gdm-fiscal/nfd-processor/internal/pipeline"
)

const sheet = "Results"

var headers = []string{
	"Original Name",
	"Status",
	"Message",
	"New Name",
	"Invoice Number",
	"Tax ID",
	"Issue Date",
	"Total",
}

// ResultsXLSX returns an XLSX workbook (as bytes) listing one row per
// processed item plus the aggregate counts.
func ResultsXLSX(results []pipeline.Result, log *slog.Logger) ([]byte, error) {
	if log == nil {
		log = slog.Default()
	}
	start := time.Now()

	f := excelize.NewFile()
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, r := range results {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		write(1, r.OriginalName)
		write(2, string(r.Status))
		write(3, r.Message)
		write(4, r.NewName)
		if r.Fields != nil {
			write(5, r.Fields.InvoiceNumber)
			write(6, r.Fields.TaxID)
			write(7, r.Fields.IssueDate)
			write(8, r.Fields.TotalValue)
		}
		row++
	}

	stats := pipeline.Summarize(results)
	summaryCell, _ := excelize.CoordinatesToCellName(1, row+1)
	_ = f.SetCellValue(sheet, summaryCell,
		fmt.Sprintf("total: %d, processed: %d, ignored: %d, errors: %d",
			stats.Total, stats.Processed, stats.Ignored, stats.Errors))

	_ = f.SetColWidth(sheet, "A", "A", 40)
	_ = f.SetColWidth(sheet, "B", "B", 12)
	_ = f.SetColWidth(sheet, "C", "C", 48)
	_ = f.SetColWidth(sheet, "D", "D", 60)
	_ = f.SetColWidth(sheet, "E", "H", 16)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	log.Info("report.xlsx.ok",
		"rows", len(results),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}
