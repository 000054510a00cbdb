package exporter

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"
)

// RunMeta is the provenance block stamped into the workbook summary sheet.
type RunMeta struct {
	RunID       string
	GeneratedAt time.Time
	InputFile   string
	CohortSize  int
}

// Table is one sheet of the workbook.
type Table struct {
	Sheet   string
	Headers []string
	Records [][]string
}

// WriteWorkbook writes the combined analysis report: one summary sheet with
// run metadata plus one sheet per result table. Returns the full path.
func WriteWorkbook(outputDir, fileName string, meta RunMeta, tables []Table, logger *slog.Logger) (string, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(tables) == 0 {
		return "", fmt.Errorf("no tables to write")
	}

	f := excelize.NewFile()
	defer f.Close()

	const summarySheet = "Summary"
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return "", fmt.Errorf("rename summary sheet: %w", err)
	}

	summaryRows := [][]interface{}{
		{"Run ID", meta.RunID},
		{"Generated at", meta.GeneratedAt.Format(time.RFC3339)},
		{"Input file", meta.InputFile},
		{"Cohort size", meta.CohortSize},
	}
	for i, row := range summaryRows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return "", fmt.Errorf("summary cell name: %w", err)
		}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return "", fmt.Errorf("write summary row %d: %w", i+1, err)
		}
	}

	for _, table := range tables {
		if _, err := f.NewSheet(table.Sheet); err != nil {
			return "", fmt.Errorf("create sheet %q: %w", table.Sheet, err)
		}

		rowNum := 1
		if len(table.Headers) > 0 {
			if err := writeRow(f, table.Sheet, rowNum, table.Headers); err != nil {
				return "", fmt.Errorf("write headers for %q: %w", table.Sheet, err)
			}
			rowNum++
		}
		for _, record := range table.Records {
			if err := writeRow(f, table.Sheet, rowNum, record); err != nil {
				return "", fmt.Errorf("write row %d of %q: %w", rowNum, table.Sheet, err)
			}
			rowNum++
		}
	}

	fullPath := filepath.Join(outputDir, fileName)
	if err := f.SaveAs(fullPath); err != nil {
		return "", fmt.Errorf("save workbook: %w", err)
	}

	logger.Info("workbook written",
		"file", fileName,
		"sheets", len(tables)+1,
	)
	return fullPath, nil
}

func writeRow(f *excelize.File, sheet string, rowNum int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}
	return f.SetSheetRow(sheet, cell, &row)
}
