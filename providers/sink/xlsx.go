package sink

import (
	"context"
	"fmt"

	"github.com/leofalp/tabscrape/core/table"
	"github.com/xuri/excelize/v2"
)

// DefaultSheet is the worksheet the XLSX sink writes to.
const DefaultSheet = "data"

type xlsxSink struct {
	path  string
	sheet string
}

// XLSX returns a sink that writes the table to an Excel workbook at path.
// Number cells are stored as numbers, everything else as text.
func XLSX(path string) Sink {
	return &xlsxSink{path: path, sheet: DefaultSheet}
}

func (s *xlsxSink) Name() string { return "xlsx" }

func (s *xlsxSink) Write(ctx context.Context, t table.Table) error {
	err := s.write(t)
	report(ctx, s.Name(), s.path, t, err)
	return err
}

func (s *xlsxSink) write(t table.Table) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close workbook: %w", cerr)
		}
	}()

	if err := f.SetSheetName("Sheet1", s.sheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	for i, name := range t.Header() {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(s.sheet, cell, name); err != nil {
			return fmt.Errorf("write header %s: %w", cell, err)
		}
		if err := f.SetCellStyle(s.sheet, cell, cell, header); err != nil {
			return fmt.Errorf("style header %s: %w", cell, err)
		}
	}

	for r, row := range t.Rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			var value any = v.String()
			if n, ok := v.AsNumber(); ok {
				value = n
			}
			if err := f.SetCellValue(s.sheet, cell, value); err != nil {
				return fmt.Errorf("write cell %s: %w", cell, err)
			}
		}
	}

	if len(t.Columns) > 0 {
		if err := f.AutoFilter(s.sheet, autoFilterRange(len(t.Columns), len(t.Rows)), nil); err != nil {
			return fmt.Errorf("set auto filter: %w", err)
		}
	}

	if err := f.SaveAs(s.path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func autoFilterRange(columns, rows int) string {
	last, _ := excelize.CoordinatesToCellName(columns, rows+1)
	return "A1:" + last
}
