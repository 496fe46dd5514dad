package sink

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/leofalp/tabscrape/core/table"
)

// WriteCSV writes a header row followed by one row per record. Missing
// cells hold the sentinel text already, so they are written literally.
// A table without columns produces no output.
func WriteCSV(w io.Writer, t table.Table) error {
	if len(t.Columns) == 0 {
		return nil
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header()); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	if err := cw.WriteAll(t.StringRows()); err != nil {
		return fmt.Errorf("write csv rows: %w", err)
	}
	return nil
}

type csvSink struct {
	path string
}

// CSV returns a sink that writes the table to path.
func CSV(path string) Sink {
	return &csvSink{path: path}
}

func (s *csvSink) Name() string { return "csv" }

func (s *csvSink) Write(ctx context.Context, t table.Table) error {
	err := writeFile(s.path, func(f *os.File) error { return WriteCSV(f, t) })
	report(ctx, s.Name(), s.path, t, err)
	return err
}
