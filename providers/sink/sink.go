// Package sink persists normalized tables. File sinks write CSV, JSON and
// XLSX; the SQLite sink keeps a history of runs.
//
// Sinks report each write to the observability provider carried by the
// context (see observability.ContextWithObserver).
package sink

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/leofalp/tabscrape/core/table"
	"github.com/leofalp/tabscrape/providers/observability"
)

// Sink writes a table somewhere.
type Sink interface {
	Name() string
	Write(ctx context.Context, t table.Table) error
}

type multi struct {
	sinks []Sink
}

// Multi writes to every sink in order. All sinks are attempted; their
// errors are joined.
func Multi(sinks ...Sink) Sink {
	return &multi{sinks: sinks}
}

func (m *multi) Name() string { return "multi" }

func (m *multi) Write(ctx context.Context, t table.Table) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Write(ctx, t); err != nil {
			errs = append(errs, fmt.Errorf("%s sink: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// writeFile creates path (and its directory) and hands the file to write.
// A failed close is returned when write itself succeeded.
func writeFile(path string, write func(f *os.File) error) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close file: %w", cerr)
		}
	}()
	return write(f)
}

func report(ctx context.Context, name, path string, t table.Table, err error) {
	obs := observability.ObserverFromContext(ctx)
	attrs := []observability.Attribute{
		observability.String(observability.AttrSinkName, name),
		observability.String(observability.AttrSinkPath, path),
		observability.Int(observability.AttrTableRows, t.Len()),
	}
	if err != nil {
		obs.Error(ctx, "failed to save table", append(attrs, observability.Error(err))...)
		return
	}
	obs.Info(ctx, "table saved", attrs...)
}
