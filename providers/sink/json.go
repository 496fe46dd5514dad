package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/leofalp/tabscrape/core/table"
	"github.com/tidwall/pretty"
)

// JSONIndent is the indentation used by WriteJSON.
const JSONIndent = "    "

var jsonOptions = &pretty.Options{Indent: JSONIndent}

// MarshalRecords encodes the table as a compact JSON array of objects.
// Keys follow the column order, numbers are JSON numbers and every other
// cell is a string.
func MarshalRecords(t table.Table) []byte {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, rec := range t.Records() {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(MarshalRecord(rec))
	}
	buf.WriteByte(']')
	return buf.Bytes()
}

// MarshalRecord encodes one record as a compact JSON object.
func MarshalRecord(rec table.Record) []byte {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range rec {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(quote(f.Name))
		buf.WriteByte(':')
		if n, ok := f.Value.AsNumber(); ok && !math.IsInf(n, 0) && !math.IsNaN(n) {
			buf.WriteString(table.FormatNumber(n))
		} else {
			buf.Write(quote(f.Value.String()))
		}
	}
	buf.WriteByte('}')
	return buf.Bytes()
}

func quote(s string) []byte {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s) // encoding a string cannot fail
	return bytes.TrimRight(buf.Bytes(), "\n")
}

// WriteJSON writes the records as an indented JSON array.
func WriteJSON(w io.Writer, t table.Table) error {
	if _, err := w.Write(pretty.PrettyOptions(MarshalRecords(t), jsonOptions)); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}

type jsonSink struct {
	path string
}

// JSON returns a sink that writes the table to path.
func JSON(path string) Sink {
	return &jsonSink{path: path}
}

func (s *jsonSink) Name() string { return "json" }

func (s *jsonSink) Write(ctx context.Context, t table.Table) error {
	err := writeFile(s.path, func(f *os.File) error { return WriteJSON(f, t) })
	report(ctx, s.Name(), s.path, t, err)
	return err
}
