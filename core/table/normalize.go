package table

import (
	"context"
	"strconv"
	"strings"

	"github.com/leofalp/tabscrape/core/parse"
	"github.com/leofalp/tabscrape/providers/observability"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

const (
	// DefaultSentinel fills every cell that is still missing at the end.
	DefaultSentinel = "Unknown"

	listSeparator = ", "
)

// DefaultRecordsKeys are the object keys searched, in order, for the records array.
var DefaultRecordsKeys = []string{"data", "extracted_data"}

// Option configures Normalize.
type Option func(*config)

type config struct {
	recordsKeys []string
	sentinel    string
	keepSign    bool
	observer    observability.Provider
}

// WithRecordsKeys replaces the keys searched for the records array.
func WithRecordsKeys(keys ...string) Option {
	return func(c *config) {
		if len(keys) > 0 {
			c.recordsKeys = keys
		}
	}
}

// WithSentinel sets the missing-value placeholder.
func WithSentinel(s string) Option {
	return func(c *config) {
		c.sentinel = s
	}
}

// WithKeepSign keeps a leading '-' when text such as "-£40" is coerced to a
// number. By default only digits and '.' survive, so it becomes 40.
func WithKeepSign(keep bool) Option {
	return func(c *config) {
		c.keepSign = keep
	}
}

// WithObserver reports pruned columns and skipped records to p.
func WithObserver(p observability.Provider) Option {
	return func(c *config) {
		c.observer = p
	}
}

func newConfig(opts []Option) config {
	cfg := config{
		recordsKeys: DefaultRecordsKeys,
		sentinel:    DefaultSentinel,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Normalize turns a structured value into a Table. It never fails: input
// without usable records yields a table with zero rows and zero columns.
func Normalize(v parse.Value, opts ...Option) Table {
	return NormalizeAll(context.Background(), []parse.Value{v}, opts...)
}

// NormalizeAll merges the records of every value, in order, into one Table.
func NormalizeAll(ctx context.Context, values []parse.Value, opts ...Option) Table {
	cfg := newConfig(opts)
	obs := observability.OrNop(cfg.observer)

	ctx, span := obs.StartSpan(ctx, observability.SpanNormalizeTable)
	defer span.End()

	var records []gjson.Result
	skipped := 0
	for _, v := range values {
		recs, n := extractRecords(v.Result(), cfg.recordsKeys)
		records = append(records, recs...)
		skipped += n
	}

	t := tabulate(records, cfg.sentinel)
	t.Skipped = skipped
	coerceNumeric(&t, cfg.sentinel, cfg.keepSign)
	prune(&t)
	fill(&t, cfg.sentinel)

	if skipped > 0 {
		obs.Warn(ctx, "skipped non-object records", observability.Int(observability.AttrTableSkipped, skipped))
	}
	if len(t.Pruned) > 0 {
		obs.Debug(ctx, "pruned empty columns", observability.Strings(observability.AttrTablePruned, t.Pruned))
	}
	obs.Histogram(observability.MetricTableRows).Record(ctx, float64(t.Len()))
	span.SetAttributes(
		observability.Int(observability.AttrTableRows, t.Len()),
		observability.Int(observability.AttrTableColumns, len(t.Columns)),
		observability.Int(observability.AttrTableSkipped, skipped),
	)
	span.SetStatus(observability.StatusOK, "")
	return t
}

// extractRecords finds the record list in v and drops entries that are not
// objects, returning how many were dropped.
func extractRecords(v gjson.Result, keys []string) ([]gjson.Result, int) {
	var candidates []gjson.Result
	switch {
	case v.IsArray():
		candidates = v.Array()
	case v.IsObject():
		candidates = recordsOf(v, keys)
	default:
		return nil, 0
	}

	records := make([]gjson.Result, 0, len(candidates))
	skipped := 0
	for _, c := range candidates {
		if c.IsObject() {
			records = append(records, c)
		} else {
			skipped++
		}
	}
	return records, skipped
}

func recordsOf(obj gjson.Result, keys []string) []gjson.Result {
	for _, key := range keys {
		if f, ok := field(obj, key); ok {
			switch {
			case f.IsArray():
				return f.Array()
			case f.IsObject():
				return []gjson.Result{f}
			}
		}
	}

	var arrays []gjson.Result
	fields := 0
	obj.ForEach(func(_, value gjson.Result) bool {
		fields++
		if value.IsArray() {
			arrays = append(arrays, value)
		}
		return true
	})
	switch {
	case len(arrays) == 1:
		return arrays[0].Array()
	case fields > 0:
		return []gjson.Result{obj}
	}
	return nil
}

func field(obj gjson.Result, name string) (gjson.Result, bool) {
	var found gjson.Result
	ok := false
	obj.ForEach(func(key, value gjson.Result) bool {
		if key.String() == name {
			found, ok = value, true
			return false
		}
		return true
	})
	return found, ok
}

// tabulate builds the union-of-keys table in first-appearance order.
// Absent keys and the sentinel both start out Missing.
func tabulate(records []gjson.Result, sentinel string) Table {
	var t Table
	index := make(map[string]int)

	for _, rec := range records {
		row := make([]Value, len(t.Columns))
		rec.ForEach(func(key, value gjson.Result) bool {
			name := key.String()
			i, ok := index[name]
			if !ok {
				i = len(t.Columns)
				index[name] = i
				t.Columns = append(t.Columns, Column{Name: name})
				row = append(row, Missing())
			}
			row[i] = cell(value, sentinel)
			return true
		})
		t.Rows = append(t.Rows, row)
	}

	for i, row := range t.Rows {
		for len(row) < len(t.Columns) {
			row = append(row, Missing())
		}
		t.Rows[i] = row
	}
	return t
}

func cell(v gjson.Result, sentinel string) Value {
	switch v.Type {
	case gjson.Null:
		return Missing()
	case gjson.Number:
		return Number(v.Float())
	case gjson.True, gjson.False:
		return Text(v.Raw)
	case gjson.String:
		s := strings.TrimSpace(v.Str)
		if s == "" || s == sentinel {
			return Missing()
		}
		return Text(v.Str)
	}

	if v.IsArray() {
		s := flatten(v)
		if strings.TrimSpace(s) == "" {
			return Missing()
		}
		return Text(s)
	}
	return Text(compact(v.Raw))
}

// flatten joins list elements with ", ". Null elements are skipped and
// nested containers are written as compact JSON.
func flatten(list gjson.Result) string {
	var parts []string
	list.ForEach(func(_, item gjson.Result) bool {
		switch item.Type {
		case gjson.Null:
		case gjson.String:
			parts = append(parts, item.Str)
		case gjson.JSON:
			parts = append(parts, compact(item.Raw))
		default:
			parts = append(parts, item.Raw)
		}
		return true
	})
	return strings.Join(parts, listSeparator)
}

func compact(raw string) string {
	return string(pretty.Ugly([]byte(raw)))
}

// coerceNumeric marks a column numeric when every cell that is neither
// missing nor the sentinel is a number, or text that reduces to a number
// once everything but digits and '.' is stripped. At least one such cell
// is required.
func coerceNumeric(t *Table, sentinel string, keepSign bool) {
	for j := range t.Columns {
		numeric := 0
		ok := true
		for _, row := range t.Rows {
			v := row[j]
			if v.IsNumber() {
				numeric++
				continue
			}
			s, isText := v.AsText()
			if !isText || s == sentinel {
				continue
			}
			if !isNumeric(stripNonNumeric(s)) {
				ok = false
				break
			}
			numeric++
		}

		if !ok || numeric == 0 {
			for _, row := range t.Rows {
				if f, isNum := row[j].AsNumber(); isNum {
					row[j] = Text(FormatNumber(f))
				}
			}
			continue
		}

		t.Columns[j].Kind = KindNumber
		for _, row := range t.Rows {
			s, isText := row[j].AsText()
			if !isText || s == sentinel {
				continue
			}
			row[j] = Number(parseNumeric(s, keepSign))
		}
	}
}

func stripNonNumeric(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' || r == '.' {
			return r
		}
		return -1
	}, s)
}

// parseNumeric parses the stripped form of s; anything unparseable is zero.
// With keepSign a leading minus sign survives the strip.
func parseNumeric(s string, keepSign bool) float64 {
	f, err := strconv.ParseFloat(stripNonNumeric(s), 64)
	if err != nil {
		return 0
	}
	if keepSign && strings.HasPrefix(strings.TrimSpace(s), "-") {
		return -f
	}
	return f
}

// isNumeric accepts digits with at most one decimal point.
func isNumeric(s string) bool {
	digits, points := 0, 0
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] == '.':
			points++
		case s[i] >= '0' && s[i] <= '9':
			digits++
		default:
			return false
		}
	}
	return digits > 0 && points <= 1
}

// prune drops every column whose cells are all missing.
func prune(t *Table) {
	keep := make([]int, 0, len(t.Columns))
	for j, c := range t.Columns {
		hasValue := false
		for _, row := range t.Rows {
			if !row[j].IsMissing() {
				hasValue = true
				break
			}
		}
		if hasValue {
			keep = append(keep, j)
		} else {
			t.Pruned = append(t.Pruned, c.Name)
		}
	}
	if len(keep) == len(t.Columns) {
		return
	}

	columns := make([]Column, len(keep))
	for i, j := range keep {
		columns[i] = t.Columns[j]
	}
	t.Columns = columns
	for r, row := range t.Rows {
		cells := make([]Value, len(keep))
		for i, j := range keep {
			cells[i] = row[j]
		}
		t.Rows[r] = cells
	}
}

// fill replaces every remaining Missing cell with the sentinel. A table that
// lost all its columns also loses its rows.
func fill(t *Table, sentinel string) {
	if len(t.Columns) == 0 {
		t.Rows = nil
		return
	}
	for _, row := range t.Rows {
		for j, v := range row {
			if v.IsMissing() {
				row[j] = Text(sentinel)
			}
		}
	}
}
