package table

// Kind is the inferred type of a column.
type Kind int

const (
	KindText Kind = iota
	KindNumber
)

func (k Kind) String() string {
	if k == KindNumber {
		return "number"
	}
	return "text"
}

// Column is a named, typed table column.
type Column struct {
	Name string
	Kind Kind
}

// Table is the normalized dataset. Rows are positional against Columns.
// Pruned lists the columns dropped because no row carried a value, and
// Skipped counts the records ignored because they were not objects.
type Table struct {
	Columns []Column
	Rows    [][]Value
	Pruned  []string
	Skipped int
}

// Field is one named cell of a Record.
type Field struct {
	Name  string
	Value Value
}

// Record is a row with its column names attached, in column order.
type Record []Field

// Len returns the number of rows.
func (t Table) Len() int {
	return len(t.Rows)
}

// Empty reports whether the table has no rows or no columns.
func (t Table) Empty() bool {
	return len(t.Rows) == 0 || len(t.Columns) == 0
}

// Header returns the column names in order.
func (t Table) Header() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Column looks up a column index by name.
func (t Table) Column(name string) (int, bool) {
	for i, c := range t.Columns {
		if c.Name == name {
			return i, true
		}
	}
	return -1, false
}

// Records returns every row as an ordered list of fields.
func (t Table) Records() []Record {
	out := make([]Record, len(t.Rows))
	for i, row := range t.Rows {
		rec := make(Record, len(t.Columns))
		for j, c := range t.Columns {
			rec[j] = Field{Name: c.Name, Value: row[j]}
		}
		out[i] = rec
	}
	return out
}

// StringRows renders every cell with Value.String.
func (t Table) StringRows() [][]string {
	out := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = v.String()
		}
		out[i] = cells
	}
	return out
}
