package core

// =============================================================================
// OBSERVATION TABLE
// =============================================================================

// Row is a single observation keyed by component identifier.
type Row = map[string]string

// Table is an ordered, read-only collection of observation rows.
// Derived tables are always new values; rows are copied on the way in and out.
type Table struct {
	columns []string
	rows    []Row
}

// NewTable builds a table from column names and rows. Rows are copied.
func NewTable(columns []string, rows []Row) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)

	copied := make([]Row, 0, len(rows))
	for _, r := range rows {
		copied = append(copied, cloneRow(r))
	}
	return &Table{columns: cols, rows: copied}
}

// Columns returns the column names in order.
func (t *Table) Columns() []string {
	if t == nil {
		return nil
	}
	cols := make([]string, len(t.columns))
	copy(cols, t.columns)
	return cols
}

// HasColumn reports whether the table has the named column.
func (t *Table) HasColumn(name string) bool {
	if t == nil {
		return false
	}
	for _, c := range t.columns {
		if c == name {
			return true
		}
	}
	return false
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

// Row returns a copy of the i-th row.
func (t *Table) Row(i int) Row {
	return cloneRow(t.rows[i])
}

// Value returns the value of column at row i.
func (t *Table) Value(i int, column string) string {
	return t.rows[i][column]
}

// Rows returns copies of all rows.
func (t *Table) Rows() []Row {
	if t == nil {
		return nil
	}
	out := make([]Row, 0, len(t.rows))
	for _, r := range t.rows {
		out = append(out, cloneRow(r))
	}
	return out
}

// Distinct returns the distinct values of a column in first-seen order.
func (t *Table) Distinct(column string) []string {
	if t == nil {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, r := range t.rows {
		v := r[column]
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func cloneRow(r Row) Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// =============================================================================
// DATASET
// =============================================================================

// Dataset is a structure reference plus its observation table.
type Dataset struct {
	Structure StructureRef
	Data      *Table
}

// WithData returns a new dataset sharing the structure but holding data.
func (d *Dataset) WithData(data *Table) *Dataset {
	return &Dataset{Structure: d.Structure, Data: data}
}

// DataStructure resolves the dataset's DSD.
func (d *Dataset) DataStructure() (*DataStructure, error) {
	if d == nil {
		return nil, newError(CodeNoStructure, "nil dataset")
	}
	return d.Structure.DataStructure()
}
