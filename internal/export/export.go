// Package export renders tables, reconciliation results and row sets in the
// CLI output formats: aligned text, JSON, CSV and Parquet.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/nucleus/sdmx-core/internal/core"
	"github.com/nucleus/sdmx-core/internal/reconcile"
)

// Format is an output encoding.
type Format string

const (
	FormatTable   Format = "table"
	FormatJSON    Format = "json"
	FormatCSV     Format = "csv"
	FormatParquet Format = "parquet"
)

// Formats lists every supported format.
var Formats = []Format{FormatTable, FormatJSON, FormatCSV, FormatParquet}

// ParseFormat parses a format name, case-insensitively.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported output format %q", s)
}

// Binary reports whether the format must go to a file rather than a terminal.
func (f Format) Binary() bool {
	return f == FormatParquet
}

// =============================================================================
// ROW SETS
// =============================================================================

// Rows is a header plus string cells, the common shape of every listing.
// Numeric names columns written as numbers in JSON and Parquet.
type Rows struct {
	Header  []string
	Cells   [][]string
	Numeric map[string]bool
}

// WriteRows renders a row set.
func WriteRows(w io.Writer, format Format, rows Rows) error {
	switch format {
	case FormatTable:
		return writeText(w, rows)
	case FormatJSON:
		return WriteJSON(w, rows.objects())
	case FormatCSV:
		return writeCSV(w, rows)
	case FormatParquet:
		return writeParquet(w, rows)
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

// WriteJSON writes v as indented JSON followed by a newline.
func WriteJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	b = append(b, '\n')
	_, err = w.Write(b)
	return err
}

func (r Rows) objects() []map[string]any {
	out := make([]map[string]any, 0, len(r.Cells))
	for _, cells := range r.Cells {
		obj := make(map[string]any, len(r.Header))
		for i, col := range r.Header {
			var v string
			if i < len(cells) {
				v = cells[i]
			}
			obj[col] = r.value(col, v)
		}
		out = append(out, obj)
	}
	return out
}

// value types a cell: numeric columns become float64, or nil when empty or
// not a number.
func (r Rows) value(col, v string) any {
	if !r.Numeric[col] {
		return v
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return nil
	}
	return f
}

func writeCSV(w io.Writer, rows Rows) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(rows.Header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows.Cells); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// =============================================================================
// TABLES AND RESULTS
// =============================================================================

// TableRows converts a table; numeric lists the measure columns.
func TableRows(t *core.Table, numeric ...string) Rows {
	rows := Rows{
		Header:  t.Columns(),
		Cells:   make([][]string, 0, t.Len()),
		Numeric: make(map[string]bool, len(numeric)),
	}
	for _, col := range numeric {
		rows.Numeric[col] = true
	}
	for i := 0; i < t.Len(); i++ {
		cells := make([]string, len(rows.Header))
		for j, col := range rows.Header {
			cells[j] = t.Value(i, col)
		}
		rows.Cells = append(rows.Cells, cells)
	}
	return rows
}

// WriteTable renders a table; numeric lists the measure columns.
func WriteTable(w io.Writer, format Format, t *core.Table, numeric ...string) error {
	return WriteRows(w, format, TableRows(t, numeric...))
}

// ResultRows flattens the discrepancies of a result, one row per group key.
func ResultRows(r *reconcile.Result) Rows {
	rows := Rows{
		Header: []string{"key", "value_a", "value_b", "imbalance", "imbalance_ratio"},
		Numeric: map[string]bool{
			"value_a": true, "value_b": true, "imbalance": true, "imbalance_ratio": true,
		},
	}
	for _, d := range r.Discrepancies {
		ratio := ""
		if d.RatioDefined() {
			ratio = formatFloat(*d.ImbalanceRatio)
		}
		rows.Cells = append(rows.Cells, []string{
			d.Key,
			formatFloat(d.ValueA),
			formatFloat(d.ValueB),
			formatFloat(d.Imbalance),
			ratio,
		})
	}
	return rows
}

// WriteResult renders a reconciliation result. JSON carries the full result;
// the other formats list discrepancies, with a summary line in table form.
func WriteResult(w io.Writer, format Format, r *reconcile.Result) error {
	switch format {
	case FormatJSON:
		return WriteJSON(w, r)
	case FormatTable:
		op := ">"
		if r.Inclusive {
			op = ">="
		}
		if _, err := fmt.Fprintf(w, "%s: %d of %d groups with |a-b| %s %s\n",
			r.DatasetID, len(r.Discrepancies), r.Aligned, op, formatFloat(r.Threshold)); err != nil {
			return err
		}
		if len(r.OnlyInA) > 0 {
			fmt.Fprintf(w, "only in a: %s\n", strings.Join(r.OnlyInA, ", "))
		}
		if len(r.OnlyInB) > 0 {
			fmt.Fprintf(w, "only in b: %s\n", strings.Join(r.OnlyInB, ", "))
		}
		if !r.HasDiscrepancies() {
			return nil
		}
	}
	return WriteRows(w, format, ResultRows(r))
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
