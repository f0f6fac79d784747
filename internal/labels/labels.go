// Package labels attaches human-readable code names to coded dataset columns.
package labels

import (
	"github.com/nucleus/sdmx-core/internal/core"
	"github.com/nucleus/sdmx-core/internal/structure"
)

// Suffix is appended to the dimension id to name the label column.
const Suffix = "_label"

// Options controls label joining.
type Options struct {
	// Strict fails on the first row whose code has no enumeration entry
	// instead of dropping it.
	Strict bool
}

// Column returns the label column name for a dimension.
func Column(dim string) string {
	return dim + Suffix
}

// AttachLabels inner-joins the dataset on dim against the component's code
// list and adds a "<dim>_label" column. Rows with unmatched codes are dropped,
// so a free-valued component yields an empty table. The input is not modified.
func AttachLabels(ds *core.Dataset, dim string) (*core.Dataset, error) {
	return Join(ds, dim, Options{})
}

// Join is AttachLabels with options.
func Join(ds *core.Dataset, dim string, opts Options) (*core.Dataset, error) {
	dsd, err := ds.DataStructure()
	if err != nil {
		return nil, err
	}
	codes, err := structure.Codes(dsd, dim)
	if err != nil {
		return nil, err
	}
	if !ds.Data.HasColumn(dim) {
		return nil, core.NewError(core.CodeColumnNotFound, "dataset %q has no column %q", ds.Structure.ID(), dim)
	}

	names := make(map[string]string, len(codes))
	for _, c := range codes {
		names[c.ID] = c.Name
	}

	labelCol := Column(dim)
	columns := ds.Data.Columns()
	if !ds.Data.HasColumn(labelCol) {
		columns = append(columns, labelCol)
	}

	rows := make([]core.Row, 0, ds.Data.Len())
	for i := 0; i < ds.Data.Len(); i++ {
		code := ds.Data.Value(i, dim)
		name, ok := names[code]
		if !ok {
			if opts.Strict {
				return nil, &core.LookupError{Dimension: dim, Code: code}
			}
			continue
		}
		row := ds.Data.Row(i)
		row[labelCol] = name
		rows = append(rows, row)
	}
	return ds.WithData(core.NewTable(columns, rows)), nil
}

// AttachAll joins labels for each dimension in turn. Each join adds its own
// column, and row contraction accumulates.
func AttachAll(ds *core.Dataset, opts Options, dims ...string) (*core.Dataset, error) {
	out := ds
	for _, dim := range dims {
		next, err := Join(out, dim, opts)
		if err != nil {
			return nil, err
		}
		out = next
	}
	return out, nil
}
