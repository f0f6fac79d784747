// Package summary describes a dataset's structure and the codes actually
// observed in its retrieved data.
package summary

import (
	"github.com/nucleus/sdmx-core/internal/core"
	"github.com/nucleus/sdmx-core/internal/structure"
)

// TimePeriod is the conventional identifier of the SDMX time dimension.
const TimePeriod = "TIME_PERIOD"

// Options controls dataset summarization.
type Options struct {
	// Exclude lists dimensions left out of the observed-codes summary.
	Exclude []string

	// SkipUnknownCodes drops observed codes missing from a declared
	// enumeration instead of failing with a lookup error.
	SkipUnknownCodes bool
}

// DefaultOptions excludes the time dimension.
func DefaultOptions() Options {
	return Options{Exclude: []string{TimePeriod}}
}

func (o Options) excluded(dim string) bool {
	for _, e := range o.Exclude {
		if e == dim {
			return true
		}
	}
	return false
}

// MetadataSummary describes a structure message.
type MetadataSummary struct {
	DataflowID   string            `json:"dataflow_id"`
	DataflowName string            `json:"dataflow_name"`
	DSDID        string            `json:"dsd_id"`
	DSDName      string            `json:"dsd_name"`
	Dimensions   structure.Catalog `json:"dimensions"`
}

// ObservedDimension lists the codes one dimension takes in the data.
type ObservedDimension struct {
	ID          string      `json:"code"`
	Name        string      `json:"name"`
	Position    int         `json:"position"`
	Enumeration []core.Code `json:"enumeration"`
}

// Names returns the observed code -> name mapping.
func (o ObservedDimension) Names() map[string]string {
	out := make(map[string]string, len(o.Enumeration))
	for _, c := range o.Enumeration {
		out[c.ID] = c.Name
	}
	return out
}

// DatasetSummary describes a retrieved dataset.
type DatasetSummary struct {
	StructureType string              `json:"structure_type"`
	StructureID   string              `json:"structure_id"`
	StructureName string              `json:"structure_name"`
	Dimensions    structure.Catalog   `json:"dimensions"`
	Observed      []ObservedDimension `json:"observed"`
}

// Observation returns the observed summary of one dimension.
func (s *DatasetSummary) Observation(dim string) (ObservedDimension, bool) {
	for _, o := range s.Observed {
		if o.ID == dim {
			return o, true
		}
	}
	return ObservedDimension{}, false
}

// SummarizeMetadata summarizes the dataflow and DSD of a structure message.
func SummarizeMetadata(msg *core.StructureMessage) (*MetadataSummary, error) {
	dsd, err := msg.DataStructure()
	if err != nil {
		return nil, err
	}
	out := &MetadataSummary{
		DSDID:      dsd.ID,
		DSDName:    dsd.Name,
		Dimensions: structure.ExtractCatalog(dsd),
	}
	if len(msg.Dataflows) > 0 {
		df, err := msg.Dataflow()
		if err != nil {
			return nil, err
		}
		out.DataflowID = df.ID
		out.DataflowName = df.Name
	}
	return out, nil
}

// SummarizeDataset reports the dataset's structure and, for each table column
// that is a non-excluded dimension, the distinct codes observed in first-seen
// order paired with their display names.
func SummarizeDataset(ds *core.Dataset, opts Options) (*DatasetSummary, error) {
	dsd, err := ds.DataStructure()
	if err != nil {
		return nil, err
	}
	catalog := structure.ExtractCatalog(dsd)

	out := &DatasetSummary{
		StructureType: ds.Structure.Kind.String(),
		StructureID:   ds.Structure.ID(),
		StructureName: ds.Structure.Name(),
		Dimensions:    catalog,
		Observed:      []ObservedDimension{},
	}

	for _, column := range ds.Data.Columns() {
		entry, isDim := catalog[column]
		if !isDim || opts.excluded(column) {
			continue
		}
		comp, _ := dsd.Component(column)

		codes := []core.Code{}
		for _, value := range ds.Data.Distinct(column) {
			if !comp.HasEnumeration() {
				codes = append(codes, core.Code{ID: value})
				continue
			}
			code, ok := comp.Enumeration.Lookup(value)
			if !ok {
				if opts.SkipUnknownCodes {
					continue
				}
				return nil, &core.LookupError{Dimension: column, Code: value}
			}
			codes = append(codes, code)
		}

		out.Observed = append(out.Observed, ObservedDimension{
			ID:          column,
			Name:        entry.Name,
			Position:    entry.Position,
			Enumeration: codes,
		})
	}
	return out, nil
}
