// Package structure derives read-only indexes from a data structure definition:
// positional dimension order, dimension catalogs and per-component code lists.
package structure

import (
	"sort"

	"github.com/nucleus/sdmx-core/internal/core"
)

// DimensionEntry is the catalog entry for one dimension.
type DimensionEntry struct {
	Name        string            `json:"name"`
	Position    int               `json:"position"`
	Enumeration map[string]string `json:"enumeration"`
}

// Catalog maps dimension id to its entry.
type Catalog map[string]DimensionEntry

// IDs returns catalog dimension ids ordered by position.
func (c Catalog) IDs() []string {
	ids := make([]string, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return c[ids[i]].Position < c[ids[j]].Position
	})
	return ids
}

// ExtractDimensions returns the 1-based position of each dimension. Positions
// follow order of appearance among dimension components only.
func ExtractDimensions(dsd *core.DataStructure) map[int]string {
	out := make(map[int]string)
	for i, dim := range dsd.Dimensions() {
		out[i+1] = dim.ID
	}
	return out
}

// Ordered returns dimension ids in positional order.
func Ordered(dsd *core.DataStructure) []string {
	dims := dsd.Dimensions()
	ids := make([]string, 0, len(dims))
	for _, d := range dims {
		ids = append(ids, d.ID)
	}
	return ids
}

// TimeDimensions returns the ids of time dimensions. They never appear in a
// series key.
func TimeDimensions(dsd *core.DataStructure) []string {
	var out []string
	for _, d := range dsd.Dimensions() {
		if d.TimeDimension {
			out = append(out, d.ID)
		}
	}
	return out
}

// ExtractCatalog describes every dimension with its display name, position and
// code enumeration. Free-valued dimensions get an empty enumeration.
func ExtractCatalog(dsd *core.DataStructure) Catalog {
	catalog := make(Catalog)
	for i, dim := range dsd.Dimensions() {
		name := dim.Name
		if name == "" {
			name = dim.ID
		}
		catalog[dim.ID] = DimensionEntry{
			Name:        name,
			Position:    i + 1,
			Enumeration: dim.Enumeration.Names(),
		}
	}
	return catalog
}

// Codes returns the ordered code pairs of one component. A component without an
// enumeration yields an empty list.
func Codes(dsd *core.DataStructure, componentID string) ([]core.Code, error) {
	comp, ok := dsd.Component(componentID)
	if !ok {
		return nil, core.NewError(core.CodeUnknownComponent, "component %q not declared by %q", componentID, dsdID(dsd))
	}
	if !comp.HasEnumeration() {
		return []core.Code{}, nil
	}
	codes := make([]core.Code, len(comp.Enumeration.Codes))
	copy(codes, comp.Enumeration.Codes)
	return codes, nil
}

func dsdID(dsd *core.DataStructure) string {
	if dsd == nil {
		return ""
	}
	return dsd.ID
}
