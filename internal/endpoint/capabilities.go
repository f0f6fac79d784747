package endpoint

import (
	"context"

	"github.com/nucleus/sdmx-core/internal/core"
)

// --- Capability Traits ---
// These interfaces let endpoints declare statistical services beyond the
// base Source contract.

// StructureCapable endpoints can retrieve structural metadata.
type StructureCapable interface {
	// FetchStructure returns the structure message describing a dataset,
	// with its dataflow, DSD and referenced codelists.
	FetchStructure(ctx context.Context, resourceID string) (*core.StructureMessage, error)
}

// DatasetCapable endpoints can retrieve dataset slices.
type DatasetCapable interface {
	// FetchDataset resolves a selection key plus period window to a dataset
	// bound to its structure.
	FetchDataset(ctx context.Context, q core.DataQuery) (*core.Dataset, error)
}

// StatisticalSource is a source that offers both statistical services.
type StatisticalSource interface {
	SourceEndpoint
	StructureCapable
	DatasetCapable
}
