// Package endpoint defines the contracts statistical data connectors implement.
//
// Architecture:
//
//	Endpoint         - Base contract (ID, Validate, Capabilities, Descriptor)
//	SourceEndpoint   - Read data (ListDatasets, GetSchema, Read)
//	StructureCapable - Structural metadata retrieval
//	DatasetCapable   - Dataset slice retrieval
//
// All endpoints implement the base Endpoint interface. Connectors then
// compose additional interfaces based on their capabilities.
package endpoint

import "context"

// Endpoint is the base contract that every connector implements.
type Endpoint interface {
	// ID returns the unique template identifier (e.g., "http.sdmx").
	ID() string

	// ValidateConfig tests configuration validity and connectivity.
	ValidateConfig(ctx context.Context, config map[string]any) (*ValidationResult, error)

	// GetCapabilities returns the set of supported operations.
	GetCapabilities() *Capabilities

	// GetDescriptor returns metadata about this endpoint type.
	GetDescriptor() *Descriptor

	// Close releases any resources held by the endpoint.
	Close() error
}

// SourceEndpoint can read data from an external system.
type SourceEndpoint interface {
	Endpoint

	// ListDatasets returns available datasets.
	ListDatasets(ctx context.Context) ([]*Dataset, error)

	// GetSchema returns the schema for a specific dataset.
	GetSchema(ctx context.Context, datasetID string) (*Schema, error)

	// Read streams records from a dataset.
	// Returns an Iterator that must be closed after use.
	Read(ctx context.Context, req *ReadRequest) (Iterator[Record], error)
}
