package core

// DataQuery identifies a dataset slice to retrieve.
type DataQuery struct {
	// ResourceID is the dataflow identifier (e.g. "nama_10_gdp").
	ResourceID string

	// Key is a positional selection key; empty means all series.
	Key string

	// StartPeriod and EndPeriod bound the time dimension, inclusive.
	StartPeriod string
	EndPeriod   string

	// LastNObservations keeps the most recent N observations per series when > 0.
	LastNObservations int
}
