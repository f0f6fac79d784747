package endpoint

// Record represents a single observation as key-value pairs.
type Record = map[string]any

// Iterator provides streaming access to records.
type Iterator[T any] interface {
	// Next advances to the next record. Returns false when done or on error.
	Next() bool

	// Value returns the current record. Only valid after Next() returns true.
	Value() T

	// Err returns any error encountered during iteration.
	Err() error

	// Close releases resources. Must be called when done.
	Close() error
}

// --- Validation Types ---

type ValidationResult struct {
	Valid           bool
	Message         string
	DetectedVersion string
}

// --- Capabilities ---

type Capabilities struct {
	SupportsFull      bool
	SupportsPreview   bool
	SupportsMetadata  bool
	SupportsStructure bool
	SupportsDataset   bool

	// SupportsLastN reports server-side lastNObservations filtering.
	SupportsLastN    bool
	DefaultFetchSize int
}

// --- Dataset Types ---

type Dataset struct {
	ID       string
	Name     string
	Kind     string // "dataflow"
	AgencyID string
	Version  string
}

// --- Schema Types ---

type Schema struct {
	Fields []*FieldDefinition
}

type FieldDefinition struct {
	Name     string
	DataType string // "string", "double", "integer"
	Nullable bool
	Comment  string
	Position int

	// Role is the SDMX component role ("dimension", "measure", "attribute").
	Role string
	// Codelist is the enumeration id, empty for free-valued components.
	Codelist string
}

// --- Read Types ---

type ReadRequest struct {
	DatasetID string
	Limit     int64

	// Key is a positional series key; empty reads all series.
	Key         string
	StartPeriod string
	EndPeriod   string
	LastN       int
}
