package endpoint

// Descriptor provides metadata about an endpoint type.
// Used by the CLI and HTTP API to describe configuration.
type Descriptor struct {
	ID           string
	Family       string
	Title        string
	Vendor       string
	Description  string
	Categories   []string
	Protocols    []string
	DocsURL      string
	Fields       []*FieldDescriptor
	SampleConfig map[string]any
}

// FieldDescriptor defines a configuration field.
type FieldDescriptor struct {
	Key          string
	Label        string
	ValueType    string // "string", "integer", "number", "duration"
	Required     bool
	Description  string
	Placeholder  string
	DefaultValue string
	Advanced     bool
	Sensitive    bool
}

// Field returns the descriptor of a configuration key.
func (d *Descriptor) Field(key string) (*FieldDescriptor, bool) {
	for _, f := range d.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return nil, false
}
