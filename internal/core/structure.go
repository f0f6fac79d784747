package core

import "fmt"

// =============================================================================
// COMPONENT ROLES
// =============================================================================

// Role classifies a DSD component.
type Role int

const (
	// RoleDimension marks a classificatory axis, including the time dimension.
	RoleDimension Role = iota + 1
	// RoleMeasure marks the observation value component.
	RoleMeasure
	// RoleAttribute marks a qualifying attribute (flags, units, ...).
	RoleAttribute
)

// String returns the string representation of a Role.
func (r Role) String() string {
	switch r {
	case RoleDimension:
		return "dimension"
	case RoleMeasure:
		return "measure"
	case RoleAttribute:
		return "attribute"
	default:
		return fmt.Sprintf("Unknown(%d)", int(r))
	}
}

// =============================================================================
// CODES
// =============================================================================

// Code is a permitted value of an enumerated component.
type Code struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Codelist is an ordered enumeration of codes.
type Codelist struct {
	ID       string
	AgencyID string
	Version  string
	Name     string
	Codes    []Code
}

// Lookup returns the code with the given identifier.
func (c *Codelist) Lookup(id string) (Code, bool) {
	if c == nil {
		return Code{}, false
	}
	for _, code := range c.Codes {
		if code.ID == id {
			return code, true
		}
	}
	return Code{}, false
}

// Names returns the code id -> name mapping.
func (c *Codelist) Names() map[string]string {
	names := make(map[string]string)
	if c == nil {
		return names
	}
	for _, code := range c.Codes {
		names[code.ID] = code.Name
	}
	return names
}

// =============================================================================
// DATA STRUCTURE DEFINITION
// =============================================================================

// Component is a single DSD component (dimension, measure or attribute).
type Component struct {
	ID        string
	ConceptID string
	Name      string
	Role      Role
	Position  int

	// TimeDimension is set for the SDMX TimeDimension; it still has RoleDimension.
	TimeDimension bool

	// Enumeration is nil for free-valued components.
	Enumeration *Codelist
}

// HasEnumeration reports whether the component declares a codelist.
func (c *Component) HasEnumeration() bool {
	return c.Enumeration != nil
}

// DataStructure is an SDMX data structure definition (DSD).
type DataStructure struct {
	ID         string
	AgencyID   string
	Version    string
	Name       string
	Components []*Component
}

// Dimensions returns dimension components in declaration order.
func (d *DataStructure) Dimensions() []*Component {
	if d == nil {
		return nil
	}
	dims := make([]*Component, 0, len(d.Components))
	for _, c := range d.Components {
		if c.Role == RoleDimension {
			dims = append(dims, c)
		}
	}
	return dims
}

// Component returns the component whose identifier or concept matches id.
func (d *DataStructure) Component(id string) (*Component, bool) {
	if d == nil {
		return nil, false
	}
	for _, c := range d.Components {
		if c.ID == id {
			return c, true
		}
	}
	for _, c := range d.Components {
		if c.ConceptID == id {
			return c, true
		}
	}
	return nil, false
}

// Dataflow is a named view over a data structure.
type Dataflow struct {
	ID        string
	AgencyID  string
	Version   string
	Name      string
	Structure *DataStructure
}

// =============================================================================
// STRUCTURE REFERENCE
// =============================================================================

// StructureKind distinguishes what a dataset is bound to.
type StructureKind int

const (
	KindDataflow StructureKind = iota + 1
	KindDataStructure
)

// String returns the SDMX class name of the kind.
func (k StructureKind) String() string {
	switch k {
	case KindDataflow:
		return "Dataflow"
	case KindDataStructure:
		return "DataStructureDefinition"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// StructureRef is the structural identity of a dataset: either a dataflow
// (which wraps a DSD) or a DSD used directly.
type StructureRef struct {
	Kind     StructureKind
	Dataflow *Dataflow
	DSD      *DataStructure
}

// FlowRef binds a dataset to a dataflow.
func FlowRef(df *Dataflow) StructureRef {
	return StructureRef{Kind: KindDataflow, Dataflow: df}
}

// DirectRef binds a dataset to a DSD directly.
func DirectRef(dsd *DataStructure) StructureRef {
	return StructureRef{Kind: KindDataStructure, DSD: dsd}
}

// ID returns the identifier of the referenced artefact.
func (r StructureRef) ID() string {
	if r.Kind == KindDataflow && r.Dataflow != nil {
		return r.Dataflow.ID
	}
	if r.DSD != nil {
		return r.DSD.ID
	}
	return ""
}

// Name returns the display name of the referenced artefact.
func (r StructureRef) Name() string {
	if r.Kind == KindDataflow && r.Dataflow != nil {
		return r.Dataflow.Name
	}
	if r.DSD != nil {
		return r.DSD.Name
	}
	return ""
}

// DataStructure resolves the DSD behind the reference.
func (r StructureRef) DataStructure() (*DataStructure, error) {
	switch r.Kind {
	case KindDataflow:
		if r.Dataflow != nil && r.Dataflow.Structure != nil {
			return r.Dataflow.Structure, nil
		}
	case KindDataStructure:
		if r.DSD != nil {
			return r.DSD, nil
		}
	}
	return nil, newError(CodeNoStructure, "dataset %q has no resolved data structure", r.ID())
}
