package core

import (
	"log/slog"
	"sort"
)

// Concept is an entry of a concept scheme.
type Concept struct {
	ID   string
	Name string
}

// StructureMessage is a parsed structural metadata document.
type StructureMessage struct {
	Dataflows      []*Dataflow
	DataStructures []*DataStructure
	Codelists      []*Codelist
	Concepts       []*Concept
}

// DataStructure resolves exactly one DSD from the message.
//
// When the message declares more than one, the lexicographically smallest
// (ID, AgencyID, Version) wins and the ambiguity is logged, not returned.
func (m *StructureMessage) DataStructure() (*DataStructure, error) {
	if m == nil || len(m.DataStructures) == 0 {
		return nil, newError(CodeNoStructure, "structure message declares no data structure")
	}
	candidates := make([]*DataStructure, len(m.DataStructures))
	copy(candidates, m.DataStructures)
	sort.SliceStable(candidates, func(i, j int) bool {
		return artefactLess(candidates[i].ID, candidates[i].AgencyID, candidates[i].Version,
			candidates[j].ID, candidates[j].AgencyID, candidates[j].Version)
	})
	if len(candidates) > 1 {
		slog.Warn("multiple data structures in message, using smallest id",
			"code", CodeSchemaAmbiguity, "chosen", candidates[0].ID, "count", len(candidates))
	}
	return candidates[0], nil
}

// Dataflow resolves exactly one dataflow from the message, with the same
// tie-break policy as DataStructure.
func (m *StructureMessage) Dataflow() (*Dataflow, error) {
	if m == nil || len(m.Dataflows) == 0 {
		return nil, newError(CodeNoStructure, "structure message declares no dataflow")
	}
	candidates := make([]*Dataflow, len(m.Dataflows))
	copy(candidates, m.Dataflows)
	sort.SliceStable(candidates, func(i, j int) bool {
		return artefactLess(candidates[i].ID, candidates[i].AgencyID, candidates[i].Version,
			candidates[j].ID, candidates[j].AgencyID, candidates[j].Version)
	})
	if len(candidates) > 1 {
		slog.Warn("multiple dataflows in message, using smallest id",
			"code", CodeSchemaAmbiguity, "chosen", candidates[0].ID, "count", len(candidates))
	}
	return candidates[0], nil
}

// Ambiguous reports whether either artefact kind has more than one candidate.
func (m *StructureMessage) Ambiguous() bool {
	return m != nil && (len(m.DataStructures) > 1 || len(m.Dataflows) > 1)
}

// Codelist returns the codelist with the given id.
func (m *StructureMessage) Codelist(id string) (*Codelist, bool) {
	if m == nil {
		return nil, false
	}
	for _, cl := range m.Codelists {
		if cl.ID == id {
			return cl, true
		}
	}
	return nil, false
}

func artefactLess(id1, agency1, version1, id2, agency2, version2 string) bool {
	if id1 != id2 {
		return id1 < id2
	}
	if agency1 != agency2 {
		return agency1 < agency2
	}
	return version1 < version2
}
