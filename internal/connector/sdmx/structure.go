package sdmx

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"

	"github.com/nucleus/sdmx-core/internal/core"
)

// =============================================================================
// SDMX-ML 2.1 STRUCTURE DOCUMENT
// Tags use local names only so any namespace prefix matches.
// =============================================================================

type xmlStructure struct {
	XMLName        xml.Name           `xml:"Structure"`
	Dataflows      []xmlDataflow      `xml:"Structures>Dataflows>Dataflow"`
	Codelists      []xmlCodelist      `xml:"Structures>Codelists>Codelist"`
	ConceptSchemes []xmlConceptScheme `xml:"Structures>Concepts>ConceptScheme"`
	DataStructures []xmlDataStructure `xml:"Structures>DataStructures>DataStructure"`
}

type xmlText struct {
	Lang  string `xml:"lang,attr"`
	Value string `xml:",chardata"`
}

type xmlRef struct {
	ID                 string `xml:"id,attr"`
	AgencyID           string `xml:"agencyID,attr"`
	Version            string `xml:"version,attr"`
	MaintainableParent string `xml:"maintainableParentID,attr"`
	Class              string `xml:"class,attr"`
}

type xmlArtefact struct {
	ID       string    `xml:"id,attr"`
	AgencyID string    `xml:"agencyID,attr"`
	Version  string    `xml:"version,attr"`
	Names    []xmlText `xml:"Name"`
}

type xmlDataflow struct {
	xmlArtefact
	Structure xmlRef `xml:"Structure>Ref"`
}

type xmlCodelist struct {
	xmlArtefact
	Codes []xmlItem `xml:"Code"`
}

type xmlConceptScheme struct {
	xmlArtefact
	Concepts []xmlItem `xml:"Concept"`
}

type xmlItem struct {
	ID    string    `xml:"id,attr"`
	Names []xmlText `xml:"Name"`
}

type xmlComponent struct {
	ID          string  `xml:"id,attr"`
	Position    string  `xml:"position,attr"`
	Concept     xmlRef  `xml:"ConceptIdentity>Ref"`
	Enumeration *xmlRef `xml:"LocalRepresentation>Enumeration>Ref"`
}

type xmlDataStructure struct {
	xmlArtefact
	Dimensions     []xmlComponent `xml:"DataStructureComponents>DimensionList>Dimension"`
	TimeDimensions []xmlComponent `xml:"DataStructureComponents>DimensionList>TimeDimension"`
	Attributes     []xmlComponent `xml:"DataStructureComponents>AttributeList>Attribute"`
	Measures       []xmlComponent `xml:"DataStructureComponents>MeasureList>PrimaryMeasure"`
}

// =============================================================================
// PARSING
// =============================================================================

// ParseStructure decodes an SDMX-ML 2.1 structure message. Names are taken
// in lang when present, falling back to English and then the first name.
func ParseStructure(r io.Reader, lang string) (*core.StructureMessage, error) {
	var doc xmlStructure
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode structure message: %w", err)
	}
	return doc.resolve(lang), nil
}

func (doc *xmlStructure) resolve(lang string) *core.StructureMessage {
	msg := &core.StructureMessage{}

	codelists := make(map[string]*core.Codelist)
	for _, xc := range doc.Codelists {
		cl := &core.Codelist{
			ID:       xc.ID,
			AgencyID: xc.AgencyID,
			Version:  xc.Version,
			Name:     pickName(xc.Names, lang, xc.ID),
			Codes:    make([]core.Code, 0, len(xc.Codes)),
		}
		for _, code := range xc.Codes {
			cl.Codes = append(cl.Codes, core.Code{ID: code.ID, Name: pickName(code.Names, lang, code.ID)})
		}
		msg.Codelists = append(msg.Codelists, cl)
		codelists[artefactKey(cl.AgencyID, cl.ID, cl.Version)] = cl
		if _, ok := codelists[cl.ID]; !ok {
			codelists[cl.ID] = cl
		}
	}

	concepts := make(map[string]string)
	for _, scheme := range doc.ConceptSchemes {
		for _, c := range scheme.Concepts {
			name := pickName(c.Names, lang, c.ID)
			msg.Concepts = append(msg.Concepts, &core.Concept{ID: c.ID, Name: name})
			concepts[scheme.ID+"/"+c.ID] = name
			if _, ok := concepts[c.ID]; !ok {
				concepts[c.ID] = name
			}
		}
	}

	dsds := make(map[string]*core.DataStructure)
	for _, xd := range doc.DataStructures {
		dsd := &core.DataStructure{
			ID:       xd.ID,
			AgencyID: xd.AgencyID,
			Version:  xd.Version,
			Name:     pickName(xd.Names, lang, xd.ID),
		}
		dims := make([]*core.Component, 0, len(xd.Dimensions)+len(xd.TimeDimensions))
		for _, xc := range xd.Dimensions {
			dims = append(dims, newComponent(xc, core.RoleDimension, concepts, codelists))
		}
		for _, xc := range xd.TimeDimensions {
			c := newComponent(xc, core.RoleDimension, concepts, codelists)
			c.TimeDimension = true
			dims = append(dims, c)
		}
		sortByPosition(dims)
		for i, c := range dims {
			c.Position = i + 1
		}
		dsd.Components = append(dsd.Components, dims...)
		for _, xc := range xd.Attributes {
			dsd.Components = append(dsd.Components, newComponent(xc, core.RoleAttribute, concepts, codelists))
		}
		for _, xc := range xd.Measures {
			dsd.Components = append(dsd.Components, newComponent(xc, core.RoleMeasure, concepts, codelists))
		}
		msg.DataStructures = append(msg.DataStructures, dsd)
		dsds[artefactKey(dsd.AgencyID, dsd.ID, dsd.Version)] = dsd
		if _, ok := dsds[dsd.ID]; !ok {
			dsds[dsd.ID] = dsd
		}
	}

	for _, xf := range doc.Dataflows {
		df := &core.Dataflow{
			ID:       xf.ID,
			AgencyID: xf.AgencyID,
			Version:  xf.Version,
			Name:     pickName(xf.Names, lang, xf.ID),
		}
		ref := xf.Structure
		if dsd, ok := dsds[artefactKey(ref.AgencyID, ref.ID, ref.Version)]; ok {
			df.Structure = dsd
		} else if dsd, ok := dsds[ref.ID]; ok {
			df.Structure = dsd
		}
		msg.Dataflows = append(msg.Dataflows, df)
	}
	return msg
}

func newComponent(xc xmlComponent, role core.Role, concepts map[string]string, codelists map[string]*core.Codelist) *core.Component {
	conceptID := xc.Concept.ID
	if conceptID == "" {
		conceptID = xc.ID
	}
	c := &core.Component{
		ID:        xc.ID,
		ConceptID: conceptID,
		Role:      role,
	}
	if pos, err := strconv.Atoi(xc.Position); err == nil {
		c.Position = pos
	}

	if name, ok := concepts[xc.Concept.MaintainableParent+"/"+conceptID]; ok {
		c.Name = name
	} else if name, ok := concepts[conceptID]; ok {
		c.Name = name
	} else {
		c.Name = xc.ID
	}

	if ref := xc.Enumeration; ref != nil {
		if cl, ok := codelists[artefactKey(ref.AgencyID, ref.ID, ref.Version)]; ok {
			c.Enumeration = cl
		} else if cl, ok := codelists[ref.ID]; ok {
			c.Enumeration = cl
		}
	}
	return c
}

// sortByPosition orders components by declared position, keeping document
// order for components without one.
func sortByPosition(comps []*core.Component) {
	for i := 1; i < len(comps); i++ {
		for j := i; j > 0 && positionLess(comps[j], comps[j-1]); j-- {
			comps[j], comps[j-1] = comps[j-1], comps[j]
		}
	}
}

func positionLess(a, b *core.Component) bool {
	if a.Position == 0 || b.Position == 0 {
		return false
	}
	return a.Position < b.Position
}

func artefactKey(agency, id, version string) string {
	return agency + ":" + id + "(" + version + ")"
}

func pickName(names []xmlText, lang, fallback string) string {
	for _, want := range []string{lang, DefaultLanguage} {
		for _, n := range names {
			if n.Lang == want && n.Value != "" {
				return n.Value
			}
		}
	}
	for _, n := range names {
		if n.Value != "" {
			return n.Value
		}
	}
	return fallback
}
