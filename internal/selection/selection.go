// Package selection turns dimension constraints into positional SDMX series keys.
//
// A key is one token per dimension joined with ".", and a token lists the
// accepted codes of one dimension joined with "+". An empty token selects every
// code of that position.
package selection

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nucleus/sdmx-core/internal/core"
)

const (
	// DimensionSeparator separates positional tokens (AND across dimensions).
	DimensionSeparator = "."
	// CodeSeparator separates codes of one token (OR within a dimension).
	CodeSeparator = "+"
	// WildcardArg is the command-line spelling of Wildcard.
	WildcardArg = "*"
)

// =============================================================================
// CONSTRAINT
// =============================================================================

// Constraint is the set of codes accepted for one dimension.
type Constraint struct {
	codes    []string
	list     bool
	wildcard bool
}

// Code constrains a dimension to a single code.
func Code(code string) Constraint {
	return Constraint{codes: []string{code}}
}

// Codes constrains a dimension to any of the listed codes. An empty list is
// degenerate and rejected when the key is built.
func Codes(codes ...string) Constraint {
	cp := make([]string, len(codes))
	copy(cp, codes)
	return Constraint{codes: cp, list: true}
}

// Wildcard leaves a dimension unconstrained.
func Wildcard() Constraint {
	return Constraint{wildcard: true}
}

// Values returns the constrained codes.
func (c Constraint) Values() []string {
	out := make([]string, len(c.codes))
	copy(out, c.codes)
	return out
}

// IsList reports whether the constraint was given as a list.
func (c Constraint) IsList() bool { return c.list }

// IsWildcard reports whether the constraint accepts every code.
func (c Constraint) IsWildcard() bool { return c.wildcard }

// Token renders the constraint as a key token.
func (c Constraint) Token() (string, error) {
	if c.wildcard {
		return "", nil
	}
	if len(c.codes) == 0 {
		return "", core.NewError(core.CodeDegenerateSelection, "empty code list")
	}
	for _, code := range c.codes {
		if code == "" {
			return "", core.NewError(core.CodeDegenerateSelection, "empty code")
		}
		if strings.ContainsAny(code, DimensionSeparator+CodeSeparator) {
			return "", core.NewError(core.CodeDegenerateSelection, "code %q contains a key separator", code)
		}
	}
	return strings.Join(c.codes, CodeSeparator), nil
}

func (c Constraint) String() string {
	if c.wildcard {
		return WildcardArg
	}
	return strings.Join(c.codes, ",")
}

// =============================================================================
// SELECTION
// =============================================================================

// Selection is an insertion-ordered mapping of dimension id to constraint.
type Selection struct {
	order       []string
	constraints map[string]Constraint
}

// New returns an empty selection.
func New() *Selection {
	return &Selection{constraints: make(map[string]Constraint)}
}

// Add constrains dim to the given codes: one code is a single-code constraint,
// anything else is a list.
func (s *Selection) Add(dim string, codes ...string) *Selection {
	if len(codes) == 1 {
		return s.Set(dim, Code(codes[0]))
	}
	return s.Set(dim, Codes(codes...))
}

// Set assigns a constraint. Re-setting a dimension keeps its original position.
func (s *Selection) Set(dim string, c Constraint) *Selection {
	if s.constraints == nil {
		s.constraints = make(map[string]Constraint)
	}
	if _, ok := s.constraints[dim]; !ok {
		s.order = append(s.order, dim)
	}
	s.constraints[dim] = c
	return s
}

// Get returns the constraint for dim.
func (s *Selection) Get(dim string) (Constraint, bool) {
	if s == nil {
		return Constraint{}, false
	}
	c, ok := s.constraints[dim]
	return c, ok
}

// Len returns the number of constrained dimensions.
func (s *Selection) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// Dimensions returns dimension ids in insertion order.
func (s *Selection) Dimensions() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

func (s *Selection) String() string {
	parts := make([]string, 0, s.Len())
	for _, dim := range s.Dimensions() {
		parts = append(parts, dim+"="+s.constraints[dim].String())
	}
	return strings.Join(parts, " ")
}

// =============================================================================
// KEY BUILDING
// =============================================================================

// BuildKey renders the selection in insertion order. The caller is responsible
// for supplying dimensions in the order the target structure expects; use
// BuildOrderedKey to have that checked.
func BuildKey(sel *Selection) (string, error) {
	tokens := make([]string, 0, sel.Len())
	for _, dim := range sel.Dimensions() {
		token, err := sel.constraints[dim].Token()
		if err != nil {
			return "", fmt.Errorf("dimension %q: %w", dim, err)
		}
		tokens = append(tokens, token)
	}
	return strings.Join(tokens, DimensionSeparator), nil
}

// BuildOrderedKey renders the selection in structural position order. Positions
// the selection leaves out become wildcards and dimensions named in skip (the
// time dimension, usually) are left out of the key entirely.
func BuildOrderedKey(dimensions map[int]string, sel *Selection, skip ...string) (string, error) {
	skipped := make(map[string]bool, len(skip))
	for _, s := range skip {
		skipped[s] = true
	}

	positions := make([]int, 0, len(dimensions))
	known := make(map[string]bool, len(dimensions))
	for pos, dim := range dimensions {
		positions = append(positions, pos)
		if !skipped[dim] {
			known[dim] = true
		}
	}
	sort.Ints(positions)

	for _, dim := range sel.Dimensions() {
		if !known[dim] {
			return "", core.NewError(core.CodeUnknownComponent, "dimension %q is not a key dimension", dim)
		}
	}

	tokens := make([]string, 0, len(positions))
	for _, pos := range positions {
		dim := dimensions[pos]
		if skipped[dim] {
			continue
		}
		c, ok := sel.Get(dim)
		if !ok {
			c = Wildcard()
		}
		token, err := c.Token()
		if err != nil {
			return "", fmt.Errorf("dimension %q: %w", dim, err)
		}
		tokens = append(tokens, token)
	}
	return strings.Join(tokens, DimensionSeparator), nil
}
