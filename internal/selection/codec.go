package selection

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	gojson "github.com/goccy/go-json"

	"github.com/nucleus/sdmx-core/internal/core"
)

// UnmarshalJSON decodes an object of dimension id to constraint, keeping the
// object's key order. A string value is a single code, an array is a list and
// null is a wildcard.
func (s *Selection) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*s = Selection{}
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("selection: expected object, got %v", tok)
	}

	out := New()
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		dim, _ := keyTok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("selection: dimension %q: %w", dim, err)
		}
		c, err := decodeConstraint(raw)
		if err != nil {
			return fmt.Errorf("selection: dimension %q: %w", dim, err)
		}
		out.Set(dim, c)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*s = *out
	return nil
}

func decodeConstraint(raw json.RawMessage) (Constraint, error) {
	trimmed := bytes.TrimSpace(raw)
	switch {
	case bytes.Equal(trimmed, []byte("null")):
		return Wildcard(), nil
	case len(trimmed) > 0 && trimmed[0] == '[':
		var codes []string
		if err := gojson.Unmarshal(trimmed, &codes); err != nil {
			return Constraint{}, err
		}
		return Codes(codes...), nil
	default:
		var code string
		if err := gojson.Unmarshal(trimmed, &code); err != nil {
			return Constraint{}, err
		}
		return Code(code), nil
	}
}

// MarshalJSON encodes the selection as an object in insertion order.
func (s *Selection) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, dim := range s.Dimensions() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := gojson.Marshal(dim)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		c := s.constraints[dim]
		var value any
		switch {
		case c.wildcard:
			value = nil
		case c.list:
			value = c.Values()
		default:
			value = c.codes[0]
		}
		enc, err := gojson.Marshal(value)
		if err != nil {
			return nil, err
		}
		buf.Write(enc)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ParseArgs builds a selection from "dim=A,B" arguments. A value of "*"
// is a wildcard, and repeating a dimension appends to its codes.
func ParseArgs(args []string) (*Selection, error) {
	sel := New()
	for _, arg := range args {
		dim, value, ok := strings.Cut(arg, "=")
		dim = strings.TrimSpace(dim)
		if !ok || dim == "" {
			return nil, core.NewError(core.CodeDegenerateSelection, "malformed selection %q, want dim=code[,code]", arg)
		}

		value = strings.TrimSpace(value)
		if value == WildcardArg {
			sel.Set(dim, Wildcard())
			continue
		}

		var codes []string
		if value != "" {
			for _, code := range strings.Split(value, ",") {
				codes = append(codes, strings.TrimSpace(code))
			}
		}
		if prev, exists := sel.Get(dim); exists && !prev.IsWildcard() {
			codes = append(prev.Values(), codes...)
		}
		sel.Add(dim, codes...)
	}
	return sel, nil
}
