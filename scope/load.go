package scope

import (
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cast"
)

// fileEntry is one binding in a scope file.
type fileEntry struct {
	Name     string `yaml:"name"`
	ID       any    `yaml:"id"`
	BaseType string `yaml:"base-type"`
}

// file is the YAML layout of a scope fixture:
//
//	columns:
//	  - {name: Total, id: 1, base-type: type/Float}
//	expressions:
//	  - {name: Margin, base-type: type/Float}
//	segments:
//	  - {name: Expensive Things, id: 1}
//	metrics:
//	  - {name: Revenue, id: 7}
type file struct {
	Columns     []fileEntry `yaml:"columns"`
	Expressions []fileEntry `yaml:"expressions"`
	Segments    []fileEntry `yaml:"segments"`
	Metrics     []fileEntry `yaml:"metrics"`
}

// LoadYAML decodes a scope fixture.
func LoadYAML(r io.Reader) (*Static, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read scope: %w", err)
	}
	return ParseYAML(data)
}

// LoadFile decodes the scope fixture at path.
func LoadFile(path string) (*Static, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	s, err := LoadYAML(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// ParseYAML decodes scope fixture bytes.
func ParseYAML(data []byte) (*Static, error) {
	var doc file
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse scope: %w", err)
	}

	s := NewStatic()
	groups := []struct {
		kind    Kind
		entries []fileEntry
	}{
		{KindColumn, doc.Columns},
		{KindExpression, doc.Expressions},
		{KindSegment, doc.Segments},
		{KindMetric, doc.Metrics},
	}
	for _, g := range groups {
		for i, e := range g.entries {
			if e.Name == "" {
				return nil, fmt.Errorf("%s %d: missing name", g.kind, i)
			}
			b := Binding{Kind: g.kind, Name: e.Name, BaseType: e.BaseType}
			if g.kind == KindExpression {
				b.ID = e.Name
			} else {
				id, err := normalizeID(e.ID)
				if err != nil {
					return nil, fmt.Errorf("%s %q: %w", g.kind, e.Name, err)
				}
				b.ID = id
			}
			s.add(b)
		}
	}
	return s, nil
}

// normalizeID keeps string ids and converts every numeric form to int64 so
// encodings do not depend on how the YAML decoder typed the number.
func normalizeID(v any) (any, error) {
	switch id := v.(type) {
	case nil:
		return nil, fmt.Errorf("missing id")
	case string:
		return id, nil
	}
	n, err := cast.ToInt64E(v)
	if err != nil {
		return nil, fmt.Errorf("invalid id %v: %w", v, err)
	}
	return n, nil
}

// idKey formats an id for comparison across numeric representations.
func idKey(id any) string {
	if s, ok := id.(string); ok {
		return "s:" + s
	}
	if f, err := cast.ToFloat64E(id); err == nil {
		return fmt.Sprintf("n:%g", f)
	}
	return fmt.Sprintf("?:%v", id)
}
