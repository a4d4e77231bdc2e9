package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Reference prefixes accepted in field maps.
const (
	// RefIgnore leaves the target field untouched.
	RefIgnore = "ignore"
	// RefValuePrefix restricts the lookup to source fields.
	RefValuePrefix = "value:"
	// RefComputedPrefix restricts the lookup to virtual fields.
	RefComputedPrefix = "computed:"
)

// FieldMapping maps one target field to a source reference.
type FieldMapping struct {
	Target string `json:"target"`
	Source string `json:"source"`
}

// FieldMap is an ordered target -> source mapping.
//
// It decodes from either a list of {"target", "source"} pairs, which keeps
// the declared order, or from an object, whose entries are ordered by target
// name so evaluation stays deterministic.
type FieldMap []FieldMapping

// UnmarshalJSON implements json.Unmarshaler.
func (m *FieldMap) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*m = nil
		return nil
	}
	if data[0] == '[' {
		var pairs []FieldMapping
		if err := json.Unmarshal(data, &pairs); err != nil {
			return fmt.Errorf("field map: %w", err)
		}
		*m = pairs
		return nil
	}
	var obj map[string]string
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("field map: %w", err)
	}
	out := make(FieldMap, 0, len(obj))
	for target, source := range obj {
		out = append(out, FieldMapping{Target: target, Source: source})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Target < out[j].Target })
	*m = out
	return nil
}

// Lookup returns the source reference for target.
func (m FieldMap) Lookup(target string) (string, bool) {
	for _, e := range m {
		if e.Target == target {
			return e.Source, true
		}
	}
	return "", false
}

// Namespace tells which namespaces a reference may resolve in.
type Namespace int

const (
	// NamespaceAny resolves against virtual fields first, then source fields.
	NamespaceAny Namespace = iota
	NamespaceSource
	NamespaceVirtual
)

// ParseRef splits a field-map reference into its name and namespace.
// ok is false for ignore and empty references.
func ParseRef(ref string) (name string, ns Namespace, ok bool) {
	ref = strings.TrimSpace(ref)
	switch {
	case ref == "" || ref == RefIgnore:
		return "", NamespaceAny, false
	case strings.HasPrefix(ref, RefValuePrefix):
		return strings.TrimPrefix(ref, RefValuePrefix), NamespaceSource, true
	case strings.HasPrefix(ref, RefComputedPrefix):
		return strings.TrimPrefix(ref, RefComputedPrefix), NamespaceVirtual, true
	}
	return ref, NamespaceAny, true
}

// TagList is one or more tags. It decodes from a string or a list of strings.
type TagList []string

// UnmarshalJSON implements json.Unmarshaler.
func (l *TagList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*l = nil
			return nil
		}
		*l = TagList{s}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("tag list: %w", err)
	}
	*l = list
	return nil
}
