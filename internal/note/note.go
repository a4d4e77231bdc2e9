// Package note holds the record types exchanged between the pipeline and the record store.
package note

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// Source is an imported vocabulary record. The pipeline only reads it.
type Source struct {
	ID     int64
	Schema string
	Fields map[string]string
	Tags   []string
	// Raw is the parsed original import payload, if the store kept one.
	Raw any
}

// Field returns the value of a field and whether the record has it.
func (s *Source) Field(name string) (string, bool) {
	v, ok := s.Fields[name]
	return v, ok
}

// HasTag reports whether the record carries tag.
func (s *Source) HasTag(tag string) bool {
	return slices.Contains(s.Tags, tag)
}

// Ref returns the note reference token used in links ("nid<id>").
func (s *Source) Ref() string {
	return Ref(s.ID)
}

// Ref formats a note reference token.
func Ref(id int64) string {
	return fmt.Sprintf("nid%d", id)
}

var linkLabelEscaper = strings.NewReplacer("[", `\[`, "]", `\]`)

// Link formats a link to a record: "[label|nid<id>]".
// Brackets in the label are escaped.
func Link(label string, id int64) string {
	return "[" + linkLabelEscaper.Replace(label) + "|" + Ref(id) + "]"
}

// AppendLink adds link to a field value, one link per line.
// A value that already holds link is returned unchanged.
func AppendLink(value, link string) string {
	switch {
	case strings.Contains(value, link):
		return value
	case strings.TrimSpace(value) == "":
		return link
	}
	return value + "<br>" + link
}

// Target is a record to be created under a target schema.
type Target struct {
	Schema string            `json:"schema"`
	Fields map[string]string `json:"fields"`
	// Tags are user-visible tags, sorted.
	Tags []string `json:"tags,omitempty"`
	// Markers are pipeline-owned internal tags, sorted.
	Markers []string `json:"markers,omitempty"`

	SourceID int64  `json:"source_id,omitempty"`
	Category string `json:"category,omitempty"`
}

// AllTags returns Tags and Markers as one sorted set.
func (t *Target) AllTags() []string {
	return SortedSet(append(slices.Clone(t.Tags), t.Markers...))
}

// Schema describes a record schema known to the store.
type Schema struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Fields []string `json:"fields"`
}

// HasField reports whether the schema declares name.
func (s Schema) HasField(name string) bool {
	return slices.Contains(s.Fields, name)
}

// SortedSet returns the distinct non-empty values of tags in sorted order.
func SortedSet(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
