package transform

import (
	"fmt"
	"slices"

	"github.com/agentic-research/yomitran/internal/note"
)

// Conversion is the decision for one source record: what to create and
// how to mark the source once it exists.
type Conversion struct {
	Target    *note.Target
	Category  *Category
	Namespace Namespace
	// Key identifies the record in reports and link tags.
	Key     string
	LinkTag string
}

// SourceValues builds the source namespace of rec from the field registry.
// Registry fields take the first non-empty of the field itself, its aliases
// and its payload path, then run through their normalizer. Fields outside
// the registry are kept verbatim.
func (p *Plan) SourceValues(rec *note.Source) Values {
	out := make(Values, len(rec.Fields)+len(p.Fields))
	for k, v := range rec.Fields {
		out[k] = v
	}
	for _, f := range p.Fields {
		val, ok := rec.Field(f.Name)
		for _, alias := range f.Aliases {
			if val != "" {
				break
			}
			if v, has := rec.Field(alias); has {
				val, ok = v, true
			}
		}
		if val == "" && f.path != nil {
			if v, has := f.path.Lookup(rec.Raw); has {
				val, ok = v, true
			}
		}
		if !ok {
			continue
		}
		if f.normalize != nil {
			val = f.normalize(val)
		}
		out[f.Name] = val
	}
	return out
}

// SourceTags returns the record tags plus any tags stored in the
// configured tag field.
func (p *Plan) SourceTags(rec *note.Source) []string {
	tags := slices.Clone(rec.Tags)
	if p.Markers.SourceField != "" {
		if raw, ok := rec.Field(p.Markers.SourceField); ok {
			tags = append(tags, SplitTags(raw)...)
		}
	}
	return note.SortedSet(tags)
}

// Processed reports whether rec already carries the processed marker.
func (p *Plan) Processed(rec *note.Source) bool {
	return rec.HasTag(p.Markers.ProcessedTag)
}

// Convert runs preprocessing, virtual field resolution, category matching,
// field mapping and the tag transform for rec. It has no side effects
// besides the transliterator call. ErrNoMatch means the record is skipped.
func (p *Plan) Convert(rec *note.Source, tr Transliterator, runID string) (*Conversion, error) {
	src := p.SourceValues(rec)
	virt, err := Resolve(rec, src, p.Virtual, tr)
	if err != nil {
		return nil, err
	}
	ns := Namespace{Source: src, Virtual: virt, Tags: p.SourceTags(rec)}

	cat, err := Match(ns, p.Categories)
	if err != nil {
		return nil, err
	}
	fields, err := MapFields(cat, src, virt)
	if err != nil {
		return nil, err
	}

	tags := TransformTags(append(slices.Clone(ns.Tags), virt.Tags()...), p.Tags)
	tags = note.SortedSet(append(tags, DeriveTags(p.Derived, ns)...))

	key := ns.FirstNonEmpty(p.Markers.KeyFields...)
	conv := &Conversion{
		Category:  cat,
		Namespace: ns,
		Key:       key,
		LinkTag:   p.LinkTag(key, rec.ID),
	}

	// Internal tags pass through the transform and travel with the markers.
	visible := tags[:0:0]
	markers := []string{
		p.Markers.ExportTag,
		p.Markers.SourceTagPrefix + "::" + note.Ref(rec.ID),
		conv.LinkTag,
	}
	if runID != "" {
		markers = append(markers, p.Markers.RunTagPrefix+"::"+runID)
	}
	for _, t := range tags {
		if p.Tags.Internal(t) {
			markers = append(markers, t)
			continue
		}
		visible = append(visible, t)
	}

	conv.Target = &note.Target{
		Schema:   cat.Schema.ID,
		Fields:   fields,
		Tags:     visible,
		Markers:  note.SortedSet(markers),
		SourceID: rec.ID,
		Category: cat.Name,
	}
	return conv, nil
}

// LinkTag is the per-record uniqueness tag carried by both the source and
// the created record, so homographs converted from different sources stay apart.
func (p *Plan) LinkTag(key string, id int64) string {
	key = SafeTagComponent(key)
	if key == "" {
		return fmt.Sprintf("%s::%d", p.Markers.LinkTagPrefix, id)
	}
	return fmt.Sprintf("%s::%s::%d", p.Markers.LinkTagPrefix, key, id)
}

// SourceMarks are the tags appended to a source record after its target
// has been persisted.
func (c *Conversion) SourceMarks(p *Plan) []string {
	return note.SortedSet([]string{p.Markers.ProcessedTag, c.LinkTag})
}

// Key returns the vocabulary key of rec from its source fields alone.
// Reports use it for records that never reach a Conversion.
func (p *Plan) Key(rec *note.Source) string {
	return Namespace{Source: p.SourceValues(rec)}.FirstNonEmpty(p.Markers.KeyFields...)
}
