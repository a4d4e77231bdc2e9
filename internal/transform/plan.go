package transform

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/agentic-research/yomitran/api"
	"github.com/agentic-research/yomitran/internal/note"
)

// Plan is a compiled configuration. It is built once per batch and never
// mutated afterwards, so every component reads the same rules.
type Plan struct {
	// SourceSchema is the schema whose records are converted (ID when known).
	SourceSchema string
	Fields       []SourceField
	Virtual      []api.VirtualField
	Categories   []*Category
	Tags         *TagSpec
	Derived      []api.DerivedTag
	Markers      api.TagConfig
	// Warnings are configuration smells that do not stop a run.
	Warnings []string

	virtualByName map[string]api.VirtualField
}

// SourceField is a compiled source field registry entry.
type SourceField struct {
	api.SourceField
	path      *PayloadPath
	normalize Normalizer
}

// Compile validates cfg against the target schemas and builds a Plan.
// Every problem is collected; a non-nil error is always a *ConfigError.
func Compile(cfg *api.Config, schemas []note.Schema) (*Plan, error) {
	if cfg == nil {
		return nil, &ConfigError{Problems: []error{errors.New("configuration is nil")}}
	}
	c := &compiler{
		cfg:     cfg,
		schemas: schemas,
		errs:    &ConfigError{},
		sources: make(map[string]struct{}),
		plan: &Plan{
			SourceSchema:  cfg.SourceSchema,
			Markers:       cfg.Tags.WithDefaults(),
			Derived:       slices.Clone(cfg.DerivedTags),
			virtualByName: make(map[string]api.VirtualField),
		},
	}
	c.sourceSchema()
	c.sourceFields()
	c.virtualFields()
	c.markers()
	c.tagTransform()
	c.derivedTags()
	c.categories()
	if err := c.errs.orNil(); err != nil {
		return nil, err
	}
	return c.plan, nil
}

type compiler struct {
	cfg     *api.Config
	schemas []note.Schema
	errs    *ConfigError
	plan    *Plan
	sources map[string]struct{}
}

// known reports whether name is a declared source or virtual field.
func (c *compiler) known(name string) bool {
	if _, ok := c.sources[name]; ok {
		return true
	}
	_, ok := c.plan.virtualByName[name]
	return ok
}

func (c *compiler) warn(format string, args ...any) {
	c.plan.Warnings = append(c.plan.Warnings, fmt.Sprintf(format, args...))
}

func (c *compiler) findSchema(ref string) (note.Schema, bool) {
	for _, s := range c.schemas {
		if s.ID == ref || s.Name == ref {
			return s, true
		}
	}
	return note.Schema{}, false
}

func (c *compiler) sourceSchema() {
	ref := c.cfg.SourceSchema
	if ref == "" || c.schemas == nil {
		return
	}
	s, ok := c.findSchema(ref)
	if !ok {
		c.errs.add("source schema %q not found", ref)
		return
	}
	c.plan.SourceSchema = s.ID
}

func (c *compiler) sourceFields() {
	for i, f := range c.cfg.SourceFields {
		name := strings.TrimSpace(f.Name)
		if name == "" {
			c.errs.add("source_fields[%d]: name is required", i)
			continue
		}
		if _, dup := c.sources[name]; dup {
			c.errs.add("source field %q declared twice", name)
			continue
		}
		c.sources[name] = struct{}{}
		sf := SourceField{SourceField: f}
		sf.Name = name
		if f.Path != "" {
			p, err := CompilePayloadPath(f.Path)
			if err != nil {
				c.errs.add("source field %q: %w", name, err)
			} else {
				sf.path = p
			}
		}
		if f.Normalize != "" {
			n, ok := Normalizers[f.Normalize]
			if !ok {
				c.errs.add("source field %q: unknown normalizer %q", name, f.Normalize)
			}
			sf.normalize = n
		}
		c.plan.Fields = append(c.plan.Fields, sf)
	}
}

func (c *compiler) virtualFields() {
	for i, v := range c.cfg.VirtualFields {
		name := strings.TrimSpace(v.Name)
		if name == "" {
			c.errs.add("virtual_fields[%d]: name is required", i)
			continue
		}
		if _, dup := c.plan.virtualByName[name]; dup {
			c.errs.add("virtual field %q declared twice", name)
			continue
		}
		v.Name = name

		var params []string
		switch v.Strategy {
		case api.StrategyCopy, api.StrategyToHepburn, api.StrategyToTag:
			params = []string{v.Source}
		case api.StrategyFallback:
			params = []string{v.Primary, v.Fallback}
		case api.StrategyNoteLink:
			if v.LabelField != "" {
				params = []string{v.LabelField}
			}
		default:
			c.errs.add("virtual field %q: unknown strategy %q", name, v.Strategy)
			continue
		}
		for _, p := range params {
			if p == "" {
				c.errs.add("virtual field %q: strategy %s is missing a source field", name, v.Strategy)
				continue
			}
			// Parameters may only see source fields and earlier virtual fields.
			if !c.known(p) {
				c.errs.add("virtual field %q: references unknown field %q", name, p)
			}
		}

		if _, ok := c.sources[name]; ok {
			c.warn("virtual field %q shadows the source field of the same name", name)
		}
		c.plan.virtualByName[name] = v
		c.plan.Virtual = append(c.plan.Virtual, v)
	}
}

func (c *compiler) markers() {
	m := c.plan.Markers
	for _, mt := range []struct{ label, tag string }{
		{"processed_tag", m.ProcessedTag},
		{"export_tag", m.ExportTag},
		{"run_tag_prefix", m.RunTagPrefix},
		{"source_tag_prefix", m.SourceTagPrefix},
		{"link_tag_prefix", m.LinkTagPrefix},
	} {
		label, tag := mt.label, mt.tag
		if !strings.HasPrefix(tag, m.Namespace) {
			c.errs.add("tags.%s %q must live in the internal namespace %q", label, tag, m.Namespace)
		}
		if strings.ContainsAny(tag, " \t\n") {
			c.errs.add("tags.%s %q must not contain whitespace", label, tag)
		}
	}
	for _, k := range m.KeyFields {
		if !c.known(k) {
			c.warn("tags.key_fields: %q is not a declared field", k)
		}
	}
}

func (c *compiler) tagTransform() {
	ns := c.plan.Markers.Namespace
	spec := NewTagSpec(c.cfg.TagTransform, ns)
	for from, to := range spec.Mapping {
		if spec.Internal(from) {
			c.warn("tag_transform.mapping: internal tag %q is never mapped", from)
			delete(spec.Mapping, from)
			continue
		}
		for _, t := range to {
			if spec.Internal(t) {
				c.errs.add("tag_transform.mapping: %q maps into the internal namespace (%q)", from, t)
			}
		}
		if _, both := spec.Drop[from]; both {
			c.warn("tag_transform: %q is both mapped and dropped; drop wins", from)
		}
	}
	for d := range spec.Drop {
		if spec.Internal(d) {
			c.warn("tag_transform.drop: internal tag %q is never dropped", d)
			delete(spec.Drop, d)
		}
	}
	if spec.Prefix != "" && spec.Internal(spec.Prefix) {
		c.errs.add("tag_transform.prefix %q is inside the internal namespace", spec.Prefix)
	}
	c.plan.Tags = spec
}

func (c *compiler) derivedTags() {
	for i, d := range c.cfg.DerivedTags {
		switch d.Kind {
		case api.DerivedFrequency, api.DerivedJLPT:
		default:
			c.errs.add("derived_tags[%d]: unknown kind %q", i, d.Kind)
		}
		if !c.known(d.Field) {
			c.errs.add("derived_tags[%d]: unknown field %q", i, d.Field)
		}
	}
}

func (c *compiler) categories() {
	if len(c.cfg.Categories) == 0 {
		c.errs.add("no categories configured")
		return
	}
	ids := make(map[string]struct{})
	var catchAll string
	seenEquals := make(map[string]string) // field + folded value -> category

	for i, def := range c.cfg.Categories {
		name := def.DisplayName()
		if name == "" {
			name = fmt.Sprintf("categories[%d]", i)
		}
		if def.ID != "" {
			if _, dup := ids[def.ID]; dup {
				c.errs.add("category id %q declared twice", def.ID)
			}
			ids[def.ID] = struct{}{}
		}
		if catchAll != "" {
			c.warn("category %q is unreachable: %q matches every record", name, catchAll)
		}

		filter, err := CompileFilter(def.Filter)
		if err != nil {
			c.errs.add("category %q: filter: %w", name, err)
			continue
		}
		if filter.Mode != api.MatchAny && filter.Mode != api.MatchExpr {
			if !c.known(filter.Field) {
				c.errs.add("category %q: filter references unknown field %q", name, filter.Field)
			}
		}
		if filter.Empty() {
			c.warn("category %q: filter has no values and never matches", name)
		}
		if filter.Mode == api.MatchAny && catchAll == "" {
			catchAll = name
		}
		if filter.Mode == api.MatchEqualsAny {
			for _, v := range filter.values {
				key := filter.Field + "\x00" + v
				if prev, ok := seenEquals[key]; ok {
					c.warn("category %q: %s=%q is already claimed by %q", name, filter.Field, v, prev)
					continue
				}
				seenEquals[key] = name
			}
		}

		schema, ok := c.findSchema(def.TargetSchema)
		if !ok {
			c.errs.add("category %q: unknown target schema %q", name, def.TargetSchema)
			continue
		}
		cat := &Category{ID: def.ID, Name: name, Schema: schema, Filter: filter}
		cat.Fields = c.fieldRefs(cat, def.FieldMap)
		c.plan.Categories = append(c.plan.Categories, cat)
	}
}

func (c *compiler) fieldRefs(cat *Category, explicit api.FieldMap) []FieldRef {
	var refs []FieldRef
	mapped := make(map[string]struct{})
	for _, e := range explicit {
		if _, dup := mapped[e.Target]; dup {
			c.errs.add("category %q: target field %q mapped twice", cat.Name, e.Target)
			continue
		}
		mapped[e.Target] = struct{}{}
		if !cat.Schema.HasField(e.Target) {
			c.errs.add("category %q: schema %q has no field %q", cat.Name, cat.Schema.Name, e.Target)
			continue
		}
		ref, ok := c.fieldRef(e)
		if !ok {
			continue
		}
		if err := c.checkRef(ref); err != nil {
			c.errs.add("category %q: target field %q: %w", cat.Name, e.Target, err)
			continue
		}
		refs = append(refs, ref)
	}

	// Defaults fill schema fields the category leaves unmapped.
	for _, target := range cat.Schema.Fields {
		if _, ok := mapped[target]; ok {
			continue
		}
		src, ok := c.cfg.DefaultFieldMap.Lookup(target)
		if !ok {
			continue
		}
		ref, ok := c.fieldRef(api.FieldMapping{Target: target, Source: src})
		if !ok {
			continue
		}
		if err := c.checkRef(ref); err != nil {
			c.warn("category %q: default for %q skipped: %v", cat.Name, target, err)
			continue
		}
		refs = append(refs, ref)
	}
	return refs
}

func (c *compiler) fieldRef(e api.FieldMapping) (FieldRef, bool) {
	name, ns, ok := api.ParseRef(e.Source)
	if !ok {
		return FieldRef{}, false
	}
	return FieldRef{Target: e.Target, Name: name, Namespace: ns, Ref: e.Source}, true
}

func (c *compiler) checkRef(ref FieldRef) error {
	if ref.Namespace != api.NamespaceSource {
		if v, ok := c.plan.virtualByName[ref.Name]; ok {
			if v.Strategy == api.StrategyToTag {
				return fmt.Errorf("%w: %q is a to_tag field", ErrInvalidFieldUsage, ref.Name)
			}
			return nil
		}
	}
	if ref.Namespace != api.NamespaceVirtual {
		if _, ok := c.sources[ref.Name]; ok {
			return nil
		}
	}
	return fmt.Errorf("%w %q", ErrUnknownFieldReference, ref.Ref)
}

// Category returns the compiled category by ID or name.
func (p *Plan) Category(ref string) (*Category, bool) {
	for _, c := range p.Categories {
		if c.ID == ref || c.Name == ref {
			return c, true
		}
	}
	return nil, false
}

// SelectableSource is a reference offered as a field map source.
type SelectableSource struct {
	Ref   string
	Label string
}

// SelectableSources lists what a field map may reference: enabled source
// fields and virtual fields, excluding to_tag fields.
func (p *Plan) SelectableSources() []SelectableSource {
	out := []SelectableSource{{Ref: api.RefIgnore, Label: "(Ignore)"}}
	for _, f := range p.Fields {
		if !f.IsEnabled() {
			continue
		}
		out = append(out, SelectableSource{Ref: api.RefValuePrefix + f.Name, Label: f.DisplayLabel()})
	}
	for _, v := range p.Virtual {
		if v.Strategy == api.StrategyToTag {
			continue
		}
		out = append(out, SelectableSource{Ref: api.RefComputedPrefix + v.Name, Label: v.DisplayLabel()})
	}
	return out
}
