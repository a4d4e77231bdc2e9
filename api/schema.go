package api

// Config is the root configuration document of the converter.
// It describes how imported source records are turned into target records.
type Config struct {
	// Version of the configuration format (semver, major 1).
	Version string `json:"version" yaml:"version"`
	// Enabled gates every run; a disabled config converts nothing.
	Enabled *bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	// SourceSchema is the schema (ID or name) whose records are converted.
	SourceSchema string `json:"source_schema" yaml:"source_schema"`
	// SourceFields is the registry of selectable source fields.
	SourceFields []SourceField `json:"source_fields,omitempty" yaml:"source_fields,omitempty"`
	// VirtualFields are computed in declaration order.
	VirtualFields []VirtualField `json:"virtual_fields,omitempty" yaml:"virtual_fields,omitempty"`
	// Categories are evaluated in order; the first matching filter wins.
	Categories []Category `json:"categories,omitempty" yaml:"categories,omitempty"`
	// DefaultFieldMap fills target fields a category leaves unmapped.
	DefaultFieldMap FieldMap `json:"default_field_map,omitempty" yaml:"default_field_map,omitempty"`
	// TagTransform rewrites source tags into target tags.
	TagTransform TagTransform `json:"tag_transform" yaml:"tag_transform"`
	// DerivedTags add tags computed from field values after the transform.
	DerivedTags []DerivedTag `json:"derived_tags,omitempty" yaml:"derived_tags,omitempty"`
	// Tags configures the pipeline-owned marker tags.
	Tags TagConfig `json:"tags" yaml:"tags"`
	// Options holds run options.
	Options Options `json:"options" yaml:"options"`
}

// IsEnabled reports whether conversion runs are allowed. Unset means enabled.
func (c *Config) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// SourceField registers a field of the source schema.
type SourceField struct {
	Name  string `json:"name" yaml:"name"`
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
	// Enabled controls whether the field is offered as a mapping source. Unset means enabled.
	Enabled *bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	// Aliases are read in order when the field itself is empty.
	Aliases []string `json:"aliases,omitempty" yaml:"aliases,omitempty"`
	// Path is a JSONPath into the raw import payload, used when the field is absent.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
	// Normalize names a value normalizer (part_of_speech, selection_text, html_text).
	Normalize string `json:"normalize,omitempty" yaml:"normalize,omitempty"`
}

// IsEnabled reports whether the field is offered as a mapping source.
func (f SourceField) IsEnabled() bool {
	return f.Enabled == nil || *f.Enabled
}

// DisplayLabel returns the label, defaulting to the name.
func (f SourceField) DisplayLabel() string {
	if f.Label != "" {
		return f.Label
	}
	return f.Name
}

// Strategy selects how a virtual field is computed.
type Strategy string

const (
	StrategyCopy      Strategy = "copy"
	StrategyFallback  Strategy = "fallback"
	StrategyToHepburn Strategy = "to_hepburn"
	StrategyToTag     Strategy = "to_tag"
	StrategyNoteLink  Strategy = "note_link"
)

// Strategies lists every known strategy.
var Strategies = []Strategy{StrategyCopy, StrategyFallback, StrategyToHepburn, StrategyToTag, StrategyNoteLink}

// VirtualField declares a computed field.
type VirtualField struct {
	Name     string   `json:"name" yaml:"name"`
	Label    string   `json:"label,omitempty" yaml:"label,omitempty"`
	Strategy Strategy `json:"strategy" yaml:"strategy"`

	// Source is read by copy, to_hepburn and to_tag.
	Source string `json:"source,omitempty" yaml:"source,omitempty"`
	// Primary and Fallback are read by fallback.
	Primary  string `json:"primary,omitempty" yaml:"primary,omitempty"`
	Fallback string `json:"fallback,omitempty" yaml:"fallback,omitempty"`
	// LabelField and LinkLabel are read by note_link.
	LabelField string `json:"label_field,omitempty" yaml:"label_field,omitempty"`
	LinkLabel  string `json:"link_label,omitempty" yaml:"link_label,omitempty"`
}

// DisplayLabel returns the label, defaulting to the name.
func (v VirtualField) DisplayLabel() string {
	if v.Label != "" {
		return v.Label
	}
	return v.Name
}

// MatchMode selects how a filter compares field values.
type MatchMode string

const (
	MatchEqualsAny   MatchMode = "equals_any"
	MatchContainsAny MatchMode = "contains_any"
	MatchPrefixAny   MatchMode = "prefix_any"
	MatchRegexAny    MatchMode = "regex_any"
	// MatchExpr evaluates CEL expressions over fields and tags.
	MatchExpr MatchMode = "expr"
	// MatchAny matches every record. It is the explicit catch-all.
	MatchAny MatchMode = "any"
)

// Filter selects the records a category applies to.
type Filter struct {
	Field         string    `json:"field,omitempty" yaml:"field,omitempty"`
	Values        []string  `json:"values,omitempty" yaml:"values,omitempty"`
	Mode          MatchMode `json:"match_mode,omitempty" yaml:"match_mode,omitempty"`
	CaseSensitive bool      `json:"case_sensitive,omitempty" yaml:"case_sensitive,omitempty"`
}

// Category pairs a filter with a target schema and a field mapping.
type Category struct {
	ID           string   `json:"id,omitempty" yaml:"id,omitempty"`
	Name         string   `json:"name" yaml:"name"`
	TargetSchema string   `json:"target_schema" yaml:"target_schema"`
	Filter       Filter   `json:"filter" yaml:"filter"`
	FieldMap     FieldMap `json:"field_map,omitempty" yaml:"field_map,omitempty"`
}

// DisplayName returns the name, defaulting to the ID.
func (c Category) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return c.ID
}

// TagTransform rewrites tags. Drop wins over Mapping.
type TagTransform struct {
	// Prefix is prepended to tags that are neither mapped nor dropped.
	Prefix  string             `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	Mapping map[string]TagList `json:"mapping,omitempty" yaml:"mapping,omitempty"`
	Drop    []string           `json:"drop,omitempty" yaml:"drop,omitempty"`
}

// DerivedTagKind selects a derived tag rule.
type DerivedTagKind string

const (
	// DerivedFrequency emits Freq::<n> from the first number in the field.
	DerivedFrequency DerivedTagKind = "frequency"
	// DerivedJLPT emits JLPT::N<level> from a JLPT level in the field.
	DerivedJLPT DerivedTagKind = "jlpt"
)

// DerivedTag adds a tag computed from a field value.
type DerivedTag struct {
	Field string         `json:"field" yaml:"field"`
	Kind  DerivedTagKind `json:"kind" yaml:"kind"`
}

// TagConfig configures the pipeline-owned tags.
type TagConfig struct {
	// Namespace is the reserved prefix of internal tags.
	Namespace       string `json:"namespace,omitempty" yaml:"namespace,omitempty"`
	ProcessedTag    string `json:"processed_tag,omitempty" yaml:"processed_tag,omitempty"`
	ExportTag       string `json:"export_tag,omitempty" yaml:"export_tag,omitempty"`
	RunTagPrefix    string `json:"run_tag_prefix,omitempty" yaml:"run_tag_prefix,omitempty"`
	SourceTagPrefix string `json:"source_tag_prefix,omitempty" yaml:"source_tag_prefix,omitempty"`
	LinkTagPrefix   string `json:"link_tag_prefix,omitempty" yaml:"link_tag_prefix,omitempty"`
	// SourceField, when set, is a field whose value carries additional source tags.
	SourceField string `json:"source_field,omitempty" yaml:"source_field,omitempty"`
	// KeyFields are read in order to find the vocabulary key of a record.
	KeyFields []string `json:"key_fields,omitempty" yaml:"key_fields,omitempty"`
	// BacklinkField on the source record receives a link to the created record.
	BacklinkField string `json:"backlink_field,omitempty" yaml:"backlink_field,omitempty"`
	BacklinkLabel string `json:"backlink_label,omitempty" yaml:"backlink_label,omitempty"`
}

// Options holds run options.
type Options struct {
	RunOnSync bool  `json:"run_on_sync" yaml:"run_on_sync"`
	Debug     Debug `json:"debug" yaml:"debug"`
}

// Debug configures debug logging.
type Debug struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Path    string `json:"path,omitempty" yaml:"path,omitempty"`
	Format  string `json:"format,omitempty" yaml:"format,omitempty"`
}
