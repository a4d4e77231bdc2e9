package transform

// Values is the source namespace of one record: field name -> value.
// A name that is absent is different from a name with an empty value.
type Values map[string]string

// VirtualValue is a resolved virtual field.
type VirtualValue struct {
	Value string
	// Tag marks to_tag output: tag material, never a field value.
	Tag bool
}

// Virtuals holds resolved virtual fields by name.
type Virtuals map[string]VirtualValue

// Tags returns the tag material contributed by to_tag fields.
func (v Virtuals) Tags() []string {
	var out []string
	for _, vv := range v {
		if vv.Tag {
			out = append(out, SplitTags(vv.Value)...)
		}
	}
	return out
}

// Namespace is the combined field view used for matching.
// Virtual fields override source fields of the same name.
type Namespace struct {
	Source  Values
	Virtual Virtuals
	Tags    []string
}

// Get returns the value of name, preferring virtual fields.
func (n Namespace) Get(name string) (string, bool) {
	if v, ok := n.Virtual[name]; ok {
		return v.Value, true
	}
	v, ok := n.Source[name]
	return v, ok
}

// Fields flattens the namespace into a plain map.
func (n Namespace) Fields() map[string]string {
	out := make(map[string]string, len(n.Source)+len(n.Virtual))
	for k, v := range n.Source {
		out[k] = v
	}
	for k, v := range n.Virtual {
		out[k] = v.Value
	}
	return out
}

// FirstNonEmpty returns the first non-empty value among names.
func (n Namespace) FirstNonEmpty(names ...string) string {
	for _, name := range names {
		if v, ok := n.Get(name); ok && v != "" {
			return v
		}
	}
	return ""
}
