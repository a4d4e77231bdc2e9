package transform

import (
	"regexp"
	"strings"

	"github.com/agentic-research/yomitran/api"
	"github.com/agentic-research/yomitran/internal/note"
	"golang.org/x/text/unicode/norm"
)

// DefaultNamespace is the reserved prefix of pipeline-owned tags.
const DefaultNamespace = "_intern::"

// TagSpec is a compiled tag transform.
type TagSpec struct {
	// Namespace tags pass through untouched: never dropped, never mapped.
	Namespace string
	Prefix    string
	Mapping   map[string][]string
	Drop      map[string]struct{}
}

// NewTagSpec compiles a tag transform for the given reserved namespace.
func NewTagSpec(tt api.TagTransform, namespace string) *TagSpec {
	spec := &TagSpec{
		Namespace: namespace,
		Prefix:    SafeTagComponent(tt.Prefix),
		Mapping:   make(map[string][]string, len(tt.Mapping)),
		Drop:      make(map[string]struct{}, len(tt.Drop)),
	}
	for from, to := range tt.Mapping {
		spec.Mapping[from] = append([]string(nil), to...)
	}
	for _, d := range tt.Drop {
		spec.Drop[d] = struct{}{}
	}
	return spec
}

// Internal reports whether tag lives in the reserved namespace.
func (s *TagSpec) Internal(tag string) bool {
	return s.Namespace != "" && strings.HasPrefix(tag, s.Namespace)
}

// TransformTags rewrites tags: dropped tags are omitted, mapped tags are
// replaced by their mapping, others are kept (prefixed and sanitised).
// Drop wins over mapping. The result is a sorted set.
func TransformTags(tags []string, spec *TagSpec) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if spec.Internal(tag) {
			out = append(out, tag)
			continue
		}
		if _, drop := spec.Drop[tag]; drop {
			continue
		}
		if mapped, ok := spec.Mapping[tag]; ok {
			for _, m := range mapped {
				if m = strings.TrimSpace(m); m != "" {
					out = append(out, m)
				}
			}
			continue
		}
		if safe := SafeTagComponent(tag); safe != "" {
			out = append(out, spec.Prefix+safe)
		}
	}
	return note.SortedSet(out)
}

var (
	reTagSplit   = regexp.MustCompile(`[\s,;]+`)
	reTagUnsafe  = regexp.MustCompile(`[\[\]<>]`)
	reWhitespace = regexp.MustCompile(`\s+`)
)

// SplitTags splits a tag string on whitespace, commas and semicolons.
func SplitTags(raw string) []string {
	var out []string
	for _, p := range reTagSplit.Split(raw, -1) {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// SafeTagComponent makes text usable inside a tag: NFC, whitespace runs
// become "_", brackets are removed.
func SafeTagComponent(text string) string {
	if text == "" {
		return ""
	}
	text = norm.NFC.String(strings.TrimSpace(text))
	text = reWhitespace.ReplaceAllString(text, "_")
	return reTagUnsafe.ReplaceAllString(text, "")
}

// DeriveTags applies derived tag rules to ns.
func DeriveTags(rules []api.DerivedTag, ns Namespace) []string {
	var out []string
	for _, r := range rules {
		val, ok := ns.Get(r.Field)
		if !ok || val == "" {
			continue
		}
		switch r.Kind {
		case api.DerivedFrequency:
			if n := ExtractFrequency(val); n != "" {
				out = append(out, "Freq::"+n)
			}
		case api.DerivedJLPT:
			if lvl := ExtractJLPTLevel(val); lvl != "" {
				out = append(out, "JLPT::N"+lvl)
			}
		}
	}
	return out
}
