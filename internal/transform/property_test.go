package transform

import (
	"slices"
	"sort"
	"testing"

	"github.com/agentic-research/yomitran/api"
	"github.com/agentic-research/yomitran/internal/note"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Property: a tag listed in both drop and mapping is always omitted.
func TestDropBeatsMappingProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("dropped tags never reach the output", prop.ForAll(
		func(tags []string, idx int) bool {
			if len(tags) == 0 {
				return true
			}
			victim := "t" + tags[idx%len(tags)]
			input := make([]string, len(tags))
			for i, tg := range tags {
				input[i] = "t" + tg
			}
			spec := NewTagSpec(api.TagTransform{
				Mapping: map[string]api.TagList{victim: {"mapped::" + victim}},
				Drop:    []string{victim},
			}, DefaultNamespace)
			out := TransformTags(input, spec)
			return !slices.Contains(out, victim) && !slices.Contains(out, "mapped::"+victim)
		},
		gen.SliceOf(gen.AlphaString()),
		gen.IntRange(0, 100),
	))

	properties.TestingRun(t)
}

// Property: the transform yields a sorted set and keeps internal tags.
func TestTransformTagsSetProperty(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())
	spec := NewTagSpec(api.TagTransform{Prefix: "p::", Drop: []string{"a"}}, DefaultNamespace)

	properties.Property("output is a sorted set containing every internal tag", prop.ForAll(
		func(tags []string, internal string) bool {
			in := append(slices.Clone(tags), DefaultNamespace+internal)
			out := TransformTags(in, spec)
			if !sort.StringsAreSorted(out) {
				return false
			}
			if len(note.SortedSet(out)) != len(out) {
				return false
			}
			return slices.Contains(out, DefaultNamespace+internal)
		},
		gen.SliceOf(gen.AlphaString()),
		gen.Identifier(),
	))

	properties.TestingRun(t)
}

// Property: fallback yields primary when non-empty, else the fallback value.
func TestFallbackProperty(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())
	specs := []api.VirtualField{{Name: "V", Strategy: api.StrategyFallback, Primary: "P", Fallback: "F"}}

	properties.Property("fallback picks the first non-empty value", prop.ForAll(
		func(p, f string) bool {
			out, err := Resolve(&note.Source{ID: 1}, Values{"P": p, "F": f}, specs, nil)
			if err != nil {
				return false
			}
			want := p
			if p == "" {
				want = f
			}
			return out["V"].Value == want
		},
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

// Property: a to_tag value is never usable as a field value.
func TestToTagIsolationProperty(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())
	specs := []api.VirtualField{{Name: "T", Strategy: api.StrategyToTag, Source: "S"}}

	properties.Property("mapping a to_tag field always fails", prop.ForAll(
		func(v string) bool {
			virt, err := Resolve(&note.Source{ID: 1}, Values{"S": v}, specs, nil)
			if err != nil || !virt["T"].Tag {
				return false
			}
			cat := &Category{Name: "c", Fields: []FieldRef{{Target: "X", Name: "T", Ref: "T"}}}
			_, err = MapFields(cat, Values{"S": v}, virt)
			return err != nil
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

// Property: Match returns the lowest-indexed matching category.
func TestFirstMatchProperty(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("first matching category wins", prop.ForAll(
		func(values []string, pick int) bool {
			if len(values) == 0 {
				return true
			}
			cats := make([]*Category, len(values))
			for i, v := range values {
				f, err := CompileFilter(api.Filter{Field: "K", Values: []string{"v" + v}, Mode: api.MatchEqualsAny, CaseSensitive: true})
				if err != nil {
					return false
				}
				cats[i] = &Category{Name: v, Filter: f}
			}
			key := "v" + values[pick%len(values)]
			want := slices.Index(values, values[pick%len(values)])

			got, err := Match(Namespace{Source: Values{"K": key}}, cats)
			return err == nil && got == cats[want]
		},
		gen.SliceOf(gen.AlphaString()),
		gen.IntRange(0, 100),
	))

	properties.TestingRun(t)
}
