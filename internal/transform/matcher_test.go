package transform

import (
	"testing"

	"github.com/agentic-research/yomitran/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustFilter(t *testing.T, f api.Filter) *Filter {
	t.Helper()
	out, err := CompileFilter(f)
	require.NoError(t, err)
	return out
}

func TestFilterMatches(t *testing.T) {
	ns := Namespace{
		Source:  Values{"POS": "Godan verb", "Empty": ""},
		Virtual: Virtuals{"Meaning": {Value: "to eat"}},
		Tags:    []string{"common", "spec1"},
	}

	tests := []struct {
		name   string
		filter api.Filter
		want   bool
	}{
		{"equals hit", api.Filter{Field: "POS", Values: []string{"godan verb"}, Mode: api.MatchEqualsAny}, true},
		{"equals miss", api.Filter{Field: "POS", Values: []string{"godan"}, Mode: api.MatchEqualsAny}, false},
		{"equals case sensitive", api.Filter{Field: "POS", Values: []string{"godan verb"}, Mode: api.MatchEqualsAny, CaseSensitive: true}, false},
		{"contains default mode", api.Filter{Field: "POS", Values: []string{"GODAN"}}, true},
		{"contains miss", api.Filter{Field: "POS", Values: []string{"ichidan"}, Mode: api.MatchContainsAny}, false},
		{"prefix", api.Filter{Field: "POS", Values: []string{"god"}, Mode: api.MatchPrefixAny}, true},
		{"regex", api.Filter{Field: "POS", Values: []string{`^godan\s+VERB$`}, Mode: api.MatchRegexAny}, true},
		{"regex case sensitive", api.Filter{Field: "POS", Values: []string{`^godan`}, Mode: api.MatchRegexAny, CaseSensitive: true}, false},
		{"virtual field", api.Filter{Field: "Meaning", Values: []string{"eat"}}, true},
		{"absent field", api.Filter{Field: "Nope", Values: []string{"x"}}, false},
		{"empty field value", api.Filter{Field: "Empty", Values: []string{""}}, false},
		{"empty values never match", api.Filter{Field: "POS", Mode: api.MatchContainsAny}, false},
		{"any", api.Filter{Mode: api.MatchAny}, true},
		{"expr fields", api.Filter{Mode: api.MatchExpr, Values: []string{`fields["POS"].startsWith("Godan")`}}, true},
		{"expr tags", api.Filter{Mode: api.MatchExpr, Values: []string{`"rare" in tags`, `"spec1" in tags`}}, true},
		{"expr miss", api.Filter{Mode: api.MatchExpr, Values: []string{`"rare" in tags`}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := mustFilter(t, tt.filter).Matches(ns)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompileFilterErrors(t *testing.T) {
	tests := []struct {
		name   string
		filter api.Filter
	}{
		{"unknown mode", api.Filter{Field: "POS", Values: []string{"x"}, Mode: "fuzzy"}},
		{"missing field", api.Filter{Values: []string{"x"}, Mode: api.MatchEqualsAny}},
		{"bad regex", api.Filter{Field: "POS", Values: []string{"("}, Mode: api.MatchRegexAny}},
		{"bad expression", api.Filter{Mode: api.MatchExpr, Values: []string{"fields[["}}},
		{"non-bool expression", api.Filter{Mode: api.MatchExpr, Values: []string{`size(tags)`}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CompileFilter(tt.filter)
			assert.Error(t, err)
		})
	}
}

func TestExprEvaluationError(t *testing.T) {
	f := mustFilter(t, api.Filter{Mode: api.MatchExpr, Values: []string{`fields["missing"] == "x"`}})
	_, err := f.Matches(Namespace{Source: Values{}})
	assert.ErrorIs(t, err, ErrFilterEvaluation)
}

func TestMatchFirstWins(t *testing.T) {
	first := &Category{Name: "first", Filter: mustFilter(t, api.Filter{Field: "POS", Values: []string{"v"}})}
	second := &Category{Name: "second", Filter: mustFilter(t, api.Filter{Field: "POS", Values: []string{"v1"}})}
	ns := Namespace{Source: Values{"POS": "v1"}}

	got, err := Match(ns, []*Category{first, second})
	require.NoError(t, err)
	assert.Equal(t, "first", got.Name)

	got, err = Match(ns, []*Category{second, first})
	require.NoError(t, err)
	assert.Equal(t, "second", got.Name)
}

func TestMatchNoCategory(t *testing.T) {
	c := &Category{Name: "nouns", Filter: mustFilter(t, api.Filter{Field: "POS", Values: []string{"n"}, Mode: api.MatchEqualsAny})}
	_, err := Match(Namespace{Source: Values{"POS": "v1"}}, []*Category{c})
	assert.ErrorIs(t, err, ErrNoMatch)
}
