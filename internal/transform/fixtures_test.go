package transform

import (
	"errors"
	"testing"

	"github.com/agentic-research/yomitran/api"
	"github.com/agentic-research/yomitran/internal/note"
	"github.com/stretchr/testify/require"
)

var testSchemas = []note.Schema{
	{ID: "1001", Name: "Yomitan", Fields: []string{"Vocab", "VocabReading", "POS", "SelectionText", "GlossaryFirst", "FreqSort", "Tags"}},
	{ID: "2001", Name: "Verb", Fields: []string{"Front", "Meaning", "Romaji", "Link"}},
	{ID: "2002", Name: "Noun", Fields: []string{"Front", "Meaning"}},
}

// verbConfig mirrors the common setup: verbs by part of speech, a fallback
// meaning, and spec1 dropped from the tags.
func verbConfig() *api.Config {
	return &api.Config{
		Version:      "1.0.0",
		SourceSchema: "Yomitan",
		SourceFields: []api.SourceField{
			{Name: "Vocab"}, {Name: "VocabReading"}, {Name: "POS"},
			{Name: "SelectionText"}, {Name: "GlossaryFirst"}, {Name: "FreqSort"},
		},
		VirtualFields: []api.VirtualField{
			{Name: "VocabMeaning", Strategy: api.StrategyFallback, Primary: "SelectionText", Fallback: "GlossaryFirst"},
			{Name: "SourceLink", Strategy: api.StrategyNoteLink, LabelField: "Vocab"},
		},
		Categories: []api.Category{
			{
				ID: "verbs", Name: "Verbs", TargetSchema: "Verb",
				Filter: api.Filter{Field: "POS", Values: []string{"v1", "v5m"}, Mode: api.MatchEqualsAny},
				FieldMap: api.FieldMap{
					{Target: "Front", Source: "Vocab"},
					{Target: "Meaning", Source: "VocabMeaning"},
					{Target: "Link", Source: "computed:SourceLink"},
				},
			},
		},
		TagTransform: api.TagTransform{Drop: []string{"spec1"}},
		Tags:         api.TagConfig{KeyFields: []string{"Vocab"}},
	}
}

func mustCompile(t *testing.T, cfg *api.Config) *Plan {
	t.Helper()
	plan, err := Compile(cfg, testSchemas)
	require.NoError(t, err)
	return plan
}

func tabeRecord() *note.Source {
	return &note.Source{
		ID:     42,
		Schema: "1001",
		Fields: map[string]string{
			"Vocab":         "食べる",
			"VocabReading":  "たべる",
			"POS":           "v1",
			"SelectionText": "",
			"GlossaryFirst": "to eat",
		},
		Tags: []string{"v1", "spec1"},
	}
}

var errBackend = errors.New("backend offline")

func failingTransliterator() Transliterator {
	return TransliteratorFunc(func(string) (string, error) { return "", errBackend })
}

func stubTransliterator() Transliterator {
	return TransliteratorFunc(func(s string) (string, error) { return "romaji(" + s + ")", nil })
}
