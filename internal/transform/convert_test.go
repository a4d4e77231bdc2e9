package transform

import (
	"testing"

	"github.com/agentic-research/yomitran/api"
	"github.com/agentic-research/yomitran/internal/note"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertVerb(t *testing.T) {
	plan := mustCompile(t, verbConfig())

	conv, err := plan.Convert(tabeRecord(), nil, "run-1")
	require.NoError(t, err)

	assert.Equal(t, "Verbs", conv.Category.Name)
	assert.Equal(t, "食べる", conv.Key)
	assert.Equal(t, "to eat", conv.Namespace.Virtual["VocabMeaning"].Value)

	target := conv.Target
	assert.Equal(t, "2001", target.Schema)
	assert.Equal(t, int64(42), target.SourceID)
	assert.Equal(t, map[string]string{
		"Front":   "食べる",
		"Meaning": "to eat",
		"Link":    "[食べる|nid42]",
	}, target.Fields)
	assert.Equal(t, []string{"v1"}, target.Tags)
	assert.Equal(t, []string{
		"_intern::yomitan::VOCAB_AUS_DEM_ES_STAMMT::食べる::42",
		"_intern::yomitan::run::run-1",
		"_intern::yomitan::source::nid42",
		"_intern::yomitan_export",
	}, target.Markers)

	assert.Equal(t, "_intern::yomitan::VOCAB_AUS_DEM_ES_STAMMT::食べる::42", conv.LinkTag)
	assert.Equal(t, []string{
		"_intern::yomitan::VOCAB_AUS_DEM_ES_STAMMT::食べる::42",
		"_intern::yomitan::processed",
	}, conv.SourceMarks(plan))
}

func TestConvertNoMatch(t *testing.T) {
	plan := mustCompile(t, verbConfig())
	rec := tabeRecord()
	rec.Fields["POS"] = "n"

	_, err := plan.Convert(rec, nil, "")
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestConvertTransliterationFailure(t *testing.T) {
	cfg := verbConfig()
	cfg.VirtualFields = append(cfg.VirtualFields, api.VirtualField{Name: "Romaji", Strategy: api.StrategyToHepburn, Source: "VocabReading"})
	cfg.Categories[0].FieldMap = append(cfg.Categories[0].FieldMap, api.FieldMapping{Target: "Romaji", Source: "Romaji"})
	plan := mustCompile(t, cfg)

	_, err := plan.Convert(tabeRecord(), failingTransliterator(), "")
	require.ErrorIs(t, err, ErrTransliterationUnavailable)
	assert.Equal(t, ClassDependency, Classify(err))

	conv, err := plan.Convert(tabeRecord(), stubTransliterator(), "")
	require.NoError(t, err)
	assert.Equal(t, "romaji(たべる)", conv.Target.Fields["Romaji"])
}

func TestConvertSourceValues(t *testing.T) {
	cfg := verbConfig()
	cfg.SourceFields = append(cfg.SourceFields,
		api.SourceField{Name: "PartOfSpeech", Aliases: []string{"POS"}, Normalize: "part_of_speech"},
		api.SourceField{Name: "Pitch", Path: "$.entry.pitch"},
		api.SourceField{Name: "Glossary", Normalize: "html_text"},
	)
	cfg.Categories[0].Filter = api.Filter{Field: "PartOfSpeech", Values: []string{"ichidan"}, Mode: api.MatchEqualsAny}
	plan := mustCompile(t, cfg)

	rec := tabeRecord()
	rec.Fields["Glossary"] = "<ol><li>to eat</li></ol>"
	rec.Fields["Extra"] = "kept"
	rec.Raw = map[string]any{"entry": map[string]any{"pitch": "[2]"}}

	vals := plan.SourceValues(rec)
	assert.Equal(t, "ichidan", vals["PartOfSpeech"])
	assert.Equal(t, "[2]", vals["Pitch"])
	assert.Equal(t, "to eat", vals["Glossary"])
	assert.Equal(t, "kept", vals["Extra"])
	assert.Equal(t, "v1", vals["POS"])

	conv, err := plan.Convert(rec, nil, "")
	require.NoError(t, err)
	assert.Equal(t, "Verbs", conv.Category.Name)
}

func TestConvertTags(t *testing.T) {
	cfg := verbConfig()
	cfg.VirtualFields = append(cfg.VirtualFields, api.VirtualField{Name: "PosTag", Strategy: api.StrategyToTag, Source: "POS"})
	cfg.TagTransform.Mapping = map[string]api.TagList{"v1": {"verb::ichidan"}}
	cfg.DerivedTags = []api.DerivedTag{{Field: "FreqSort", Kind: api.DerivedFrequency}}
	cfg.Tags.SourceField = "Tags"
	plan := mustCompile(t, cfg)

	rec := tabeRecord()
	rec.Tags = append(rec.Tags, "_intern::yomitan::legacy")
	rec.Fields["Tags"] = "common news1"
	rec.Fields["FreqSort"] = "1523"

	conv, err := plan.Convert(rec, nil, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Freq::1523", "common", "news1", "verb::ichidan"}, conv.Target.Tags)
	assert.Contains(t, conv.Target.Markers, "_intern::yomitan::legacy")
	assert.NotContains(t, conv.Target.Markers, "_intern::yomitan::run::")
}

func TestProcessed(t *testing.T) {
	plan := mustCompile(t, verbConfig())
	rec := tabeRecord()
	assert.False(t, plan.Processed(rec))
	rec.Tags = append(rec.Tags, api.DefaultProcessedTag)
	assert.True(t, plan.Processed(rec))
}

func TestLinkTagWithoutKey(t *testing.T) {
	plan := mustCompile(t, verbConfig())
	assert.Equal(t, "_intern::yomitan::VOCAB_AUS_DEM_ES_STAMMT::9", plan.LinkTag("", 9))
	assert.Equal(t, "_intern::yomitan::VOCAB_AUS_DEM_ES_STAMMT::to_eat::9", plan.LinkTag("to eat", 9))
}

func TestConvertAllTags(t *testing.T) {
	plan := mustCompile(t, verbConfig())
	conv, err := plan.Convert(tabeRecord(), nil, "r")
	require.NoError(t, err)
	all := conv.Target.AllTags()
	assert.Equal(t, note.SortedSet(all), all)
	assert.Len(t, all, 4)
}
