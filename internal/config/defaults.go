package config

import (
	"github.com/agentic-research/yomitran/api"
)

// CurrentVersion is written into new configuration documents.
const CurrentVersion = "1.0.0"

// Default returns the configuration used for keys a document leaves out.
// It expects a source schema carrying the usual Yomitan export fields.
func Default() *api.Config {
	return &api.Config{
		Version:      CurrentVersion,
		SourceSchema: "Yomitan",
		SourceFields: []api.SourceField{
			{Name: "Vocab"},
			{Name: "VocabReading", Label: "Reading"},
			{Name: "VocabFurigana", Label: "Furigana"},
			{Name: "VocabAudio", Label: "Audio"},
			{Name: posField, Label: posLabel, Aliases: []string{legacyPOSField}, Normalize: "part_of_speech"},
			{Name: "SelectionText", Label: "Selection", Normalize: "selection_text"},
			{Name: "GlossaryFirst", Label: "First Definition", Normalize: "html_text"},
			{Name: "FreqSort", Label: "Frequency"},
		},
		VirtualFields: []api.VirtualField{
			{
				Name: "VocabMeaning", Label: "Meaning", Strategy: api.StrategyFallback,
				Primary: "SelectionText", Fallback: "GlossaryFirst",
			},
			{Name: "VocabHepburn", Label: "Hepburn", Strategy: api.StrategyToHepburn, Source: "VocabReading"},
			{Name: "SourceLink", Label: "Source Link", Strategy: api.StrategyNoteLink, LabelField: "Vocab"},
		},
		Categories: []api.Category{
			{
				ID: "verb", Name: "Verbs", TargetSchema: "Verb",
				Filter: api.Filter{
					Field:  posField,
					Values: []string{"godan", "ichidan", "suru", "kuru", "zuru"},
					Mode:   api.MatchEqualsAny,
				},
			},
		},
		DefaultFieldMap: api.FieldMap{
			{Target: "Vocab", Source: "Vocab"},
			{Target: "VocabReading", Source: "VocabReading"},
			{Target: "VocabMeaning", Source: "computed:VocabMeaning"},
			{Target: "VocabHepburn", Source: "computed:VocabHepburn"},
			{Target: "VocabAudio", Source: "VocabAudio"},
			{Target: "LinkedCards", Source: "computed:SourceLink"},
		},
		DerivedTags: []api.DerivedTag{
			{Field: "FreqSort", Kind: api.DerivedFrequency},
		},
		Tags: api.TagConfig{
			BacklinkField: api.DefaultBacklinkField,
		}.WithDefaults(),
		Options: api.Options{
			RunOnSync: true,
			Debug:     api.Debug{Format: "text"},
		},
	}
}
