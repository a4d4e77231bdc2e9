package api

// Default marker tags.
const (
	DefaultTagNamespace    = "_intern::"
	DefaultProcessedTag    = "_intern::yomitan::processed"
	DefaultExportTag       = "_intern::yomitan_export"
	DefaultRunTagPrefix    = "_intern::yomitan::run"
	DefaultSourceTagPrefix = "_intern::yomitan::source"
	DefaultLinkTagPrefix   = "_intern::yomitan::VOCAB_AUS_DEM_ES_STAMMT"
	DefaultBacklinkField   = "LinkedNotes"
	DefaultBacklinkLabel   = "Created Card"
)

// WithDefaults returns t with every blank setting filled in.
func (t TagConfig) WithDefaults() TagConfig {
	fill := func(s *string, def string) {
		if *s == "" {
			*s = def
		}
	}
	fill(&t.Namespace, DefaultTagNamespace)
	fill(&t.ProcessedTag, DefaultProcessedTag)
	fill(&t.ExportTag, DefaultExportTag)
	fill(&t.RunTagPrefix, DefaultRunTagPrefix)
	fill(&t.SourceTagPrefix, DefaultSourceTagPrefix)
	fill(&t.LinkTagPrefix, DefaultLinkTagPrefix)
	fill(&t.BacklinkLabel, DefaultBacklinkLabel)
	if len(t.KeyFields) == 0 {
		t.KeyFields = []string{"Vocab", "VocabFurigana"}
	}
	return t
}
