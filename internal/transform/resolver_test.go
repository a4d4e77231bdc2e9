package transform

import (
	"testing"

	"github.com/agentic-research/yomitran/api"
	"github.com/agentic-research/yomitran/internal/note"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	rec := &note.Source{ID: 7}
	src := Values{"Vocab": "食べる", "Reading": "たべる", "Sel": "", "Gloss": "to eat", "TagSrc": "verb, common"}

	t.Run("copy", func(t *testing.T) {
		out, err := Resolve(rec, src, []api.VirtualField{
			{Name: "A", Strategy: api.StrategyCopy, Source: "Vocab"},
			{Name: "B", Strategy: api.StrategyCopy, Source: "Missing"},
		}, nil)
		require.NoError(t, err)
		assert.Equal(t, "食べる", out["A"].Value)
		assert.Equal(t, "", out["B"].Value)
	})

	t.Run("fallback", func(t *testing.T) {
		out, err := Resolve(rec, src, []api.VirtualField{
			{Name: "M", Strategy: api.StrategyFallback, Primary: "Sel", Fallback: "Gloss"},
			{Name: "P", Strategy: api.StrategyFallback, Primary: "Vocab", Fallback: "Gloss"},
			{Name: "E", Strategy: api.StrategyFallback, Primary: "Sel", Fallback: "Missing"},
		}, nil)
		require.NoError(t, err)
		assert.Equal(t, "to eat", out["M"].Value)
		assert.Equal(t, "食べる", out["P"].Value)
		assert.Equal(t, "", out["E"].Value)
	})

	t.Run("chained virtual fields", func(t *testing.T) {
		out, err := Resolve(rec, src, []api.VirtualField{
			{Name: "M", Strategy: api.StrategyFallback, Primary: "Sel", Fallback: "Gloss"},
			{Name: "M2", Strategy: api.StrategyCopy, Source: "M"},
		}, nil)
		require.NoError(t, err)
		assert.Equal(t, "to eat", out["M2"].Value)
	})

	t.Run("source fields shadow virtual fields in lookups", func(t *testing.T) {
		out, err := Resolve(rec, src, []api.VirtualField{
			{Name: "Vocab", Strategy: api.StrategyCopy, Source: "Gloss"},
			{Name: "Copy", Strategy: api.StrategyCopy, Source: "Vocab"},
		}, nil)
		require.NoError(t, err)
		assert.Equal(t, "食べる", out["Copy"].Value)
	})

	t.Run("to_hepburn", func(t *testing.T) {
		out, err := Resolve(rec, src, []api.VirtualField{
			{Name: "R", Strategy: api.StrategyToHepburn, Source: "Reading"},
			{Name: "Empty", Strategy: api.StrategyToHepburn, Source: "Sel"},
		}, stubTransliterator())
		require.NoError(t, err)
		assert.Equal(t, "romaji(たべる)", out["R"].Value)
		assert.Equal(t, "", out["Empty"].Value)
	})

	t.Run("to_hepburn failure aborts the record", func(t *testing.T) {
		out, err := Resolve(rec, src, []api.VirtualField{
			{Name: "A", Strategy: api.StrategyCopy, Source: "Vocab"},
			{Name: "R", Strategy: api.StrategyToHepburn, Source: "Reading"},
		}, failingTransliterator())
		require.ErrorIs(t, err, ErrTransliterationUnavailable)
		assert.ErrorIs(t, err, errBackend)
		assert.Nil(t, out)
	})

	t.Run("to_hepburn without transliterator", func(t *testing.T) {
		_, err := Resolve(rec, src, []api.VirtualField{
			{Name: "R", Strategy: api.StrategyToHepburn, Source: "Reading"},
		}, nil)
		assert.ErrorIs(t, err, ErrTransliterationUnavailable)
	})

	t.Run("to_tag", func(t *testing.T) {
		out, err := Resolve(rec, src, []api.VirtualField{
			{Name: "T", Strategy: api.StrategyToTag, Source: "TagSrc"},
		}, nil)
		require.NoError(t, err)
		assert.True(t, out["T"].Tag)
		assert.ElementsMatch(t, []string{"verb", "common"}, out.Tags())
	})

	t.Run("note_link", func(t *testing.T) {
		out, err := Resolve(rec, src, []api.VirtualField{
			{Name: "L", Strategy: api.StrategyNoteLink, LabelField: "Vocab"},
			{Name: "L2", Strategy: api.StrategyNoteLink, LabelField: "Sel", LinkLabel: "Origin"},
			{Name: "L3", Strategy: api.StrategyNoteLink},
		}, nil)
		require.NoError(t, err)
		assert.Equal(t, "[食べる|nid7]", out["L"].Value)
		assert.Equal(t, "[Origin|nid7]", out["L2"].Value)
		assert.Equal(t, "[Source|nid7]", out["L3"].Value)
	})
}

func TestNoteLinkEscapesBrackets(t *testing.T) {
	assert.Equal(t, `[a\[b\]|nid1]`, NoteLink("a[b]", 1))
}
