package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreview(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.SourceFields[3].Normalize = "selection_text"

	rec := tabe()
	rec.Fields["SelectionText"] = "to eat<br>to consume"
	st := newStore(t, rec, neko())
	p := New(compile(t, cfg), romaji, st, WithLogger(quietLogger()))

	items, err := p.Preview(ctx, 0)
	require.NoError(t, err)
	require.Len(t, items, 2)

	first := items[0]
	assert.Equal(t, int64(42), first.SourceID)
	assert.Equal(t, "Verbs", first.Category)
	assert.Equal(t, []FieldChange{{
		Field:  "SelectionText",
		Before: "to eat<br>to consume",
		After:  "to eat / to consume",
	}}, first.Changes)
	require.NotNil(t, first.Target)
	assert.Equal(t, "to eat / to consume", first.Target.Fields["Meaning"])

	assert.Equal(t, "猫", items[1].Key)
	assert.Equal(t, ReasonNoCategory, items[1].Reason)
	assert.Nil(t, items[1].Target)

	// Nothing is written.
	assert.Equal(t, 2, st.Len())
	assert.Empty(t, st.Tagged(processedTag))
}

func TestPreviewLimit(t *testing.T) {
	st := newStore(t, tabe(), nomu(), neko())
	p := New(compile(t, testConfig()), romaji, st, WithLogger(quietLogger()))
	items, err := p.Preview(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, int64(43), items[1].SourceID)
}

func TestPreviewReportsFailures(t *testing.T) {
	st := newStore(t, tabe())
	p := New(compile(t, testConfig()), broken, st, WithLogger(quietLogger()))
	items, err := p.Preview(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Contains(t, items[0].Reason, "converter offline")
	assert.Nil(t, items[0].Target)
}
