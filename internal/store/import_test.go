package store

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const importDoc = `{
  "schemas": [
    {"id": "1001", "name": "Yomitan", "fields": ["Vocab", "POS"]}
  ],
  "notes": [
    {"id": 1, "schema": "Yomitan", "fields": {"Vocab": "食べる", "POS": "v1"}, "tags": ["v1"], "raw": {"entry": {"pitch": 2}}},
    {"schema": "1001", "fields": {"Vocab": "飲む", "POS": "v5m"}}
  ]
}`

func TestImport(t *testing.T) {
	eachStore(t, func(t *testing.T, s fullStore) {
		ctx := context.Background()
		stats, err := Import(ctx, s, strings.NewReader(importDoc))
		require.NoError(t, err)
		assert.Equal(t, ImportStats{Schemas: 1, Notes: 2}, stats)

		recs, err := s.FindSources(ctx, Query{Schema: "1001"})
		require.NoError(t, err)
		require.Len(t, recs, 2)
		assert.Equal(t, int64(1), recs[0].ID)
		assert.Equal(t, map[string]any{"entry": map[string]any{"pitch": float64(2)}}, recs[0].Raw)
		assert.Equal(t, "飲む", recs[1].Fields["Vocab"])
	})
}

func TestImportKnownSchema(t *testing.T) {
	s := NewMemoryStore(srcSchema)
	stats, err := Import(context.Background(), s, strings.NewReader(`{"notes":[{"schema":"Yomitan","fields":{"Vocab":"x"}}]}`))
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Notes)
}

func TestImportErrors(t *testing.T) {
	tests := map[string]string{
		"malformed":      `{"notes": [`,
		"unknown schema": `{"notes":[{"schema":"Nope","fields":{}}]}`,
		"schema id":      `{"schemas":[{"name":"x","fields":[]}]}`,
		"duplicate id":   `{"schemas":[{"id":"1","name":"x"}],"notes":[{"id":3,"schema":"1"},{"id":3,"schema":"1"}]}`,
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Import(context.Background(), NewMemoryStore(), strings.NewReader(doc))
			assert.Error(t, err)
		})
	}
}
