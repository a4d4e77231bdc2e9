package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayloadPath(t *testing.T) {
	payload := map[string]any{
		"entry": map[string]any{
			"reading":  "たべる",
			"rank":     int64(812),
			"score":    1.5,
			"common":   true,
			"glossary": []any{nil, "to eat", "to live on"},
			"meta":     map[string]any{"src": "jmdict"},
		},
	}

	tests := []struct {
		selector string
		want     string
		found    bool
	}{
		{"$.entry.reading", "たべる", true},
		{"$.entry.rank", "812", true},
		{"$.entry.score", "1.5", true},
		{"$.entry.common", "true", true},
		{"$.entry.glossary[*]", "to eat", true},
		{"$.entry.meta", `{"src":"jmdict"}`, true},
		{"$.entry.missing", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.selector, func(t *testing.T) {
			p, err := CompilePayloadPath(tt.selector)
			require.NoError(t, err)
			got, ok := p.Lookup(payload)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("nil payload", func(t *testing.T) {
		p, err := CompilePayloadPath("$.a")
		require.NoError(t, err)
		_, ok := p.Lookup(nil)
		assert.False(t, ok)
	})
}

func TestCompilePayloadPathInvalid(t *testing.T) {
	_, err := CompilePayloadPath("$.a[?(@.x ==")
	assert.Error(t, err)
}
