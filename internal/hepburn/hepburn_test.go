package hepburn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransliterate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"たべる", "taberu"},
		{"タベル", "taberu"},
		{"ﾀﾍﾞﾙ", "taberu"},
		{"きょう", "kyou"},
		{"しゃしん", "shashin"},
		{"まっちゃ", "matcha"},
		{"がっこう", "gakkou"},
		{"ちょっと。", "chotto."},
		{"ラーメン", "raamen"},
		{"きんえん", "kin'en"},
		{"こんやく", "kon'yaku"},
		{"しんぶん", "shinbun"},
		{"ファイル", "fairu"},
		{"ヴァイオリン", "vaiorin"},
		{"ＡＢＣ です", "ABC desu"},
		{"じゅう・に", "juu ni"},
		{"っ", "tsu"},
		{"あっ", "atsu"},
		{"あっ。", "atsu."},
		{"あっあ", "atsua"},
	}
	c := New()
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := c.Transliterate(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTransliterateWithoutApostrophe(t *testing.T) {
	got, err := (&Converter{}).Transliterate("きんえん")
	require.NoError(t, err)
	assert.Equal(t, "kinen", got)
}

func TestTransliterateRejectsKanji(t *testing.T) {
	_, err := New().Transliterate("食べる")
	assert.ErrorIs(t, err, ErrUnsupportedScript)
}
