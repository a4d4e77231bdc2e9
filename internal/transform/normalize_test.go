package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePartOfSpeech(t *testing.T) {
	tests := map[string]string{
		"":                      "",
		"v1":                    "ichidan",
		"v5m, vt":               "godan",
		"vs-i":                  "suru",
		"vk":                    "kuru",
		"vz":                    "zuru",
		"adj-i":                 "i",
		"adj-na; n":             "na",
		"adj-no":                "no",
		"adj-pn":                "prenominal",
		"adj-t":                 "taru",
		"adj-f":                 "noun-adj",
		"n":                     "noun",
		"N/A":                   "unknown",
		"-":                     "unknown",
		"exp":                   "exp",
		"Expressions (phrases)": "",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizePartOfSpeech(in), "input %q", in)
	}
}

func TestStripHTMLText(t *testing.T) {
	assert.Equal(t, "to eat / to live on", StripHTMLText("<ul><li>to eat</li><li>to  live on</li></ul>"))
	assert.Equal(t, "a & b / c", StripHTMLText("a &amp; b<br/>c"))
	assert.Equal(t, "", StripHTMLText(""))
}

func TestNormalizeSelectionText(t *testing.T) {
	assert.Equal(t, "to eat / <i>to live</i>", NormalizeSelectionText("  to\teat <br> <i>to   live</i> "))
}

func TestExtractJLPTLevel(t *testing.T) {
	assert.Equal(t, "3", ExtractJLPTLevel("JLPT N3"))
	assert.Equal(t, "5", ExtractJLPTLevel("<span>jlpt 5</span>"))
	assert.Equal(t, "2", ExtractJLPTLevel("N2"))
	assert.Equal(t, "", ExtractJLPTLevel("N9"))
}

func TestExtractFrequency(t *testing.T) {
	assert.Equal(t, "812", ExtractFrequency("rank 812 / 9000"))
	assert.Equal(t, "", ExtractFrequency("none"))
}
