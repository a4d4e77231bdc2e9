// Package hepburn romanizes kana readings with the Hepburn system.
//
// Input is NFC-normalized and width-folded first, so half-width katakana
// and full-width ASCII are accepted. Katakana and hiragana are handled
// identically. Kanji cannot be read without a dictionary and are rejected.
package hepburn

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// ErrUnsupportedScript is returned for input that is not kana, such as kanji.
var ErrUnsupportedScript = errors.New("unsupported script")

// Converter romanizes kana. The zero value is ready to use.
type Converter struct {
	// Apostrophe separates ん from a following vowel or y ("kin'en").
	Apostrophe bool
}

// New returns a Converter with the apostrophe rule enabled.
func New() *Converter {
	return &Converter{Apostrophe: true}
}

// Transliterate converts a kana reading to Hepburn romaji.
func (c *Converter) Transliterate(text string) (string, error) {
	if text == "" {
		return "", nil
	}
	runes := []rune(norm.NFC.String(width.Fold.String(text)))
	for i, r := range runes {
		if unicode.Is(unicode.Han, r) {
			return "", fmt.Errorf("%w: kanji %q at offset %d", ErrUnsupportedScript, string(r), i)
		}
		runes[i] = toHiragana(r)
	}

	var b strings.Builder
	geminate := false
	for i := 0; i < len(runes); {
		r := runes[i]
		switch r {
		case 'っ':
			geminate = true
			i++
			continue
		case 'ん':
			b.WriteString("n")
			if c.Apostrophe && i+1 < len(runes) && needsApostrophe(runes[i+1]) {
				b.WriteByte('\'')
			}
			i++
			continue
		case 'ー':
			if v := lastVowel(b.String()); v != 0 {
				b.WriteByte(v)
			}
			i++
			continue
		}

		syl, n := syllable(runes[i:])
		if n == 0 {
			// Not kana: flush a pending sokuon and copy the rune.
			if geminate {
				b.WriteString(loneSokuon)
				geminate = false
			}
			if p, ok := punctuation[r]; ok {
				b.WriteString(p)
			} else {
				b.WriteRune(r)
			}
			i++
			continue
		}
		if geminate {
			if d := double(syl); d != "" {
				b.WriteString(d)
			} else {
				b.WriteString(loneSokuon)
			}
			geminate = false
		}
		b.WriteString(syl)
		i += n
	}
	if geminate {
		b.WriteString(loneSokuon)
	}
	return b.String(), nil
}

// syllable returns the romaji of the longest kana unit at the start of rs
// and how many runes it consumed.
func syllable(rs []rune) (string, int) {
	if len(rs) >= 2 {
		if s, ok := digraphs[string(rs[:2])]; ok {
			return s, 2
		}
	}
	if s, ok := monographs[rs[0]]; ok {
		return s, 1
	}
	return "", 0
}

// loneSokuon is written for a small tsu that doubles no consonant.
const loneSokuon = "tsu"

// double returns the consonant a sokuon contributes before syl.
func double(syl string) string {
	if strings.HasPrefix(syl, "ch") {
		return "t"
	}
	if syl == "" || strings.IndexByte("aiueo", syl[0]) >= 0 {
		return ""
	}
	return syl[:1]
}

func needsApostrophe(next rune) bool {
	s, ok := monographs[toHiragana(next)]
	if !ok {
		return false
	}
	return strings.IndexByte("aiueoy", s[0]) >= 0
}

func lastVowel(s string) byte {
	for i := len(s) - 1; i >= 0; i-- {
		if strings.IndexByte("aiueo", s[i]) >= 0 {
			return s[i]
		}
	}
	return 0
}

// toHiragana maps katakana to the matching hiragana.
// ヷ-ヺ have no hiragana counterpart and are kept.
func toHiragana(r rune) rune {
	if r >= 'ァ' && r <= 'ヶ' {
		return r - ('ァ' - 'ぁ')
	}
	return r
}

var punctuation = map[rune]string{
	'。': ".",
	'、': ",",
	'・': " ",
	'「': "\"",
	'」': "\"",
	'　': " ",
}

var monographs = map[rune]string{
	'あ': "a", 'い': "i", 'う': "u", 'え': "e", 'お': "o",
	'か': "ka", 'き': "ki", 'く': "ku", 'け': "ke", 'こ': "ko",
	'が': "ga", 'ぎ': "gi", 'ぐ': "gu", 'げ': "ge", 'ご': "go",
	'さ': "sa", 'し': "shi", 'す': "su", 'せ': "se", 'そ': "so",
	'ざ': "za", 'じ': "ji", 'ず': "zu", 'ぜ': "ze", 'ぞ': "zo",
	'た': "ta", 'ち': "chi", 'つ': "tsu", 'て': "te", 'と': "to",
	'だ': "da", 'ぢ': "ji", 'づ': "zu", 'で': "de", 'ど': "do",
	'な': "na", 'に': "ni", 'ぬ': "nu", 'ね': "ne", 'の': "no",
	'は': "ha", 'ひ': "hi", 'ふ': "fu", 'へ': "he", 'ほ': "ho",
	'ば': "ba", 'び': "bi", 'ぶ': "bu", 'べ': "be", 'ぼ': "bo",
	'ぱ': "pa", 'ぴ': "pi", 'ぷ': "pu", 'ぺ': "pe", 'ぽ': "po",
	'ま': "ma", 'み': "mi", 'む': "mu", 'め': "me", 'も': "mo",
	'や': "ya", 'ゆ': "yu", 'よ': "yo",
	'ら': "ra", 'り': "ri", 'る': "ru", 'れ': "re", 'ろ': "ro",
	'わ': "wa", 'ゐ': "i", 'ゑ': "e", 'を': "o",
	'ゔ': "vu",
	'ぁ': "a", 'ぃ': "i", 'ぅ': "u", 'ぇ': "e", 'ぉ': "o",
	'ゃ': "ya", 'ゅ': "yu", 'ょ': "yo", 'ゎ': "wa",
	'ゕ': "ka", 'ゖ': "ke",
}

var digraphs = func() map[string]string {
	m := map[string]string{
		"しゃ": "sha", "しゅ": "shu", "しょ": "sho", "しぇ": "she",
		"じゃ": "ja", "じゅ": "ju", "じょ": "jo", "じぇ": "je",
		"ちゃ": "cha", "ちゅ": "chu", "ちょ": "cho", "ちぇ": "che",
		"ぢゃ": "ja", "ぢゅ": "ju", "ぢょ": "jo",
		"てぃ": "ti", "でぃ": "di", "とぅ": "tu", "どぅ": "du",
		"ふぁ": "fa", "ふぃ": "fi", "ふぇ": "fe", "ふぉ": "fo", "ふゅ": "fyu",
		"うぃ": "wi", "うぇ": "we", "うぉ": "wo",
		"ゔぁ": "va", "ゔぃ": "vi", "ゔぇ": "ve", "ゔぉ": "vo",
		"つぁ": "tsa", "つぃ": "tsi", "つぇ": "tse", "つぉ": "tso",
		"いぇ": "ye",
	}
	// C + small ya/yu/yo for the regular "i" row kana.
	for _, k := range []rune("きぎにひびぴみり") {
		stem := strings.TrimSuffix(monographs[k], "i")
		m[string([]rune{k, 'ゃ'})] = stem + "ya"
		m[string([]rune{k, 'ゅ'})] = stem + "yu"
		m[string([]rune{k, 'ょ'})] = stem + "yo"
	}
	return m
}()
