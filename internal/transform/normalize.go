package transform

import (
	"html"
	"regexp"
	"strings"
)

// Normalizer rewrites a source field value during preprocessing.
type Normalizer func(string) string

// Normalizers by configuration name.
var Normalizers = map[string]Normalizer{
	"part_of_speech": NormalizePartOfSpeech,
	"selection_text": NormalizeSelectionText,
	"html_text":      StripHTMLText,
}

var (
	reBreak      = regexp.MustCompile(`(?is)<\s*br\s*/?\s*>`)
	reBlockClose = regexp.MustCompile(`(?is)</\s*(li|p|div|tr|ul|ol)\s*>`)
	reTag        = regexp.MustCompile(`(?is)<[^>]+>`)
	reBlanks     = regexp.MustCompile(`[ \t]+`)
	reSpace      = regexp.MustCompile(`\s+`)
	rePOSSplit   = regexp.MustCompile(`[,\n;/|]+`)
	reSimpleTok  = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)
)

// StripHTMLText turns an HTML fragment into plain text.
// Block boundaries become " / " separators.
func StripHTMLText(value string) string {
	if value == "" {
		return ""
	}
	txt := reBreak.ReplaceAllString(value, "\n")
	txt = reBlockClose.ReplaceAllString(txt, "\n")
	txt = reTag.ReplaceAllString(txt, "")
	txt = html.UnescapeString(txt)
	return joinLines(txt, reBlanks)
}

// NormalizeSelectionText collapses whitespace in user-selected text.
// Explicit line breaks become " / " separators; other markup is kept.
func NormalizeSelectionText(value string) string {
	if value == "" {
		return ""
	}
	txt := reBreak.ReplaceAllString(value, "\n")
	txt = html.UnescapeString(txt)
	return joinLines(txt, reSpace)
}

func joinLines(txt string, collapse *regexp.Regexp) string {
	var lines []string
	for _, ln := range strings.Split(txt, "\n") {
		ln = strings.TrimSpace(collapse.ReplaceAllString(ln, " "))
		if ln != "" {
			lines = append(lines, ln)
		}
	}
	return strings.TrimSpace(strings.Join(lines, " / "))
}

// posClass is ordered by precedence: the first class any token hits wins.
type posClass struct {
	name string
	hit  func(tok string) bool
}

func oneOf(vals ...string) func(string) bool {
	return func(tok string) bool {
		for _, v := range vals {
			if tok == v {
				return true
			}
		}
		return false
	}
}

var posClasses = []posClass{
	{"suru", func(t string) bool { return oneOf("vs", "vs-i", "vs-s", "vs-c")(t) || strings.Contains(t, "suru") }},
	{"kuru", func(t string) bool { return t == "vk" || strings.Contains(t, "kuru") }},
	{"zuru", func(t string) bool { return t == "vz" || strings.Contains(t, "zuru") }},
	{"ichidan", func(t string) bool { return oneOf("v1", "v1-s")(t) || strings.Contains(t, "ichidan") }},
	{"godan", func(t string) bool { return strings.HasPrefix(t, "v5") || strings.Contains(t, "godan") }},
	{"i", func(t string) bool { return oneOf("adj-i", "adj-ix")(t) || strings.Contains(t, "i-adjective") }},
	{"na", func(t string) bool { return t == "adj-na" || strings.Contains(t, "na-adjective") }},
	{"no", oneOf("adj-no", "no-adj")},
	{"prenominal", func(t string) bool { return t == "adj-pn" || strings.Contains(t, "prenominal") }},
	{"taru", oneOf("adj-t")},
	{"noun-adj", oneOf("adj-f")},
	{"noun", oneOf("n", "n-adv", "n-t", "n-pref", "n-suf", "n-pr", "noun")},
}

// NormalizePartOfSpeech maps dictionary part-of-speech codes to one class
// name such as "godan", "ichidan", "i", "na" or "noun".
// Unrecognised input yields "", except a single simple token, which is kept.
func NormalizePartOfSpeech(value string) string {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return ""
	}
	switch strings.ToLower(raw) {
	case "unknown", "none", "n/a", "-":
		return "unknown"
	}
	var tokens []string
	for _, t := range rePOSSplit.Split(raw, -1) {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			tokens = append(tokens, t)
		}
	}
	for _, c := range posClasses {
		for _, tok := range tokens {
			if c.hit(tok) {
				return c.name
			}
		}
	}
	if len(tokens) == 1 && reSimpleTok.MatchString(tokens[0]) {
		return tokens[0]
	}
	return ""
}

var (
	reJLPT      = regexp.MustCompile(`(?i)\bJLPT\b[^0-9A-Za-z]*N?\s*([1-5])\b`)
	reJLPTShort = regexp.MustCompile(`(?i)\bN\s*([1-5])\b`)
	reNumber    = regexp.MustCompile(`\d+`)
)

// ExtractJLPTLevel returns the JLPT level (1-5) mentioned in value, or "".
func ExtractJLPTLevel(value string) string {
	text := StripHTMLText(value)
	if text == "" {
		return ""
	}
	if m := reJLPT.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	if m := reJLPTShort.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

// ExtractFrequency returns the first number in value, or "".
func ExtractFrequency(value string) string {
	return reNumber.FindString(value)
}
