package transform

import (
	"fmt"

	"github.com/agentic-research/yomitran/api"
	"github.com/agentic-research/yomitran/internal/note"
)

// Transliterator converts a phonetic reading into Latin script.
type Transliterator interface {
	Transliterate(text string) (string, error)
}

// TransliteratorFunc adapts a function to Transliterator.
type TransliteratorFunc func(string) (string, error)

// Transliterate implements Transliterator.
func (f TransliteratorFunc) Transliterate(text string) (string, error) { return f(text) }

const defaultLinkLabel = "Source"

// Resolve computes the virtual fields of rec in declaration order.
//
// Parameter lookups read literal source fields first and fall back to
// virtual fields resolved earlier in the list. Any failure aborts the whole
// record: no partial result is returned.
func Resolve(rec *note.Source, src Values, specs []api.VirtualField, tr Transliterator) (Virtuals, error) {
	out := make(Virtuals, len(specs))
	lookup := func(name string) string {
		if v, ok := src[name]; ok {
			return v
		}
		return out[name].Value
	}

	for _, spec := range specs {
		var (
			val VirtualValue
			err error
		)
		switch spec.Strategy {
		case api.StrategyCopy:
			val.Value = lookup(spec.Source)
		case api.StrategyFallback:
			val.Value = lookup(spec.Primary)
			if val.Value == "" {
				val.Value = lookup(spec.Fallback)
			}
		case api.StrategyToHepburn:
			val.Value, err = transliterate(tr, lookup(spec.Source))
		case api.StrategyToTag:
			val = VirtualValue{Value: lookup(spec.Source), Tag: true}
		case api.StrategyNoteLink:
			label := ""
			if spec.LabelField != "" {
				label = lookup(spec.LabelField)
			}
			if label == "" {
				label = spec.LinkLabel
			}
			if label == "" {
				label = defaultLinkLabel
			}
			val.Value = NoteLink(label, rec.ID)
		default:
			err = fmt.Errorf("unknown strategy %q", spec.Strategy)
		}
		if err != nil {
			return nil, fmt.Errorf("virtual field %q: %w", spec.Name, err)
		}
		out[spec.Name] = val
	}
	return out, nil
}

func transliterate(tr Transliterator, text string) (string, error) {
	if tr == nil {
		return "", fmt.Errorf("%w: no transliterator configured", ErrTransliterationUnavailable)
	}
	if text == "" {
		return "", nil
	}
	out, err := tr.Transliterate(text)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTransliterationUnavailable, err)
	}
	return out, nil
}

// NoteLink formats a link to a record: "[label|nid<id>]".
func NoteLink(label string, id int64) string {
	return note.Link(label, id)
}
