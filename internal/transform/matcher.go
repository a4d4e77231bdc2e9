package transform

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/agentic-research/yomitran/api"
	"github.com/agentic-research/yomitran/internal/note"
	"golang.org/x/text/cases"
)

// Filter is a compiled category filter.
type Filter struct {
	Field         string
	Mode          api.MatchMode
	CaseSensitive bool

	values   []string // folded unless CaseSensitive
	patterns []*regexp.Regexp
	exprs    []*Expr
}

// CompileFilter validates and compiles a filter definition.
func CompileFilter(f api.Filter) (*Filter, error) {
	mode := f.Mode
	if mode == "" {
		mode = api.MatchContainsAny
	}
	out := &Filter{Field: f.Field, Mode: mode, CaseSensitive: f.CaseSensitive}

	switch mode {
	case api.MatchAny:
		return out, nil
	case api.MatchExpr:
		for _, src := range f.Values {
			x, err := CompileExpr(src)
			if err != nil {
				return nil, err
			}
			out.exprs = append(out.exprs, x)
		}
		return out, nil
	case api.MatchEqualsAny, api.MatchContainsAny, api.MatchPrefixAny, api.MatchRegexAny:
	default:
		return nil, fmt.Errorf("unknown match mode %q", mode)
	}

	if f.Field == "" {
		return nil, fmt.Errorf("match mode %q needs a field", mode)
	}
	for _, v := range f.Values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if mode == api.MatchRegexAny {
			src := v
			if !f.CaseSensitive {
				src = "(?i)" + src
			}
			re, err := regexp.Compile(src)
			if err != nil {
				return nil, fmt.Errorf("invalid pattern %q: %w", v, err)
			}
			out.patterns = append(out.patterns, re)
			continue
		}
		out.values = append(out.values, out.fold(v))
	}
	return out, nil
}

func (f *Filter) fold(s string) string {
	if f.CaseSensitive {
		return s
	}
	return cases.Fold().String(s)
}

// Empty reports whether the filter has nothing to match against.
// Empty value-list filters never match.
func (f *Filter) Empty() bool {
	switch f.Mode {
	case api.MatchAny:
		return false
	case api.MatchExpr:
		return len(f.exprs) == 0
	case api.MatchRegexAny:
		return len(f.patterns) == 0
	}
	return len(f.values) == 0
}

// Matches evaluates the filter against ns.
func (f *Filter) Matches(ns Namespace) (bool, error) {
	switch f.Mode {
	case api.MatchAny:
		return true, nil
	case api.MatchExpr:
		for _, x := range f.exprs {
			ok, err := x.Eval(ns)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	}

	raw, ok := ns.Get(f.Field)
	if !ok || raw == "" {
		return false, nil
	}
	if f.Mode == api.MatchRegexAny {
		for _, re := range f.patterns {
			if re.MatchString(raw) {
				return true, nil
			}
		}
		return false, nil
	}

	hay := f.fold(raw)
	for _, v := range f.values {
		var hit bool
		switch f.Mode {
		case api.MatchEqualsAny:
			hit = hay == v
		case api.MatchContainsAny:
			hit = strings.Contains(hay, v)
		case api.MatchPrefixAny:
			hit = strings.HasPrefix(hay, v)
		}
		if hit {
			return true, nil
		}
	}
	return false, nil
}

// Category is a compiled category: filter, target schema and field map.
type Category struct {
	ID     string
	Name   string
	Schema note.Schema
	Filter *Filter
	Fields []FieldRef
}

// FieldRef maps one target field to a resolved reference.
type FieldRef struct {
	Target    string
	Name      string
	Namespace api.Namespace
	Ref       string // as written in the configuration
}

// Match returns the first category whose filter matches ns.
// Later categories are never evaluated once one matches.
func Match(ns Namespace, categories []*Category) (*Category, error) {
	for _, c := range categories {
		ok, err := c.Filter.Matches(ns)
		if err != nil {
			return nil, fmt.Errorf("category %q: %w", c.Name, err)
		}
		if ok {
			return c, nil
		}
	}
	return nil, ErrNoMatch
}
