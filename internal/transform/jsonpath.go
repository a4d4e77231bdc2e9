package transform

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/ohler55/ojg/jp"
)

// PayloadPath reads a value out of a raw import payload with JSONPath.
type PayloadPath struct {
	expr jp.Expr
	src  string
}

// CompilePayloadPath parses a JSONPath selector.
func CompilePayloadPath(selector string) (*PayloadPath, error) {
	x, err := jp.ParseString(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid jsonpath '%s': %w", selector, err)
	}
	return &PayloadPath{expr: x, src: selector}, nil
}

func (p *PayloadPath) String() string { return p.src }

// Lookup returns the first non-null match rendered as a string.
// Objects and arrays are rendered as JSON.
func (p *PayloadPath) Lookup(root any) (string, bool) {
	if root == nil {
		return "", false
	}
	for _, r := range p.expr.Get(root) {
		switch v := r.(type) {
		case nil:
			continue
		case string:
			return v, true
		case bool:
			return strconv.FormatBool(v), true
		case int64:
			return strconv.FormatInt(v, 10), true
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64), true
		case json.Number:
			return v.String(), true
		default:
			b, err := json.Marshal(v)
			if err != nil {
				continue
			}
			return string(b), true
		}
	}
	return "", false
}
