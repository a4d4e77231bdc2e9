// Package config loads, migrates and validates converter configuration
// documents.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/agentic-research/yomitran/api"
	"github.com/agentic-research/yomitran/internal/transform"
	"gopkg.in/yaml.v3"
)

// Namespace is the key under which a shared settings document keeps the
// converter configuration.
const Namespace = "yomitran"

// Format is the encoding of a configuration document.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

func (f Format) String() string {
	if f == FormatYAML {
		return "yaml"
	}
	return "json"
}

// FormatFor picks the format from a file name. Unknown extensions are JSON.
func FormatFor(name string) Format {
	switch strings.ToLower(path.Ext(name)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// Loaded is a parsed configuration and what was done to it on the way in.
type Loaded struct {
	Config *api.Config
	// Namespaced is true when the document held the configuration under Namespace.
	Namespaced bool
	// Migrations lists the legacy rewrites applied, one line each.
	Migrations []string
}

// Parse decodes, migrates, validates and completes a configuration document.
// Structural and version problems are returned as a *transform.ConfigError.
func Parse(data []byte, f Format) (*Loaded, error) {
	root, err := decodeDocument(data, f)
	if err != nil {
		return nil, err
	}
	doc, namespaced, err := extract(root)
	if err != nil {
		return nil, err
	}

	notes := Migrate(doc)
	if problems := ValidateStructure(doc); len(problems) > 0 {
		return nil, transform.NewConfigError(problems...)
	}

	merged, err := toDocument(Default())
	if err != nil {
		return nil, err
	}
	Merge(merged, doc)

	cfg, err := fromDocument(merged)
	if err != nil {
		return nil, transform.NewConfigError(err)
	}
	if err := CheckVersion(cfg.Version); err != nil {
		return nil, transform.NewConfigError(err)
	}
	return &Loaded{Config: cfg, Namespaced: namespaced, Migrations: notes}, nil
}

// decodeDocument returns the document as the generic values encoding/json
// produces, whatever the input format.
func decodeDocument(data []byte, f Format) (any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return map[string]any{}, nil
	}
	if f == FormatYAML {
		var y any
		if err := yaml.Unmarshal(data, &y); err != nil {
			return nil, fmt.Errorf("parse yaml config: %w", err)
		}
		b, err := json.Marshal(stringKeys(y))
		if err != nil {
			return nil, fmt.Errorf("convert yaml config: %w", err)
		}
		data = b
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse json config: %w", err)
	}
	return doc, nil
}

// stringKeys converts the map[any]any values yaml.v3 produces for
// non-string keys.
func stringKeys(v any) any {
	switch x := v.(type) {
	case map[string]any:
		for k, val := range x {
			x[k] = stringKeys(val)
		}
		return x
	case map[any]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[fmt.Sprint(k)] = stringKeys(val)
		}
		return out
	case []any:
		for i, val := range x {
			x[i] = stringKeys(val)
		}
		return x
	}
	return v
}

func extract(root any) (map[string]any, bool, error) {
	obj, ok := root.(map[string]any)
	if !ok {
		return nil, false, transform.NewConfigError(errors.New("/: configuration must be an object"))
	}
	slot, ok := obj[Namespace]
	if !ok {
		return obj, false, nil
	}
	doc, ok := slot.(map[string]any)
	if !ok {
		return nil, false, transform.NewConfigError(fmt.Errorf("/%s: must be an object", Namespace))
	}
	return doc, true, nil
}

// Merge copies src into dst. Objects merge key by key; every other value,
// lists included, replaces what dst holds.
func Merge(dst, src map[string]any) {
	for k, v := range src {
		sub, ok := v.(map[string]any)
		if cur, isMap := dst[k].(map[string]any); ok && isMap {
			Merge(cur, sub)
			continue
		}
		dst[k] = v
	}
}

func toDocument(cfg *api.Config) (map[string]any, error) {
	b, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return doc, nil
}

func fromDocument(doc map[string]any) (*api.Config, error) {
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	var cfg api.Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// Encode renders cfg. When root is non-nil the configuration replaces its
// Namespace slot and the other keys are kept.
func Encode(cfg *api.Config, f Format, root map[string]any) ([]byte, error) {
	var v any = cfg
	if root != nil {
		root[Namespace] = cfg
		v = root
	}
	if f == FormatYAML {
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		// Round-trip through JSON so YAML keys follow the json tags.
		generic, err := toGeneric(v)
		if err != nil {
			return nil, err
		}
		if err := enc.Encode(generic); err != nil {
			return nil, fmt.Errorf("encode yaml config: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encode yaml config: %w", err)
		}
		return buf.Bytes(), nil
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode json config: %w", err)
	}
	return append(b, '\n'), nil
}

func toGeneric(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return out, nil
}
