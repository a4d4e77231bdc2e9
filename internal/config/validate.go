package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"sync"

	"github.com/Masterminds/semver/v3"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema.json
var schemaJSON []byte

const schemaURL = "https://github.com/agentic-research/yomitran/config.schema.json"

// SupportedVersions is the range of configuration versions this build reads.
const SupportedVersions = ">= 1.0.0, < 2.0.0"

var compileSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("add config schema: %w", err)
	}
	return c.Compile(schemaURL)
})

// ValidateStructure checks a decoded document against the configuration
// schema and returns one error per violation.
func ValidateStructure(doc any) []error {
	schema, err := compileSchema()
	if err != nil {
		return []error{err}
	}
	err = schema.Validate(doc)
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return []error{err}
	}
	return leafErrors(ve, nil)
}

func leafErrors(ve *jsonschema.ValidationError, out []error) []error {
	if len(ve.Causes) == 0 {
		loc := ve.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		return append(out, fmt.Errorf("%s: %s", loc, ve.Message))
	}
	for _, c := range ve.Causes {
		out = leafErrors(c, out)
	}
	return out
}

// CheckVersion rejects versions outside SupportedVersions.
func CheckVersion(version string) error {
	v, err := semver.NewVersion(version)
	if err != nil {
		return fmt.Errorf("version %q: %w", version, err)
	}
	c, err := semver.NewConstraint(SupportedVersions)
	if err != nil {
		return err
	}
	if !c.Check(v) {
		return fmt.Errorf("version %s is not supported (want %s)", v, SupportedVersions)
	}
	return nil
}
