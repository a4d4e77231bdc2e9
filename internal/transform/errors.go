package transform

import (
	"errors"
	"fmt"
	"strings"
)

// Per-record errors. They stop one record, never the batch.
var (
	// ErrTransliterationUnavailable means the transliterator is missing or failed.
	// Retrying after the dependency is fixed can succeed.
	ErrTransliterationUnavailable = errors.New("transliteration unavailable")
	// ErrUnknownFieldReference means a field map names a field the record does not have.
	ErrUnknownFieldReference = errors.New("unknown field reference")
	// ErrInvalidFieldUsage means a to_tag virtual field was used as a field value.
	ErrInvalidFieldUsage = errors.New("invalid field usage")
	// ErrFilterEvaluation means a category expression could not be evaluated.
	ErrFilterEvaluation = errors.New("filter evaluation failed")
	// ErrPersistence means the record store rejected the target or the marker.
	ErrPersistence = errors.New("persistence failed")
)

// ErrNoMatch signals that no category applies. It is a skip, not a failure.
var ErrNoMatch = errors.New("no category matched")

// FieldError reports a mapping error for one target field.
type FieldError struct {
	Err      error
	Category string
	Target   string
	Ref      string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("category %q: target field %q: %v %q", e.Category, e.Target, e.Err, e.Ref)
}

func (e *FieldError) Unwrap() error { return e.Err }

// ConfigError aggregates every problem found in a configuration.
// It is fatal to a whole run.
type ConfigError struct {
	Problems []error
}

func (e *ConfigError) Error() string {
	msgs := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		msgs[i] = p.Error()
	}
	return fmt.Sprintf("invalid configuration (%d problem(s)): %s", len(e.Problems), strings.Join(msgs, "; "))
}

func (e *ConfigError) Unwrap() []error { return e.Problems }

// NewConfigError aggregates problems; it returns nil when there are none.
func NewConfigError(problems ...error) error {
	e := &ConfigError{}
	for _, p := range problems {
		if p != nil {
			e.Problems = append(e.Problems, p)
		}
	}
	return e.orNil()
}

func (e *ConfigError) add(format string, args ...any) {
	e.Problems = append(e.Problems, fmt.Errorf(format, args...))
}

func (e *ConfigError) orNil() error {
	if len(e.Problems) == 0 {
		return nil
	}
	return e
}

// Class groups errors for reporting.
type Class string

const (
	ClassConfiguration Class = "configuration"
	ClassDependency    Class = "dependency"
	ClassMapping       Class = "mapping"
	ClassStore         Class = "store"
	ClassCanceled      Class = "canceled"
	ClassUnknown       Class = "unknown"
)

// Classify returns the class of err.
func Classify(err error) Class {
	var cfgErr *ConfigError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &cfgErr):
		return ClassConfiguration
	case errors.Is(err, ErrTransliterationUnavailable):
		return ClassDependency
	case errors.Is(err, ErrUnknownFieldReference),
		errors.Is(err, ErrInvalidFieldUsage),
		errors.Is(err, ErrFilterEvaluation):
		return ClassMapping
	case errors.Is(err, ErrPersistence):
		return ClassStore
	case errors.Is(err, errCanceled):
		return ClassCanceled
	}
	return ClassUnknown
}

var errCanceled = errors.New("canceled")

// Canceled wraps a context error so Classify recognises it.
func Canceled(err error) error {
	return fmt.Errorf("%w: %w", errCanceled, err)
}
