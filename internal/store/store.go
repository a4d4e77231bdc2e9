// Package store persists source and target records.
package store

import (
	"context"
	"errors"

	"github.com/agentic-research/yomitran/internal/note"
)

// ErrNotFound is returned when a record or schema does not exist.
var ErrNotFound = errors.New("record not found")

// Query selects source records.
type Query struct {
	// Schema is a schema ID; empty selects every schema.
	Schema string
	// ExcludeTag skips records that carry this tag.
	ExcludeTag string
	// Limit caps the result; zero means no limit.
	Limit int
}

// Store is the record store the pipeline reads from and writes to.
type Store interface {
	Schemas(ctx context.Context) ([]note.Schema, error)
	FindSources(ctx context.Context, q Query) ([]*note.Source, error)
	Get(ctx context.Context, id int64) (*note.Source, error)
	// CreateTarget persists t with its tags and markers and returns its ID.
	CreateTarget(ctx context.Context, t *note.Target) (int64, error)
	AppendTags(ctx context.Context, id int64, tags ...string) error
	SetField(ctx context.Context, id int64, field, value string) error
}

// Mark describes how a source record is marked once its target exists.
type Mark struct {
	SourceID int64
	Tags     []string
	// BacklinkField receives a link to the new record when the source has it.
	BacklinkField string
	BacklinkLabel string
}

// Committer is implemented by stores that can create a target and mark
// its source in one transaction.
type Committer interface {
	Commit(ctx context.Context, t *note.Target, m Mark) (int64, error)
}

// Loader is implemented by stores that accept imported records.
type Loader interface {
	Schemas(ctx context.Context) ([]note.Schema, error)
	AddSchema(ctx context.Context, s note.Schema) error
	// AddSource stores rec and returns its ID. A zero rec.ID is allocated.
	AddSource(ctx context.Context, rec *note.Source) (int64, error)
}
