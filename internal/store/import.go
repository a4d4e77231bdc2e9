package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/agentic-research/yomitran/internal/note"
)

// Document is the import file format: schemas plus source records.
type Document struct {
	Schemas []note.Schema    `json:"schemas"`
	Notes   []DocumentRecord `json:"notes"`
}

// DocumentRecord is one record of an import document.
// Schema may name a schema by ID or by name.
type DocumentRecord struct {
	ID     int64             `json:"id,omitempty"`
	Schema string            `json:"schema"`
	Fields map[string]string `json:"fields"`
	Tags   []string          `json:"tags,omitempty"`
	Raw    json.RawMessage   `json:"raw,omitempty"`
}

// ImportStats counts what an import added.
type ImportStats struct {
	Schemas int
	Notes   int
}

// Import decodes a Document from r and loads it into dst. Records may
// refer to schemas already in dst or declared by the document.
func Import(ctx context.Context, dst Loader, r io.Reader) (ImportStats, error) {
	var stats ImportStats
	var doc Document
	dec := json.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return stats, fmt.Errorf("decode import document: %w", err)
	}

	existing, err := dst.Schemas(ctx)
	if err != nil {
		return stats, err
	}
	byName := make(map[string]string, len(existing)+len(doc.Schemas))
	for _, sc := range existing {
		byName[sc.Name] = sc.ID
		byName[sc.ID] = sc.ID
	}
	for _, sc := range doc.Schemas {
		if sc.ID == "" {
			return stats, fmt.Errorf("schema %q has no id", sc.Name)
		}
		if err := dst.AddSchema(ctx, sc); err != nil {
			return stats, err
		}
		byName[sc.ID] = sc.ID
		if sc.Name != "" {
			byName[sc.Name] = sc.ID
		}
		stats.Schemas++
	}

	for i, n := range doc.Notes {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		schema, ok := byName[n.Schema]
		if !ok {
			return stats, fmt.Errorf("notes[%d]: schema %q: %w", i, n.Schema, ErrNotFound)
		}
		rec := &note.Source{ID: n.ID, Schema: schema, Fields: n.Fields, Tags: n.Tags}
		if len(n.Raw) > 0 {
			if err := json.Unmarshal(n.Raw, &rec.Raw); err != nil {
				return stats, fmt.Errorf("notes[%d]: raw payload: %w", i, err)
			}
		}
		if _, err := dst.AddSource(ctx, rec); err != nil {
			return stats, fmt.Errorf("notes[%d]: %w", i, err)
		}
		stats.Notes++
	}
	return stats, nil
}
