package pipeline

import (
	"context"
	"errors"

	"github.com/agentic-research/yomitran/internal/note"
	"github.com/agentic-research/yomitran/internal/transform"
)

// FieldChange shows one registry field before and after preprocessing.
type FieldChange struct {
	Field  string `json:"field"`
	Before string `json:"before"`
	After  string `json:"after"`
}

// PreviewItem shows how one record would be converted.
type PreviewItem struct {
	SourceID int64         `json:"source_id"`
	Key      string        `json:"key,omitempty"`
	Category string        `json:"category,omitempty"`
	Reason   string        `json:"reason,omitempty"`
	Changes  []FieldChange `json:"changes,omitempty"`
	Target   *note.Target  `json:"target,omitempty"`
}

// Preview converts up to limit unprocessed source records without
// persisting anything.
func (p *Pipeline) Preview(ctx context.Context, limit int) ([]PreviewItem, error) {
	recs, err := p.sources(ctx, limit)
	if err != nil {
		return nil, err
	}
	items := make([]PreviewItem, 0, len(recs))
	for _, rec := range recs {
		if err := ctx.Err(); err != nil {
			return items, transform.Canceled(err)
		}
		items = append(items, p.previewOne(rec))
	}
	return items, nil
}

func (p *Pipeline) previewOne(rec *note.Source) PreviewItem {
	item := PreviewItem{SourceID: rec.ID, Key: p.plan.Key(rec)}
	after := p.plan.SourceValues(rec)
	for _, f := range p.plan.Fields {
		before, _ := rec.Field(f.Name)
		if v, ok := after[f.Name]; ok && v != before {
			item.Changes = append(item.Changes, FieldChange{Field: f.Name, Before: before, After: v})
		}
	}

	conv, err := p.plan.Convert(rec, p.tr, "")
	switch {
	case errors.Is(err, transform.ErrNoMatch):
		item.Reason = ReasonNoCategory
	case err != nil:
		item.Reason = err.Error()
	default:
		item.Key = conv.Key
		item.Category = conv.Category.Name
		item.Target = conv.Target
	}
	return item
}
