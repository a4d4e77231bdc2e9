// Package pipeline converts source records into target records and marks
// the sources so a record is never converted twice.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/RoaringBitmap/roaring/roaring64"
	"github.com/agentic-research/yomitran/internal/note"
	"github.com/agentic-research/yomitran/internal/store"
	"github.com/agentic-research/yomitran/internal/transform"
	"github.com/google/uuid"
)

// Skip reasons.
const (
	ReasonAlreadyProcessed = "already processed"
	ReasonNoCategory       = "no category matched"
)

// Status is the result of processing one record.
type Status int

const (
	Created Status = iota
	Skipped
	Failed
)

func (s Status) String() string {
	switch s {
	case Created:
		return "created"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Outcome describes what happened to one source record.
type Outcome struct {
	SourceID int64
	Key      string
	Status   Status
	// Reason explains a skip or failure.
	Reason   string
	Err      error
	Category string
	// TargetID is zero for dry runs and for records that were not created.
	TargetID int64
	Target   *note.Target
}

// Pipeline runs the conversion of a batch. Build one per batch: the plan
// it holds is fixed for its lifetime.
type Pipeline struct {
	plan   *transform.Plan
	tr     transform.Transliterator
	store  store.Store
	logger *slog.Logger
	runID  string
	dryRun bool

	// processed holds the sources marked during this pipeline's lifetime,
	// so stale copies of a record are not converted twice.
	processed *roaring64.Bitmap
}

// Option configures a Pipeline.
type Option func(*Pipeline)

func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithRunID overrides the generated run identifier.
func WithRunID(id string) Option {
	return func(p *Pipeline) { p.runID = id }
}

// WithDryRun converts records without persisting anything.
func WithDryRun(dry bool) Option {
	return func(p *Pipeline) { p.dryRun = dry }
}

// New returns a Pipeline. tr may be nil; records that need transliteration
// then fail with transform.ErrTransliterationUnavailable.
func New(plan *transform.Plan, tr transform.Transliterator, st store.Store, opts ...Option) *Pipeline {
	p := &Pipeline{
		plan:      plan,
		tr:        tr,
		store:     st,
		logger:    slog.Default(),
		runID:     uuid.NewString(),
		processed: roaring64.New(),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

func (p *Pipeline) RunID() string { return p.runID }

// Process converts one record. Errors are reported in the Outcome; they
// never stop a batch.
func (p *Pipeline) Process(ctx context.Context, rec *note.Source) Outcome {
	out := Outcome{SourceID: rec.ID, Key: p.plan.Key(rec)}
	if p.plan.Processed(rec) || p.processed.Contains(uint64(rec.ID)) {
		return p.skip(out, ReasonAlreadyProcessed)
	}

	conv, err := p.plan.Convert(rec, p.tr, p.runID)
	if errors.Is(err, transform.ErrNoMatch) {
		return p.skip(out, ReasonNoCategory)
	}
	if err != nil {
		return p.fail(out, err)
	}
	out.Key = conv.Key
	out.Category = conv.Category.Name
	out.Target = conv.Target

	if p.dryRun {
		out.Status = Created
		return out
	}
	id, err := p.persist(ctx, rec, conv)
	if err != nil {
		return p.fail(out, fmt.Errorf("%w: %w", transform.ErrPersistence, err))
	}
	p.processed.Add(uint64(rec.ID))
	out.Status = Created
	out.TargetID = id
	p.logger.Info("record converted",
		"source", rec.ID, "target", id, "category", out.Category, "key", out.Key)
	return out
}

func (p *Pipeline) skip(out Outcome, reason string) Outcome {
	out.Status = Skipped
	out.Reason = reason
	p.logger.Debug("record skipped", "source", out.SourceID, "reason", reason)
	return out
}

func (p *Pipeline) fail(out Outcome, err error) Outcome {
	out.Status = Failed
	out.Err = err
	out.Reason = err.Error()
	p.logger.Warn("record failed",
		"source", out.SourceID, "key", out.Key, "class", transform.Classify(err), "error", err)
	return out
}

// persist creates the target and marks the source. Stores that implement
// store.Committer do both in one transaction. Otherwise the target is
// created first; if marking then fails the source stays unmarked and a
// later run creates the target again.
func (p *Pipeline) persist(ctx context.Context, rec *note.Source, conv *transform.Conversion) (int64, error) {
	m := store.Mark{
		SourceID:      rec.ID,
		Tags:          conv.SourceMarks(p.plan),
		BacklinkField: p.plan.Markers.BacklinkField,
		BacklinkLabel: p.plan.Markers.BacklinkLabel,
	}
	if c, ok := p.store.(store.Committer); ok {
		return c.Commit(ctx, conv.Target, m)
	}

	id, err := p.store.CreateTarget(ctx, conv.Target)
	if err != nil {
		return 0, fmt.Errorf("create target: %w", err)
	}
	if err := p.store.AppendTags(ctx, rec.ID, m.Tags...); err != nil {
		p.logger.Error("target created but source not marked",
			"source", rec.ID, "target", id, "error", err)
		return 0, fmt.Errorf("mark source: %w", err)
	}
	if cur, ok := rec.Field(m.BacklinkField); ok && m.BacklinkField != "" {
		link := note.AppendLink(cur, note.Link(m.BacklinkLabel, id))
		if err := p.store.SetField(ctx, rec.ID, m.BacklinkField, link); err != nil {
			p.logger.Warn("back-link not written", "source", rec.ID, "target", id, "error", err)
		}
	}
	return id, nil
}

// Run processes records in order. It stops issuing records when ctx is
// canceled and returns the partial report with the context error.
func (p *Pipeline) Run(ctx context.Context, records []*note.Source) (*Report, error) {
	rep := newReport(p.runID, p.dryRun)
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("run canceled", "run", p.runID, "remaining", len(records)-rep.Total)
			return rep, transform.Canceled(err)
		}
		rep.add(p.Process(ctx, rec))
	}
	p.logger.Info("run finished", "run", p.runID,
		"total", rep.Total, "created", rep.Created, "skipped", rep.Skipped, "failed", rep.Failed)
	return rep, nil
}

// RunQuery fetches the unprocessed records of the source schema and runs them.
func (p *Pipeline) RunQuery(ctx context.Context, limit int) (*Report, error) {
	recs, err := p.sources(ctx, limit)
	if err != nil {
		return nil, err
	}
	return p.Run(ctx, recs)
}

func (p *Pipeline) sources(ctx context.Context, limit int) ([]*note.Source, error) {
	if p.plan.SourceSchema == "" {
		return nil, errors.New("no source schema configured")
	}
	recs, err := p.store.FindSources(ctx, store.Query{
		Schema:     p.plan.SourceSchema,
		ExcludeTag: p.plan.Markers.ProcessedTag,
		Limit:      limit,
	})
	if err != nil {
		return nil, fmt.Errorf("find source records: %w", err)
	}
	return recs, nil
}
