package pipeline

import (
	"fmt"
	"strings"

	"github.com/RoaringBitmap/roaring/roaring64"
	"github.com/agentic-research/yomitran/internal/transform"
)

// Failure records why one source record failed.
type Failure struct {
	SourceID int64           `json:"source_id"`
	Key      string          `json:"key,omitempty"`
	Class    transform.Class `json:"class"`
	Reason   string          `json:"reason"`
}

// Skip records why one source record was skipped.
type Skip struct {
	SourceID int64  `json:"source_id"`
	Key      string `json:"key,omitempty"`
	Reason   string `json:"reason"`
}

// Report summarizes a batch.
type Report struct {
	RunID    string    `json:"run_id"`
	DryRun   bool      `json:"dry_run,omitempty"`
	Total    int       `json:"total"`
	Created  int       `json:"created"`
	Skipped  int       `json:"skipped"`
	Failed   int       `json:"failed"`
	Failures []Failure `json:"failures,omitempty"`
	Skips    []Skip    `json:"skips,omitempty"`

	// Sources and Targets hold the IDs of converted sources and created targets.
	Sources *roaring64.Bitmap `json:"-"`
	Targets *roaring64.Bitmap `json:"-"`
}

func newReport(runID string, dry bool) *Report {
	return &Report{RunID: runID, DryRun: dry, Sources: roaring64.New(), Targets: roaring64.New()}
}

func (r *Report) add(o Outcome) {
	r.Total++
	switch o.Status {
	case Created:
		r.Created++
		r.Sources.Add(uint64(o.SourceID))
		if o.TargetID != 0 {
			r.Targets.Add(uint64(o.TargetID))
		}
	case Skipped:
		r.Skipped++
		r.Skips = append(r.Skips, Skip{SourceID: o.SourceID, Key: o.Key, Reason: o.Reason})
	case Failed:
		r.Failed++
		r.Failures = append(r.Failures, Failure{
			SourceID: o.SourceID,
			Key:      o.Key,
			Class:    transform.Classify(o.Err),
			Reason:   o.Reason,
		})
	}
}

// SkipCounts groups skips by reason.
func (r *Report) SkipCounts() map[string]int {
	out := make(map[string]int)
	for _, s := range r.Skips {
		out[s.Reason]++
	}
	return out
}

// String renders a short human-readable summary.
func (r *Report) String() string {
	var b strings.Builder
	verb := "created"
	if r.DryRun {
		verb = "would create"
	}
	fmt.Fprintf(&b, "run %s: %d record(s), %s %d, skipped %d, failed %d",
		r.RunID, r.Total, verb, r.Created, r.Skipped, r.Failed)
	for _, f := range r.Failures {
		fmt.Fprintf(&b, "\n  failed nid%d", f.SourceID)
		if f.Key != "" {
			fmt.Fprintf(&b, " (%s)", f.Key)
		}
		fmt.Fprintf(&b, " [%s]: %s", f.Class, f.Reason)
	}
	return b.String()
}
