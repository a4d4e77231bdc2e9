package pipeline

import (
	"context"
	"testing"

	"github.com/agentic-research/yomitran/internal/note"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Property: running a batch twice creates nothing the second time.
func TestRunIdempotenceProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("second run creates no targets", prop.ForAll(
		func(vocab []string, verbs []bool) bool {
			ctx := context.Background()
			st := newStore(t)
			for i, v := range vocab {
				pos := "n"
				if i < len(verbs) && verbs[i] {
					pos = "v1"
				}
				_, err := st.AddSource(ctx, &note.Source{Schema: "1001", Fields: map[string]string{
					"Vocab": v, "VocabReading": "たべる", "POS": pos, "GlossaryFirst": "g",
				}})
				if err != nil {
					return false
				}
			}
			plan := compile(t, testConfig())

			first, err := New(plan, romaji, st, WithLogger(quietLogger())).RunQuery(ctx, 0)
			if err != nil || first.Failed != 0 {
				return false
			}
			created := st.Len()
			second, err := New(plan, romaji, st, WithLogger(quietLogger())).RunQuery(ctx, 0)
			if err != nil {
				return false
			}
			return second.Created == 0 && st.Len() == created && second.Total == first.Skipped
		},
		gen.SliceOf(gen.AlphaString()),
		gen.SliceOf(gen.Bool()),
	))

	properties.TestingRun(t)
}
