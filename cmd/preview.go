package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/agentic-research/yomitran/internal/hepburn"
	"github.com/agentic-research/yomitran/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	previewLimit int
	previewJSON  bool
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Show how the next unprocessed records would be converted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()

		p := pipeline.New(s.plan, hepburn.New(), s.store, pipeline.WithLogger(s.logger))
		items, err := p.Preview(cmd.Context(), previewLimit)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if previewJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(items)
		}
		if len(items) == 0 {
			fmt.Fprintln(out, "no unprocessed records")
			return nil
		}
		for _, it := range items {
			printPreview(out, it)
		}
		return nil
	},
}

func printPreview(w io.Writer, it pipeline.PreviewItem) {
	fmt.Fprintf(w, "nid%d", it.SourceID)
	if it.Key != "" {
		fmt.Fprintf(w, " %s", it.Key)
	}
	if it.Target == nil {
		fmt.Fprintf(w, ": %s\n", it.Reason)
		return
	}
	fmt.Fprintf(w, " -> %s (schema %s)\n", it.Category, it.Target.Schema)
	for _, c := range it.Changes {
		fmt.Fprintf(w, "  ~ %s: %q -> %q\n", c.Field, c.Before, c.After)
	}
	names := make([]string, 0, len(it.Target.Fields))
	for name := range it.Target.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %s = %q\n", name, it.Target.Fields[name])
	}
	if len(it.Target.Tags) > 0 {
		fmt.Fprintf(w, "  tags: %v\n", it.Target.Tags)
	}
}

func init() {
	previewCmd.Flags().IntVarP(&previewLimit, "limit", "n", 10, "Preview at most this many records")
	previewCmd.Flags().BoolVar(&previewJSON, "json", false, "Print the preview as JSON")
	rootCmd.AddCommand(previewCmd)
}
