package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the references a field map may use",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "REFERENCE\tLABEL")
		for _, src := range s.plan.SelectableSources() {
			fmt.Fprintf(tw, "%s\t%s\n", src.Ref, src.Label)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}
