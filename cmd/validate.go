package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration against the schemas in the database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()

		out := cmd.OutOrStdout()
		for _, m := range s.loaded.Migrations {
			fmt.Fprintf(out, "migrated: %s\n", m)
		}
		for _, w := range s.plan.Warnings {
			fmt.Fprintf(out, "warning: %s\n", w)
		}
		fmt.Fprintf(out, "configuration OK: %d categor(y/ies), %d virtual field(s), source schema %s\n",
			len(s.plan.Categories), len(s.plan.Virtual), s.plan.SourceSchema)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
