package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/agentic-research/yomitran/internal/store"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import [document.json]",
	Short: "Load schemas and source records into the database",
	Long:  `Reads an import document from the given file, or from stdin when the argument is "-" or missing.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var r io.Reader = cmd.InOrStdin()
		if len(args) == 1 && args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open import document: %w", err)
			}
			defer func() { _ = f.Close() }()
			r = f
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		stats, err := store.Import(cmd.Context(), st, r)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "imported %d schema(s), %d record(s)\n", stats.Schemas, stats.Notes)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
