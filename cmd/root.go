package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var (
	configPath string
	dbPath     string
	debugLog   bool
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to the configuration file (JSON or YAML)")
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Path to the record database")
	rootCmd.PersistentFlags().BoolVar(&debugLog, "debug", false, "Log at debug level")
}

var rootCmd = &cobra.Command{
	Use:   "yomitran",
	Short: "Convert imported vocabulary records into study records",
	Long: `yomitran reads vocabulary records imported from a dictionary lookup tool,
selects a category for each one, and creates a record of the category's target
schema with mapped fields and rewritten tags. Converted sources are marked so
they are never converted twice.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return resolvePaths()
	},
}

// resolvePaths fills unset paths from the per-user default directory.
func resolvePaths() error {
	if configPath != "" && dbPath != "" {
		return nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home dir: %w", err)
	}
	defaultDir := filepath.Join(home, ".agentic-research", "yomitran")
	if configPath == "" {
		configPath = filepath.Join(defaultDir, "yomitran.json")
	}
	if dbPath == "" {
		dbPath = filepath.Join(defaultDir, "notes.db")
	}
	return nil
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
