package cmd

import (
	"fmt"

	"github.com/agentic-research/yomitran/internal/config"
	"github.com/spf13/cobra"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, err := config.Open(configPath)
		if err != nil {
			return err
		}
		if backend.Exists() && !initForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", configPath)
		}
		if err := backend.Save(config.Default()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", configPath)
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite an existing configuration")
	rootCmd.AddCommand(initCmd)
}
