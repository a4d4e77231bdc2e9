package cmd

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/agentic-research/yomitran/internal/hepburn"
	"github.com/agentic-research/yomitran/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	runDryRun bool
	runLimit  int
	runOnSync bool
	runStrict bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Convert every unprocessed source record",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()

		cfg := s.loaded.Config
		out := cmd.OutOrStdout()
		if !cfg.IsEnabled() {
			fmt.Fprintln(out, "conversion is disabled in the configuration")
			return nil
		}
		if runOnSync && !cfg.Options.RunOnSync {
			s.logger.Debug("run on sync disabled")
			return nil
		}

		p := pipeline.New(s.plan, hepburn.New(), s.store,
			pipeline.WithLogger(s.logger), pipeline.WithDryRun(runDryRun))
		rep, err := p.RunQuery(ctx, runLimit)
		if rep != nil {
			fmt.Fprintln(out, rep.String())
		}
		if err != nil {
			return err
		}
		if runStrict && rep.Failed > 0 {
			return fmt.Errorf("%d record(s) failed", rep.Failed)
		}
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "Convert without writing anything")
	runCmd.Flags().IntVarP(&runLimit, "limit", "n", 0, "Convert at most this many records (0 = all)")
	runCmd.Flags().BoolVar(&runOnSync, "on-sync", false, "Run only if options.run_on_sync is set")
	runCmd.Flags().BoolVar(&runStrict, "strict", false, "Exit non-zero when any record fails")
	rootCmd.AddCommand(runCmd)
}
