package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/agentic-research/yomitran/internal/config"
	"github.com/agentic-research/yomitran/internal/logging"
	"github.com/agentic-research/yomitran/internal/store"
	"github.com/agentic-research/yomitran/internal/transform"
	"github.com/spf13/cobra"
)

// session holds what a conversion command needs: the loaded configuration,
// the open store and the compiled plan.
type session struct {
	loaded   *config.Loaded
	store    *store.SQLiteStore
	plan     *transform.Plan
	logger   *slog.Logger
	closeLog func() error
}

func (s *session) Close() error {
	return errors.Join(s.store.Close(), s.closeLog())
}

// openSession loads the configuration, opens the store and compiles the plan.
// Configuration problems come back as a *transform.ConfigError.
func openSession(cmd *cobra.Command) (*session, error) {
	backend, err := config.Open(configPath)
	if err != nil {
		return nil, err
	}
	loaded, err := backend.Load()
	if err != nil {
		return nil, err
	}

	logger, closeLog, err := logging.Open(
		logging.FromOptions(loaded.Config.Options.Debug, debugLog), cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	for _, m := range loaded.Migrations {
		logger.Info("migrated legacy configuration", "change", m)
	}

	st, err := openStore()
	if err != nil {
		_ = closeLog()
		return nil, err
	}
	s := &session{loaded: loaded, store: st, logger: logger, closeLog: closeLog}

	schemas, err := st.Schemas(cmd.Context())
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("list schemas: %w", err)
	}
	plan, err := transform.Compile(loaded.Config, schemas)
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	for _, w := range plan.Warnings {
		logger.Warn("configuration warning", "warning", w)
	}
	s.plan = plan
	return s, nil
}

func openStore() (*store.SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}
	return store.OpenSQLite(dbPath)
}
