package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"github.com/hyperengineering/snsreport/internal/config"
	"github.com/hyperengineering/snsreport/internal/store"
	"github.com/spf13/cobra"
)

var (
	dbPathOverride string
	jsonOutput     bool
)

// offlineEnv is what an offline command works against.
type offlineEnv struct {
	cfg   *config.Config
	store *store.SQLiteStore
}

// openOffline loads configuration, applies --db, routes logs to stderr and
// opens the store. Callers must Close the store.
func openOffline(cmd *cobra.Command) (*offlineEnv, error) {
	cfg, err := config.LoadOffline()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if dbPathOverride != "" {
		cfg.Database.Path = dbPathOverride
	}

	// Offline output goes to stdout; keep logs out of it.
	logCfg := cfg.Log
	logCfg.Format = "text"
	if logCfg.Level == "" || logCfg.Level == "info" {
		logCfg.Level = "warn"
	}
	slog.SetDefault(newLogger(cmd.ErrOrStderr(), logCfg))

	db, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	return &offlineEnv{cfg: cfg, store: db}, nil
}

// printJSON marshals v to JSON and writes to the given writer.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// newTabWriter returns a configured tabwriter for aligned columns.
func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

// commandContext returns the command's context, falling back to Background
// when run outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
