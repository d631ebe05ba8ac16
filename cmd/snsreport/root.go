package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/hyperengineering/snsreport/internal/api"
	"github.com/hyperengineering/snsreport/internal/archive"
	"github.com/hyperengineering/snsreport/internal/config"
	"github.com/hyperengineering/snsreport/internal/narrative"
	"github.com/hyperengineering/snsreport/internal/report"
	"github.com/hyperengineering/snsreport/internal/store"
	"github.com/hyperengineering/snsreport/internal/worker"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags: -ldflags "-X main.Version=1.0.0"
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:          "snsreport",
	Short:        "snsreport - SNS analytics reporting service",
	Long:         "Ingests SNS CSV exports per client, tracks KPI targets and generates monthly and weekly reports. Without a subcommand it runs the HTTP server.",
	RunE:         run,
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Args:  cobra.NoArgs,
	RunE:  run,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPathOverride, "db", "",
		"Database path (overrides config and SNSREPORT_DB_PATH)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false,
		"Output in JSON format")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(clientsCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(reportCmd)
}

func run(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if dbPathOverride != "" {
		cfg.Database.Path = dbPathOverride
	}
	slog.Info("configuration loaded")

	slog.SetDefault(newLogger(os.Stdout, cfg.Log))
	slog.Info("logger initialized", "level", cfg.Log.Level, "format", cfg.Log.Format)
	if cfg.Auth.APIKey == "" {
		slog.Warn("no API key configured, authentication disabled", "component", "main")
	}

	db, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return err
	}
	slog.Info("store initialized", "path", cfg.Database.Path)

	archiver, err := archive.New(cfg.Archive)
	if err != nil {
		db.Close()
		return err
	}
	slog.Info("archive initialized", "enabled", cfg.Archive.Bucket != "", "bucket", cfg.Archive.Bucket)

	writer := narrative.New(cfg.Narrative)
	slog.Info("narrative writer initialized", "enabled", cfg.Narrative.APIKey != "", "model", cfg.Narrative.Model)

	reports := report.NewGenerator(db, writer, archiver)
	handler := api.NewHandler(db, reports, api.Options{
		APIKey:         cfg.Auth.APIKey,
		Version:        Version,
		MaxUploadBytes: cfg.Ingest.MaxUploadBytes,
		SampleRows:     cfg.Ingest.SampleRows,
	})
	router := api.NewRouter(handler, cfg.CORS.AllowedOrigins)
	slog.Info("router initialized")

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout),
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout),
	}

	var wg sync.WaitGroup
	if cfg.Archive.Bucket != "" {
		sweeper := worker.NewArchiveSweeper(db, archiver,
			time.Duration(cfg.Archive.SweepInterval), worker.DefaultSweepBatch)
		startWorker(ctx, &wg, "archive-sweep", sweeper.Run)
	}

	go func() {
		slog.Info("server starting", "address", addr)
		// ErrServerClosed is expected after Shutdown; anything else is fatal.
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("shutdown initiated")

	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout))
	defer shutdownCancel()

	// Drain in-flight requests before stopping workers and the store.
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	wg.Wait()

	if err := db.Close(); err != nil {
		slog.Error("store close error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

// newLogger builds the process logger: JSON unless format is "text".
func newLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Level)}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// startWorker launches a background worker goroutine that respects context cancellation.
// Workers are tracked via WaitGroup for graceful shutdown.
func startWorker(ctx context.Context, wg *sync.WaitGroup, name string, fn func(ctx context.Context)) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		slog.Info("worker started", "worker", name)
		fn(ctx)
		slog.Info("worker stopped", "worker", name)
	}()
}
