package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hyperengineering/snsreport/internal/archive"
	"github.com/hyperengineering/snsreport/internal/types"
)

// DefaultSweepBatch is how many reports one sweep archives at most.
const DefaultSweepBatch = 50

// ArchiveStore defines the store operations needed by the archive sweeper.
type ArchiveStore interface {
	ListUnarchivedReports(ctx context.Context, limit int) ([]types.Report, error)
	MarkReportArchived(ctx context.Context, id string) error
	MarkReportArchiveAttempted(ctx context.Context, id string) error
}

// ArchiveSweeper copies reports that missed the archive at generation time.
type ArchiveSweeper struct {
	store    ArchiveStore
	archiver archive.Archiver
	interval time.Duration
	batch    int
}

// NewArchiveSweeper creates a sweeper running every interval. A batch of
// zero or less uses DefaultSweepBatch.
func NewArchiveSweeper(store ArchiveStore, archiver archive.Archiver, interval time.Duration, batch int) *ArchiveSweeper {
	if batch <= 0 {
		batch = DefaultSweepBatch
	}
	return &ArchiveSweeper{
		store:    store,
		archiver: archiver,
		interval: interval,
		batch:    batch,
	}
}

// Run sweeps immediately on start, then on each interval, until ctx is
// cancelled.
func (w *ArchiveSweeper) Run(ctx context.Context) {
	slog.Info("worker started",
		"component", "worker",
		"worker", "archive-sweep",
	)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.Sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("worker stopped",
				"component", "worker",
				"worker", "archive-sweep",
				"reason", "context_cancelled",
			)
			return
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}

// Sweep archives one batch of unarchived reports and returns how many
// succeeded. A failing report is logged and moved behind the other pending
// reports for later sweeps.
func (w *ArchiveSweeper) Sweep(ctx context.Context) int {
	reports, err := w.store.ListUnarchivedReports(ctx, w.batch)
	if err != nil {
		if ctx.Err() == nil {
			slog.Warn("archive sweep failed",
				"component", "worker",
				"action", "sweep_list_failed",
				"error", err,
			)
		}
		return 0
	}
	if len(reports) == 0 {
		return 0
	}

	start := time.Now()
	archived := 0
	for _, r := range reports {
		if ctx.Err() != nil {
			break
		}

		err := w.archiver.Put(ctx, archive.Document{
			ClientID: r.ClientID,
			ReportID: r.ID,
			Markdown: r.ContentMarkdown,
			HTML:     r.ContentHTML,
		})
		if errors.Is(err, archive.ErrNotConfigured) {
			return archived
		}
		if err == nil {
			err = w.store.MarkReportArchived(ctx, r.ID)
		}
		if err != nil {
			slog.Warn("report archive retry failed",
				"component", "worker",
				"client_id", r.ClientID,
				"report_id", r.ID,
				"error", err,
			)
			if mErr := w.store.MarkReportArchiveAttempted(ctx, r.ID); mErr != nil && ctx.Err() == nil {
				slog.Warn("record archive attempt failed",
					"component", "worker",
					"report_id", r.ID,
					"error", mErr,
				)
			}
			continue
		}
		archived++
	}

	slog.Info("archive sweep completed",
		"component", "worker",
		"action", "sweep_complete",
		"pending", len(reports),
		"archived", archived,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return archived
}
