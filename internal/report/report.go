// Package report generates, stores and serves client reports.
//
// Generation pulls statistics, KPI progress and top posts for the period,
// adds narrative commentary, renders Markdown and HTML, persists the result
// and copies it to the archive when one is configured.
package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hyperengineering/snsreport/internal/archive"
	"github.com/hyperengineering/snsreport/internal/kpi"
	"github.com/hyperengineering/snsreport/internal/narrative"
	"github.com/hyperengineering/snsreport/internal/normalize"
	"github.com/hyperengineering/snsreport/internal/stats"
	"github.com/hyperengineering/snsreport/internal/types"
	"github.com/hyperengineering/snsreport/internal/validation"
)

// DefaultListLimit caps report listings.
const DefaultListLimit = 50

// trendWeeks bounds the weekly trend included in monthly reports.
const trendWeeks = 6

// Store is the persistence surface report generation needs.
type Store interface {
	stats.Store
	kpi.Store

	GetClient(ctx context.Context, id string) (*types.Client, error)
	CreateReport(ctx context.Context, r types.NewReport) (*types.Report, error)
	GetReport(ctx context.Context, clientID, id string) (*types.Report, error)
	ListReports(ctx context.Context, clientID string, limit int) ([]types.Report, error)
	DeleteReport(ctx context.Context, clientID, id string) error
	MarkReportArchived(ctx context.Context, id string) error
}

// Generator builds and manages reports.
type Generator struct {
	store    Store
	stats    *stats.Service
	kpi      *kpi.Evaluator
	writer   narrative.Writer
	archiver archive.Archiver
}

// NewGenerator creates a Generator. A nil writer or archiver disables
// narrative writing or archiving respectively.
func NewGenerator(store Store, writer narrative.Writer, archiver archive.Archiver) *Generator {
	if writer == nil {
		writer = narrative.Noop{}
	}
	if archiver == nil {
		archiver = archive.NoopArchiver{}
	}
	return &Generator{
		store:    store,
		stats:    stats.NewService(store),
		kpi:      kpi.NewEvaluator(store),
		writer:   writer,
		archiver: archiver,
	}
}

// Request describes a report to generate.
type Request struct {
	ClientID    string           `json:"-"`
	Type        types.ReportType `json:"report_type"`
	PeriodStart string           `json:"period_start"`
	PeriodEnd   string           `json:"period_end"`
	Title       string           `json:"title,omitempty"`
	// Narrative sections given here take precedence over written ones.
	Narrative *types.Narrative `json:"narrative,omitempty"`
}

func validateRequest(req Request) error {
	var c validation.Collector
	c.Add(validation.ValidateRequired("client_id", req.ClientID))
	c.Add(validation.ValidateEnum("report_type", string(req.Type), validation.ReportTypes))
	validation.ValidateDateRange(&c, "period_", types.DateRange{Start: req.PeriodStart, End: req.PeriodEnd})
	c.Add(validation.ValidateMaxLength("title", req.Title, validation.MaxTitleLength))
	c.Add(validation.ValidateUTF8("title", req.Title))
	return c.Err()
}

// Generate builds, persists and archives a report.
func (g *Generator) Generate(ctx context.Context, req Request) (*types.GeneratedReport, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	client, err := g.store.GetClient(ctx, req.ClientID)
	if err != nil {
		return nil, fmt.Errorf("get client: %w", err)
	}

	period := types.DateRange{Start: req.PeriodStart, End: req.PeriodEnd}
	in := Input{
		Type:        req.Type,
		Title:       req.Title,
		PeriodStart: req.PeriodStart,
		PeriodEnd:   req.PeriodEnd,
	}
	if in.Title == "" {
		in.Title = DefaultTitle(req.Type)
	}

	in.Statistics, err = g.stats.Aggregate(ctx, req.ClientID, types.DateFilter{Range: &period})
	if err != nil {
		return nil, err
	}

	kpiType, kpiPeriod, err := kpiPeriodFor(req.Type, req.PeriodStart)
	if err != nil {
		return nil, err
	}
	in.KPIProgress, err = g.kpi.Progress(ctx, req.ClientID, kpiType, kpiPeriod)
	if err != nil {
		return nil, fmt.Errorf("kpi progress: %w", err)
	}

	in.TopPosts, err = g.stats.TopPosts(ctx, req.ClientID, stats.DefaultRankMetric, stats.DefaultTopLimit, &period)
	if err != nil {
		return nil, err
	}

	switch req.Type {
	case types.ReportMonthlyClient:
		in.WeeklyTrend, err = g.stats.WeeklyTrend(ctx, req.ClientID, &period, trendWeeks)
		if err != nil {
			return nil, err
		}
	case types.ReportWeeklyInternal:
		prev, err := stats.PreviousPeriod(period)
		if err != nil {
			return nil, fmt.Errorf("previous period: %w", err)
		}
		in.Comparison, err = g.stats.Compare(ctx, req.ClientID, period, prev)
		if err != nil {
			return nil, err
		}
	}

	in.Narrative = g.narrative(ctx, client, in, req.Narrative)

	markdown, err := Render(in)
	if err != nil {
		return nil, err
	}
	htmlDoc := ToHTML(markdown)

	rep, err := g.store.CreateReport(ctx, types.NewReport{
		ClientID:        req.ClientID,
		ReportType:      req.Type,
		PeriodStart:     req.PeriodStart,
		PeriodEnd:       req.PeriodEnd,
		Title:           in.Title,
		ContentMarkdown: markdown,
		ContentHTML:     htmlDoc,
		Metadata: types.ReportMetadata{
			Statistics:  in.Statistics,
			KPIProgress: in.KPIProgress,
			TopPosts:    in.TopPosts,
			WeeklyTrend: in.WeeklyTrend,
			Comparison:  in.Comparison,
			Narrative:   in.Narrative,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create report: %w", err)
	}

	g.archive(ctx, archive.Document{
		ClientID: req.ClientID,
		ReportID: rep.ID,
		Markdown: markdown,
		HTML:     htmlDoc,
	})

	slog.Info("report generated",
		"component", "report",
		"client_id", req.ClientID,
		"report_id", rep.ID,
		"report_type", req.Type,
		"kpis", len(in.KPIProgress),
	)

	return &types.GeneratedReport{
		ReportID:        rep.ID,
		ContentMarkdown: markdown,
		ContentHTML:     htmlDoc,
	}, nil
}

// archive copies a fresh report to the archive. Failures leave the report
// unarchived for the archive sweeper to retry.
func (g *Generator) archive(ctx context.Context, doc archive.Document) {
	err := g.archiver.Put(ctx, doc)
	if errors.Is(err, archive.ErrNotConfigured) {
		return
	}
	if err == nil {
		err = g.store.MarkReportArchived(ctx, doc.ReportID)
	}
	if err != nil {
		slog.Warn("report archive failed",
			"component", "report",
			"client_id", doc.ClientID,
			"report_id", doc.ReportID,
			"error", err,
		)
	}
}

// kpiPeriodFor picks the KPI targets a report is measured against: the
// month of the period start for monthly reports, its ISO week otherwise.
func kpiPeriodFor(t types.ReportType, periodStart string) (types.KPIType, string, error) {
	if t == types.ReportWeeklyInternal {
		week, err := normalize.ISOWeek(periodStart)
		if err != nil {
			return "", "", validation.New("period_start", err.Error())
		}
		return types.KPIWeekly, week, nil
	}
	return types.KPIMonthly, periodStart[:7], nil
}

// narrative merges caller-supplied sections with written ones. Sections
// still empty afterwards render as placeholder prose. Writer failures are
// logged and never fail generation.
func (g *Generator) narrative(ctx context.Context, client *types.Client, in Input, given *types.Narrative) types.Narrative {
	var n types.Narrative
	if given != nil {
		n = *given
	}
	if len(n.Highlights) > 0 && len(n.Issues) > 0 && len(n.Proposals) > 0 {
		return n
	}

	start := time.Now()
	written, err := g.writer.Write(ctx, narrative.Brief{
		ClientName:  client.Name,
		ReportType:  in.Type,
		PeriodStart: in.PeriodStart,
		PeriodEnd:   in.PeriodEnd,
		Statistics:  in.Statistics,
		KPIProgress: in.KPIProgress,
		TopPosts:    in.TopPosts,
		Comparison:  in.Comparison,
	})
	if err != nil {
		slog.Warn("narrative writing failed, using placeholders",
			"component", "report",
			"client_id", client.ID,
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err,
		)
		return n
	}

	if len(n.Highlights) == 0 {
		n.Highlights = written.Highlights
	}
	if len(n.Issues) == 0 {
		n.Issues = written.Issues
	}
	if len(n.Proposals) == 0 {
		n.Proposals = written.Proposals
	}
	return n
}

// Get returns one report with its content and metadata.
func (g *Generator) Get(ctx context.Context, clientID, id string) (*types.Report, error) {
	rep, err := g.store.GetReport(ctx, clientID, id)
	if err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}
	return rep, nil
}

// List returns the client's most recent report headers.
func (g *Generator) List(ctx context.Context, clientID string) ([]types.Report, error) {
	reports, err := g.store.ListReports(ctx, clientID, DefaultListLimit)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return reports, nil
}

// Delete removes a report.
func (g *Generator) Delete(ctx context.Context, clientID, id string) error {
	if err := g.store.DeleteReport(ctx, clientID, id); err != nil {
		return fmt.Errorf("delete report: %w", err)
	}
	return nil
}

// DownloadURL returns a pre-signed archive URL for a stored report.
// Returns archive.ErrNotConfigured when archiving is disabled.
func (g *Generator) DownloadURL(ctx context.Context, clientID, id string, format archive.Format) (string, time.Time, error) {
	if format != archive.FormatMarkdown && format != archive.FormatHTML {
		return "", time.Time{}, validation.New("format", "must be one of: md, html")
	}
	if _, err := g.store.GetReport(ctx, clientID, id); err != nil {
		return "", time.Time{}, fmt.Errorf("get report: %w", err)
	}
	url, expiry, err := g.archiver.PresignedURL(ctx, clientID, id, format)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("report download url: %w", err)
	}
	return url, expiry, nil
}
