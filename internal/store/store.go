package store

import (
	"context"

	"github.com/hyperengineering/snsreport/internal/types"
)

// Store defines the interface contract for all report data operations.
type Store interface {
	CreateClient(ctx context.Context, c types.NewClient) (*types.Client, error)
	GetClient(ctx context.Context, id string) (*types.Client, error)
	ListClients(ctx context.Context) ([]types.Client, error)
	DeleteClient(ctx context.Context, id string) error

	CreateUpload(ctx context.Context, u types.NewUpload) (*types.Upload, error)
	InsertRecords(ctx context.Context, records []types.Record) error
	InsertLogs(ctx context.Context, logs []types.DataLog) error
	ListUploads(ctx context.Context, clientID string, limit int) ([]types.Upload, error)
	ListLogs(ctx context.Context, clientID, uploadID string) ([]types.DataLog, error)

	SaveMapping(ctx context.Context, m types.NewSavedMapping) (*types.SavedMapping, error)
	ListMappings(ctx context.Context, clientID string) ([]types.SavedMapping, error)

	Aggregate(ctx context.Context, clientID string, filter types.DateFilter) (*types.Statistics, error)
	TopPosts(ctx context.Context, clientID, metric string, limit int, r *types.DateRange) ([]types.TopPost, error)
	WeeklyTrend(ctx context.Context, clientID string, r *types.DateRange, limit int) ([]types.TrendPoint, error)
	DailyTrend(ctx context.Context, clientID string, r *types.DateRange, limit int) ([]types.TrendPoint, error)

	ListKPISettings(ctx context.Context, clientID string, kpiType types.KPIType, period string) ([]types.KPISetting, error)
	UpsertKPISettings(ctx context.Context, clientID string, inputs []types.KPIInput) ([]string, error)
	DeleteKPISetting(ctx context.Context, clientID, id string) error

	CreateReport(ctx context.Context, r types.NewReport) (*types.Report, error)
	GetReport(ctx context.Context, clientID, id string) (*types.Report, error)
	ListReports(ctx context.Context, clientID string, limit int) ([]types.Report, error)
	DeleteReport(ctx context.Context, clientID, id string) error
	ListUnarchivedReports(ctx context.Context, limit int) ([]types.Report, error)
	MarkReportArchived(ctx context.Context, id string) error
	MarkReportArchiveAttempted(ctx context.Context, id string) error

	GetStats(ctx context.Context) (*types.StoreStats, error)
	Close() error
}
