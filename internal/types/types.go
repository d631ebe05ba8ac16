package types

import (
	"time"
)

// MetricKey is a canonical column key a CSV header can be mapped to.
type MetricKey string

const (
	KeyDate               MetricKey = "date"
	KeyTitle              MetricKey = "title"
	KeyLink               MetricKey = "link"
	KeyViews              MetricKey = "views"
	KeyLikes              MetricKey = "likes"
	KeyComments           MetricKey = "comments"
	KeyShares             MetricKey = "shares"
	KeySaves              MetricKey = "saves"
	KeyReach              MetricKey = "reach"
	KeyImpressions        MetricKey = "impressions"
	KeyWatchTimeSec       MetricKey = "watch_time_sec"
	KeyAvgViewDurationSec MetricKey = "avg_view_duration_sec"
	KeyVCR                MetricKey = "vcr"
	KeyProfileViews       MetricKey = "profile_views"
	KeyFollows            MetricKey = "follows"
	KeyOutboundClicks     MetricKey = "outbound_clicks"
)

// MappingKeys lists every key a ColumnMapping may contain, in display order.
var MappingKeys = []MetricKey{
	KeyDate, KeyTitle, KeyLink,
	KeyViews, KeyLikes, KeyComments, KeyShares, KeySaves,
	KeyReach, KeyImpressions,
	KeyWatchTimeSec, KeyAvgViewDurationSec, KeyVCR,
	KeyProfileViews, KeyFollows, KeyOutboundClicks,
}

// IsMappingKey reports whether k is a known canonical key.
func IsMappingKey(k MetricKey) bool {
	for _, known := range MappingKeys {
		if k == known {
			return true
		}
	}
	return false
}

// ColumnMapping maps canonical keys to CSV header names.
// Only KeyDate is mandatory; absent keys read as zero or empty.
type ColumnMapping map[MetricKey]string

// Column returns the mapped header for k, or "" when unmapped.
func (m ColumnMapping) Column(k MetricKey) string {
	if m == nil {
		return ""
	}
	return m[k]
}

// RawRow is one parsed CSV row keyed by header name.
type RawRow map[string]string

// Metrics holds the non-negative numeric values of a post.
type Metrics struct {
	Views              float64 `json:"views"`
	Likes              float64 `json:"likes"`
	Comments           float64 `json:"comments"`
	Shares             float64 `json:"shares"`
	Saves              float64 `json:"saves"`
	Reach              float64 `json:"reach"`
	Impressions        float64 `json:"impressions"`
	WatchTimeSec       float64 `json:"watch_time_sec"`
	AvgViewDurationSec float64 `json:"avg_view_duration_sec"`
	VCR                float64 `json:"vcr"`
	ProfileViews       float64 `json:"profile_views"`
	Follows            float64 `json:"follows"`
	OutboundClicks     float64 `json:"outbound_clicks"`
}

// Record is a normalized per-post row (the sns_data table).
type Record struct {
	ID       string  `json:"id"`
	ClientID string  `json:"client_id"`
	UploadID string  `json:"upload_id"`
	Date     string  `json:"date"`
	Title    *string `json:"title"`
	Link     *string `json:"link"`
	Metrics
	Engagement     float64   `json:"engagement"`
	EngagementRate float64   `json:"engagement_rate"`
	WeekISO        string    `json:"week_iso"`
	CreatedAt      time.Time `json:"created_at"`
}

// Client is a tenant whose data is reported on.
type Client struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Industry  *string   `json:"industry"`
	Memo      *string   `json:"memo"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewClient is the input for creating a client.
type NewClient struct {
	Name     string  `json:"name"`
	Industry *string `json:"industry,omitempty"`
	Memo     *string `json:"memo,omitempty"`
}

// Upload is the header of one ingestion run.
type Upload struct {
	ID            string        `json:"id"`
	ClientID      string        `json:"client_id"`
	Filename      string        `json:"filename"`
	Sample        []RawRow      `json:"original_data,omitempty"`
	ColumnMapping ColumnMapping `json:"column_mapping,omitempty"`
	RowCount      int           `json:"row_count"`
	UploadedAt    time.Time     `json:"uploaded_at"`
}

// NewUpload is the input for creating an upload header.
type NewUpload struct {
	ClientID      string
	Filename      string
	Sample        []RawRow
	ColumnMapping ColumnMapping
	RowCount      int
}

// LogType is the severity of an ingestion log entry.
type LogType string

const (
	LogError   LogType = "error"
	LogWarning LogType = "warning"
	LogInfo    LogType = "info"
)

// DataLog is a write-once ingestion log entry.
type DataLog struct {
	ID        string    `json:"id,omitempty"`
	UploadID  string    `json:"upload_id,omitempty"`
	Type      LogType   `json:"type"`
	Message   string    `json:"message"`
	Row       RawRow    `json:"row,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// IngestResult summarises an ingestion run.
type IngestResult struct {
	UploadID      string    `json:"upload_id"`
	TotalRows     int       `json:"total_rows"`
	ProcessedRows int       `json:"processed_rows"`
	Errors        int       `json:"errors"`
	Warnings      int       `json:"warnings"`
	Logs          []DataLog `json:"logs"`
}

// SavedMapping is a reusable column mapping template.
type SavedMapping struct {
	ID        string        `json:"id"`
	ClientID  string        `json:"client_id"`
	Name      string        `json:"mapping_name"`
	Mapping   ColumnMapping `json:"mapping_config"`
	IsDefault bool          `json:"is_default"`
	CreatedAt time.Time     `json:"created_at"`
}

// NewSavedMapping is the input for saving a mapping template.
type NewSavedMapping struct {
	ClientID  string
	Name      string
	Mapping   ColumnMapping
	IsDefault bool
}

// DateRange is an inclusive YYYY-MM-DD range.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// DateFilter selects records by range, calendar month, or ISO week.
// At most one selector is set; the zero value matches everything.
type DateFilter struct {
	Range *DateRange `json:"range,omitempty"`
	Month string     `json:"month,omitempty"`
	Week  string     `json:"week,omitempty"`
}

// Statistics is the aggregate of a client's records over a filter.
type Statistics struct {
	PostCount           int64   `json:"post_count"`
	TotalViews          float64 `json:"total_views"`
	TotalReach          float64 `json:"total_reach"`
	TotalImpressions    float64 `json:"total_impressions"`
	TotalEngagement     float64 `json:"total_engagement"`
	TotalSaves          float64 `json:"total_saves"`
	TotalOutboundClicks float64 `json:"total_outbound_clicks"`
	TotalLikes          float64 `json:"total_likes"`
	TotalComments       float64 `json:"total_comments"`
	TotalShares         float64 `json:"total_shares"`
	AvgEngagementRate   float64 `json:"avg_engagement_rate"`
}

// RankMetrics are the metrics posts may be ranked by.
var RankMetrics = []string{
	"views", "engagement", "engagement_rate", "saves", "reach",
	"likes", "comments", "shares", "outbound_clicks",
}

// IsRankMetric reports whether posts can be ranked by metric.
func IsRankMetric(metric string) bool {
	for _, m := range RankMetrics {
		if m == metric {
			return true
		}
	}
	return false
}

// TopPost is one ranked post.
type TopPost struct {
	Date           string  `json:"date"`
	Title          *string `json:"title"`
	Link           *string `json:"link"`
	Views          float64 `json:"views"`
	Reach          float64 `json:"reach"`
	Engagement     float64 `json:"engagement"`
	EngagementRate float64 `json:"engagement_rate"`
	Saves          float64 `json:"saves"`
	Likes          float64 `json:"likes"`
	Comments       float64 `json:"comments"`
	Shares         float64 `json:"shares"`
	OutboundClicks float64 `json:"outbound_clicks"`
}

// TrendPoint is one bucket of a daily or weekly trend.
type TrendPoint struct {
	Bucket         string  `json:"bucket"`
	PostCount      int64   `json:"post_count"`
	Views          float64 `json:"views"`
	Reach          float64 `json:"reach"`
	Engagement     float64 `json:"engagement"`
	EngagementRate float64 `json:"engagement_rate"`
	Saves          float64 `json:"saves"`
}

// Comparison holds two period aggregates and per-metric change percentages.
// A nil change means it is undefined (either side was zero).
type Comparison struct {
	Current  *Statistics         `json:"current"`
	Previous *Statistics         `json:"previous"`
	Changes  map[string]*float64 `json:"changes"`
}

// KPIType is the cadence a KPI target applies to.
type KPIType string

const (
	KPIMonthly KPIType = "monthly"
	KPIWeekly  KPIType = "weekly"
	KPICustom  KPIType = "custom"
)

// KPISetting is a stored KPI target (the kpi_settings table).
type KPISetting struct {
	ID          string    `json:"id"`
	ClientID    string    `json:"client_id"`
	KPIType     KPIType   `json:"kpi_type"`
	Period      string    `json:"period"`
	MetricName  string    `json:"metric_name"`
	MetricLabel *string   `json:"metric_label"`
	TargetValue *float64  `json:"target_value"`
	Formula     *string   `json:"formula"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// KPIInput is the upsert payload for a KPI target.
type KPIInput struct {
	KPIType     KPIType  `json:"kpi_type"`
	Period      string   `json:"period"`
	MetricName  string   `json:"metric_name"`
	MetricLabel *string  `json:"metric_label,omitempty"`
	TargetValue *float64 `json:"target_value,omitempty"`
	Formula     *string  `json:"formula,omitempty"`
}

// KPIProgress is a target evaluated against actuals.
type KPIProgress struct {
	MetricName      string  `json:"metric_name"`
	MetricLabel     string  `json:"metric_label"`
	Target          float64 `json:"target"`
	Actual          float64 `json:"actual"`
	AchievementRate float64 `json:"achievement_rate"`
	Formula         string  `json:"formula,omitempty"`
	Warning         string  `json:"warning,omitempty"`
}

// ReportType selects the report template.
type ReportType string

const (
	ReportMonthlyClient  ReportType = "monthly_client"
	ReportWeeklyInternal ReportType = "weekly_internal"
)

// Report is a generated, persisted report document.
type Report struct {
	ID              string          `json:"id"`
	ClientID        string          `json:"client_id"`
	ReportType      ReportType      `json:"report_type"`
	PeriodStart     string          `json:"period_start"`
	PeriodEnd       string          `json:"period_end"`
	Title           string          `json:"title"`
	ContentMarkdown string          `json:"content_markdown,omitempty"`
	ContentHTML     string          `json:"content_html,omitempty"`
	Metadata        *ReportMetadata `json:"metadata,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	// ArchivedAt is set once both renderings are in the report archive.
	ArchivedAt *time.Time `json:"archived_at,omitempty"`
}

// Narrative is the commentary of a report, one list item per entry.
type Narrative struct {
	Highlights []string `json:"highlights,omitempty"`
	Issues     []string `json:"issues,omitempty"`
	Proposals  []string `json:"proposals,omitempty"`
}

// ReportMetadata is the snapshot of inputs a report was built from.
type ReportMetadata struct {
	Statistics  *Statistics   `json:"statistics"`
	KPIProgress []KPIProgress `json:"kpi_progress"`
	TopPosts    []TopPost     `json:"top_posts"`
	WeeklyTrend []TrendPoint  `json:"weekly_trend,omitempty"`
	Comparison  *Comparison   `json:"comparison,omitempty"`
	Narrative   Narrative     `json:"narrative"`
}

// NewReport is the input for persisting a report.
type NewReport struct {
	ClientID        string
	ReportType      ReportType
	PeriodStart     string
	PeriodEnd       string
	Title           string
	ContentMarkdown string
	ContentHTML     string
	Metadata        ReportMetadata
}

// GeneratedReport is returned to callers of report generation.
type GeneratedReport struct {
	ReportID        string `json:"report_id"`
	ContentMarkdown string `json:"content_markdown"`
	ContentHTML     string `json:"content_html"`
}

// StoreStats summarises store contents for the health endpoint.
type StoreStats struct {
	ClientCount int64 `json:"client_count"`
	RecordCount int64 `json:"record_count"`
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status      string `json:"status"`
	Version     string `json:"version"`
	ClientCount int64  `json:"client_count"`
	RecordCount int64  `json:"record_count"`
}
