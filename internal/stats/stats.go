// Package stats answers aggregate questions about a client's post records.
package stats

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/hyperengineering/snsreport/internal/store"
	"github.com/hyperengineering/snsreport/internal/types"
	"github.com/hyperengineering/snsreport/internal/validation"
)

// Limits applied to ranking and trend queries.
const (
	DefaultTopLimit   = 10
	MaxTopLimit       = 100
	DefaultWeeklyLen  = 12
	MaxWeeklyLen      = 104
	DefaultDailyLen   = 30
	MaxDailyLen       = 366
	DefaultRankMetric = "views"
)

// ComparedMetrics are the metrics a Comparison reports changes for.
var ComparedMetrics = []string{"views", "reach", "engagement", "engagement_rate", "saves"}

// Store is the query surface the service needs.
type Store interface {
	Aggregate(ctx context.Context, clientID string, filter types.DateFilter) (*types.Statistics, error)
	TopPosts(ctx context.Context, clientID, metric string, limit int, r *types.DateRange) ([]types.TopPost, error)
	WeeklyTrend(ctx context.Context, clientID string, r *types.DateRange, limit int) ([]types.TrendPoint, error)
	DailyTrend(ctx context.Context, clientID string, r *types.DateRange, limit int) ([]types.TrendPoint, error)
}

// Service computes statistics over stored records.
type Service struct {
	store Store
}

// NewService creates a statistics service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Aggregate returns totals over the filter. A client or period without
// records yields all zeros.
func (s *Service) Aggregate(ctx context.Context, clientID string, filter types.DateFilter) (*types.Statistics, error) {
	if err := validation.ValidateDateFilter(filter); err != nil {
		return nil, err
	}
	st, err := s.store.Aggregate(ctx, clientID, filter)
	if err != nil {
		return nil, fmt.Errorf("aggregate: %w", err)
	}
	return st, nil
}

// TopPosts ranks posts by metric. An empty metric ranks by views; limit
// defaults to DefaultTopLimit and is capped at MaxTopLimit.
func (s *Service) TopPosts(ctx context.Context, clientID, metric string, limit int, r *types.DateRange) ([]types.TopPost, error) {
	if metric == "" {
		metric = DefaultRankMetric
	}
	if !types.IsRankMetric(metric) {
		return nil, fmt.Errorf("top posts: %w: %s", store.ErrInvalidMetric, metric)
	}

	var c validation.Collector
	if r != nil {
		validation.ValidateDateRange(&c, "", *r)
	}
	if err := c.Err(); err != nil {
		return nil, err
	}

	posts, err := s.store.TopPosts(ctx, clientID, metric, clampLimit(limit, DefaultTopLimit, MaxTopLimit), r)
	if err != nil {
		return nil, fmt.Errorf("top posts: %w", err)
	}
	return posts, nil
}

// Compare aggregates two ranges and reports the percentage change of each
// compared metric.
func (s *Service) Compare(ctx context.Context, clientID string, current, previous types.DateRange) (*types.Comparison, error) {
	var c validation.Collector
	validation.ValidateDateRange(&c, "current_", current)
	validation.ValidateDateRange(&c, "previous_", previous)
	if err := c.Err(); err != nil {
		return nil, err
	}

	cur, err := s.store.Aggregate(ctx, clientID, types.DateFilter{Range: &current})
	if err != nil {
		return nil, fmt.Errorf("aggregate current period: %w", err)
	}
	prev, err := s.store.Aggregate(ctx, clientID, types.DateFilter{Range: &previous})
	if err != nil {
		return nil, fmt.Errorf("aggregate previous period: %w", err)
	}

	return Compare(cur, prev), nil
}

// Compare builds a Comparison from two aggregates.
func Compare(cur, prev *types.Statistics) *types.Comparison {
	changes := make(map[string]*float64, len(ComparedMetrics))
	for _, m := range ComparedMetrics {
		changes[m] = ChangePercent(Metric(cur, m), Metric(prev, m))
	}
	return &types.Comparison{Current: cur, Previous: prev, Changes: changes}
}

// ChangePercent is (cur-prev)/prev*100 rounded to two decimals. It is nil
// when either side is zero.
func ChangePercent(cur, prev float64) *float64 {
	if cur == 0 || prev == 0 {
		return nil
	}
	v := math.Round((cur-prev)/prev*100*100) / 100
	return &v
}

// Metric reads a named metric from an aggregate. Unknown names read as 0.
func Metric(st *types.Statistics, name string) float64 {
	if st == nil {
		return 0
	}
	switch name {
	case "views":
		return st.TotalViews
	case "reach":
		return st.TotalReach
	case "impressions":
		return st.TotalImpressions
	case "engagement":
		return st.TotalEngagement
	case "engagement_rate":
		return st.AvgEngagementRate
	case "saves":
		return st.TotalSaves
	case "outbound_clicks":
		return st.TotalOutboundClicks
	case "likes":
		return st.TotalLikes
	case "comments":
		return st.TotalComments
	case "shares":
		return st.TotalShares
	case "post_count":
		return float64(st.PostCount)
	default:
		return 0
	}
}

// WeeklyTrend returns per-ISO-week sums, oldest first.
func (s *Service) WeeklyTrend(ctx context.Context, clientID string, r *types.DateRange, limit int) ([]types.TrendPoint, error) {
	if err := validateOptionalRange(r); err != nil {
		return nil, err
	}
	points, err := s.store.WeeklyTrend(ctx, clientID, r, clampLimit(limit, DefaultWeeklyLen, MaxWeeklyLen))
	if err != nil {
		return nil, fmt.Errorf("weekly trend: %w", err)
	}
	return points, nil
}

// DailyTrend returns per-day sums, oldest first.
func (s *Service) DailyTrend(ctx context.Context, clientID string, r *types.DateRange, limit int) ([]types.TrendPoint, error) {
	if err := validateOptionalRange(r); err != nil {
		return nil, err
	}
	points, err := s.store.DailyTrend(ctx, clientID, r, clampLimit(limit, DefaultDailyLen, MaxDailyLen))
	if err != nil {
		return nil, fmt.Errorf("daily trend: %w", err)
	}
	return points, nil
}

// PreviousPeriod returns the range of equal length ending the day before
// r starts. r must hold valid dates.
func PreviousPeriod(r types.DateRange) (types.DateRange, error) {
	start, err := time.Parse(time.DateOnly, r.Start)
	if err != nil {
		return types.DateRange{}, fmt.Errorf("parse start: %w", err)
	}
	end, err := time.Parse(time.DateOnly, r.End)
	if err != nil {
		return types.DateRange{}, fmt.Errorf("parse end: %w", err)
	}

	days := int(end.Sub(start).Hours()/24) + 1
	prevEnd := start.AddDate(0, 0, -1)
	prevStart := prevEnd.AddDate(0, 0, -(days - 1))
	return types.DateRange{
		Start: prevStart.Format(time.DateOnly),
		End:   prevEnd.Format(time.DateOnly),
	}, nil
}

func validateOptionalRange(r *types.DateRange) error {
	if r == nil {
		return nil
	}
	var c validation.Collector
	validation.ValidateDateRange(&c, "", *r)
	return c.Err()
}

func clampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
