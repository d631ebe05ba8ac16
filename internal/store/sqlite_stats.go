package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/hyperengineering/snsreport/internal/types"
)

// dateClause builds the WHERE clause selecting a client's records.
// A range takes precedence over a month, and a month over a week.
func dateClause(clientID string, f types.DateFilter) (string, []any) {
	conds := []string{"client_id = ?"}
	args := []any{clientID}

	switch {
	case f.Range != nil:
		if f.Range.Start != "" {
			conds = append(conds, "date >= ?")
			args = append(args, f.Range.Start)
		}
		if f.Range.End != "" {
			conds = append(conds, "date <= ?")
			args = append(args, f.Range.End)
		}
	case f.Month != "":
		conds = append(conds, "substr(date, 1, 7) = ?")
		args = append(args, f.Month)
	case f.Week != "":
		conds = append(conds, "week_iso = ?")
		args = append(args, f.Week)
	}

	return strings.Join(conds, " AND "), args
}

// Aggregate sums a client's records over the filter. No matching records
// yields all-zero statistics.
func (s *SQLiteStore) Aggregate(ctx context.Context, clientID string, f types.DateFilter) (*types.Statistics, error) {
	where, args := dateClause(clientID, f)

	var st types.Statistics
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(views), 0),
			COALESCE(SUM(reach), 0),
			COALESCE(SUM(impressions), 0),
			COALESCE(SUM(engagement), 0),
			COALESCE(SUM(saves), 0),
			COALESCE(SUM(outbound_clicks), 0),
			COALESCE(SUM(likes), 0),
			COALESCE(SUM(comments), 0),
			COALESCE(SUM(shares), 0),
			COALESCE(AVG(engagement_rate), 0)
		FROM sns_data
		WHERE `+where, args...).Scan(
		&st.PostCount,
		&st.TotalViews,
		&st.TotalReach,
		&st.TotalImpressions,
		&st.TotalEngagement,
		&st.TotalSaves,
		&st.TotalOutboundClicks,
		&st.TotalLikes,
		&st.TotalComments,
		&st.TotalShares,
		&st.AvgEngagementRate,
	)
	if err != nil {
		return nil, fmt.Errorf("aggregate records: %w", err)
	}
	return &st, nil
}

// TopPosts returns up to limit records ordered by metric descending.
// Ties go to the more recent post. metric must be a rank metric.
func (s *SQLiteStore) TopPosts(ctx context.Context, clientID, metric string, limit int, r *types.DateRange) ([]types.TopPost, error) {
	if !types.IsRankMetric(metric) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidMetric, metric)
	}

	where, args := dateClause(clientID, types.DateFilter{Range: r})
	args = append(args, limit)

	// metric is allow-listed above, so interpolation is safe.
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, title, link, views, reach, engagement, engagement_rate,
		       saves, likes, comments, shares, outbound_clicks
		FROM sns_data
		WHERE `+where+`
		ORDER BY `+metric+` DESC, date DESC, id
		LIMIT ?
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("query top posts: %w", err)
	}
	defer rows.Close()

	posts := []types.TopPost{}
	for rows.Next() {
		var p types.TopPost
		var title, link sql.NullString
		if err := rows.Scan(
			&p.Date, &title, &link, &p.Views, &p.Reach, &p.Engagement, &p.EngagementRate,
			&p.Saves, &p.Likes, &p.Comments, &p.Shares, &p.OutboundClicks,
		); err != nil {
			return nil, fmt.Errorf("scan top post: %w", err)
		}
		p.Title = stringPtr(title)
		p.Link = stringPtr(link)
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// WeeklyTrend returns per-ISO-week sums, oldest first, limited to the most
// recent limit weeks.
func (s *SQLiteStore) WeeklyTrend(ctx context.Context, clientID string, r *types.DateRange, limit int) ([]types.TrendPoint, error) {
	return s.trend(ctx, "week_iso", clientID, r, limit)
}

// DailyTrend returns per-day sums, oldest first, limited to the most recent
// limit days.
func (s *SQLiteStore) DailyTrend(ctx context.Context, clientID string, r *types.DateRange, limit int) ([]types.TrendPoint, error) {
	return s.trend(ctx, "date", clientID, r, limit)
}

func (s *SQLiteStore) trend(ctx context.Context, bucket, clientID string, r *types.DateRange, limit int) ([]types.TrendPoint, error) {
	where, args := dateClause(clientID, types.DateFilter{Range: r})
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+bucket+`, COUNT(*),
		       COALESCE(SUM(views), 0), COALESCE(SUM(reach), 0), COALESCE(SUM(engagement), 0),
		       COALESCE(AVG(engagement_rate), 0), COALESCE(SUM(saves), 0)
		FROM sns_data
		WHERE `+where+`
		GROUP BY `+bucket+`
		ORDER BY `+bucket+` DESC
		LIMIT ?
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s trend: %w", bucket, err)
	}
	defer rows.Close()

	points := []types.TrendPoint{}
	for rows.Next() {
		var p types.TrendPoint
		if err := rows.Scan(&p.Bucket, &p.PostCount, &p.Views, &p.Reach, &p.Engagement, &p.EngagementRate, &p.Saves); err != nil {
			return nil, fmt.Errorf("scan trend point: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, j := 0, len(points)-1; i < j; i, j = i+1, j-1 {
		points[i], points[j] = points[j], points[i]
	}
	return points, nil
}
