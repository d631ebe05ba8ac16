// Package normalize converts parsed CSV rows into typed post records.
package normalize

import (
	"fmt"

	"github.com/hyperengineering/snsreport/internal/types"
)

// RowError rejects a single CSV row. The rest of the batch is unaffected.
type RowError struct {
	Line  int
	Value string
	Row   types.RawRow
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: failed to parse date: %s", e.Line, e.Value)
}

// metricFields binds each numeric mapping key to its Metrics field.
var metricFields = []struct {
	key   types.MetricKey
	field func(*types.Metrics) *float64
}{
	{types.KeyViews, func(m *types.Metrics) *float64 { return &m.Views }},
	{types.KeyLikes, func(m *types.Metrics) *float64 { return &m.Likes }},
	{types.KeyComments, func(m *types.Metrics) *float64 { return &m.Comments }},
	{types.KeyShares, func(m *types.Metrics) *float64 { return &m.Shares }},
	{types.KeySaves, func(m *types.Metrics) *float64 { return &m.Saves }},
	{types.KeyReach, func(m *types.Metrics) *float64 { return &m.Reach }},
	{types.KeyImpressions, func(m *types.Metrics) *float64 { return &m.Impressions }},
	{types.KeyWatchTimeSec, func(m *types.Metrics) *float64 { return &m.WatchTimeSec }},
	{types.KeyAvgViewDurationSec, func(m *types.Metrics) *float64 { return &m.AvgViewDurationSec }},
	{types.KeyVCR, func(m *types.Metrics) *float64 { return &m.VCR }},
	{types.KeyProfileViews, func(m *types.Metrics) *float64 { return &m.ProfileViews }},
	{types.KeyFollows, func(m *types.Metrics) *float64 { return &m.Follows }},
	{types.KeyOutboundClicks, func(m *types.Metrics) *float64 { return &m.OutboundClicks }},
}

// NormalizeRow builds a Record from one raw row. line is the 1-based
// source line used in messages.
//
// A missing or unparseable date returns a *RowError. Metric cells that
// had to be coerced to 0 are reported as warnings; the row is still kept.
// IDs and ownership are left for the caller to fill in.
func NormalizeRow(row types.RawRow, mapping types.ColumnMapping, line int) (types.Record, []types.DataLog, error) {
	rawDate := cell(row, mapping, types.KeyDate)
	date, ok := ParseDate(rawDate)
	if !ok {
		return types.Record{}, nil, &RowError{Line: line, Value: rawDate, Row: row}
	}

	week, err := ISOWeek(date)
	if err != nil {
		return types.Record{}, nil, &RowError{Line: line, Value: rawDate, Row: row}
	}

	rec := types.Record{
		Date:    date,
		Title:   optional(cell(row, mapping, types.KeyTitle)),
		Link:    optional(cell(row, mapping, types.KeyLink)),
		WeekISO: week,
	}

	var warnings []types.DataLog
	for _, mf := range metricFields {
		raw := cell(row, mapping, mf.key)
		v, ok := ParseNumber(raw)
		if !ok {
			warnings = append(warnings, types.DataLog{
				Type:    types.LogWarning,
				Message: fmt.Sprintf("row %d: %s value %q treated as 0", line, mf.key, raw),
				Row:     row,
			})
		}
		*mf.field(&rec.Metrics) = v
	}

	rec.Engagement = Engagement(rec.Likes, rec.Comments, rec.Shares, rec.Saves)
	rec.EngagementRate = EngagementRate(rec.Engagement, rec.Reach)

	return rec, warnings, nil
}

func cell(row types.RawRow, mapping types.ColumnMapping, key types.MetricKey) string {
	col := mapping.Column(key)
	if col == "" {
		return ""
	}
	return row[col]
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
