package types

import (
	"encoding/json"
	"testing"
)

func TestIsMappingKey(t *testing.T) {
	tests := []struct {
		key  MetricKey
		want bool
	}{
		{KeyDate, true},
		{KeyOutboundClicks, true},
		{KeyAvgViewDurationSec, true},
		{"engagement", false},
		{"", false},
		{"Views", false},
	}

	for _, tt := range tests {
		if got := IsMappingKey(tt.key); got != tt.want {
			t.Errorf("IsMappingKey(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}

func TestColumnMapping_Column(t *testing.T) {
	m := ColumnMapping{KeyDate: "Date", KeyViews: "Views"}

	if got := m.Column(KeyDate); got != "Date" {
		t.Errorf("Column(date) = %q, want %q", got, "Date")
	}
	if got := m.Column(KeyReach); got != "" {
		t.Errorf("Column(reach) = %q, want empty", got)
	}

	var nilMapping ColumnMapping
	if got := nilMapping.Column(KeyDate); got != "" {
		t.Errorf("nil mapping Column(date) = %q, want empty", got)
	}
}

func TestRecord_JSONFlattensMetrics(t *testing.T) {
	rec := Record{
		Date:    "2025-11-03",
		Metrics: Metrics{Views: 1000, Likes: 50},
		WeekISO: "2025-W45",
	}

	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	for _, field := range []string{"views", "likes", "outbound_clicks", "engagement_rate", "week_iso"} {
		if _, ok := raw[field]; !ok {
			t.Errorf("missing top-level field %q", field)
		}
	}
	if _, ok := raw["Metrics"]; ok {
		t.Error("metrics should be flattened, found nested Metrics object")
	}
	if raw["title"] != nil {
		t.Errorf("title = %v, want null", raw["title"])
	}
}

func TestColumnMapping_UnmarshalFromJSONObject(t *testing.T) {
	var m ColumnMapping
	if err := json.Unmarshal([]byte(`{"date":"Date","views":"Views"}`), &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m[KeyDate] != "Date" || m[KeyViews] != "Views" {
		t.Errorf("mapping = %v", m)
	}
}

func TestIsRankMetric(t *testing.T) {
	for _, m := range RankMetrics {
		if !IsRankMetric(m) {
			t.Errorf("IsRankMetric(%q) = false, want true", m)
		}
	}
	for _, m := range []string{"impressions", "views; DROP TABLE sns_data", "", "VIEWS"} {
		if IsRankMetric(m) {
			t.Errorf("IsRankMetric(%q) = true, want false", m)
		}
	}
}
