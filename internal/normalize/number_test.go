package normalize

import "testing"

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{"", 0, true},
		{"0", 0, true},
		{"1000", 1000, true},
		{"1,234", 1234, true},
		{"1,234,567.5", 1234567.5, true},
		{"  42  ", 42, true},
		{"12.5%", 12.5, true},
		{"1e3", 1000, true},
		{".5", 0.5, true},
		{"+7", 7, true},
		{"abc", 0, false},
		{"N/A", 0, false},
		{"-5", 0, false},
		{"-0.1", 0, false},
		{"NaN", 0, false},
		{"Infinity", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseNumber(tt.in)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParseNumber(%q) = (%v, %v), want (%v, %v)", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestToNumber_NeverNegative(t *testing.T) {
	for _, in := range []string{"-1", "-1,000", "-0.0001", "garbage", "--3"} {
		if got := ToNumber(in); got != 0 {
			t.Errorf("ToNumber(%q) = %v, want 0", in, got)
		}
	}
}

func TestEngagementRate(t *testing.T) {
	tests := []struct {
		name       string
		engagement float64
		reach      float64
		want       float64
	}{
		{"zero reach", 50, 0, 0},
		{"zero reach and engagement", 0, 0, 0},
		{"ratio", 50, 1000, 0.05},
		{"above one", 300, 100, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EngagementRate(tt.engagement, tt.reach); got != tt.want {
				t.Errorf("EngagementRate(%v, %v) = %v, want %v", tt.engagement, tt.reach, got, tt.want)
			}
		})
	}
}

func TestEngagement(t *testing.T) {
	if got := Engagement(1, 2, 3, 4); got != 10 {
		t.Errorf("Engagement(1,2,3,4) = %v, want 10", got)
	}
}
