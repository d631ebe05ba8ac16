package normalize

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

const isoDate = "2006-01-02"

var (
	ymdDash  = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})`)
	mdySlash = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})`)
	ymdSlash = regexp.MustCompile(`^(\d{4})/(\d{1,2})/(\d{1,2})`)
)

// fallbackLayouts are tried in order when no numeric pattern matches.
var fallbackLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.RFC1123Z,
	time.RFC1123,
	time.RFC850,
	time.RFC822Z,
	time.RFC822,
	time.ANSIC,
	time.UnixDate,
	"2006.01.02",
	"2006.1.2",
	"Jan 2, 2006",
	"January 2, 2006",
	"Jan 2 2006",
	"January 2 2006",
	"Mon Jan 2 2006",
	"Mon, Jan 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
	"02-Jan-2006",
}

// ParseDate converts a source date string to YYYY-MM-DD.
//
// Numeric forms are matched as prefixes, so trailing times are ignored:
// YYYY-M-D, then M/D/YYYY (month first), then YYYY/M/D. Anything else goes
// through fallbackLayouts. A match whose parts are not a real calendar date
// is rejected.
func ParseDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}

	if m := ymdDash.FindStringSubmatch(s); m != nil {
		return calendarDate(m[1], m[2], m[3])
	}
	if m := mdySlash.FindStringSubmatch(s); m != nil {
		return calendarDate(m[3], m[1], m[2])
	}
	if m := ymdSlash.FindStringSubmatch(s); m != nil {
		return calendarDate(m[1], m[2], m[3])
	}

	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Format(isoDate), true
		}
	}
	return "", false
}

func calendarDate(year, month, day string) (string, bool) {
	out := fmt.Sprintf("%s-%s-%s", year, pad2(month), pad2(day))
	if _, err := time.Parse(isoDate, out); err != nil {
		return "", false
	}
	return out, true
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}

// ISOWeek returns the ISO-8601 week label ("2025-W01") of a YYYY-MM-DD date.
// The year is the one containing the week's Thursday, which differs from
// the calendar year around New Year.
func ISOWeek(date string) (string, error) {
	t, err := time.Parse(isoDate, date)
	if err != nil {
		return "", fmt.Errorf("parse date %q: %w", date, err)
	}
	return WeekLabel(t), nil
}

// WeekLabel formats the ISO week containing t.
func WeekLabel(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// WeekStart returns the Monday of an ISO week label such as "2025-W45".
func WeekStart(label string) (time.Time, error) {
	var year, week int
	if _, err := fmt.Sscanf(label, "%4d-W%2d", &year, &week); err != nil {
		return time.Time{}, fmt.Errorf("parse week label %q: %w", label, err)
	}
	if week < 1 || week > 53 {
		return time.Time{}, fmt.Errorf("parse week label %q: week out of range", label)
	}

	// January 4th is always in week 1.
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	offset := (int(jan4.Weekday()) + 6) % 7
	monday := jan4.AddDate(0, 0, -offset+(week-1)*7)

	if WeekLabel(monday) != fmt.Sprintf("%d-W%02d", year, week) {
		return time.Time{}, fmt.Errorf("parse week label %q: year has no such week", label)
	}
	return monday, nil
}
