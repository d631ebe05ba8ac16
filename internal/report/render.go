package report

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/hyperengineering/snsreport/internal/kpi"
	"github.com/hyperengineering/snsreport/internal/types"
	"github.com/hyperengineering/snsreport/internal/validation"
)

// Top post counts per template.
const (
	monthlyTopPosts = 10
	weeklyTopPosts  = 5
)

// Achievement thresholds for the weekly KPI status marks.
const (
	onTrackRate = 100
	atRiskRate  = 85
)

// Input is everything a template renders.
type Input struct {
	Type        types.ReportType
	Title       string
	PeriodStart string
	PeriodEnd   string
	Statistics  *types.Statistics
	KPIProgress []types.KPIProgress
	TopPosts    []types.TopPost
	WeeklyTrend []types.TrendPoint
	Comparison  *types.Comparison
	Narrative   types.Narrative
}

// DefaultTitle returns the title used when none is given.
func DefaultTitle(t types.ReportType) string {
	switch t {
	case types.ReportWeeklyInternal:
		return "Weekly Report"
	default:
		return "Monthly Report"
	}
}

// Render produces the Markdown document for in.Type.
func Render(in Input) (string, error) {
	if in.Title == "" {
		in.Title = DefaultTitle(in.Type)
	}
	if in.Statistics == nil {
		in.Statistics = &types.Statistics{}
	}

	switch in.Type {
	case types.ReportMonthlyClient:
		return renderMonthly(in), nil
	case types.ReportWeeklyInternal:
		return renderWeekly(in), nil
	default:
		return "", validation.New("report_type", "must be one of: "+strings.Join(validation.ReportTypes, ", "))
	}
}

var printer = message.NewPrinter(language.English)

// number formats v with thousands separators, dropping a zero fraction.
func number(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return printer.Sprintf("%d", int64(v))
	}
	return printer.Sprintf("%.2f", v)
}

// rate formats an engagement ratio as a percentage.
func rate(ratio float64) string {
	return fmt.Sprintf("%.2f%%", ratio*100)
}

func postTitle(p types.TopPost) string {
	title := "(untitled)"
	if p.Title != nil && strings.TrimSpace(*p.Title) != "" {
		title = tableCell(*p.Title)
	}
	if p.Link != nil && *p.Link != "" {
		return "[" + title + "](" + *p.Link + ")"
	}
	return title
}

func tableCell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", `\|`)
}

func kpiLabel(p types.KPIProgress) string {
	if p.MetricLabel != "" {
		return tableCell(p.MetricLabel)
	}
	return tableCell(p.MetricName)
}

func numberedList(b *strings.Builder, items []string, placeholder string) {
	if len(items) == 0 {
		items = []string{placeholder}
	}
	for i, item := range items {
		fmt.Fprintf(b, "%d. %s\n", i+1, item)
	}
}

func bulletList(b *strings.Builder, items []string, placeholder string) {
	if len(items) == 0 {
		items = []string{placeholder}
	}
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
}

func renderMonthly(in Input) string {
	st := in.Statistics
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", in.Title)
	fmt.Fprintf(&b, "**Period**: %s to %s\n\n", in.PeriodStart, in.PeriodEnd)

	b.WriteString("## Summary\n\n")
	fmt.Fprintf(&b, "This period's posts were viewed **%s** times across **%s** posts, "+
		"reaching **%s** accounts with **%s** engagements (average engagement rate **%s**).\n\n",
		number(st.TotalViews), number(float64(st.PostCount)),
		number(st.TotalReach), number(st.TotalEngagement), rate(st.AvgEngagementRate))

	b.WriteString("## KPI Results\n\n")
	b.WriteString("| Metric | Target | Actual | Achievement |\n")
	b.WriteString("|---|---|---|---|\n")
	for _, p := range in.KPIProgress {
		fmt.Fprintf(&b, "| %s | %s | %s | %.1f%% |\n",
			kpiLabel(p), number(p.Target), number(p.Actual), p.AchievementRate)
	}
	b.WriteString("\n")

	b.WriteString("## Highlights\n\n")
	numberedList(&b, in.Narrative.Highlights, "No highlights recorded for this period.")
	b.WriteString("\n## Issues\n\n")
	numberedList(&b, in.Narrative.Issues, "No issues recorded for this period.")
	b.WriteString("\n## Proposals\n\n")
	numberedList(&b, in.Narrative.Proposals, "No proposals recorded for this period.")

	fmt.Fprintf(&b, "\n## Top %d Posts\n\n", monthlyTopPosts)
	b.WriteString("| Rank | Date | Title | Views | Engagement Rate | Saves |\n")
	b.WriteString("|---|---|---|---|---|---|\n")
	for i, p := range limitPosts(in.TopPosts, monthlyTopPosts) {
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %s | %s |\n",
			i+1, p.Date, postTitle(p), number(p.Views), rate(p.EngagementRate), number(p.Saves))
	}

	if len(in.WeeklyTrend) > 0 {
		b.WriteString("\n## Weekly Trend\n\n")
		b.WriteString("| Week | Posts | Views | Reach | Engagement Rate |\n")
		b.WriteString("|---|---|---|---|---|\n")
		for _, w := range in.WeeklyTrend {
			fmt.Fprintf(&b, "| %s | %d | %s | %s | %s |\n",
				w.Bucket, w.PostCount, number(w.Views), number(w.Reach), rate(w.EngagementRate))
		}
	}

	if len(in.KPIProgress) > 0 {
		proposed := kpi.ProposeNext(in.KPIProgress)
		b.WriteString("\n## Next Month KPI Proposal\n\n")
		b.WriteString("| Metric | This Month | Proposed Target |\n")
		b.WriteString("|---|---|---|\n")
		for _, p := range in.KPIProgress {
			fmt.Fprintf(&b, "| %s | %s | %s |\n",
				kpiLabel(p), number(p.Actual), number(proposed[p.MetricName]))
		}
	}

	return b.String()
}

func renderWeekly(in Input) string {
	st := in.Statistics
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", in.Title)
	fmt.Fprintf(&b, "**Period**: %s to %s\n\n", in.PeriodStart, in.PeriodEnd)

	b.WriteString("## Summary\n\n")
	fmt.Fprintf(&b, "- Posts: %s\n", number(float64(st.PostCount)))
	fmt.Fprintf(&b, "- Views: %s\n", number(st.TotalViews))
	fmt.Fprintf(&b, "- Reach: %s\n", number(st.TotalReach))
	fmt.Fprintf(&b, "- Engagement: %s\n", number(st.TotalEngagement))
	fmt.Fprintf(&b, "- Average engagement rate: %s\n\n", rate(st.AvgEngagementRate))

	b.WriteString("## KPI Status\n\n")
	for _, p := range in.KPIProgress {
		fmt.Fprintf(&b, "- %s %s: %s / %s (%.1f%%)\n",
			statusMark(p.AchievementRate), kpiLabel(p), number(p.Actual), number(p.Target), p.AchievementRate)
		if p.Warning != "" {
			fmt.Fprintf(&b, "  - Warning: %s\n", p.Warning)
		}
	}

	if in.Comparison != nil {
		b.WriteString("\n## Compared to Previous Week\n\n")
		for _, line := range changeLines(in.Comparison) {
			fmt.Fprintf(&b, "- %s\n", line)
		}
	}

	highlights, issues := in.Narrative.Highlights, in.Narrative.Issues
	if len(highlights) == 0 && len(issues) == 0 {
		highlights, issues = trendNotes(in.Comparison)
	}

	b.WriteString("\n## Trend Analysis\n\n")
	bulletList(&b, highlights, "No notable trends this week.")
	b.WriteString("\n## Needs Attention\n\n")
	bulletList(&b, issues, "Nothing flagged this week.")

	fmt.Fprintf(&b, "\n## Top %d Posts\n\n", weeklyTopPosts)
	b.WriteString("| Rank | Title | Views | Engagement Rate |\n")
	b.WriteString("|---|---|---|---|\n")
	for i, p := range limitPosts(in.TopPosts, weeklyTopPosts) {
		fmt.Fprintf(&b, "| %d | %s | %s | %s |\n", i+1, postTitle(p), number(p.Views), rate(p.EngagementRate))
	}

	b.WriteString("\n## Next Week Actions\n\n")
	numberedList(&b, in.Narrative.Proposals, "No actions planned yet.")

	return b.String()
}

func statusMark(achievement float64) string {
	switch {
	case achievement >= onTrackRate:
		return "✅"
	case achievement >= atRiskRate:
		return "⚠️"
	default:
		return "❌"
	}
}

var metricLabels = map[string]string{
	"views":           "Views",
	"reach":           "Reach",
	"engagement":      "Engagement",
	"engagement_rate": "Engagement rate",
	"saves":           "Saves",
}

// comparedOrder fixes the line order of comparison output.
var comparedOrder = []string{"views", "reach", "engagement", "engagement_rate", "saves"}

// changeLines lists defined changes in a fixed order.
func changeLines(c *types.Comparison) []string {
	var lines []string
	for _, m := range comparedOrder {
		change := c.Changes[m]
		if change == nil {
			continue
		}
		mark := "📈"
		if *change < 0 {
			mark = "📉"
		}
		lines = append(lines, fmt.Sprintf("%s %s: %+.2f%%", mark, metricLabels[m], *change))
	}
	if len(lines) == 0 {
		lines = append(lines, "No comparable data for the previous week.")
	}
	return lines
}

// trendNotes splits compared metrics into improving and declining notes.
func trendNotes(c *types.Comparison) (improving, declining []string) {
	if c == nil {
		return nil, nil
	}
	for _, m := range comparedOrder {
		change := c.Changes[m]
		switch {
		case change == nil:
		case *change > 0:
			improving = append(improving, fmt.Sprintf("%s improved by %.2f%%.", metricLabels[m], *change))
		case *change < 0:
			declining = append(declining, fmt.Sprintf("%s declined by %.2f%%.", metricLabels[m], -*change))
		}
	}
	return improving, declining
}

func limitPosts(posts []types.TopPost, n int) []types.TopPost {
	if len(posts) > n {
		return posts[:n]
	}
	return posts
}
