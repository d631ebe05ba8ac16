package report

import (
	"html"
	"regexp"
)

// htmlRules are applied in order to escaped Markdown.
var htmlRules = []struct {
	pattern *regexp.Regexp
	replace string
}{
	{regexp.MustCompile(`(?m)^# (.*)$`), "<h1>$1</h1>"},
	{regexp.MustCompile(`(?m)^## (.*)$`), "<h2>$1</h2>"},
	{regexp.MustCompile(`(?m)^### (.*)$`), "<h3>$1</h3>"},
	{regexp.MustCompile(`\*\*(.+?)\*\*`), "<strong>$1</strong>"},
	{regexp.MustCompile(`\n\n`), "</p><p>"},
	{regexp.MustCompile(`(?m)^\|(.*)$`), "<table>$1</table>"},
}

// ToHTML projects report Markdown to HTML with line-level substitutions.
// It is not a general Markdown renderer. Text is escaped before any tags
// are introduced.
func ToHTML(markdown string) string {
	out := html.EscapeString(markdown)
	for _, r := range htmlRules {
		out = r.pattern.ReplaceAllString(out, r.replace)
	}
	return "<p>" + out + "</p>"
}
