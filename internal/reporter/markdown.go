package reporter

import (
	"fmt"
	"io"
	"strings"

	"github.com/ultronhq/ultron/internal/insights"
	"github.com/ultronhq/ultron/internal/models"
)

// mdEscape keeps cell content from breaking the table layout
func mdEscape(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}

func (r *Reporter) writeMarkdown(w io.Writer) error {
	stats := r.GetStats()

	var b strings.Builder
	b.WriteString("# Ultron Website Analysis Report\n\n")
	b.WriteString("Report generated on: " + r.generatedAt.Format("January 2, 2006 15:04:05") + "\n\n")

	b.WriteString("## Summary\n\n")
	fmt.Fprintf(&b, "- Total URLs analyzed: %d\n", stats.Total)
	fmt.Fprintf(&b, "- Succeeded: %d\n", stats.Succeeded)
	fmt.Fprintf(&b, "- Failed: %d\n", stats.Failed)
	fmt.Fprintf(&b, "- Insights: %d critical, %d warning, %d info\n\n", stats.Critical, stats.Warning, stats.Info)

	b.WriteString("| URL | Status | Load Time | Size | Critical | Warning | Info |\n")
	b.WriteString("|-----|--------|-----------|------|----------|---------|------|\n")
	for _, out := range r.outcomes {
		if out.Result == nil {
			fmt.Fprintf(&b, "| %s | FAILED | - | - | - | - | - |\n", mdEscape(out.URL))
			continue
		}
		res := out.Result
		fmt.Fprintf(&b, "| %s | %d | %.2fs | %s | %d | %d | %d |\n",
			mdEscape(out.URL),
			res.Performance.StatusCode,
			res.Performance.TotalTime,
			insights.FormatBytes(res.Performance.PageSize),
			insights.Count(res.Insights, models.SeverityCritical),
			insights.Count(res.Insights, models.SeverityWarning),
			insights.Count(res.Insights, models.SeverityInfo))
	}
	b.WriteString("\n")

	for _, out := range r.outcomes {
		fmt.Fprintf(&b, "## %s\n\n", out.URL)
		if out.Result == nil {
			fmt.Fprintf(&b, "**Failed** during %s: %s\n\n", out.FailedIn, out.ErrorMessage())
			continue
		}
		res := out.Result

		b.WriteString("### Security Headers\n\n")
		b.WriteString("| Header | Present |\n|--------|---------|\n")
		for _, e := range res.Security.Entries() {
			fmt.Fprintf(&b, "| %s | %s |\n", e.Name, yesNo(e.Present))
		}
		b.WriteString("\n### Insights\n\n")
		if len(res.Insights) == 0 {
			b.WriteString("No issues found.\n\n")
			continue
		}
		for _, in := range res.Insights {
			fmt.Fprintf(&b, "- **%s** (%s) %s\n", in.Severity, in.Category, in.Message)
		}
		b.WriteString("\n")
	}

	b.WriteString("---\n\n")
	b.WriteString("Generated by Ultron v" + AppVersion + "\n")
	b.WriteString("GitHub Repository: " + AppRepo + "\n")

	_, err := io.WriteString(w, b.String())
	return err
}
