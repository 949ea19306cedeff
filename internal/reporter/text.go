package reporter

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/ultronhq/ultron/internal/insights"
	"github.com/ultronhq/ultron/internal/models"
)

type palette struct {
	green, red, yellow, cyan, bold func(a ...interface{}) string
}

func (r *Reporter) palette() palette {
	mk := func(attrs ...color.Attribute) func(a ...interface{}) string {
		c := color.New(attrs...)
		if r.noColor {
			c.DisableColor()
		}
		return c.SprintFunc()
	}
	return palette{
		green:  mk(color.FgGreen),
		red:    mk(color.FgRed),
		yellow: mk(color.FgYellow),
		cyan:   mk(color.FgCyan),
		bold:   mk(color.Bold),
	}
}

func (p palette) severity(s models.Severity) string {
	label := fmt.Sprintf("%-8s", s)
	switch s {
	case models.SeverityCritical:
		return p.red(label)
	case models.SeverityWarning:
		return p.yellow(label)
	}
	return p.cyan(label)
}

func (r *Reporter) writeText(w io.Writer) error {
	p := r.palette()
	stats := r.GetStats()

	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d URL(s), %s succeeded, %s failed\n",
		p.bold("Ultron analysis"), stats.Total, p.green(stats.Succeeded), p.red(stats.Failed))

	for _, out := range r.outcomes {
		b.WriteString("\n--------------------------------\n")
		fmt.Fprintf(&b, "%s\n", p.cyan(out.URL))

		if out.Result == nil {
			fmt.Fprintf(&b, "  %s in %s: %s\n", p.red("FAILED"), out.FailedIn, out.ErrorMessage())
			continue
		}
		res := out.Result

		perf := res.Performance
		size := insights.FormatBytes(perf.PageSize)
		if perf.Truncated {
			size += " (truncated)"
		}
		fmt.Fprintf(&b, "  Status: %d | Load time: %.2fs | Size: %s\n",
			perf.StatusCode, perf.TotalTime, size)

		seo := res.SEO
		fmt.Fprintf(&b, "  Title: %q\n", seo.Title)
		fmt.Fprintf(&b, "  SEO: description %d chars | H1 %d | images without alt %d/%d | words %d\n",
			len([]rune(seo.MetaDescription)), len(seo.H1Tags), seo.ImagesWithoutAlt, seo.TotalImages, seo.WordCount)

		m := res.Mobile
		framework := m.ResponsiveFramework
		if framework == "" {
			framework = "none"
		}
		fmt.Fprintf(&b, "  Mobile: viewport %s | device-width %s | zoom %s | framework %s | touch icon %s\n",
			yesNo(m.ViewportMeta), yesNo(m.DeviceWidth), yesNo(m.UserScalable), framework, yesNo(m.TouchIcon))

		b.WriteString("  Security headers:\n")
		for _, e := range res.Security.Entries() {
			mark := p.green("present")
			if !e.Present {
				mark = p.red("missing")
			}
			fmt.Fprintf(&b, "    %-26s %s\n", e.Name, mark)
		}

		if len(res.Insights) == 0 {
			fmt.Fprintf(&b, "  %s\n", p.green("No issues found"))
			continue
		}
		b.WriteString("  Insights:\n")
		for _, in := range res.Insights {
			fmt.Fprintf(&b, "    %s %s\n", p.severity(in.Severity), in.Message)
		}
	}

	if stats.Succeeded > 0 {
		fmt.Fprintf(&b, "\nInsights: %s critical, %s warning, %s info\n",
			p.red(stats.Critical), p.yellow(stats.Warning), p.cyan(stats.Info))
	}

	_, err := io.WriteString(w, b.String())
	return err
}
