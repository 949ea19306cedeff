package reporter

import (
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/ultronhq/ultron/internal/insights"
	"github.com/ultronhq/ultron/internal/models"
)

var htmlReport = template.Must(template.New("report").Funcs(template.FuncMap{
	"bytes":    insights.FormatBytes,
	"severity": func(s models.Severity) string { return strings.ToLower(s.String()) },
	"count":    insights.Count,
	"critical": func() models.Severity { return models.SeverityCritical },
	"warning":  func() models.Severity { return models.SeverityWarning },
	"info":     func() models.Severity { return models.SeverityInfo },
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Ultron Website Analysis Report</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 0; padding: 20px; color: #333; }
        h1, h2, h3 { color: #2c3e50; }
        .container { max-width: 1200px; margin: 0 auto; }
        .summary { background-color: #f8f9fa; padding: 15px; border-radius: 5px; margin-bottom: 20px; }
        .stats { display: flex; gap: 20px; margin: 20px 0; }
        .stat-box { flex: 1; padding: 15px; border-radius: 5px; text-align: center; }
        .ok { background-color: #d4edda; color: #155724; }
        .failed { background-color: #f8d7da; color: #721c24; }
        .total { background-color: #e2e3e5; color: #383d41; }
        table { width: 100%; border-collapse: collapse; margin: 20px 0; }
        th, td { padding: 12px; text-align: left; border-bottom: 1px solid #ddd; }
        th { background-color: #f2f2f2; }
        .badge { display: inline-block; padding: 3px 7px; border-radius: 3px; font-size: 12px; margin-right: 5px; }
        .badge-critical { background-color: #f8d7da; color: #721c24; }
        .badge-warning { background-color: #fff3cd; color: #856404; }
        .badge-info { background-color: #cce5ff; color: #004085; }
    </style>
</head>
<body>
    <div class="container">
        <h1>Ultron Website Analysis Report</h1>
        <div class="summary">
            <p>Report generated on: {{.GeneratedAt.Format "January 2, 2006 15:04:05"}}</p>
            <p>Total URLs analyzed: {{.Stats.Total}}</p>
        </div>

        <div class="stats">
            <div class="stat-box ok"><h3>Succeeded</h3><p>{{.Stats.Succeeded}}</p></div>
            <div class="stat-box failed"><h3>Failed</h3><p>{{.Stats.Failed}}</p></div>
            <div class="stat-box total"><h3>Critical insights</h3><p>{{.Stats.Critical}}</p></div>
        </div>

        <table>
            <tr><th>URL</th><th>Status</th><th>Load Time</th><th>Size</th><th>Critical</th><th>Warning</th><th>Info</th></tr>
            {{- range .Outcomes}}
            {{- if .Result}}
            <tr>
                <td>{{.URL}}</td>
                <td>{{.Result.Performance.StatusCode}}</td>
                <td>{{printf "%.2f" .Result.Performance.TotalTime}}s</td>
                <td>{{bytes .Result.Performance.PageSize}}</td>
                <td>{{count .Result.Insights critical}}</td>
                <td>{{count .Result.Insights warning}}</td>
                <td>{{count .Result.Insights info}}</td>
            </tr>
            {{- else}}
            <tr><td>{{.URL}}</td><td colspan="6"><span class="badge badge-critical">Failed</span> {{.ErrorMessage}}</td></tr>
            {{- end}}
            {{- end}}
        </table>
        {{range .Outcomes}}{{if .Result}}
        <h2>{{.URL}}</h2>
        <h3>Security Headers</h3>
        <table>
            <tr><th>Header</th><th>Present</th></tr>
            {{- range .Result.Security.Entries}}
            <tr><td>{{.Name}}</td><td>{{if .Present}}yes{{else}}no{{end}}</td></tr>
            {{- end}}
        </table>
        <h3>Insights</h3>
        {{- if .Result.Insights}}
        <ul>
            {{- range .Result.Insights}}
            <li><span class="badge badge-{{severity .Severity}}">{{.Severity}}</span> {{.Message}}</li>
            {{- end}}
        </ul>
        {{- else}}
        <p>No issues found.</p>
        {{- end}}
        {{end}}{{end}}
    </div>
</body>
</html>
`))

func (r *Reporter) writeHTML(w io.Writer) error {
	data := struct {
		GeneratedAt time.Time
		Stats       Stats
		Outcomes    []models.Outcome
	}{
		GeneratedAt: r.generatedAt,
		Stats:       r.GetStats(),
		Outcomes:    r.outcomes,
	}
	if err := htmlReport.Execute(w, data); err != nil {
		return fmt.Errorf("failed to render HTML: %w", err)
	}
	return nil
}
