package reporter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ultronhq/ultron/internal/models"
)

func sampleOutcomes() []models.Outcome {
	return []models.Outcome{
		{
			Index: 0,
			URL:   "https://example.com",
			State: models.StateDone,
			Result: &models.AnalysisResult{
				URL:         "https://example.com",
				FetchedAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
				Performance: models.PerformanceMetrics{TotalTime: 0.42, PageSize: 2048, StatusCode: 200},
				SEO: models.SEOMetrics{
					Title:  "Example, <Domain>",
					H1Tags: []string{"Example"},
				},
				Security: models.SecurityHeaders{XFrameOptions: true},
				Insights: []models.Insight{
					{Severity: models.SeverityCritical, Category: models.CategoryPerformance, Message: "Page returned HTTP 500"},
					{Severity: models.SeverityWarning, Category: models.CategoryMobile, Message: "Missing viewport meta tag"},
					{Severity: models.SeverityInfo, Category: models.CategorySEO, Message: "Missing lang attribute on the html element"},
				},
			},
		},
		{
			Index:    1,
			URL:      "https://down.example",
			State:    models.StateFailed,
			FailedIn: models.StateFetching,
			Err:      errors.New("could not reach target"),
		},
	}
}

func newTestReporter() *Reporter {
	return New(sampleOutcomes(), WithoutColor(), WithTimestamp(time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)))
}

func TestGetStats(t *testing.T) {
	got := newTestReporter().GetStats()
	want := Stats{Total: 2, Succeeded: 1, Failed: 1, Critical: 1, Warning: 1, Info: 1}
	if got != want {
		t.Errorf("GetStats() = %+v, want %+v", got, want)
	}
}

func TestNormalizeFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"JSON", "json", false},
		{"md", "markdown", false},
		{"yml", "yaml", false},
		{"", "text", false},
		{"pdf", "", true},
	}
	for _, tt := range tests {
		got, err := NormalizeFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("NormalizeFormat(%q) = %q, %v; want %q, wantErr %v", tt.in, got, err, tt.want, tt.wantErr)
		}
	}
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	if err := newTestReporter().Write(&buf, "text"); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"2 URL(s), 1 succeeded, 1 failed",
		"Status: 200",
		"X-Frame-Options            present",
		"Content-Security-Policy    missing",
		"CRITICAL Page returned HTTP 500",
		"FAILED in FETCHING: could not reach target",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("text report missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("text report contains ANSI codes despite WithoutColor")
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := newTestReporter().Write(&buf, "json"); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	var doc struct {
		Summary  Stats `json:"summary"`
		Outcomes []struct {
			URL    string `json:"url"`
			State  string `json:"state"`
			Error  string `json:"error"`
			Result *struct {
				Security map[string]bool `json:"security_headers"`
				Insights []struct {
					Severity string `json:"severity"`
				} `json:"insights"`
			} `json:"result"`
		} `json:"outcomes"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}

	if doc.Summary.Failed != 1 || len(doc.Outcomes) != 2 {
		t.Fatalf("summary = %+v, outcomes = %d", doc.Summary, len(doc.Outcomes))
	}
	if doc.Outcomes[1].Error != "could not reach target" || doc.Outcomes[1].Result != nil {
		t.Errorf("failed outcome encoded as %+v", doc.Outcomes[1])
	}
	first := doc.Outcomes[0].Result
	if len(first.Security) != len(models.SecurityHeaderNames) || !first.Security["X-Frame-Options"] {
		t.Errorf("security headers = %v", first.Security)
	}
	if first.Insights[0].Severity != "CRITICAL" {
		t.Errorf("severity = %q, want CRITICAL", first.Insights[0].Severity)
	}
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := newTestReporter().Write(&buf, "yaml"); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	var doc map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("invalid YAML: %v\n%s", err, buf.String())
	}
	if !strings.Contains(buf.String(), "severity: CRITICAL") {
		t.Errorf("YAML missing severity text:\n%s", buf.String())
	}
	if !strings.Contains(buf.String(), "error: could not reach target") {
		t.Errorf("YAML missing failure:\n%s", buf.String())
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := newTestReporter().Write(&buf, "csv"); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}
	row := records[1]
	if row[5] != "Example, <Domain>" {
		t.Errorf("Title column = %q, want the title with its comma intact", row[5])
	}
	if row[11] != "1" || row[12] != "1" || row[13] != "1" {
		t.Errorf("severity counts = %v, want 1/1/1", row[11:14])
	}
	if !strings.Contains(row[9], "Content-Security-Policy") || strings.Contains(row[9], "X-Frame-Options") {
		t.Errorf("MissingSecurityHeaders = %q", row[9])
	}
	if records[2][1] != "FAILED" || records[2][14] != "could not reach target" {
		t.Errorf("failed row = %v", records[2])
	}
}

func TestWriteMarkdown(t *testing.T) {
	var buf bytes.Buffer
	if err := newTestReporter().Write(&buf, "markdown"); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"# Ultron Website Analysis Report",
		"October 19, 2026",
		"| https://example.com | 200 | 0.42s | 2.0 KB | 1 | 1 | 1 |",
		"| https://down.example | FAILED |",
		"- **CRITICAL** (performance) Page returned HTTP 500",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown report missing %q:\n%s", want, out)
		}
	}
}

func TestWriteHTMLEscapes(t *testing.T) {
	var buf bytes.Buffer
	if err := newTestReporter().Write(&buf, "html"); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	out := buf.String()

	if !strings.Contains(out, `<span class="badge badge-critical">CRITICAL</span> Page returned HTTP 500`) {
		t.Errorf("HTML report missing critical badge:\n%s", out)
	}
	if !strings.Contains(out, "could not reach target") {
		t.Error("HTML report missing failure message")
	}
}

func TestGenerateReportWritesFiles(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "reports", "run.out")

	written, err := newTestReporter().GenerateReport(base, "json, md,csv")
	if err != nil {
		t.Fatalf("GenerateReport() error = %v", err)
	}

	want := []string{
		filepath.Join(dir, "reports", "run.json"),
		filepath.Join(dir, "reports", "run.md"),
		filepath.Join(dir, "reports", "run.csv"),
	}
	if len(written) != len(want) {
		t.Fatalf("written = %v, want %v", written, want)
	}
	for i, path := range want {
		if written[i] != path {
			t.Errorf("written[%d] = %q, want %q", i, written[i], path)
		}
		if info, err := os.Stat(path); err != nil || info.Size() == 0 {
			t.Errorf("%s not written: %v", path, err)
		}
	}

	if _, err := newTestReporter().GenerateReport(base, "pdf"); err == nil {
		t.Error("GenerateReport(pdf) should fail")
	}
}
