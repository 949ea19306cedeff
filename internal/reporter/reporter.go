package reporter

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ultronhq/ultron/internal/models"
)

const (
	AppName    = "ultron"
	AppVersion = "1.0.0"
	AppRepo    = "https://github.com/ultronhq/ultron"
)

// Formats lists every supported report format
var Formats = []string{"text", "json", "yaml", "csv", "markdown", "html"}

var extensions = map[string]string{
	"text":     ".txt",
	"json":     ".json",
	"yaml":     ".yaml",
	"csv":      ".csv",
	"markdown": ".md",
	"html":     ".html",
}

// Reporter renders analysis outcomes in various formats
type Reporter struct {
	outcomes    []models.Outcome
	generatedAt time.Time
	noColor     bool
}

// Option configures a Reporter
type Option func(*Reporter)

// WithoutColor disables ANSI colors in the text format
func WithoutColor() Option {
	return func(r *Reporter) { r.noColor = true }
}

// WithTimestamp overrides the report generation time
func WithTimestamp(t time.Time) Option {
	return func(r *Reporter) { r.generatedAt = t }
}

// New creates a new Reporter instance
func New(outcomes []models.Outcome, opts ...Option) *Reporter {
	r := &Reporter{
		outcomes:    outcomes,
		generatedAt: time.Now(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NormalizeFormat maps aliases onto a supported format name
func NormalizeFormat(format string) (string, error) {
	f := strings.ToLower(strings.TrimSpace(format))
	switch f {
	case "md":
		f = "markdown"
	case "yml":
		f = "yaml"
	case "txt", "":
		f = "text"
	}
	if _, ok := extensions[f]; !ok {
		return "", fmt.Errorf("unsupported format %q (supported: %s)", format, strings.Join(Formats, ", "))
	}
	return f, nil
}

// Write renders the report in format to w
func (r *Reporter) Write(w io.Writer, format string) error {
	f, err := NormalizeFormat(format)
	if err != nil {
		return err
	}

	switch f {
	case "json":
		return r.writeJSON(w)
	case "yaml":
		return r.writeYAML(w)
	case "csv":
		return r.writeCSV(w)
	case "markdown":
		return r.writeMarkdown(w)
	case "html":
		return r.writeHTML(w)
	default:
		return r.writeText(w)
	}
}

// GenerateReport writes one file per comma-separated format, named after
// outputPath with the format's extension
func (r *Reporter) GenerateReport(outputPath, format string) ([]string, error) {
	outputBase := strings.TrimSuffix(outputPath, filepath.Ext(outputPath))
	if dir := filepath.Dir(outputBase); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	var written []string
	for _, name := range strings.Split(format, ",") {
		f, err := NormalizeFormat(name)
		if err != nil {
			return written, err
		}

		var buf bytes.Buffer
		if err := r.Write(&buf, f); err != nil {
			return written, fmt.Errorf("failed to render %s report: %w", f, err)
		}

		path := outputBase + extensions[f]
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			return written, fmt.Errorf("failed to write %s report: %w", f, err)
		}
		written = append(written, path)
	}
	return written, nil
}

// Stats summarizes a set of outcomes
type Stats struct {
	Total     int `json:"total" yaml:"total"`
	Succeeded int `json:"succeeded" yaml:"succeeded"`
	Failed    int `json:"failed" yaml:"failed"`
	Critical  int `json:"critical" yaml:"critical"`
	Warning   int `json:"warning" yaml:"warning"`
	Info      int `json:"info" yaml:"info"`
}

// GetStats returns outcome and insight counts
func (r *Reporter) GetStats() Stats {
	s := Stats{Total: len(r.outcomes)}
	for _, out := range r.outcomes {
		if out.Result == nil {
			s.Failed++
			continue
		}
		s.Succeeded++
		for _, in := range out.Result.Insights {
			switch in.Severity {
			case models.SeverityCritical:
				s.Critical++
			case models.SeverityWarning:
				s.Warning++
			default:
				s.Info++
			}
		}
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
