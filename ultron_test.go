package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/ultronhq/ultron/internal/history"
	"github.com/ultronhq/ultron/internal/models"
	"github.com/ultronhq/ultron/internal/reporter"
)

func TestReadURLs(t *testing.T) {
	input := `# production sites
https://example.com

example.org
   http://example.net/path
# trailing comment
`
	got, err := readURLs(strings.NewReader(input))
	if err != nil {
		t.Fatalf("readURLs() error = %v", err)
	}
	want := []string{"https://example.com", "https://example.org", "http://example.net/path"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("readURLs() = %v, want %v", got, want)
	}
}

func TestReadURLsFromFileMissing(t *testing.T) {
	if _, err := readURLsFromFile(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"example.com", "https://example.com"},
		{"  example.com/a  ", "https://example.com/a"},
		{"http://example.com", "http://example.com"},
		{"ftp://example.com", "ftp://example.com"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := normalizeURL(tt.in); got != tt.want {
			t.Errorf("normalizeURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name  string
		stats reporter.Stats
		want  int
	}{
		{"clean", reporter.Stats{Total: 2, Succeeded: 2, Warning: 3}, exitOK},
		{"critical", reporter.Stats{Total: 1, Succeeded: 1, Critical: 1}, exitCritical},
		{"failed", reporter.Stats{Total: 2, Succeeded: 1, Failed: 1}, exitFailed},
		{"failed wins", reporter.Stats{Total: 2, Succeeded: 1, Failed: 1, Critical: 4}, exitFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.stats); got != tt.want {
				t.Errorf("exitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestEnvDefaults(t *testing.T) {
	t.Setenv("ULTRON_TEST_DURATION", "15s")
	t.Setenv("ULTRON_TEST_SECONDS", "20")
	t.Setenv("ULTRON_TEST_BAD", "soon")
	t.Setenv("ULTRON_TEST_INT", "7")

	if got := envDuration("ULTRON_TEST_DURATION", time.Second); got != 15*time.Second {
		t.Errorf("envDuration(15s) = %v", got)
	}
	if got := envDuration("ULTRON_TEST_SECONDS", time.Second); got != 20*time.Second {
		t.Errorf("envDuration(20) = %v", got)
	}
	if got := envDuration("ULTRON_TEST_BAD", time.Second); got != time.Second {
		t.Errorf("envDuration(bad) = %v, want default", got)
	}
	if got := envInt("ULTRON_TEST_INT", 5); got != 7 {
		t.Errorf("envInt() = %d, want 7", got)
	}
	if got := envInt("ULTRON_TEST_UNSET", 5); got != 5 {
		t.Errorf("envInt(unset) = %d, want 5", got)
	}
	if got := envString("ULTRON_TEST_UNSET", "x"); got != "x" {
		t.Errorf("envString(unset) = %q, want x", got)
	}
}

func TestBuildConfig(t *testing.T) {
	opts := &options{timeout: 3 * time.Second, workers: 2, userAgent: "ua", rps: 1.5, insecure: true}
	cfg := buildConfig(opts)

	if cfg.Timeout != 3*time.Second || cfg.MaxWorkers != 2 || cfg.UserAgent != "ua" || cfg.RequestsPerSecond != 1.5 || cfg.VerifyTLS {
		t.Errorf("buildConfig() = %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func newPageServer() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("X-Frame-Options", "DENY")
		if r.Method == http.MethodHead {
			return
		}
		w.Write([]byte(`<!DOCTYPE html><html lang="en"><head><title>Ultron test page for the CLI</title>
<meta name="viewport" content="width=device-width, initial-scale=1"></head>
<body><h1>Hello</h1><p>Some words here.</p><a href="/about">About</a></body></html>`))
	}))
}

func TestAnalyzeCommandJSON(t *testing.T) {
	srv := newPageServer()
	defer srv.Close()

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs([]string{"analyze", "--quiet", "--no-color", "-f", "json", srv.URL, srv.URL + "/other"})

	err := cmd.Execute()
	var exitErr *exitError
	if err != nil && !errors.As(err, &exitErr) {
		t.Fatalf("Execute() error = %v", err)
	}
	if exitErr != nil && exitErr.code == exitFailed {
		t.Fatalf("unexpected failed URLs: %s", stdout.String())
	}

	var doc struct {
		Summary  reporter.Stats `json:"summary"`
		Outcomes []struct {
			URL   string       `json:"url"`
			State models.State `json:"state"`
		} `json:"outcomes"`
	}
	if err := json.Unmarshal(stdout.Bytes(), &doc); err != nil {
		t.Fatalf("stdout is not JSON: %v\n%s", err, stdout.String())
	}
	if doc.Summary.Total != 2 || doc.Summary.Succeeded != 2 {
		t.Errorf("summary = %+v", doc.Summary)
	}
	if len(doc.Outcomes) != 2 || doc.Outcomes[1].URL != srv.URL+"/other" {
		t.Errorf("outcomes = %+v", doc.Outcomes)
	}
}

func TestAnalyzeCommandFailedURLExitCode(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	deadURL := srv.URL
	srv.Close()

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs([]string{"--quiet", "--no-color", "-t", "2s", deadURL})

	err := cmd.Execute()
	var exitErr *exitError
	if !errors.As(err, &exitErr) || exitErr.code != exitFailed {
		t.Fatalf("Execute() error = %v, want exit status %d", err, exitFailed)
	}
	if !strings.Contains(stdout.String(), "FAILED") {
		t.Errorf("text report does not mention the failure:\n%s", stdout.String())
	}
}

func TestAnalyzeCommandRejectsMultipleFormatsWithoutOutput(t *testing.T) {
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs([]string{"analyze", "-f", "json,csv", "https://example.com"})

	if err := cmd.Execute(); err == nil || !strings.Contains(err.Error(), "--output") {
		t.Errorf("Execute() error = %v, want --output hint", err)
	}
}

func TestBatchCommandRecordsHistory(t *testing.T) {
	srv := newPageServer()
	defer srv.Close()

	dir := t.TempDir()
	list := filepath.Join(dir, "urls.txt")
	if err := os.WriteFile(list, []byte("# list\n"+srv.URL+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	dbPath := filepath.Join(dir, "history.db")
	outBase := filepath.Join(dir, "reports", "run")

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs([]string{"batch", "--quiet", "--record", "--compare", "--history-db", dbPath, "-o", outBase, "-f", "json,csv", list})

	if err := cmd.Execute(); err != nil {
		var exitErr *exitError
		if !errors.As(err, &exitErr) || exitErr.code == exitFailed {
			t.Fatalf("Execute() error = %v", err)
		}
	}

	for _, ext := range []string{".json", ".csv"} {
		if _, err := os.Stat(outBase + ext); err != nil {
			t.Errorf("report %s not written: %v", ext, err)
		}
	}

	store, err := history.Open(dbPath)
	if err != nil {
		t.Fatalf("history.Open() error = %v", err)
	}
	defer store.Close()

	entries, err := store.List(t.Context(), srv.URL, 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 1 || entries[0].State != models.StateDone {
		t.Errorf("entries = %+v", entries)
	}
}

func TestWriteHistoryText(t *testing.T) {
	var buf bytes.Buffer
	if err := writeHistory(&buf, nil, "text"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "No recorded runs") {
		t.Errorf("output = %q", buf.String())
	}

	if err := writeHistory(&buf, nil, "xml"); err == nil {
		t.Error("expected error for unsupported format")
	}
}
