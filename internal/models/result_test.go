package models

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestSecurityHeadersMark(t *testing.T) {
	var s SecurityHeaders

	if !s.Mark("x-frame-options") {
		t.Fatal("Mark(x-frame-options) = false, want true")
	}
	if s.Mark("X-Powered-By") {
		t.Error("Mark(X-Powered-By) = true, want false")
	}
	if !s.XFrameOptions {
		t.Error("XFrameOptions not set")
	}
	if !s.Has(HeaderXFrameOptions) {
		t.Error("Has(X-Frame-Options) = false, want true")
	}
}

func TestSecurityHeadersEntriesAndMissing(t *testing.T) {
	s := SecurityHeaders{XContentTypeOptions: true, StrictTransportSecurity: true}

	entries := s.Entries()
	if len(entries) != len(SecurityHeaderNames) {
		t.Fatalf("len(Entries()) = %d, want %d", len(entries), len(SecurityHeaderNames))
	}
	for i, e := range entries {
		if e.Name != SecurityHeaderNames[i] {
			t.Errorf("entries[%d].Name = %q, want %q", i, e.Name, SecurityHeaderNames[i])
		}
	}

	want := []string{
		HeaderXFrameOptions,
		HeaderContentSecurityPolicy,
		HeaderXXSSProtection,
		HeaderReferrerPolicy,
		HeaderPermissionsPolicy,
	}
	if got := s.Missing(); !reflect.DeepEqual(got, want) {
		t.Errorf("Missing() = %v, want %v", got, want)
	}
}

func TestSecurityHeadersJSONHasEveryKey(t *testing.T) {
	data, err := json.Marshal(SecurityHeaders{ReferrerPolicy: true})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded map[string]bool
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(decoded) != len(SecurityHeaderNames) {
		t.Errorf("got %d keys, want %d: %s", len(decoded), len(SecurityHeaderNames), data)
	}
	for _, name := range SecurityHeaderNames {
		if _, ok := decoded[name]; !ok {
			t.Errorf("key %q missing from %s", name, data)
		}
	}
	if !decoded[HeaderReferrerPolicy] {
		t.Error("Referrer-Policy = false, want true")
	}
}

func TestInsightString(t *testing.T) {
	tests := []struct {
		insight Insight
		want    string
	}{
		{Insight{Severity: SeverityCritical, Message: "Page is down"}, "CRITICAL: Page is down"},
		{Insight{Severity: SeverityWarning, Message: "Missing page title"}, "WARNING: Missing page title"},
		{Insight{Severity: SeverityInfo, Message: "No lang"}, "INFO: No lang"},
	}

	for _, tt := range tests {
		if got := tt.insight.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestSeverityOrderAndText(t *testing.T) {
	if !(SeverityInfo < SeverityWarning && SeverityWarning < SeverityCritical) {
		t.Fatal("severities are not ordered INFO < WARNING < CRITICAL")
	}

	data, err := json.Marshal(Insight{Severity: SeverityWarning, Category: CategorySEO, Message: "m"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(data), `"severity":"WARNING"`) {
		t.Errorf("severity not encoded as text: %s", data)
	}

	var back Insight
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back.Severity != SeverityWarning {
		t.Errorf("Severity = %v, want WARNING", back.Severity)
	}

	if _, err := ParseSeverity("fatal"); err == nil {
		t.Error("ParseSeverity(fatal) should fail")
	}
}

func TestOutcomeEncoding(t *testing.T) {
	failed := Outcome{
		Index:    2,
		URL:      "https://down.example",
		State:    StateFailed,
		FailedIn: StateFetching,
		Err:      errors.New("connection refused"),
	}

	if !failed.Failed() {
		t.Error("Failed() = false, want true")
	}

	data, err := json.Marshal(failed)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	for _, want := range []string{`"error":"connection refused"`, `"failed_in":"FETCHING"`, `"state":"FAILED"`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("JSON %s does not contain %s", data, want)
		}
	}

	out, err := yaml.Marshal(failed)
	if err != nil {
		t.Fatalf("yaml.Marshal: %v", err)
	}
	if !strings.Contains(string(out), "error: connection refused") {
		t.Errorf("YAML missing error message:\n%s", out)
	}

	ok := Outcome{URL: "https://ok.example", State: StateDone, Result: &AnalysisResult{URL: "https://ok.example"}}
	if ok.ErrorMessage() != "" {
		t.Errorf("ErrorMessage() = %q, want empty", ok.ErrorMessage())
	}
}
