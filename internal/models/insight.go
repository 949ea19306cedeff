package models

import (
	"fmt"
	"strings"
)

// Severity ranks an insight. Higher values are more severe.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityWarning:
		return "WARNING"
	case SeverityCritical:
		return "CRITICAL"
	}
	return fmt.Sprintf("Severity(%d)", int(s))
}

// ParseSeverity converts a severity name back into a Severity
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "INFO":
		return SeverityInfo, nil
	case "WARNING":
		return SeverityWarning, nil
	case "CRITICAL":
		return SeverityCritical, nil
	}
	return SeverityInfo, fmt.Errorf("unknown severity %q", s)
}

func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Severity) UnmarshalText(text []byte) error {
	v, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Category groups insights by the dimension they concern
type Category string

const (
	CategoryPerformance   Category = "performance"
	CategorySEO           Category = "seo"
	CategorySecurity      Category = "security"
	CategoryMobile        Category = "mobile"
	CategoryAccessibility Category = "accessibility"
)

// Insight is a single human-readable finding. Rule names the check that
// produced it and stays stable when the measured values in Message change.
type Insight struct {
	Rule     string   `json:"rule,omitempty" yaml:"rule,omitempty"`
	Severity Severity `json:"severity" yaml:"severity"`
	Category Category `json:"category" yaml:"category"`
	Message  string   `json:"message" yaml:"message"`
}

// Key identifies the finding across runs: the rule and severity when the
// rule is known, the rendered text otherwise.
func (i Insight) Key() string {
	if i.Rule == "" {
		return i.String()
	}
	return i.Rule + "/" + i.Severity.String()
}

// String renders the insight with its severity marker, e.g. "CRITICAL: ..."
func (i Insight) String() string {
	return i.Severity.String() + ": " + i.Message
}
