package detector

import (
	"regexp"
	"sync"
)

type frameworkPattern struct {
	name    string
	pattern *regexp.Regexp
}

// Pre-compiled regex patterns, checked in declaration order
var (
	frameworkPatterns     []frameworkPattern
	frameworkPatternsOnce sync.Once
)

func initFrameworkPatterns() {
	patterns := []struct{ name, expr string }{
		{"Bootstrap", `(?i)bootstrap(\.bundle)?(\.min)?\.(css|js)|\bcol-(xs|sm|md|lg|xl|xxl)-\d{1,2}\b`},
		{"Tailwind CSS", `(?i)tailwindcss|tailwind(\.min)?\.css|\b(sm|md|lg|xl):(flex|grid|block|hidden|w-)`},
		{"Foundation", `(?i)foundation(\.min)?\.(css|js)|\b(small|medium|large)-\d{1,2}\s+(columns|cell)\b`},
		{"Bulma", `(?i)bulma(\.min)?\.css|\bis-(mobile|tablet|desktop)\b`},
		{"Materialize", `(?i)materialize(\.min)?\.(css|js)`},
		{"UIkit", `(?i)uikit(\.min)?\.(css|js)|\buk-grid\b`},
		{"Pure.css", `(?i)purecss|pure(-min)?\.css|\bpure-u-(sm|md|lg|xl)-`},
		{"Skeleton", `(?i)skeleton(\.min)?\.css`},
	}

	frameworkPatterns = make([]frameworkPattern, 0, len(patterns))
	for _, p := range patterns {
		frameworkPatterns = append(frameworkPatterns, frameworkPattern{
			name:    p.name,
			pattern: regexp.MustCompile(p.expr),
		})
	}
}

// DetectFrameworks identifies responsive CSS frameworks referenced by the
// page markup. Results follow a fixed priority order, so the first entry is
// the most likely primary framework.
func DetectFrameworks(content string) []string {
	frameworkPatternsOnce.Do(initFrameworkPatterns)

	var frameworks []string
	for _, fw := range frameworkPatterns {
		if fw.pattern.MatchString(content) {
			frameworks = append(frameworks, fw.name)
		}
	}
	return frameworks
}

// PrimaryFramework returns the highest-priority framework found, or "".
func PrimaryFramework(content string) string {
	if found := DetectFrameworks(content); len(found) > 0 {
		return found[0]
	}
	return ""
}
