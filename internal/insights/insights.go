// Package insights turns extracted page metrics into ranked, human-readable
// findings.
package insights

import (
	"sort"

	"github.com/ultronhq/ultron/internal/models"
)

// Input is everything the rules may look at for one page.
type Input struct {
	Performance models.PerformanceMetrics
	Security    models.SecurityHeaders
	SEO         models.SEOMetrics
	Images      []models.Image
	Links       []models.Link
	Mobile      models.MobileSignals
}

// Rule is one independent check. Check returns ok=false when the rule has
// nothing to report.
type Rule struct {
	Name  string
	Check func(in Input, th models.Thresholds) (models.Insight, bool)
}

// Generate evaluates DefaultRules against in.
func Generate(in Input, th models.Thresholds) []models.Insight {
	return Evaluate(DefaultRules(), in, th)
}

// Evaluate runs rules in order, tags each finding with its rule name, drops
// findings whose rendered text was already produced, and orders the rest by
// severity (most severe first). Findings of equal severity keep rule order.
func Evaluate(rules []Rule, in Input, th models.Thresholds) []models.Insight {
	found := make([]models.Insight, 0, len(rules))
	seen := make(map[string]struct{}, len(rules))

	for _, rule := range rules {
		insight, ok := rule.Check(in, th)
		if !ok {
			continue
		}
		insight.Rule = rule.Name
		key := insight.String()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		found = append(found, insight)
	}

	sort.SliceStable(found, func(i, j int) bool {
		return found[i].Severity > found[j].Severity
	})
	return found
}

// Count returns how many insights have the given severity.
func Count(list []models.Insight, severity models.Severity) int {
	n := 0
	for _, in := range list {
		if in.Severity == severity {
			n++
		}
	}
	return n
}
