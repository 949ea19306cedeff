package insights

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ultronhq/ultron/internal/models"
)

// headerPurpose describes what each recognized security header protects against.
var headerPurpose = map[string]string{
	models.HeaderXContentTypeOptions:     "prevents MIME type sniffing",
	models.HeaderXFrameOptions:           "protects against clickjacking",
	models.HeaderStrictTransportSecurity: "enforces HTTPS connections",
	models.HeaderContentSecurityPolicy:   "restricts where scripts and resources load from",
	models.HeaderXXSSProtection:          "enables legacy browser XSS filtering",
	models.HeaderReferrerPolicy:          "controls referrer information leakage",
	models.HeaderPermissionsPolicy:       "limits access to browser features",
}

const maxAltSamples = 3

func insight(sev models.Severity, cat models.Category, format string, args ...any) (models.Insight, bool) {
	return models.Insight{Severity: sev, Category: cat, Message: fmt.Sprintf(format, args...)}, true
}

// DefaultRules returns the standard rule set in evaluation order.
func DefaultRules() []Rule {
	rules := []Rule{
		{Name: "http-status", Check: checkStatus},
		{Name: "load-time", Check: checkLoadTime},
		{Name: "page-size", Check: checkPageSize},
		{Name: "weak-security-headers", Check: checkWeakSecurity},
	}
	for _, name := range models.SecurityHeaderNames {
		rules = append(rules, Rule{Name: "security-header:" + strings.ToLower(name), Check: missingHeader(name)})
	}
	return append(rules,
		Rule{Name: "title", Check: checkTitle},
		Rule{Name: "meta-description", Check: checkDescription},
		Rule{Name: "h1", Check: checkHeadings},
		Rule{Name: "lang", Check: checkLang},
		Rule{Name: "thin-content", Check: checkThinContent},
		Rule{Name: "internal-links", Check: checkInternalLinks},
		Rule{Name: "external-links", Check: checkExternalLinks},
		Rule{Name: "image-alt", Check: checkImageAlt},
		Rule{Name: "viewport", Check: checkViewport},
		Rule{Name: "device-width", Check: checkDeviceWidth},
		Rule{Name: "zoom", Check: checkZoom},
		Rule{Name: "responsive", Check: checkResponsive},
		Rule{Name: "touch-icon", Check: checkTouchIcon},
	)
}

func checkStatus(in Input, _ models.Thresholds) (models.Insight, bool) {
	code := in.Performance.StatusCode
	switch {
	case code >= 400:
		return insight(models.SeverityCritical, models.CategoryPerformance, "Page returned HTTP %d", code)
	case code >= 300 && code < 400:
		return insight(models.SeverityInfo, models.CategoryPerformance, "Page ended on a redirect (HTTP %d)", code)
	}
	return models.Insight{}, false
}

func checkLoadTime(in Input, th models.Thresholds) (models.Insight, bool) {
	t := in.Performance.TotalTime
	switch {
	case t > th.CriticalLoadTime.Seconds():
		return insight(models.SeverityCritical, models.CategoryPerformance,
			"Page load time is very slow: %.2fs (over %s)", t, th.CriticalLoadTime)
	case t > th.SlowLoadTime.Seconds():
		return insight(models.SeverityWarning, models.CategoryPerformance,
			"Page load time is slow: %.2fs (over %s)", t, th.SlowLoadTime)
	}
	return models.Insight{}, false
}

func checkPageSize(in Input, th models.Thresholds) (models.Insight, bool) {
	if in.Performance.PageSize <= th.LargePageSize {
		return models.Insight{}, false
	}
	if in.Performance.Truncated {
		return insight(models.SeverityWarning, models.CategoryPerformance,
			"Large page size: more than %s (download stopped at the size limit)", FormatBytes(in.Performance.PageSize))
	}
	return insight(models.SeverityWarning, models.CategoryPerformance,
		"Large page size: %s (over %s)", FormatBytes(in.Performance.PageSize), FormatBytes(th.LargePageSize))
}

func checkWeakSecurity(in Input, th models.Thresholds) (models.Insight, bool) {
	missing := len(in.Security.Missing())
	if missing < th.WeakSecurityMissing {
		return models.Insight{}, false
	}
	return insight(models.SeverityWarning, models.CategorySecurity,
		"Weak security headers: %d of %d recommended headers missing", missing, len(models.SecurityHeaderNames))
}

func missingHeader(name string) func(Input, models.Thresholds) (models.Insight, bool) {
	return func(in Input, _ models.Thresholds) (models.Insight, bool) {
		if in.Security.Has(name) {
			return models.Insight{}, false
		}
		return insight(models.SeverityWarning, models.CategorySecurity,
			"Missing security header: %s (%s)", name, headerPurpose[name])
	}
}

func checkTitle(in Input, th models.Thresholds) (models.Insight, bool) {
	title := in.SEO.Title
	if title == "" {
		return insight(models.SeverityWarning, models.CategorySEO, "Missing page title")
	}
	n := utf8.RuneCountInString(title)
	if n < th.TitleMinLength || n > th.TitleMaxLength {
		return insight(models.SeverityInfo, models.CategorySEO,
			"Page title is %d characters (recommended %d-%d)", n, th.TitleMinLength, th.TitleMaxLength)
	}
	return models.Insight{}, false
}

func checkDescription(in Input, th models.Thresholds) (models.Insight, bool) {
	desc := in.SEO.MetaDescription
	if desc == "" {
		return insight(models.SeverityWarning, models.CategorySEO, "Missing meta description")
	}
	n := utf8.RuneCountInString(desc)
	if n < th.DescriptionMinLength || n > th.DescriptionMaxLength {
		return insight(models.SeverityInfo, models.CategorySEO,
			"Meta description is %d characters (recommended %d-%d)", n, th.DescriptionMinLength, th.DescriptionMaxLength)
	}
	return models.Insight{}, false
}

func checkHeadings(in Input, _ models.Thresholds) (models.Insight, bool) {
	switch n := len(in.SEO.H1Tags); {
	case n == 0:
		return insight(models.SeverityWarning, models.CategorySEO, "No H1 heading found")
	case n > 1:
		return insight(models.SeverityInfo, models.CategorySEO, "Multiple H1 headings found (%d)", n)
	}
	return models.Insight{}, false
}

func checkLang(in Input, _ models.Thresholds) (models.Insight, bool) {
	if in.SEO.HTMLLang != "" {
		return models.Insight{}, false
	}
	return insight(models.SeverityInfo, models.CategorySEO, "Missing lang attribute on the html element")
}

func checkThinContent(in Input, th models.Thresholds) (models.Insight, bool) {
	if in.SEO.WordCount >= th.ThinContentWords {
		return models.Insight{}, false
	}
	return insight(models.SeverityInfo, models.CategorySEO,
		"Thin content: %d words (recommended at least %d)", in.SEO.WordCount, th.ThinContentWords)
}

func checkInternalLinks(in Input, _ models.Thresholds) (models.Insight, bool) {
	if len(in.Links) == 0 {
		return models.Insight{}, false
	}
	for _, l := range in.Links {
		if l.Internal {
			return models.Insight{}, false
		}
	}
	return insight(models.SeverityInfo, models.CategorySEO, "No internal links found")
}

func checkExternalLinks(in Input, th models.Thresholds) (models.Insight, bool) {
	external := 0
	for _, l := range in.Links {
		if !l.Internal {
			external++
		}
	}
	if external <= th.MaxExternalLinks {
		return models.Insight{}, false
	}
	return insight(models.SeverityInfo, models.CategorySEO,
		"Too many external links: %d (over %d)", external, th.MaxExternalLinks)
}

func checkImageAlt(in Input, _ models.Thresholds) (models.Insight, bool) {
	missing := in.SEO.ImagesWithoutAlt
	if missing <= 0 {
		return models.Insight{}, false
	}

	total := max(in.SEO.TotalImages, len(in.Images))
	var msg string
	switch {
	case total < missing:
		msg = fmt.Sprintf("%d images are missing alt text", missing)
	case float64(missing)/float64(total) > 0.5:
		msg = fmt.Sprintf("Most images are missing alt text (%d of %d)", missing, total)
	default:
		msg = fmt.Sprintf("%d of %d images are missing alt text", missing, total)
	}

	var samples []string
	for _, img := range in.Images {
		if len(samples) == maxAltSamples {
			break
		}
		if !img.HasAlt && img.Src != "" {
			samples = append(samples, img.Src)
		}
	}
	if len(samples) > 0 {
		msg += ", e.g. " + strings.Join(samples, ", ")
	}
	return models.Insight{Severity: models.SeverityWarning, Category: models.CategoryAccessibility, Message: msg}, true
}

func checkViewport(in Input, _ models.Thresholds) (models.Insight, bool) {
	if in.Mobile.ViewportMeta {
		return models.Insight{}, false
	}
	return insight(models.SeverityWarning, models.CategoryMobile, "Missing viewport meta tag")
}

func checkDeviceWidth(in Input, _ models.Thresholds) (models.Insight, bool) {
	if !in.Mobile.ViewportMeta || in.Mobile.DeviceWidth {
		return models.Insight{}, false
	}
	return insight(models.SeverityWarning, models.CategoryMobile, "Viewport meta tag does not set width=device-width")
}

func checkZoom(in Input, _ models.Thresholds) (models.Insight, bool) {
	if !in.Mobile.ViewportMeta || in.Mobile.UserScalable {
		return models.Insight{}, false
	}
	return insight(models.SeverityInfo, models.CategoryMobile, "Viewport disables zooming")
}

func checkResponsive(in Input, _ models.Thresholds) (models.Insight, bool) {
	m := in.Mobile
	if m.ResponsiveImages || m.MediaQueries || m.ResponsiveFramework != "" {
		return models.Insight{}, false
	}
	return insight(models.SeverityInfo, models.CategoryMobile, "No responsive design signals found")
}

func checkTouchIcon(in Input, _ models.Thresholds) (models.Insight, bool) {
	if in.Mobile.TouchIcon {
		return models.Insight{}, false
	}
	return insight(models.SeverityInfo, models.CategoryMobile, "Missing apple-touch-icon")
}

// FormatBytes renders a byte count using binary units, e.g. "2.0 MB".
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
