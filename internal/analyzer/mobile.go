package analyzer

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ultronhq/ultron/internal/detector"
	"github.com/ultronhq/ultron/internal/models"
)

// CheckMobile reads static mobile-friendliness signals from doc. Without a
// viewport meta tag the browser default applies, so zooming counts as
// allowed.
func CheckMobile(doc *Document) models.MobileSignals {
	signals := models.MobileSignals{UserScalable: true}

	doc.doc.Find("meta[name]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if !strings.EqualFold(strings.TrimSpace(s.AttrOr("name", "")), "viewport") {
			return true
		}
		signals.ViewportMeta = true
		signals.Viewport = strings.TrimSpace(s.AttrOr("content", ""))
		return false
	})

	if signals.ViewportMeta {
		props := parseViewport(signals.Viewport)
		signals.DeviceWidth = props["width"] == "device-width"
		signals.UserScalable = zoomAllowed(props)
	}

	signals.ResponsiveImages = doc.doc.Find("img[srcset], source[srcset], picture").Length() > 0
	signals.MediaQueries = hasMediaQueries(doc)
	signals.ResponsiveFramework = detector.PrimaryFramework(doc.markup)

	doc.doc.Find("link[rel]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		rel := strings.ToLower(s.AttrOr("rel", ""))
		if strings.Contains(rel, "apple-touch-icon") {
			signals.TouchIcon = true
			return false
		}
		return true
	})

	return signals
}

// parseViewport splits "width=device-width, initial-scale=1" into
// lower-cased key/value pairs. Both ',' and ';' separate entries.
func parseViewport(content string) map[string]string {
	props := make(map[string]string)
	for _, part := range strings.FieldsFunc(content, func(r rune) bool { return r == ',' || r == ';' }) {
		key, value, _ := strings.Cut(part, "=")
		key = strings.ToLower(strings.TrimSpace(key))
		if key == "" {
			continue
		}
		props[key] = strings.ToLower(strings.TrimSpace(value))
	}
	return props
}

func zoomAllowed(props map[string]string) bool {
	switch props["user-scalable"] {
	case "no", "0":
		return false
	}
	if maxScale, ok := props["maximum-scale"]; ok {
		if v, err := strconv.ParseFloat(maxScale, 64); err == nil && v <= 1 {
			return false
		}
	}
	return true
}

func hasMediaQueries(doc *Document) bool {
	found := false
	doc.doc.Find("link[media], source[media]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if strings.Contains(strings.ToLower(s.AttrOr("media", "")), "width") {
			found = true
			return false
		}
		return true
	})
	if found {
		return true
	}

	doc.doc.Find("style").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if strings.Contains(strings.ToLower(s.Text()), "@media") {
			found = true
			return false
		}
		return true
	})
	return found
}
