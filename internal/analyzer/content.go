package analyzer

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/ultronhq/ultron/internal/models"
)

// SEOReport bundles the SEO metrics with the image and link lists gathered
// in the same pass.
type SEOReport struct {
	Metrics models.SEOMetrics
	Images  []models.Image
	Links   []models.Link
}

// ExtractSEO reads on-page SEO signals from doc. Missing elements yield
// empty values, never errors.
func ExtractSEO(doc *Document) SEOReport {
	var report SEOReport
	m := &report.Metrics

	m.Title = strings.TrimSpace(doc.doc.Find("title").First().Text())
	m.MetaDescription = metaContent(doc, "description")

	doc.doc.Find("h1").Each(func(_ int, s *goquery.Selection) {
		m.H1Tags = append(m.H1Tags, strings.TrimSpace(s.Text()))
	})

	report.Images = extractImages(doc)
	m.TotalImages = len(report.Images)
	for _, img := range report.Images {
		if !img.HasAlt {
			m.ImagesWithoutAlt++
		}
	}

	report.Links = extractLinks(doc)

	if lang, ok := doc.doc.Find("html").First().Attr("lang"); ok {
		m.HTMLLang = strings.TrimSpace(lang)
	}
	m.Canonical = canonicalURL(doc)
	m.DetectedHTMLVersion = htmlVersion(doc)
	m.WordCount = countWords(doc)

	return report
}

// metaContent returns the content of the first <meta name=...> matching
// name case-insensitively.
func metaContent(doc *Document, name string) string {
	var content string
	doc.doc.Find("meta[name]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if !strings.EqualFold(strings.TrimSpace(s.AttrOr("name", "")), name) {
			return true
		}
		content = strings.TrimSpace(s.AttrOr("content", ""))
		return false
	})
	return content
}

func extractImages(doc *Document) []models.Image {
	var images []models.Image
	doc.doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		img := models.Image{}
		if src := strings.TrimSpace(s.AttrOr("src", "")); src != "" {
			if resolved, ok := doc.resolve(src); ok {
				img.Src = resolved.String()
			} else {
				img.Src = src
			}
		}
		if alt, ok := s.Attr("alt"); ok {
			img.Alt = strings.TrimSpace(alt)
			img.HasAlt = img.Alt != ""
		}
		images = append(images, img)
	})
	return images
}

func extractLinks(doc *Document) []models.Link {
	var links []models.Link
	doc.doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if href == "" || strings.HasPrefix(href, "#") {
			return
		}

		resolved, ok := doc.resolve(href)
		if !ok || (resolved.Scheme != "http" && resolved.Scheme != "https") {
			return
		}

		internal := doc.url != nil && strings.EqualFold(resolved.Host, doc.url.Host)
		links = append(links, models.Link{
			URL:      resolved.String(),
			Text:     strings.Join(strings.Fields(s.Text()), " "),
			Internal: internal,
			NoFollow: hasToken(s.AttrOr("rel", ""), "nofollow"),
		})
	})
	return links
}

func canonicalURL(doc *Document) string {
	var canonical string
	doc.doc.Find("link[rel][href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if !hasToken(s.AttrOr("rel", ""), "canonical") {
			return true
		}
		href := s.AttrOr("href", "")
		if resolved, ok := doc.resolve(href); ok {
			canonical = resolved.String()
		} else {
			canonical = strings.TrimSpace(href)
		}
		return false
	})
	return canonical
}

// htmlVersion classifies the doctype. The parser keeps the public
// identifier in the "public" attribute; HTML5 has none.
func htmlVersion(doc *Document) string {
	dt := doc.doctype()
	if dt == nil {
		return ""
	}

	var public string
	for _, attr := range dt.Attr {
		if attr.Key == "public" {
			public = strings.ToLower(attr.Val)
		}
	}

	switch {
	case public == "":
		return "HTML5"
	case strings.Contains(public, "xhtml 1.1") || strings.Contains(public, "xhtml basic 1.1"):
		return "XHTML 1.1"
	case strings.Contains(public, "xhtml 1.0"):
		return "XHTML 1.0"
	case strings.Contains(public, "html 4.01"):
		return "HTML 4.01"
	default:
		return "Unknown"
	}
}

// countWords counts the words of the main content as found by readability,
// falling back to the whole body text.
func countWords(doc *Document) int {
	if doc.markup != "" && doc.url != nil {
		parser := readability.NewParser()
		article, err := parser.Parse(strings.NewReader(doc.markup), doc.url)
		if err == nil && article.Content != "" {
			if main, err := goquery.NewDocumentFromReader(strings.NewReader(article.Content)); err == nil {
				if n := len(strings.Fields(main.Text())); n > 0 {
					return n
				}
			}
		}
	}
	body := doc.doc.Find("body").Clone()
	body.Find("script, style, noscript").Remove()
	return len(strings.Fields(body.Text()))
}
