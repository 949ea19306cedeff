package analyzer

import (
	"bytes"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// Document is a parsed page ready for the extractors. A Document is never
// nil and never fails to query; unparseable input becomes an empty document.
type Document struct {
	doc    *goquery.Document
	markup string
	url    *url.URL
}

// ParseDocument decodes body according to contentType (or its meta charset)
// and parses it as HTML. pageURL is used to resolve relative references and
// may be nil.
func ParseDocument(body []byte, contentType string, pageURL *url.URL) *Document {
	decoded := body
	if r, err := charset.NewReader(bytes.NewReader(body), contentType); err == nil {
		if b, err := io.ReadAll(r); err == nil {
			decoded = b
		}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(decoded))
	if err != nil {
		doc = goquery.NewDocumentFromNode(&html.Node{Type: html.DocumentNode})
		decoded = nil
	}

	return &Document{doc: doc, markup: string(decoded), url: pageURL}
}

// resolve turns ref into an absolute URL against the page URL.
func (d *Document) resolve(ref string) (*url.URL, bool) {
	parsed, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return nil, false
	}
	if d.url != nil {
		parsed = d.url.ResolveReference(parsed)
	}
	return parsed, true
}

// doctype returns the document's doctype node, if any.
func (d *Document) doctype() *html.Node {
	for _, root := range d.doc.Nodes {
		for n := root.FirstChild; n != nil; n = n.NextSibling {
			if n.Type == html.DoctypeNode {
				return n
			}
		}
	}
	return nil
}

// hasToken reports whether the space-separated attribute value contains tok.
func hasToken(value, tok string) bool {
	for _, f := range strings.Fields(value) {
		if strings.EqualFold(f, tok) {
			return true
		}
	}
	return false
}
