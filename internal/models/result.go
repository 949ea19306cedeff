package models

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

// FetchResult is the raw outcome of a single HTTP round trip
type FetchResult struct {
	URL         string
	FinalURL    string
	Method      string
	StatusCode  int
	Header      http.Header
	Body        []byte
	Elapsed     time.Duration
	ContentType string
	// Truncated is set when the body was cut at the configured size limit.
	Truncated bool
}

// PerformanceMetrics contains the timing and size of a page fetch
type PerformanceMetrics struct {
	TotalTime  float64 `json:"total_time" yaml:"total_time"`
	PageSize   int64   `json:"page_size" yaml:"page_size"`
	StatusCode int     `json:"status_code" yaml:"status_code"`
	Truncated  bool    `json:"truncated,omitempty" yaml:"truncated,omitempty"`
}

// SEOMetrics contains on-page SEO signals
type SEOMetrics struct {
	Title               string   `json:"title" yaml:"title"`
	MetaDescription     string   `json:"meta_description" yaml:"meta_description"`
	H1Tags              []string `json:"h1_tags" yaml:"h1_tags"`
	ImagesWithoutAlt    int      `json:"images_without_alt" yaml:"images_without_alt"`
	TotalImages         int      `json:"total_images" yaml:"total_images"`
	HTMLLang            string   `json:"html_lang,omitempty" yaml:"html_lang,omitempty"`
	Canonical           string   `json:"canonical,omitempty" yaml:"canonical,omitempty"`
	WordCount           int      `json:"word_count" yaml:"word_count"`
	DetectedHTMLVersion string   `json:"html_version,omitempty" yaml:"html_version,omitempty"`
}

// Recognized security header names, in report order.
const (
	HeaderXContentTypeOptions     = "X-Content-Type-Options"
	HeaderXFrameOptions           = "X-Frame-Options"
	HeaderStrictTransportSecurity = "Strict-Transport-Security"
	HeaderContentSecurityPolicy   = "Content-Security-Policy"
	HeaderXXSSProtection          = "X-XSS-Protection"
	HeaderReferrerPolicy          = "Referrer-Policy"
	HeaderPermissionsPolicy       = "Permissions-Policy"
)

// SecurityHeaderNames lists every recognized security header
var SecurityHeaderNames = []string{
	HeaderXContentTypeOptions,
	HeaderXFrameOptions,
	HeaderStrictTransportSecurity,
	HeaderContentSecurityPolicy,
	HeaderXXSSProtection,
	HeaderReferrerPolicy,
	HeaderPermissionsPolicy,
}

// SecurityHeaders records which recognized security headers a response carried
type SecurityHeaders struct {
	XContentTypeOptions     bool `json:"X-Content-Type-Options" yaml:"X-Content-Type-Options"`
	XFrameOptions           bool `json:"X-Frame-Options" yaml:"X-Frame-Options"`
	StrictTransportSecurity bool `json:"Strict-Transport-Security" yaml:"Strict-Transport-Security"`
	ContentSecurityPolicy   bool `json:"Content-Security-Policy" yaml:"Content-Security-Policy"`
	XXSSProtection          bool `json:"X-XSS-Protection" yaml:"X-XSS-Protection"`
	ReferrerPolicy          bool `json:"Referrer-Policy" yaml:"Referrer-Policy"`
	PermissionsPolicy       bool `json:"Permissions-Policy" yaml:"Permissions-Policy"`
}

// HeaderEntry is one row of a security header report
type HeaderEntry struct {
	Name    string
	Present bool
}

func (s *SecurityHeaders) field(name string) *bool {
	switch strings.ToLower(name) {
	case "x-content-type-options":
		return &s.XContentTypeOptions
	case "x-frame-options":
		return &s.XFrameOptions
	case "strict-transport-security":
		return &s.StrictTransportSecurity
	case "content-security-policy":
		return &s.ContentSecurityPolicy
	case "x-xss-protection":
		return &s.XXSSProtection
	case "referrer-policy":
		return &s.ReferrerPolicy
	case "permissions-policy":
		return &s.PermissionsPolicy
	}
	return nil
}

// Mark flags the named header as present. It reports false for unrecognized names.
func (s *SecurityHeaders) Mark(name string) bool {
	f := s.field(name)
	if f == nil {
		return false
	}
	*f = true
	return true
}

// Has reports whether the named header was present
func (s SecurityHeaders) Has(name string) bool {
	f := s.field(name)
	return f != nil && *f
}

// Entries returns every recognized header with its presence, in report order
func (s SecurityHeaders) Entries() []HeaderEntry {
	entries := make([]HeaderEntry, 0, len(SecurityHeaderNames))
	for _, name := range SecurityHeaderNames {
		entries = append(entries, HeaderEntry{Name: name, Present: s.Has(name)})
	}
	return entries
}

// Missing returns the names of the absent headers, in report order
func (s SecurityHeaders) Missing() []string {
	var missing []string
	for _, e := range s.Entries() {
		if !e.Present {
			missing = append(missing, e.Name)
		}
	}
	return missing
}

// MobileSignals contains static mobile-friendliness signals of a page
type MobileSignals struct {
	ViewportMeta        bool   `json:"viewport_meta" yaml:"viewport_meta"`
	Viewport            string `json:"viewport,omitempty" yaml:"viewport,omitempty"`
	DeviceWidth         bool   `json:"device_width" yaml:"device_width"`
	UserScalable        bool   `json:"user_scalable" yaml:"user_scalable"`
	ResponsiveImages    bool   `json:"responsive_images" yaml:"responsive_images"`
	MediaQueries        bool   `json:"media_queries" yaml:"media_queries"`
	ResponsiveFramework string `json:"responsive_framework,omitempty" yaml:"responsive_framework,omitempty"`
	TouchIcon           bool   `json:"touch_icon" yaml:"touch_icon"`
}

// Image is an <img> element found on the page
type Image struct {
	Src    string `json:"src" yaml:"src"`
	Alt    string `json:"alt,omitempty" yaml:"alt,omitempty"`
	HasAlt bool   `json:"has_alt" yaml:"has_alt"`
}

// Link is an outgoing http(s) anchor found on the page
type Link struct {
	URL      string `json:"url" yaml:"url"`
	Text     string `json:"text,omitempty" yaml:"text,omitempty"`
	Internal bool   `json:"internal" yaml:"internal"`
	NoFollow bool   `json:"nofollow" yaml:"nofollow"`
}

// AnalysisResult contains the complete analysis of one page
type AnalysisResult struct {
	URL         string             `json:"url" yaml:"url"`
	FetchedAt   time.Time          `json:"fetched_at" yaml:"fetched_at"`
	Performance PerformanceMetrics `json:"performance" yaml:"performance"`
	SEO         SEOMetrics         `json:"seo" yaml:"seo"`
	Security    SecurityHeaders    `json:"security_headers" yaml:"security_headers"`
	Mobile      MobileSignals      `json:"mobile" yaml:"mobile"`
	Images      []Image            `json:"images" yaml:"images"`
	Links       []Link             `json:"links" yaml:"links"`
	Insights    []Insight          `json:"insights" yaml:"insights"`
}

// State is the lifecycle stage of one analysis
type State string

const (
	StatePending      State = "PENDING"
	StateFetching     State = "FETCHING"
	StateExtracting   State = "EXTRACTING"
	StateSynthesizing State = "SYNTHESIZING"
	StateDone         State = "DONE"
	StateFailed       State = "FAILED"
)

// Outcome is the per-URL result of a batch: a success bundle or a failure marker
type Outcome struct {
	Index    int
	URL      string
	State    State
	FailedIn State
	Result   *AnalysisResult
	Err      error
}

// Failed reports whether the analysis did not complete
func (o Outcome) Failed() bool {
	return o.State == StateFailed
}

// ErrorMessage returns the failure text, or "" for a successful outcome
func (o Outcome) ErrorMessage() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}

type outcomeView struct {
	Index    int             `json:"index" yaml:"index"`
	URL      string          `json:"url" yaml:"url"`
	State    State           `json:"state" yaml:"state"`
	FailedIn State           `json:"failed_in,omitempty" yaml:"failed_in,omitempty"`
	Error    string          `json:"error,omitempty" yaml:"error,omitempty"`
	Result   *AnalysisResult `json:"result,omitempty" yaml:"result,omitempty"`
}

func (o Outcome) view() outcomeView {
	return outcomeView{
		Index:    o.Index,
		URL:      o.URL,
		State:    o.State,
		FailedIn: o.FailedIn,
		Error:    o.ErrorMessage(),
		Result:   o.Result,
	}
}

// MarshalJSON encodes the error as its message
func (o Outcome) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.view())
}

// MarshalYAML encodes the error as its message
func (o Outcome) MarshalYAML() (interface{}, error) {
	return o.view(), nil
}
