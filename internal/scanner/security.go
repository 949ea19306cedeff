package scanner

import (
	"context"
	"net/http"
	"strings"

	"github.com/ultronhq/ultron/internal/models"
)

// legacyHeaders maps deprecated header names onto the header they preceded.
var legacyHeaders = map[string]string{
	"feature-policy": models.HeaderPermissionsPolicy,
}

// SecurityHeadersFrom reports which recognized security headers are present
// in h. Names are matched case-insensitively; values are ignored.
func SecurityHeadersFrom(h http.Header) models.SecurityHeaders {
	var result models.SecurityHeaders
	for name := range h {
		if result.Mark(name) {
			continue
		}
		if modern, ok := legacyHeaders[strings.ToLower(name)]; ok {
			result.Mark(modern)
		}
	}
	return result
}

// CheckSecurityHeaders issues a HEAD request for target and reports the
// security headers of the response. A failed request yields the all-absent
// result; the failure is logged, not returned.
func (s *Scanner) CheckSecurityHeaders(ctx context.Context, target string) models.SecurityHeaders {
	resp, err := s.fetcher.Fetch(ctx, target, http.MethodHead)
	if err != nil {
		s.logger.Warn("security header check failed", "url", target, "error", err)
		return models.SecurityHeaders{}
	}
	return SecurityHeadersFrom(resp.Header)
}
