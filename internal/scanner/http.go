package scanner

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptrace"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/ultronhq/ultron/internal/models"
)

var errBlockedRedirect = errors.New("redirect to non-http(s) scheme blocked")

// FetchError reports a network-level failure: DNS, refused connection,
// TLS handshake, timeout or an unreadable body.
type FetchError struct {
	URL    string
	Method string
	Cause  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Cause)
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

// Timeout reports whether the failure was caused by a deadline.
func (e *FetchError) Timeout() bool {
	if errors.Is(e.Cause, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.Cause, &netErr) && netErr.Timeout()
}

// Fetcher performs single HTTP round trips through one pooled client.
// It is safe for concurrent use.
type Fetcher struct {
	client    *http.Client
	userAgent string
	maxBody   int64
	limiter   *rate.Limiter
}

// NewFetcher builds the pooled client described by config
func NewFetcher(config *models.Config) *Fetcher {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: !config.VerifyTLS,
		},
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: config.Timeout,
		ForceAttemptHTTP2:   true,
	}

	if config.BlockPrivateNetworks {
		// A proxy would be dialed instead of the target and defeat the check.
		transport.Proxy = nil
		transport.DialContext = publicOnlyDialer(config.Timeout).DialContext
	}

	maxRedirects := config.MaxRedirects
	client := &http.Client{
		Timeout:   config.Timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if req.URL.Scheme != "http" && req.URL.Scheme != "https" {
				return fmt.Errorf("%w: %s", errBlockedRedirect, req.URL.Scheme)
			}
			if len(via) >= maxRedirects {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}

	f := &Fetcher{
		client:    client,
		userAgent: config.UserAgent,
		maxBody:   config.MaxBodyBytes,
	}
	if config.RequestsPerSecond > 0 {
		burst := int(config.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		f.limiter = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), burst)
	}
	return f
}

// roundTripTiming records transport events of one logical request,
// redirect hops included.
type roundTripTiming struct {
	mu        sync.Mutex
	start     time.Time
	firstByte time.Time
}

func (t *roundTripTiming) trace() *httptrace.ClientTrace {
	return &httptrace.ClientTrace{
		GetConn: func(string) {
			t.mu.Lock()
			if t.start.IsZero() {
				t.start = time.Now()
			}
			t.mu.Unlock()
		},
		GotFirstResponseByte: func() {
			t.mu.Lock()
			t.firstByte = time.Now()
			t.mu.Unlock()
		},
	}
}

func (t *roundTripTiming) elapsed() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.start.IsZero() || t.firstByte.Before(t.start) {
		return 0
	}
	return t.firstByte.Sub(t.start)
}

// Fetch issues exactly one request (following redirects) and reads at most
// MaxBodyBytes of the body. Any non-nil error is a *FetchError. HTTP error
// statuses are returned as results, not errors.
func (f *Fetcher) Fetch(ctx context.Context, targetURL, method string) (*models.FetchResult, error) {
	fail := func(err error) (*models.FetchResult, error) {
		return nil, &FetchError{URL: targetURL, Method: method, Cause: err}
	}

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return fail(fmt.Errorf("rate limiter: %w", err))
		}
	}

	timing := &roundTripTiming{}
	req, err := http.NewRequestWithContext(httptrace.WithClientTrace(ctx, timing.trace()), method, targetURL, nil)
	if err != nil {
		return fail(fmt.Errorf("error creating request: %w", err))
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return fail(err)
	}
	defer resp.Body.Close()

	// One byte past the limit tells a body that fits from one that was cut.
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody+1))
	if err != nil {
		return fail(fmt.Errorf("error reading body: %w", err))
	}
	truncated := int64(len(body)) > f.maxBody
	if truncated {
		body = body[:f.maxBody]
	}

	return &models.FetchResult{
		URL:         targetURL,
		FinalURL:    resp.Request.URL.String(),
		Method:      method,
		StatusCode:  resp.StatusCode,
		Header:      resp.Header,
		Body:        body,
		Elapsed:     timing.elapsed(),
		ContentType: resp.Header.Get("Content-Type"),
		Truncated:   truncated,
	}, nil
}

// CloseIdleConnections releases pooled connections that are not in use
func (f *Fetcher) CloseIdleConnections() {
	f.client.CloseIdleConnections()
}
