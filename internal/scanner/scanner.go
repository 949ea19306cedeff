package scanner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ultronhq/ultron/internal/analyzer"
	"github.com/ultronhq/ultron/internal/errs"
	"github.com/ultronhq/ultron/internal/insights"
	"github.com/ultronhq/ultron/internal/models"
)

// Scanner runs page analyses. One Scanner owns one pooled HTTP client and
// may be shared by any number of goroutines.
type Scanner struct {
	config  *models.Config
	fetcher *Fetcher
	logger  *slog.Logger
}

// New creates a new Scanner instance
func New(config *models.Config, logger *slog.Logger) (*Scanner, error) {
	if config == nil {
		return nil, errs.New(errs.InvalidInput, "invalid configuration", errors.New("config is nil"))
	}
	if err := config.Validate(); err != nil {
		return nil, errs.New(errs.InvalidInput, "invalid configuration", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	cfg := config.Clone()
	return &Scanner{
		config:  cfg,
		fetcher: NewFetcher(cfg),
		logger:  logger,
	}, nil
}

// Close releases idle pooled connections
func (s *Scanner) Close() {
	s.fetcher.CloseIdleConnections()
}

// Config returns a copy of the scanner's configuration
func (s *Scanner) Config() *models.Config {
	return s.config.Clone()
}

// ValidateURL checks that target is an absolute http(s) URL with a host
func ValidateURL(target string) error {
	if strings.TrimSpace(target) == "" {
		return errs.New(errs.InvalidInput, "URL is required", nil)
	}

	parsed, err := url.Parse(target)
	if err != nil {
		return errs.New(errs.InvalidInput, "URL is malformed", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return errs.New(errs.InvalidInput, fmt.Sprintf("URL scheme must be http or https, got %q", parsed.Scheme), nil)
	}
	if parsed.Host == "" {
		return errs.New(errs.InvalidInput, "URL must include a host", nil)
	}
	return nil
}

// Analyze runs the full pipeline for a single URL
func (s *Scanner) Analyze(ctx context.Context, target string) (*models.AnalysisResult, error) {
	if err := ValidateURL(target); err != nil {
		return nil, err
	}

	out := s.analyze(ctx, 0, target)
	if out.Err != nil {
		return nil, out.Err
	}
	return out.Result, nil
}

// BatchOption customizes AnalyzeBatch
type BatchOption func(*batchOptions)

type batchOptions struct {
	progress func(models.Outcome)
}

// WithProgress registers a callback invoked once per finished URL.
// Calls are serialized; the callback must not block for long.
func WithProgress(fn func(models.Outcome)) BatchOption {
	return func(o *batchOptions) {
		o.progress = fn
	}
}

type job struct {
	index int
	url   string
}

// AnalyzeBatch analyzes every URL with a bounded worker pool. The returned
// slice has one Outcome per input, in input order. An error is returned only
// when an input URL is malformed, before any request is made.
func (s *Scanner) AnalyzeBatch(ctx context.Context, targets []string, opts ...BatchOption) ([]models.Outcome, error) {
	var o batchOptions
	for _, opt := range opts {
		opt(&o)
	}

	for i, target := range targets {
		if err := ValidateURL(target); err != nil {
			return nil, fmt.Errorf("url %d (%q): %w", i, target, err)
		}
	}

	results := make([]models.Outcome, len(targets))
	if len(targets) == 0 {
		return results, nil
	}

	numWorkers := min(s.config.MaxWorkers, len(targets))
	workCh := make(chan job, len(targets))
	resultCh := make(chan models.Outcome, len(targets))

	s.logger.Info("batch started", "urls", len(targets), "workers", numWorkers)
	start := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for j := range workCh {
				resultCh <- s.analyze(ctx, j.index, j.url)
			}
		}(i)
	}

	for i, target := range targets {
		workCh <- job{index: i, url: target}
	}
	close(workCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	failed := 0
	for out := range resultCh {
		results[out.Index] = out
		if out.Failed() {
			failed++
		}
		if o.progress != nil {
			o.progress(out)
		}
	}

	s.logger.Info("batch finished", "urls", len(targets), "failed", failed, "elapsed", time.Since(start))
	return results, nil
}

// analyze drives one URL through the state machine. It never panics and
// always returns an Outcome in a terminal state.
func (s *Scanner) analyze(ctx context.Context, index int, target string) (out models.Outcome) {
	log := s.logger.With("url", target, "index", index)
	out = models.Outcome{Index: index, URL: target, State: models.StatePending}

	advance := func(state models.State) {
		out.State = state
		log.Debug("state change", "state", state)
	}
	fail := func(err error) models.Outcome {
		out.FailedIn = out.State
		out.State = models.StateFailed
		out.Err = err
		out.Result = nil
		log.Warn("analysis failed", "state", out.FailedIn, "error", err)
		return out
	}

	defer func() {
		if r := recover(); r != nil {
			out = fail(errs.New(errs.ParsingFailed, "analysis aborted", fmt.Errorf("panic: %v", r)))
		}
	}()

	advance(models.StateFetching)
	fetchedAt := time.Now().UTC()

	var (
		page     *models.FetchResult
		security models.SecurityHeaders
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(recovered(func() error {
		var err error
		page, err = s.fetcher.Fetch(gctx, target, http.MethodGet)
		return err
	}))
	g.Go(recovered(func() error {
		security = s.CheckSecurityHeaders(gctx, target)
		return nil
	}))
	if err := g.Wait(); err != nil {
		return fail(classifyFetchError(err))
	}

	advance(models.StateExtracting)
	pageURL, err := url.Parse(page.FinalURL)
	if err != nil {
		pageURL, _ = url.Parse(target)
	}
	doc := analyzer.ParseDocument(page.Body, page.ContentType, pageURL)
	performance := analyzer.ExtractPerformance(*page)
	seo := analyzer.ExtractSEO(doc)
	mobile := analyzer.CheckMobile(doc)

	advance(models.StateSynthesizing)
	found := insights.Generate(insights.Input{
		Performance: performance,
		Security:    security,
		SEO:         seo.Metrics,
		Images:      seo.Images,
		Links:       seo.Links,
		Mobile:      mobile,
	}, s.config.Thresholds)

	out.Result = &models.AnalysisResult{
		URL:         target,
		FetchedAt:   fetchedAt,
		Performance: performance,
		SEO:         seo.Metrics,
		Security:    security,
		Mobile:      mobile,
		Images:      seo.Images,
		Links:       seo.Links,
		Insights:    found,
	}
	advance(models.StateDone)

	log.Info("analysis complete",
		"status_code", performance.StatusCode,
		"elapsed", page.Elapsed,
		"page_size", performance.PageSize,
		"insights", len(found))
	return out
}

var errPanic = errors.New("panic during fetch")

// recovered turns a panic in fn into an error, since a recover in the
// calling goroutine cannot see panics raised inside errgroup goroutines.
func recovered(fn func() error) func() error {
	return func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%w: %v", errPanic, r)
			}
		}()
		return fn()
	}
}

func classifyFetchError(err error) error {
	if errors.Is(err, errPanic) {
		return errs.New(errs.Unknown, "analysis aborted", err)
	}
	if errors.Is(err, errBlockedAddress) {
		return errs.New(errs.InvalidInput, "target address is not allowed", err)
	}
	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		if fetchErr.Timeout() {
			return errs.New(errs.Timeout, "target took too long to respond", fetchErr)
		}
		return errs.New(errs.Unreachable, "could not reach target", fetchErr)
	}
	return errs.New(errs.Unknown, "fetch failed", err)
}
