package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ultronhq/ultron/internal/api"
	"github.com/ultronhq/ultron/internal/history"
	"github.com/ultronhq/ultron/internal/insights"
	"github.com/ultronhq/ultron/internal/logger"
	"github.com/ultronhq/ultron/internal/models"
	"github.com/ultronhq/ultron/internal/reporter"
	"github.com/ultronhq/ultron/internal/scanner"
)

const (
	exitOK       = 0
	exitCritical = 1
	exitFailed   = 2
	exitUsage    = 3
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	blue   = color.New(color.FgBlue).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()

	logo = `
 _   _ _   _
| | | | | | |_ _ __ ___  _ __
| | | | | | __| '__/ _ \| '_ \
| |_| | |_| |_| | | (_) | | | |
 \___/|_|\__|_|  \___/|_| |_|
`
)

// exitError carries a process exit code out of a command
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// options holds the parsed command line
type options struct {
	timeout    time.Duration
	workers    int
	userAgent  string
	rps        float64
	insecure   bool
	verbose    bool
	quiet      bool
	noColor    bool
	logLevel   string
	logFormat  string
	historyDB  string
	format     string
	output     string
	noProgress bool
	compare    bool
	record     bool
}

func main() {
	loadEnv()

	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.code)
		}
		fmt.Fprintf(os.Stderr, "%s %v\n", red("ERROR:"), err)
		os.Exit(exitUsage)
	}
}

func loadEnv() {
	if err := godotenv.Load(".env.development"); err != nil {
		// A missing file is fine; the environment is used as is.
		_ = godotenv.Load()
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "ultron [flags] URL...",
		Short: "Static web page analyzer for performance, SEO, security and mobile readiness",
		Long: logo + `
Ultron fetches web pages and reports performance, SEO, security header and
mobile-friendliness findings as prioritized insights.

Examples:
  ultron https://example.com
  ultron analyze -f json https://example.com https://example.org
  ultron batch -w 10 -o reports/run -f html,csv urls.txt
  ultron serve --port 8080
  ultron history https://example.com`,
		Version:       reporter.AppVersion,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return runAnalyze(cmd, opts, args, stdout, stderr)
		},
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	defaults := models.DefaultConfig()
	pf := rootCmd.PersistentFlags()
	pf.DurationVarP(&opts.timeout, "timeout", "t", envDuration("ULTRON_TIMEOUT", defaults.Timeout), "Timeout for each HTTP request")
	pf.IntVarP(&opts.workers, "workers", "w", envInt("ULTRON_WORKERS", defaults.MaxWorkers), "Maximum number of concurrent analyses")
	pf.StringVar(&opts.userAgent, "user-agent", envString("ULTRON_USER_AGENT", defaults.UserAgent), "User agent string")
	pf.Float64Var(&opts.rps, "rps", 0, "Maximum requests per second (0 = unlimited)")
	pf.BoolVar(&opts.insecure, "insecure", false, "Skip TLS certificate verification")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")
	pf.BoolVarP(&opts.quiet, "quiet", "q", false, "Only print the report")
	pf.BoolVarP(&opts.noColor, "no-color", "n", false, "Disable colorized output")
	pf.StringVar(&opts.logFormat, "log-format", "text", "Log format (text, json)")
	pf.StringVar(&opts.historyDB, "history-db", envString("ULTRON_HISTORY_DB", history.DefaultDBName), "Path to the history database")
	opts.logLevel = envString("ULTRON_LOG_LEVEL", "WARN")

	analyzeCmd := &cobra.Command{
		Use:   "analyze URL...",
		Short: "Analyze one or more URLs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, opts, args, stdout, stderr)
		},
	}

	batchCmd := &cobra.Command{
		Use:   "batch FILE",
		Short: "Analyze every URL listed in FILE (one per line, # for comments)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			urls, err := readURLsFromFile(args[0])
			if err != nil {
				return err
			}
			if len(urls) == 0 {
				return fmt.Errorf("no URLs found in %s", args[0])
			}
			return runAnalyze(cmd, opts, urls, stdout, stderr)
		},
	}

	for _, cmd := range []*cobra.Command{rootCmd, analyzeCmd, batchCmd} {
		cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Report format(s): "+strings.Join(reporter.Formats, ", ")+" (comma separated with --output)")
		cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Write reports to files with this path prefix instead of stdout")
		cmd.Flags().BoolVar(&opts.noProgress, "no-progress", false, "Disable progress bar")
		cmd.Flags().BoolVar(&opts.compare, "compare", false, "Compare insights with the previous recorded run")
		cmd.Flags().BoolVar(&opts.record, "record", false, "Record this run in the history database")
	}

	rootCmd.AddCommand(analyzeCmd, batchCmd, newServeCmd(opts, stderr), newHistoryCmd(opts, stdout))
	return rootCmd
}

func newServeCmd(opts *options, stderr io.Writer) *cobra.Command {
	var (
		port         string
		record       bool
		allowPrivate bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the analyzer over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger(opts, stderr)

			cfg := buildConfig(opts)
			cfg.BlockPrivateNetworks = !allowPrivate
			sc, err := scanner.New(cfg, log)
			if err != nil {
				return err
			}
			defer sc.Close()

			var server *api.Server
			if record {
				store, err := history.Open(opts.historyDB)
				if err != nil {
					return err
				}
				defer store.Close()
				server = api.NewServer(sc, store, log)
			} else {
				server = api.NewServer(sc, nil, log)
			}

			active := sc.Config()
			log.Info("analyzer ready",
				"workers", active.MaxWorkers,
				"timeout", active.Timeout,
				"block_private_networks", active.BlockPrivateNetworks)
			setupGinMode()
			return serve(cmd.Context(), ":"+port, server.Router(), log)
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", envString("PORT", "8080"), "Port to listen on")
	cmd.Flags().BoolVar(&record, "record", false, "Record every API run in the history database")
	cmd.Flags().BoolVar(&allowPrivate, "allow-private-networks", false, "Allow API callers to target loopback and private addresses")
	return cmd
}

func setupGinMode() {
	mode := os.Getenv("GIN_MODE")
	if mode == "" {
		mode = gin.ReleaseMode
	}
	gin.SetMode(mode)
}

func serve(ctx context.Context, addr string, handler http.Handler, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newHistoryCmd(opts *options, stdout io.Writer) *cobra.Command {
	var (
		limit  int
		format string
	)
	cmd := &cobra.Command{
		Use:   "history URL",
		Short: "Show recorded runs for URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			applyColor(opts)

			store, err := history.Open(opts.historyDB)
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.List(cmd.Context(), normalizeURL(args[0]), limit)
			if err != nil {
				return err
			}
			return writeHistory(stdout, entries, format)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "l", 10, "Maximum number of runs to show (0 = all)")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format (text, json, yaml)")
	return cmd
}

func writeHistory(w io.Writer, entries []history.Entry, format string) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(entries)
	case "text", "":
	default:
		return fmt.Errorf("unsupported history format %q", format)
	}

	if len(entries) == 0 {
		fmt.Fprintln(w, "No recorded runs")
		return nil
	}
	for _, e := range entries {
		state := green(string(e.State))
		if e.State == models.StateFailed {
			state = red(string(e.State))
		}
		fmt.Fprintf(w, "%s  %s  %-6s status=%d time=%.2fs size=%s critical=%d warning=%d info=%d\n",
			e.RecordedAt.Local().Format("2006-01-02 15:04:05"), cyan(shortID(e.RunID)), state,
			e.StatusCode, e.TotalTime, insights.FormatBytes(e.PageSize), e.Critical, e.Warning, e.Info)
		if e.Error != "" {
			fmt.Fprintf(w, "    %s\n", red(e.Error))
		}
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func runAnalyze(cmd *cobra.Command, opts *options, args []string, stdout, stderr io.Writer) error {
	applyColor(opts)
	log := newLogger(opts, stderr)

	urls := make([]string, len(args))
	for i, arg := range args {
		urls[i] = normalizeURL(arg)
	}

	if opts.output == "" && strings.Contains(opts.format, ",") {
		return errors.New("multiple formats require --output")
	}
	for _, f := range strings.Split(opts.format, ",") {
		if _, err := reporter.NormalizeFormat(f); err != nil {
			return err
		}
	}

	sc, err := scanner.New(buildConfig(opts), log)
	if err != nil {
		return err
	}
	defer sc.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !opts.quiet {
		fmt.Fprintf(stderr, "%s Analyzing %d URL(s) with %d worker(s)\n", blue("INFO:"), len(urls), min(sc.Config().MaxWorkers, len(urls)))
	}

	var bar *progressbar.ProgressBar
	if !opts.quiet && !opts.noProgress && len(urls) > 1 {
		bar = progressbar.NewOptions(len(urls),
			progressbar.OptionSetWriter(stderr),
			progressbar.OptionEnableColorCodes(!opts.noColor),
			progressbar.OptionSetWidth(50),
			progressbar.OptionSetDescription("[cyan]Analyzing pages[reset]"),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "[green]=[reset]",
				SaucerHead:    "[green]>[reset]",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}))
	}

	outcomes, err := sc.AnalyzeBatch(ctx, urls, scanner.WithProgress(func(models.Outcome) {
		if bar != nil {
			_ = bar.Add(1)
		}
	}))
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		return err
	}

	if opts.compare || opts.record {
		if err := handleHistory(ctx, opts, outcomes, stderr); err != nil {
			log.Warn("history unavailable", "path", opts.historyDB, "error", err)
		}
	}

	var repOpts []reporter.Option
	if opts.noColor {
		repOpts = append(repOpts, reporter.WithoutColor())
	}
	rep := reporter.New(outcomes, repOpts...)

	if opts.output != "" {
		files, err := rep.GenerateReport(opts.output, opts.format)
		if err != nil {
			return err
		}
		if !opts.quiet {
			for _, f := range files {
				fmt.Fprintf(stderr, "%s Report written to %s\n", green("SUCCESS:"), f)
			}
		}
	} else if err := rep.Write(stdout, opts.format); err != nil {
		return err
	}

	stats := rep.GetStats()
	if !opts.quiet {
		fmt.Fprintf(stderr, "%s %d analyzed, %d failed, %d critical, %d warning, %d info\n",
			blue("INFO:"), stats.Succeeded, stats.Failed, stats.Critical, stats.Warning, stats.Info)
	}

	if code := exitCode(stats); code != exitOK {
		return &exitError{code: code}
	}
	return nil
}

// handleHistory compares against and then records the run, in that order
func handleHistory(ctx context.Context, opts *options, outcomes []models.Outcome, stderr io.Writer) error {
	store, err := history.Open(opts.historyDB)
	if err != nil {
		return err
	}
	defer store.Close()

	if opts.compare {
		for _, out := range outcomes {
			diff, err := store.Compare(ctx, out)
			if err != nil {
				return err
			}
			if !opts.quiet {
				printDiff(stderr, diff)
			}
		}
	}

	if opts.record {
		runID, err := store.RecordRun(ctx, outcomes)
		if err != nil {
			return err
		}
		if !opts.quiet {
			fmt.Fprintf(stderr, "%s Run recorded as %s\n", green("SUCCESS:"), runID)
		}
	}
	return nil
}

func printDiff(w io.Writer, d history.Diff) {
	switch {
	case d.Unavailable != "":
		fmt.Fprintf(w, "%s %s: comparison unavailable (%s)\n", yellow("COMPARE:"), d.URL, d.Unavailable)
		return
	case d.FirstRun:
		fmt.Fprintf(w, "%s %s: no previous run\n", blue("COMPARE:"), d.URL)
		return
	case !d.Changed():
		fmt.Fprintf(w, "%s %s: unchanged since %s\n", blue("COMPARE:"), d.URL, d.PreviousAt.Local().Format(time.RFC3339))
		return
	}

	fmt.Fprintf(w, "%s %s: changed since %s\n", yellow("COMPARE:"), d.URL, d.PreviousAt.Local().Format(time.RFC3339))
	for _, in := range d.Appeared {
		fmt.Fprintf(w, "  %s %s\n", red("+"), in)
	}
	for _, in := range d.Resolved {
		fmt.Fprintf(w, "  %s %s\n", green("-"), in)
	}
}

// exitCode maps run statistics to the process exit status: failed URLs
// win over critical findings.
func exitCode(stats reporter.Stats) int {
	switch {
	case stats.Failed > 0:
		return exitFailed
	case stats.Critical > 0:
		return exitCritical
	}
	return exitOK
}

func buildConfig(opts *options) *models.Config {
	cfg := models.DefaultConfig()
	cfg.Timeout = opts.timeout
	cfg.MaxWorkers = opts.workers
	cfg.UserAgent = opts.userAgent
	cfg.RequestsPerSecond = opts.rps
	cfg.VerifyTLS = !opts.insecure
	return cfg
}

func newLogger(opts *options, w io.Writer) *slog.Logger {
	level := opts.logLevel
	switch {
	case opts.verbose:
		level = "DEBUG"
	case opts.quiet:
		level = "ERROR"
	}
	return logger.New(level, opts.logFormat, w)
}

func applyColor(opts *options) {
	if opts.noColor {
		color.NoColor = true
	}
}

// normalizeURL adds https:// to bare host names
func normalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.Contains(raw, "://") {
		return raw
	}
	return "https://" + raw
}

func readURLsFromFile(fileName string) ([]string, error) {
	file, err := os.Open(fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to open URL file: %w", err)
	}
	defer file.Close()

	return readURLs(file)
}

// readURLs returns one URL per non-empty line, skipping # comments
func readURLs(r io.Reader) ([]string, error) {
	var urls []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, normalizeURL(line))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("error scanning URL file: %w", err)
	}
	return urls, nil
}

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return def
	}
	return v
}

// envDuration accepts Go durations ("15s") or plain seconds ("15")
func envDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return def
}
