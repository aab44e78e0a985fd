package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aluiziolira/go-product-cards/config"
	"github.com/aluiziolira/go-product-cards/metrics"
	"github.com/aluiziolira/go-product-cards/models"
	"github.com/aluiziolira/go-product-cards/parser"
	"github.com/aluiziolira/go-product-cards/pipeline"
	"github.com/aluiziolira/go-product-cards/render"
	"github.com/aluiziolira/go-product-cards/source"
)

type flagValues struct {
	productsFile    *string
	productsFormat  *string
	page            *string
	location        *string
	selector        *string
	limit           *int
	output          *string
	report          *string
	reportFormat    *string
	workers         *int
	timeout         *time.Duration
	maxRetries      *int
	retryBackoffMs  *int
	retryBackoffMax *int
	rateLimit       *float64
	respectRobots   *bool
	sanitize        *bool
	cacheSize       *int
	metricsAddr     *string
	verbose         *bool
}

func main() {
	d := config.DefaultConfig()

	configPath := flag.String("config", "", "Optional YAML/JSON/TOML config file")
	fv := flagValues{
		productsFile:    flag.String("products", d.ProductsFile, "Product records file"),
		productsFormat:  flag.String("products-format", d.ProductsFormat, "Product file format: auto, json, jsonl, or csv"),
		page:            flag.String("page", d.Page, "Host page path or http(s) URL"),
		location:        flag.String("location", d.Location, "Location the page is served from (defaults to the page path)"),
		selector:        flag.String("selector", d.Selector, "CSS selector of the product container"),
		limit:           flag.Int("limit", d.Limit, "Maximum cards to render (0 for all)"),
		output:          flag.String("output", d.OutputFile, "Rendered page output path"),
		report:          flag.String("report", d.ReportFile, "Render report path"),
		reportFormat:    flag.String("report-format", d.ReportFormat, "Report format: csv, json, or dual"),
		workers:         flag.Int("workers", d.Workers, "Number of concurrent render workers"),
		timeout:         flag.Duration("timeout", d.Timeout, "Remote page request timeout"),
		maxRetries:      flag.Int("max-retries", d.MaxRetries, "Maximum retry attempts per remote page"),
		retryBackoffMs:  flag.Int("retry-backoff", int(d.RetryBackoff/time.Millisecond), "Initial retry backoff (milliseconds)"),
		retryBackoffMax: flag.Int("retry-backoff-max", int(d.RetryBackoffMax/time.Millisecond), "Maximum retry backoff (milliseconds)"),
		rateLimit:       flag.Float64("rate", d.RateLimit, "Remote page requests per second (0 for unlimited)"),
		respectRobots:   flag.Bool("respect-robots", d.RespectRobotsTxt, "Respect robots.txt directives for remote pages"),
		sanitize:        flag.Bool("sanitize", d.Sanitize, "Sanitize card markup before insertion"),
		cacheSize:       flag.Int("cache-size", d.CacheSize, "Card markup cache entries (0 disables)"),
		metricsAddr:     flag.String("metrics-addr", d.MetricsAddr, "Prometheus metrics listen address (e.g. :9090)"),
		verbose:         flag.Bool("v", d.Verbose, "Enable verbose logging"),
	}

	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	applyFlags(cfg, fv, setFlags())

	logger, level := newLogger(cfg.Verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	products, err := parser.ReadProductsFile(cfg.ProductsFile, cfg.ProductsFormat)
	if err != nil {
		slog.Error("loading products", slog.Any("error", err))
		os.Exit(1)
	}

	jobs := cfg.RenderJobs()
	slog.Info("starting render",
		slog.String("products_file", cfg.ProductsFile),
		slog.Int("products", len(products)),
		slog.Int("jobs", len(jobs)),
		slog.Int("workers", cfg.Workers),
	)

	m := metrics.New()
	renderer, err := newRenderer(cfg)
	if err != nil {
		slog.Error("initialising renderer", slog.Any("error", err))
		os.Exit(1)
	}

	writer, err := createWriter(cfg)
	if err != nil {
		slog.Error("creating writer", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := writer.Close(); err != nil {
			slog.Error("close writer", slog.Any("error", err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received, waiting for in-flight work to finish")
	}()

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		metricsServer = &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		slog.Info("metrics server enabled", slog.String("addr", cfg.MetricsAddr))
	}

	p, err := pipeline.NewPipeline(ctx, products, writer, cfg, pipeline.Deps{
		Loader:   source.NewFetcher(cfg, m),
		Renderer: renderer,
		Metrics:  m,
	})
	if err != nil {
		slog.Error("initialising pipeline", slog.Any("error", err))
		os.Exit(1)
	}
	p.Start(cfg.Workers)
	if cfg.Verbose {
		p.StartMetricsReporting(10 * time.Second)
	}

	for i := range jobs {
		if err := p.Process(&jobs[i]); err != nil {
			slog.Error("queueing job", slog.String("job", jobs[i].Name), slog.Any("error", err))
			break
		}
	}

	if err := p.Close(); err != nil {
		slog.Error("pipeline shutdown failed", slog.Any("error", err))
		os.Exit(1)
	}

	if err := writer.Validate(); err != nil {
		slog.Error("output validation failed", slog.Any("error", err))
		os.Exit(1)
	}

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", slog.Any("error", err))
		}
		cancel()
	}

	printSummary(p.Result(), p.GetMetrics(), cfg)
}

func setFlags() map[string]bool {
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})
	return set
}

// applyFlags copies explicitly set flags over the loaded configuration.
func applyFlags(cfg *config.Config, fv flagValues, set map[string]bool) {
	if set["products"] {
		cfg.ProductsFile = *fv.productsFile
	}
	if set["products-format"] {
		cfg.ProductsFormat = strings.ToLower(*fv.productsFormat)
	}
	if set["page"] {
		cfg.Page = *fv.page
	}
	if set["location"] {
		cfg.Location = *fv.location
	}
	if set["selector"] {
		cfg.Selector = *fv.selector
	}
	if set["limit"] {
		cfg.Limit = *fv.limit
	}
	if set["output"] {
		cfg.OutputFile = *fv.output
	}
	if set["report"] {
		cfg.ReportFile = *fv.report
	}
	if set["report-format"] {
		cfg.ReportFormat = strings.ToLower(*fv.reportFormat)
	}
	if set["workers"] {
		cfg.Workers = *fv.workers
	}
	if set["timeout"] {
		cfg.Timeout = *fv.timeout
	}
	if set["max-retries"] {
		cfg.MaxRetries = *fv.maxRetries
	}
	if set["retry-backoff"] {
		cfg.RetryBackoff = time.Duration(*fv.retryBackoffMs) * time.Millisecond
	}
	if set["retry-backoff-max"] {
		cfg.RetryBackoffMax = time.Duration(*fv.retryBackoffMax) * time.Millisecond
	}
	if set["rate"] {
		cfg.RateLimit = *fv.rateLimit
	}
	if set["respect-robots"] {
		cfg.RespectRobotsTxt = *fv.respectRobots
	}
	if set["sanitize"] {
		cfg.Sanitize = *fv.sanitize
	}
	if set["cache-size"] {
		cfg.CacheSize = *fv.cacheSize
	}
	if set["metrics-addr"] {
		cfg.MetricsAddr = *fv.metricsAddr
	}
	if set["v"] {
		cfg.Verbose = *fv.verbose
	}
}

func newRenderer(cfg *config.Config) (*render.Renderer, error) {
	var opts []render.Option
	if cfg.CacheSize > 0 {
		cache, err := render.NewCardCache(cfg.CacheSize)
		if err != nil {
			return nil, err
		}
		opts = append(opts, render.WithCache(cache))
	}
	if cfg.Sanitize {
		opts = append(opts, render.WithPolicy(render.SanitizePolicy()))
	}
	return render.NewRenderer(opts...), nil
}

func createWriter(cfg *config.Config) (pipeline.OutputWriter, error) {
	if cfg.ReportFormat == "" {
		return pipeline.NewHTMLWriter(), nil
	}
	report, err := pipeline.NewReportWriter(cfg.ReportFormat, cfg.ReportFile)
	if err != nil {
		return nil, err
	}
	return pipeline.NewMultiWriter(pipeline.NewHTMLWriter(), report), nil
}

func printSummary(result *models.BatchResult, snapshot map[string]interface{}, cfg *config.Config) {
	separator := "--------------------------------------------------"
	fmt.Println("\n" + separator)
	fmt.Println("Render complete")

	fmt.Printf("  Jobs:          %d\n", result.JobCount)
	fmt.Printf("  Rendered:      %d\n", result.RenderedCount)
	fmt.Printf("  Cards:         %d\n", result.CardCount)
	if result.MissingCount > 0 {
		fmt.Printf("  No container:  %d\n", result.MissingCount)
	}
	fmt.Printf("  Errors:        %d\n", result.ErrorCount)
	if len(result.FailedJobs) > 0 {
		fmt.Printf("  Failed jobs:   %s\n", strings.Join(result.FailedJobs, ", "))
	}
	if len(result.ErrorsByType) > 0 {
		fmt.Printf("  Error types:   %v\n", result.ErrorsByType)
	}
	if valErrors, ok := snapshot["validation_errors"].(map[string]int); ok && len(valErrors) > 0 {
		fmt.Printf("  Validation:    %v\n", valErrors)
	}
	fmt.Printf("  Page loads:    %d (retries %d)\n", result.FetchCount, result.FetchRetries)
	if cfg.CacheSize > 0 {
		fmt.Printf("  Card cache:    %d hits, %d misses\n", result.CacheHits, result.CacheMisses)
	}
	fmt.Printf("  Duration:      %v\n", result.EndTime.Sub(result.StartTime))
	if cfg.ReportFile != "" {
		fmt.Printf("  Report file:   %s\n", cfg.ReportFile)
	}
	fmt.Println(separator)
}

func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stdout) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
