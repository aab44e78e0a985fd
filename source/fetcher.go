// Package source loads the host pages that product lists are rendered into.
package source

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gocolly/colly/v2"
	"golang.org/x/time/rate"

	"github.com/aluiziolira/go-product-cards/config"
	"github.com/aluiziolira/go-product-cards/metrics"
)

// Page is a loaded host page.
type Page struct {
	Ref string
	// Location is the slash separated path the page is served from.
	Location string
	Body     []byte
	Remote   bool
}

// Fetcher loads pages from disk or over HTTP.
type Fetcher struct {
	cfg       *config.Config
	collector *colly.Collector
	metrics   *metrics.Metrics
	limiter   *rate.Limiter // nil when remote requests are unlimited

	fetchCount int64
	retryCount int64
}

// NewFetcher builds a fetcher configured from cfg. m may be nil.
func NewFetcher(cfg *config.Config, m *metrics.Metrics) *Fetcher {
	collector := colly.NewCollector(
		colly.UserAgent(cfg.UserAgent),
		colly.AllowURLRevisit(),
	)

	collector.SetRequestTimeout(cfg.Timeout)
	collector.IgnoreRobotsTxt = !cfg.RespectRobotsTxt
	collector.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	})

	f := &Fetcher{
		cfg:       cfg,
		collector: collector,
		metrics:   m,
	}
	if cfg.RateLimit > 0 {
		f.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}
	f.configureHandlers()
	return f
}

func (f *Fetcher) configureHandlers() {
	f.collector.OnRequest(func(r *colly.Request) {
		r.Ctx.Put("start", time.Now())
	})

	f.collector.OnResponse(func(r *colly.Response) {
		r.Ctx.Put("status", r.StatusCode)
		r.Ctx.Put("body", r.Body)
		if start, ok := r.Ctx.GetAny("start").(time.Time); ok {
			f.metrics.ObserveFetch(time.Since(start))
		}
	})

	f.collector.OnError(func(r *colly.Response, err error) {
		if r == nil || r.Ctx == nil {
			return
		}
		r.Ctx.Put("status", r.StatusCode)
		if start, ok := r.Ctx.GetAny("start").(time.Time); ok {
			f.metrics.ObserveFetch(time.Since(start))
		}
	})
}

// Load reads the page named by ref. http and https references are fetched,
// anything else is read from disk.
func (f *Fetcher) Load(ctx context.Context, ref string) (*Page, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if u, ok := remoteURL(ref); ok {
		return f.fetch(ctx, u)
	}
	return f.readFile(ref)
}

// Stats returns how many page loads and retries were issued.
func (f *Fetcher) Stats() (fetches, retries int) {
	return int(atomic.LoadInt64(&f.fetchCount)), int(atomic.LoadInt64(&f.retryCount))
}

func (f *Fetcher) readFile(path string) (*Page, error) {
	atomic.AddInt64(&f.fetchCount, 1)
	f.metrics.IncFetch("local")

	body, err := os.ReadFile(path)
	if err != nil {
		lerr := ErrLocal{Page: path, Err: err}
		f.metrics.IncError(ErrorType(lerr))
		return nil, lerr
	}

	return &Page{
		Ref:      path,
		Location: FileLocation(path),
		Body:     body,
	}, nil
}

func (f *Fetcher) fetch(ctx context.Context, u *url.URL) (*Page, error) {
	attempt := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if f.limiter != nil {
			if err := f.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		page, err := f.fetchOnce(u)
		if err == nil {
			return page, nil
		}

		category := ErrorType(err)
		f.metrics.IncError(category)
		if !retryable(err) || attempt >= f.cfg.MaxRetries {
			return nil, err
		}

		attempt++
		atomic.AddInt64(&f.retryCount, 1)
		f.metrics.IncRetries()

		delay := f.backoff(attempt)
		slog.Debug("retrying page fetch",
			slog.String("url", u.String()),
			slog.String("category", category),
			slog.Int("attempt", attempt),
			slog.Duration("delay", delay),
		)
		if err := wait(ctx, delay); err != nil {
			return nil, err
		}
	}
}

func (f *Fetcher) fetchOnce(u *url.URL) (*Page, error) {
	atomic.AddInt64(&f.fetchCount, 1)
	f.metrics.IncFetch("remote")

	rawURL := u.String()
	reqCtx := colly.NewContext()
	err := f.collector.Request(http.MethodGet, rawURL, nil, reqCtx, nil)
	status, _ := reqCtx.GetAny("status").(int)

	if classified := classifyError(rawURL, err, status); classified != nil {
		return nil, classified
	}

	body, _ := reqCtx.GetAny("body").([]byte)
	if body == nil {
		return nil, fmt.Errorf("fetch %s: empty response", rawURL)
	}

	return &Page{
		Ref:      rawURL,
		Location: URLLocation(u),
		Body:     body,
		Remote:   true,
	}, nil
}

func (f *Fetcher) backoff(attempt int) time.Duration {
	if attempt <= 0 {
		attempt = 1
	}

	base := f.cfg.RetryBackoff
	if base <= 0 {
		base = 100 * time.Millisecond
	}

	delay := base * time.Duration(1<<(attempt-1))
	if max := f.cfg.RetryBackoffMax; max > 0 && delay > max {
		delay = max
	}
	return delay
}

func wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func remoteURL(ref string) (*url.URL, bool) {
	u, err := url.Parse(ref)
	if err != nil || u.Host == "" {
		return nil, false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return u, true
	default:
		return nil, false
	}
}

// URLLocation returns the path portion of a page URL.
func URLLocation(u *url.URL) string {
	if u.Path == "" {
		return "/"
	}
	return u.Path
}

// FileLocation returns a rooted, slash separated form of a file path.
func FileLocation(path string) string {
	clean := filepath.ToSlash(filepath.Clean(path))
	if !strings.HasPrefix(clean, "/") {
		clean = "/" + clean
	}
	return clean
}
