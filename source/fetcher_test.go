package source

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"

	"github.com/aluiziolira/go-product-cards/config"
	"github.com/aluiziolira/go-product-cards/metrics"
)

const catalogPage = `<!DOCTYPE html><html><body><ul id="grid"></ul></body></html>`

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.MaxRetries = 2
	cfg.RetryBackoff = time.Millisecond
	cfg.RetryBackoffMax = 2 * time.Millisecond
	return cfg
}

func htmlResponse(status int, body string) *http.Response {
	resp := httpmock.NewStringResponse(status, body)
	resp.Header.Set("Content-Type", "text/html")
	return resp
}

func TestFetcherLoadRemote(t *testing.T) {
	f := NewFetcher(testConfig(), metrics.New())

	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", "http://shop.test/pages/catalog.html", httpmock.ResponderFromResponse(htmlResponse(200, catalogPage)))
	f.collector.WithTransport(transport)

	page, err := f.Load(context.Background(), "http://shop.test/pages/catalog.html")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !page.Remote {
		t.Fatalf("page should be marked remote")
	}
	if page.Location != "/pages/catalog.html" {
		t.Fatalf("location = %q, want /pages/catalog.html", page.Location)
	}
	if string(page.Body) != catalogPage {
		t.Fatalf("body = %q", page.Body)
	}

	fetches, retries := f.Stats()
	if fetches != 1 || retries != 0 {
		t.Fatalf("stats = %d/%d, want 1/0", fetches, retries)
	}
}

func TestFetcherRetriesServerErrors(t *testing.T) {
	f := NewFetcher(testConfig(), metrics.New())

	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", "http://shop.test/", httpmock.ResponderFromMultipleResponses([]*http.Response{
		htmlResponse(http.StatusServiceUnavailable, "busy"),
		htmlResponse(http.StatusOK, catalogPage),
	}))
	f.collector.WithTransport(transport)

	page, err := f.Load(context.Background(), "http://shop.test/")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if page.Location != "/" {
		t.Fatalf("location = %q, want /", page.Location)
	}

	fetches, retries := f.Stats()
	if fetches != 2 || retries != 1 {
		t.Fatalf("stats = %d/%d, want 2/1", fetches, retries)
	}
}

func TestFetcherStatusClassification(t *testing.T) {
	tests := []struct {
		status   int
		expected string
		attempts int
	}{
		{status: http.StatusNotFound, expected: "not_found", attempts: 1},
		{status: http.StatusForbidden, expected: "forbidden", attempts: 1},
		{status: http.StatusTooManyRequests, expected: "rate_limited", attempts: 3},
		{status: http.StatusInternalServerError, expected: "server_error", attempts: 3},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			f := NewFetcher(testConfig(), metrics.New())

			transport := httpmock.NewMockTransport()
			transport.RegisterResponder("GET", "http://shop.test/index.html", httpmock.NewStringResponder(tt.status, ""))
			f.collector.WithTransport(transport)

			_, err := f.Load(context.Background(), "http://shop.test/index.html")
			if err == nil {
				t.Fatalf("expected error for status %d", tt.status)
			}
			if got := ErrorType(err); got != tt.expected {
				t.Fatalf("ErrorType = %q, want %q (err=%v)", got, tt.expected, err)
			}
			if got := transport.GetTotalCallCount(); got != tt.attempts {
				t.Fatalf("attempts = %d, want %d", got, tt.attempts)
			}
		})
	}
}

func TestFetcherStopsOnCancelledContext(t *testing.T) {
	f := NewFetcher(testConfig(), nil)

	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", "http://shop.test/", httpmock.NewStringResponder(200, catalogPage))
	f.collector.WithTransport(transport)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := f.Load(ctx, "http://shop.test/"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if transport.GetTotalCallCount() != 0 {
		t.Fatalf("no request should be issued after cancellation")
	}
}

func TestFetcherLoadLocal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pages", "sale.html")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(catalogPage), 0o644); err != nil {
		t.Fatalf("write page: %v", err)
	}

	f := NewFetcher(testConfig(), metrics.New())
	page, err := f.Load(context.Background(), path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if page.Remote {
		t.Fatalf("local page should not be remote")
	}
	if page.Location != FileLocation(path) {
		t.Fatalf("location = %q, want %q", page.Location, FileLocation(path))
	}
}

func TestFetcherLoadLocalMissing(t *testing.T) {
	f := NewFetcher(testConfig(), metrics.New())

	_, err := f.Load(context.Background(), filepath.Join(t.TempDir(), "missing.html"))
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
	if got := ErrorType(err); got != "not_found" {
		t.Fatalf("ErrorType = %q, want not_found", got)
	}
}

func TestFileLocation(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{input: "index.html", expected: "/index.html"},
		{input: "./site/pages/sale.html", expected: "/site/pages/sale.html"},
		{input: "pages/sale.html", expected: "/pages/sale.html"},
		{input: "/var/www/pages/sale.html", expected: "/var/www/pages/sale.html"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := FileLocation(tt.input); got != tt.expected {
				t.Errorf("FileLocation(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		statusCode int
		expected   string
	}{
		{name: "nil", err: nil, statusCode: 0, expected: "unknown"},
		{name: "context timeout", err: context.DeadlineExceeded, statusCode: 0, expected: "timeout"},
		{name: "net timeout", err: &net.DNSError{IsTimeout: true}, statusCode: 0, expected: "timeout"},
		{name: "connection", err: &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, statusCode: 0, expected: "connection"},
		{name: "forbidden", err: nil, statusCode: http.StatusForbidden, expected: "forbidden"},
		{name: "not found", err: nil, statusCode: http.StatusNotFound, expected: "not_found"},
		{name: "rate limited", err: nil, statusCode: http.StatusTooManyRequests, expected: "rate_limited"},
		{name: "bad gateway", err: nil, statusCode: http.StatusBadGateway, expected: "server_error"},
		{name: "teapot", err: nil, statusCode: http.StatusTeapot, expected: "http_status"},
		{name: "other", err: errors.New("some other error"), statusCode: 0, expected: "other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorType(classifyError("http://shop.test/", tt.err, tt.statusCode)); got != tt.expected {
				t.Fatalf("classifyError(%v, %d) = %q, want %q", tt.err, tt.statusCode, got, tt.expected)
			}
		})
	}
}

func TestBackoffCapped(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.RetryBackoff = 200 * time.Millisecond
	cfg.RetryBackoffMax = 500 * time.Millisecond

	f := NewFetcher(cfg, nil)
	if got := f.backoff(1); got != 200*time.Millisecond {
		t.Fatalf("first delay = %v, want 200ms", got)
	}
	if got := f.backoff(4); got != cfg.RetryBackoffMax {
		t.Fatalf("delay %v should be capped at %v", got, cfg.RetryBackoffMax)
	}
}

func TestFetcherRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = 20

	f := NewFetcher(cfg, nil)
	if f.limiter == nil {
		t.Fatalf("limiter should be configured")
	}

	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", "http://shop.test/", httpmock.NewStringResponder(200, catalogPage))
	f.collector.WithTransport(transport)

	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := f.Load(context.Background(), "http://shop.test/"); err != nil {
			t.Fatalf("load %d: %v", i, err)
		}
	}
	// Burst of one: the second and third requests each wait ~50ms.
	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Fatalf("three limited requests took %v, want at least 80ms", elapsed)
	}
}

func TestFetcherUnlimitedByDefault(t *testing.T) {
	if f := NewFetcher(testConfig(), nil); f.limiter != nil {
		t.Fatalf("limiter should be nil when rate limit is zero")
	}
}
