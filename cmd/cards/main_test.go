package main

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/aluiziolira/go-product-cards/config"
	"github.com/aluiziolira/go-product-cards/pipeline"
)

func TestApplyFlagsOnlyOverridesSetFlags(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Selector = "#from-file"
	cfg.Workers = 9

	page := "site/pages/sale.html"
	selector := ".ignored"
	limit := 6
	backoff := 50
	format := "JSONL"
	fv := flagValues{
		page:           &page,
		selector:       &selector,
		limit:          &limit,
		retryBackoffMs: &backoff,
		productsFormat: &format,
	}

	applyFlags(cfg, fv, map[string]bool{
		"page":            true,
		"limit":           true,
		"retry-backoff":   true,
		"products-format": true,
	})

	if cfg.Page != page || cfg.Limit != 6 {
		t.Fatalf("set flags not applied: page=%q limit=%d", cfg.Page, cfg.Limit)
	}
	if cfg.RetryBackoff != 50*time.Millisecond {
		t.Fatalf("retry backoff = %v, want 50ms", cfg.RetryBackoff)
	}
	if cfg.ProductsFormat != "jsonl" {
		t.Fatalf("products format = %q, want jsonl", cfg.ProductsFormat)
	}
	if cfg.Selector != "#from-file" || cfg.Workers != 9 {
		t.Fatalf("unset flags must keep loaded values: selector=%q workers=%d", cfg.Selector, cfg.Workers)
	}
}

func TestNewRenderer(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.CacheSize = 8
	r, err := newRenderer(cfg)
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	if r.Cache() == nil {
		t.Fatalf("cache should be enabled")
	}

	cfg.CacheSize = 0
	r, err = newRenderer(cfg)
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	if r.Cache() != nil {
		t.Fatalf("cache should be disabled")
	}
}

func TestCreateWriter(t *testing.T) {
	cfg := config.DefaultConfig()
	w, err := createWriter(cfg)
	if err != nil {
		t.Fatalf("create writer: %v", err)
	}
	if _, ok := w.(*pipeline.HTMLWriter); !ok {
		t.Fatalf("writer without report = %T, want *pipeline.HTMLWriter", w)
	}

	cfg.ReportFormat = "csv"
	cfg.ReportFile = filepath.Join(t.TempDir(), "report.csv")
	w, err = createWriter(cfg)
	if err != nil {
		t.Fatalf("create writer: %v", err)
	}
	defer w.Close()
	if _, ok := w.(*pipeline.MultiWriter); !ok {
		t.Fatalf("writer with report = %T, want *pipeline.MultiWriter", w)
	}
}
