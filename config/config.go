package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/aluiziolira/go-product-cards/models"
)

// Config holds renderer configuration.
type Config struct {
	ProductsFile       string        `mapstructure:"products_file"`
	ProductsFormat     string        `mapstructure:"products_format"` // auto, json, jsonl, or csv
	Page               string        `mapstructure:"page"`
	Location           string        `mapstructure:"location"`
	Selector           string        `mapstructure:"selector"`
	Limit              int           `mapstructure:"limit"`
	OutputFile         string        `mapstructure:"output_file"`
	ReportFile         string        `mapstructure:"report_file"`
	ReportFormat       string        `mapstructure:"report_format"` // csv, json, dual, or empty for none
	Workers            int           `mapstructure:"workers"`
	PipelineBufferSize int           `mapstructure:"pipeline_buffer_size"`
	BatchSize          int           `mapstructure:"batch_size"`
	DedupeMaxSize      int           `mapstructure:"dedupe_max_size"`
	DrainTimeout       time.Duration `mapstructure:"drain_timeout"`
	CacheSize          int           `mapstructure:"cache_size"`
	Sanitize           bool          `mapstructure:"sanitize"`
	Timeout            time.Duration `mapstructure:"timeout"`
	MaxRetries         int           `mapstructure:"max_retries"`
	RetryBackoff       time.Duration `mapstructure:"retry_backoff"`
	RetryBackoffMax    time.Duration `mapstructure:"retry_backoff_max"`
	RateLimit          float64       `mapstructure:"rate_limit"` // remote page requests per second, 0 for unlimited
	UserAgent          string        `mapstructure:"user_agent"`
	RespectRobotsTxt   bool          `mapstructure:"respect_robots_txt"`
	MetricsAddr        string        `mapstructure:"metrics_addr"`
	Verbose            bool          `mapstructure:"verbose"`
	Jobs               []models.Job  `mapstructure:"jobs"`
}

// DefaultConfig returns defaults for rendering a single local page.
func DefaultConfig() *Config {
	return &Config{
		ProductsFile:       "data/products.json",
		ProductsFormat:     "auto",
		Page:               "index.html",
		Selector:           ".product-list",
		OutputFile:         "output/index.html",
		Workers:            4,
		PipelineBufferSize: 64,
		BatchSize:          16,
		DedupeMaxSize:      10000,
		DrainTimeout:       30 * time.Second,
		CacheSize:          512,
		Timeout:            10 * time.Second,
		MaxRetries:         2,
		RetryBackoff:       200 * time.Millisecond,
		RetryBackoffMax:    2 * time.Second,
		UserAgent:          "go-product-cards/1.0 (+https://github.com/aluiziolira/go-product-cards)",
	}
}

// Load reads an optional config file and CARDS_ prefixed environment
// variables on top of DefaultConfig. An empty path skips the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix("CARDS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if errors.As(err, &notFound) {
				return nil, fmt.Errorf("config file not found: %s", path)
			}
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("products_file", d.ProductsFile)
	v.SetDefault("products_format", d.ProductsFormat)
	v.SetDefault("page", d.Page)
	v.SetDefault("location", d.Location)
	v.SetDefault("selector", d.Selector)
	v.SetDefault("limit", d.Limit)
	v.SetDefault("output_file", d.OutputFile)
	v.SetDefault("report_file", d.ReportFile)
	v.SetDefault("report_format", d.ReportFormat)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("pipeline_buffer_size", d.PipelineBufferSize)
	v.SetDefault("batch_size", d.BatchSize)
	v.SetDefault("dedupe_max_size", d.DedupeMaxSize)
	v.SetDefault("drain_timeout", d.DrainTimeout)
	v.SetDefault("cache_size", d.CacheSize)
	v.SetDefault("sanitize", d.Sanitize)
	v.SetDefault("timeout", d.Timeout)
	v.SetDefault("max_retries", d.MaxRetries)
	v.SetDefault("retry_backoff", d.RetryBackoff)
	v.SetDefault("retry_backoff_max", d.RetryBackoffMax)
	v.SetDefault("rate_limit", d.RateLimit)
	v.SetDefault("user_agent", d.UserAgent)
	v.SetDefault("respect_robots_txt", d.RespectRobotsTxt)
	v.SetDefault("metrics_addr", d.MetricsAddr)
	v.SetDefault("verbose", d.Verbose)
}

// RenderJobs returns the configured jobs, or a single job built from the
// top-level page settings when none are declared.
func (c *Config) RenderJobs() []models.Job {
	if len(c.Jobs) > 0 {
		jobs := make([]models.Job, len(c.Jobs))
		copy(jobs, c.Jobs)
		for i := range jobs {
			if jobs[i].Name == "" {
				jobs[i].Name = fmt.Sprintf("job-%d", i+1)
			}
			if jobs[i].Selector == "" {
				jobs[i].Selector = c.Selector
			}
		}
		return jobs
	}

	return []models.Job{{
		Name:     "default",
		Page:     c.Page,
		Location: c.Location,
		Selector: c.Selector,
		Limit:    c.Limit,
		Output:   c.OutputFile,
	}}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.ProductsFile == "" {
		return fmt.Errorf("products file cannot be empty")
	}
	switch c.ProductsFormat {
	case "auto", "json", "jsonl", "csv":
	default:
		return fmt.Errorf("products format must be auto, json, jsonl, or csv")
	}

	if len(c.Jobs) == 0 {
		if c.Page == "" {
			return fmt.Errorf("page cannot be empty")
		}
		if c.Selector == "" {
			return fmt.Errorf("selector cannot be empty")
		}
		if c.OutputFile == "" {
			return fmt.Errorf("output file cannot be empty")
		}
	}
	if c.Limit < 0 {
		return fmt.Errorf("limit cannot be negative")
	}

	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive")
	}
	if c.PipelineBufferSize <= 0 {
		return fmt.Errorf("pipeline buffer size must be positive")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive")
	}
	if c.DedupeMaxSize <= 0 {
		return fmt.Errorf("dedupe max size must be positive")
	}
	if c.DrainTimeout < 0 {
		return fmt.Errorf("drain timeout cannot be negative")
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("cache size cannot be negative")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	if c.RetryBackoff < 0 {
		return fmt.Errorf("retry backoff cannot be negative")
	}
	if c.RetryBackoffMax < 0 {
		return fmt.Errorf("retry backoff max cannot be negative")
	}
	if c.RetryBackoffMax > 0 && c.RetryBackoff > c.RetryBackoffMax {
		return fmt.Errorf("retry backoff (%s) cannot exceed retry backoff max (%s)", c.RetryBackoff, c.RetryBackoffMax)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate limit cannot be negative")
	}

	switch c.ReportFormat {
	case "":
	case "csv", "json", "dual":
		if c.ReportFile == "" {
			return fmt.Errorf("report file cannot be empty when a report format is set")
		}
	default:
		return fmt.Errorf("report format must be csv, json, or dual")
	}

	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}

	return nil
}
