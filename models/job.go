package models

import "time"

// Job describes one page whose product container should be filled.
type Job struct {
	Name     string `mapstructure:"name" json:"name"`
	Page     string `mapstructure:"page" json:"page"`
	Location string `mapstructure:"location" json:"location"`
	Selector string `mapstructure:"selector" json:"selector"`
	Limit    int    `mapstructure:"limit" json:"limit"`
	Output   string `mapstructure:"output" json:"output"`
}

// RenderResult is the outcome of a single job.
type RenderResult struct {
	Job            string    `csv:"job" json:"job"`
	Page           string    `csv:"page" json:"page"`
	Location       string    `csv:"location" json:"location"`
	Selector       string    `csv:"selector" json:"selector"`
	Nested         bool      `csv:"nested" json:"nested"`
	ContainerFound bool      `csv:"container_found" json:"container_found"`
	Cards          int       `csv:"cards" json:"cards"`
	Output         string    `csv:"output" json:"output"`
	RenderedAt     time.Time `csv:"rendered_at" json:"rendered_at"`

	// HTML is the serialized page after rendering.
	HTML string `csv:"-" json:"-"`
}

// BatchResult holds the overall result of a batch run.
type BatchResult struct {
	StartTime     time.Time
	EndTime       time.Time
	JobCount      int
	RenderedCount int
	MissingCount  int
	CardCount     int
	ErrorCount    int
	FailedJobs    []string
	ErrorsByType  map[string]int
	FetchCount    int
	FetchRetries  int
	CacheHits     int
	CacheMisses   int
}
