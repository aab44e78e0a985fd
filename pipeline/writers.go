package pipeline

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/aluiziolira/go-product-cards/models"
)

// HTMLWriter writes each rendered page to the output path of its job.
type HTMLWriter struct {
	mu      sync.Mutex
	written []string
}

// NewHTMLWriter returns a writer for rendered pages.
func NewHTMLWriter() *HTMLWriter {
	return &HTMLWriter{}
}

// Write stores every result's HTML at its output path.
func (hw *HTMLWriter) Write(results []*models.RenderResult) error {
	for _, result := range results {
		if err := ensureDir(result.Output); err != nil {
			return err
		}
		if err := os.WriteFile(result.Output, []byte(result.HTML), 0o644); err != nil {
			return fmt.Errorf("write page %q: %w", result.Output, err)
		}

		hw.mu.Lock()
		hw.written = append(hw.written, result.Output)
		hw.mu.Unlock()
	}
	return nil
}

// Written returns the output paths written so far.
func (hw *HTMLWriter) Written() []string {
	hw.mu.Lock()
	defer hw.mu.Unlock()
	return append([]string(nil), hw.written...)
}

// Close is a no-op; pages are written whole.
func (hw *HTMLWriter) Close() error {
	return nil
}

// Validate ensures at least one page was written.
func (hw *HTMLWriter) Validate() error {
	hw.mu.Lock()
	defer hw.mu.Unlock()
	if len(hw.written) == 0 {
		return fmt.Errorf("no pages written")
	}
	return nil
}

// CSVWriter writes one report row per rendered page.
type CSVWriter struct {
	file   *os.File
	writer *csv.Writer
	rows   int
	mu     sync.Mutex
}

// NewCSVWriter initialises a CSV report and writes the header row.
func NewCSVWriter(filename string) (*CSVWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}

	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("create csv file: %w", err)
	}

	writer := csv.NewWriter(f)
	header := []string{"job", "page", "location", "selector", "nested", "container_found", "cards", "output", "rendered_at"}
	if err := writer.Write(header); err != nil {
		f.Close()
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		f.Close()
		return nil, fmt.Errorf("flush csv header: %w", err)
	}

	return &CSVWriter{
		file:   f,
		writer: writer,
	}, nil
}

// Write appends report rows.
func (cw *CSVWriter) Write(results []*models.RenderResult) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	for _, result := range results {
		record := []string{
			result.Job,
			result.Page,
			result.Location,
			result.Selector,
			strconv.FormatBool(result.Nested),
			strconv.FormatBool(result.ContainerFound),
			strconv.Itoa(result.Cards),
			result.Output,
			result.RenderedAt.Format(time.RFC3339),
		}
		if err := cw.writer.Write(record); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
		cw.rows++
	}
	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return fmt.Errorf("flush csv records: %w", err)
	}
	return nil
}

// Close flushes and closes the file handle.
func (cw *CSVWriter) Close() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return fmt.Errorf("flush csv writer: %w", err)
	}
	return cw.file.Close()
}

// Validate ensures the report has rows besides the header.
func (cw *CSVWriter) Validate() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	if cw.rows == 0 {
		return fmt.Errorf("csv report has no rows")
	}
	return nil
}

// JSONWriter writes newline-delimited JSON report records.
type JSONWriter struct {
	file    *os.File
	writer  *bufio.Writer
	encoder *json.Encoder
	rows    int
	mu      sync.Mutex
}

// NewJSONWriter initialises the JSON report writer.
func NewJSONWriter(filename string) (*JSONWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}

	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("create json file: %w", err)
	}

	buffer := bufio.NewWriter(f)
	return &JSONWriter{
		file:    f,
		writer:  buffer,
		encoder: json.NewEncoder(buffer),
	}, nil
}

// Write appends results in JSONL format.
func (jw *JSONWriter) Write(results []*models.RenderResult) error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	for _, result := range results {
		if err := jw.encoder.Encode(result); err != nil {
			return fmt.Errorf("encode json record: %w", err)
		}
		jw.rows++
	}

	if err := jw.writer.Flush(); err != nil {
		return fmt.Errorf("flush json writer: %w", err)
	}
	return nil
}

// Close flushes buffers and closes the underlying file.
func (jw *JSONWriter) Close() error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	if err := jw.writer.Flush(); err != nil {
		return fmt.Errorf("flush json writer: %w", err)
	}
	return jw.file.Close()
}

// Validate ensures the report has records.
func (jw *JSONWriter) Validate() error {
	jw.mu.Lock()
	defer jw.mu.Unlock()
	if jw.rows == 0 {
		return fmt.Errorf("json report has no records")
	}
	return nil
}

// NewReportWriter opens the report writer for format: csv, json or dual.
// dual writes filename as CSV and a sibling .jsonl file.
func NewReportWriter(format, filename string) (OutputWriter, error) {
	switch format {
	case "csv":
		return NewCSVWriter(filename)
	case "json":
		return NewJSONWriter(filename)
	case "dual":
		csvWriter, err := NewCSVWriter(filename)
		if err != nil {
			return nil, fmt.Errorf("create csv report: %w", err)
		}
		jsonWriter, err := NewJSONWriter(jsonlSibling(filename))
		if err != nil {
			csvWriter.Close()
			return nil, fmt.Errorf("create json report: %w", err)
		}
		return NewMultiWriter(csvWriter, jsonWriter), nil
	default:
		return nil, fmt.Errorf("unsupported report format %q", format)
	}
}

func jsonlSibling(filename string) string {
	ext := filepath.Ext(filename)
	return filename[:len(filename)-len(ext)] + ".jsonl"
}

func ensureDir(filename string) error {
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}
