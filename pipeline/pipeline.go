package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/aluiziolira/go-product-cards/config"
	"github.com/aluiziolira/go-product-cards/dom"
	"github.com/aluiziolira/go-product-cards/metrics"
	"github.com/aluiziolira/go-product-cards/models"
	"github.com/aluiziolira/go-product-cards/parser"
	"github.com/aluiziolira/go-product-cards/render"
	"github.com/aluiziolira/go-product-cards/source"
)

var (
	// ErrPipelineClosed is returned when Process is called after shutdown.
	ErrPipelineClosed = errors.New("pipeline: closed")
	// ErrPipelineCloseTimeout is returned when workers do not drain in time.
	ErrPipelineCloseTimeout = errors.New("pipeline: close timed out")
)

// OutputWriter defines the interface for render output.
type OutputWriter interface {
	Write(results []*models.RenderResult) error
	Close() error
	Validate() error
}

// PageLoader loads the host page of a job.
type PageLoader interface {
	Load(ctx context.Context, ref string) (*source.Page, error)
}

// Deps are the collaborators a Pipeline renders with. Nil fields get defaults.
type Deps struct {
	Loader   PageLoader
	Renderer *render.Renderer
	Metrics  *metrics.Metrics
}

// Pipeline renders jobs concurrently. Each job owns its page document and
// all jobs share the read-only product list.
type Pipeline struct {
	ctx          context.Context
	products     []models.Product
	writer       OutputWriter
	loader       PageLoader
	renderer     *render.Renderer
	metrics      *metrics.Metrics
	jobCh        chan *models.Job
	batchSize    int
	drainTimeout time.Duration

	wg sync.WaitGroup

	seen   *lru.Cache[string, struct{}]
	seenMu sync.Mutex

	stats *stats

	mu     sync.Mutex // guards closed/err
	closed bool
	err    error

	closeOnce    sync.Once
	shutdown     chan struct{}
	shutdownOnce sync.Once
}

// NewPipeline builds a pipeline that renders products into every job's page.
func NewPipeline(ctx context.Context, products []models.Product, writer OutputWriter, cfg *config.Config, deps Deps) (*Pipeline, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	seen, err := lru.New[string, struct{}](cfg.DedupeMaxSize)
	if err != nil {
		return nil, fmt.Errorf("create dedupe cache: %w", err)
	}

	if deps.Loader == nil {
		deps.Loader = source.NewFetcher(cfg, deps.Metrics)
	}
	if deps.Renderer == nil {
		deps.Renderer = render.NewRenderer()
	}

	return &Pipeline{
		ctx:          ctx,
		products:     products,
		writer:       writer,
		loader:       deps.Loader,
		renderer:     deps.Renderer,
		metrics:      deps.Metrics,
		jobCh:        make(chan *models.Job, cfg.PipelineBufferSize),
		batchSize:    cfg.BatchSize,
		drainTimeout: cfg.DrainTimeout,
		seen:         seen,
		stats:        newStats(),
		shutdown:     make(chan struct{}),
	}, nil
}

// Start launches worker goroutines.
func (p *Pipeline) Start(workers int) {
	if workers <= 0 {
		workers = 1
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// Process enqueues jobs for rendering.
func (p *Pipeline) Process(jobs ...*models.Job) error {
	if len(jobs) == 0 {
		return nil
	}

	closed, err := p.state()
	if err != nil {
		return err
	}
	if closed {
		return ErrPipelineClosed
	}

	for _, job := range jobs {
		if job == nil {
			continue
		}
		if err := p.enqueue(job); err != nil {
			return err
		}
	}
	return nil
}

// Close stops accepting jobs and waits for workers to drain. A drain longer
// than the configured timeout returns ErrPipelineCloseTimeout.
func (p *Pipeline) Close() error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
	}
	p.mu.Unlock()

	p.closeOnce.Do(func() {
		close(p.jobCh)
	})

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	if p.drainTimeout > 0 {
		timer := time.NewTimer(p.drainTimeout)
		defer timer.Stop()
		select {
		case <-done:
		case <-timer.C:
			p.signalShutdown()
			return fmt.Errorf("%w after %s", ErrPipelineCloseTimeout, p.drainTimeout)
		}
	} else {
		<-done
	}

	p.signalShutdown()
	return p.Err()
}

// Err returns the first write error encountered during processing.
func (p *Pipeline) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// GetMetrics returns a snapshot of the internal counters.
func (p *Pipeline) GetMetrics() map[string]interface{} {
	return p.stats.snapshot()
}

// Result summarizes the run so far.
func (p *Pipeline) Result() *models.BatchResult {
	result := p.stats.result()
	if fetcher, ok := p.loader.(*source.Fetcher); ok {
		result.FetchCount, result.FetchRetries = fetcher.Stats()
	}
	if cache := p.renderer.Cache(); cache != nil {
		hits, misses := cache.Stats()
		result.CacheHits = int(hits)
		result.CacheMisses = int(misses)
	}
	return result
}

// StartMetricsReporting emits periodic progress logs.
func (p *Pipeline) StartMetricsReporting(interval time.Duration) {
	if interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				snapshot := p.GetMetrics()
				slog.Info("pipeline progress",
					slog.Int64("rendered_jobs", snapshot["rendered_jobs"].(int64)),
					slog.Int64("failed_jobs", snapshot["failed_jobs"].(int64)),
					slog.Int("validation_errors", len(snapshot["validation_errors"].(map[string]int))),
				)
			case <-p.shutdown:
				return
			}
		}
	}()
}

func (p *Pipeline) worker() {
	defer p.wg.Done()

	batch := make([]*models.RenderResult, 0, p.batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := p.writer.Write(batch); err != nil {
			return err
		}
		batch = batch[:0]
		return nil
	}

	for job := range p.jobCh {
		if !p.prepare(job) {
			continue
		}
		result, err := p.render(job)
		if err != nil {
			p.recordFailure(job, err)
			continue
		}
		batch = append(batch, result)
		if len(batch) >= p.batchSize {
			if err := flush(); err != nil {
				p.setErr(fmt.Errorf("write batch: %w", err))
				return
			}
		}
	}

	if err := flush(); err != nil {
		p.setErr(fmt.Errorf("write batch: %w", err))
	}
}

func (p *Pipeline) prepare(job *models.Job) bool {
	if err := parser.ValidateJob(job); err != nil {
		slog.Warn("skipping invalid job", slog.Any("error", err))
		p.stats.addValidation("invalid_job")
		p.metrics.IncJob("invalid")
		return false
	}

	p.seenMu.Lock()
	if p.seen.Contains(job.Output) {
		p.seenMu.Unlock()
		slog.Warn("skipping job with duplicate output",
			slog.String("job", job.Name),
			slog.String("output", job.Output),
		)
		p.stats.addValidation("duplicate_output")
		p.metrics.IncJob("duplicate")
		return false
	}
	p.seen.Add(job.Output, struct{}{})
	p.seenMu.Unlock()

	return true
}

func (p *Pipeline) render(job *models.Job) (*models.RenderResult, error) {
	page, err := p.loader.Load(p.ctx, job.Page)
	if err != nil {
		return nil, fmt.Errorf("load page: %w", err)
	}

	location := job.Location
	if location == "" {
		location = page.Location
	}
	ctx := render.NewContext(location)

	doc, err := dom.Parse(bytes.NewReader(page.Body))
	if err != nil {
		return nil, err
	}

	start := time.Now()
	listResult := p.renderer.RenderList(doc, ctx, render.ListOptions{
		Products: p.products,
		Selector: job.Selector,
		Limit:    job.Limit,
	})
	p.metrics.ObserveRender(time.Since(start))

	html, err := doc.HTML()
	if err != nil {
		return nil, err
	}

	if listResult.ContainerFound {
		p.metrics.IncJob("rendered")
		p.metrics.AddCards(listResult.Cards)
	} else {
		p.metrics.IncJob("missing_container")
		p.metrics.IncMissingContainer()
	}
	p.stats.addRendered(listResult)

	slog.Debug("rendered page",
		slog.String("job", job.Name),
		slog.String("location", location),
		slog.Bool("container_found", listResult.ContainerFound),
		slog.Int("cards", listResult.Cards),
	)

	return &models.RenderResult{
		Job:            job.Name,
		Page:           job.Page,
		Location:       location,
		Selector:       job.Selector,
		Nested:         ctx.Nested,
		ContainerFound: listResult.ContainerFound,
		Cards:          listResult.Cards,
		Output:         job.Output,
		RenderedAt:     time.Now().UTC(),
		HTML:           html,
	}, nil
}

func (p *Pipeline) recordFailure(job *models.Job, err error) {
	category := source.ErrorType(err)
	slog.Error("render job failed",
		slog.String("job", job.Name),
		slog.String("page", job.Page),
		slog.String("category", category),
		slog.Any("error", err),
	)
	p.metrics.IncJob("failed")
	p.stats.addFailure(job.Name, category)
}

func (p *Pipeline) enqueue(job *models.Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = ErrPipelineClosed
		}
	}()

	select {
	case <-p.shutdown:
		return ErrPipelineClosed
	case p.jobCh <- job:
		return nil
	}
}

func (p *Pipeline) setErr(err error) {
	if err == nil {
		return
	}

	p.mu.Lock()
	if p.err != nil {
		p.mu.Unlock()
		return
	}
	p.err = err
	p.closed = true
	p.mu.Unlock()

	p.signalShutdown()
}

func (p *Pipeline) state() (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed, p.err
}

func (p *Pipeline) signalShutdown() {
	p.shutdownOnce.Do(func() {
		close(p.shutdown)
	})
}
