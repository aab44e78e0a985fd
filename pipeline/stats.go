package pipeline

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aluiziolira/go-product-cards/models"
	"github.com/aluiziolira/go-product-cards/render"
)

type stats struct {
	start time.Time

	rendered int64
	missing  int64
	cards    int64
	failed   int64

	mu           sync.Mutex
	validation   map[string]int
	errorsByType map[string]int
	failedJobs   []string
}

func newStats() *stats {
	return &stats{
		start:        time.Now(),
		validation:   make(map[string]int),
		errorsByType: make(map[string]int),
	}
}

func (s *stats) addRendered(res render.ListResult) {
	atomic.AddInt64(&s.rendered, 1)
	atomic.AddInt64(&s.cards, int64(res.Cards))
	if !res.ContainerFound {
		atomic.AddInt64(&s.missing, 1)
	}
}

func (s *stats) addValidation(reason string) {
	s.mu.Lock()
	s.validation[reason]++
	s.mu.Unlock()
}

func (s *stats) addFailure(job, category string) {
	atomic.AddInt64(&s.failed, 1)
	s.mu.Lock()
	s.errorsByType[category]++
	s.failedJobs = append(s.failedJobs, job)
	s.mu.Unlock()
}

func (s *stats) snapshot() map[string]interface{} {
	s.mu.Lock()
	validation := make(map[string]int, len(s.validation))
	for k, v := range s.validation {
		validation[k] = v
	}
	s.mu.Unlock()

	return map[string]interface{}{
		"rendered_jobs":     atomic.LoadInt64(&s.rendered),
		"missing_container": atomic.LoadInt64(&s.missing),
		"cards":             atomic.LoadInt64(&s.cards),
		"failed_jobs":       atomic.LoadInt64(&s.failed),
		"validation_errors": validation,
	}
}

func (s *stats) result() *models.BatchResult {
	s.mu.Lock()
	errorsByType := make(map[string]int, len(s.errorsByType)+len(s.validation))
	for k, v := range s.errorsByType {
		errorsByType[k] = v
	}
	for k, v := range s.validation {
		errorsByType[k] += v
	}
	failed := append([]string(nil), s.failedJobs...)
	s.mu.Unlock()
	sort.Strings(failed)

	rendered := int(atomic.LoadInt64(&s.rendered))
	errCount := int(atomic.LoadInt64(&s.failed))
	for _, v := range s.validation {
		errCount += v
	}

	return &models.BatchResult{
		StartTime:     s.start,
		EndTime:       time.Now(),
		JobCount:      rendered + errCount,
		RenderedCount: rendered,
		MissingCount:  int(atomic.LoadInt64(&s.missing)),
		CardCount:     int(atomic.LoadInt64(&s.cards)),
		ErrorCount:    errCount,
		FailedJobs:    failed,
		ErrorsByType:  errorsByType,
	}
}
