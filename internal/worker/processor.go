package worker

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"translation-queue/internal/logger"
	"translation-queue/internal/models"
)

// Runner advances the queue by at most one job; *queue.Queue implements it.
type Runner interface {
	ProcessNext(ctx context.Context) (*models.Job, error)
}

// Processor drives the queue from a fixed interval timer.
type Processor struct {
	runner     Runner
	interval   time.Duration
	backoffMax time.Duration
	workerID   string
	log        *logger.Logger

	mu       sync.Mutex
	failures int
	resumeAt time.Time
	now      func() time.Time
}

func NewProcessor(runner Runner, interval time.Duration, log *logger.Logger) *Processor {
	return NewProcessorWithID(runner, interval, log, "")
}

// NewProcessorWithID creates a processor with a specific worker ID for tracking.
func NewProcessorWithID(runner Runner, interval time.Duration, log *logger.Logger, workerID string) *Processor {
	if interval <= 0 {
		interval = time.Minute
	}
	if log == nil {
		log = logger.Nop()
	}
	if workerID != "" {
		log = log.With("worker_id", workerID)
	}
	return &Processor{
		runner:     runner,
		interval:   interval,
		backoffMax: 10 * interval,
		workerID:   workerID,
		log:        log,
		now:        time.Now,
	}
}

// Run ticks until ctx is cancelled. The first tick fires immediately.
func (p *Processor) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.log.Info("worker started", "interval", p.interval.String())
	for {
		p.Tick(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Tick processes at most one job. It reports false without doing anything
// when a previous tick is still running or the processor is backing off
// after a storage error.
func (p *Processor) Tick(ctx context.Context) bool {
	if !p.mu.TryLock() {
		p.log.Debug("previous tick still running, skipping")
		return false
	}
	defer p.mu.Unlock()

	if now := p.now(); now.Before(p.resumeAt) {
		p.log.Debug("backing off", "until", p.resumeAt.Format(time.RFC3339))
		return false
	}

	job, err := p.runner.ProcessNext(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.failures++
		wait := backoffWithJitter(p.interval, p.backoffMax, p.failures)
		p.resumeAt = p.now().Add(wait)
		p.log.Error("tick failed", "error", err.Error(), "failures", p.failures, "retry_in", wait.String())
		return true
	}
	p.failures = 0
	p.resumeAt = time.Time{}
	if job != nil {
		p.log.Debug("tick processed job", "job_id", job.ID, "status", string(job.Status))
	}
	return true
}

// backoffWithJitter returns a delay in [wait/2, wait) where wait doubles per
// attempt from base up to max.
func backoffWithJitter(base, max time.Duration, attempt int) time.Duration {
	if attempt <= 0 {
		return base
	}
	exp := float64(base) * math.Pow(2, float64(attempt-1))
	wait := time.Duration(exp)
	if wait > max || exp > float64(math.MaxInt64) {
		wait = max
	}
	if wait < 2 {
		return wait
	}
	jitter := time.Duration(rand.Int63n(int64(wait / 2)))
	return wait/2 + jitter
}
