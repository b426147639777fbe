// Package queue runs translation jobs one at a time in enqueue order over a
// persisted queue.
package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"translation-queue/internal/logger"
	"translation-queue/internal/models"
	"translation-queue/internal/provider"
	"translation-queue/internal/store"
	"translation-queue/internal/telemetry"
)

// Status messages recorded in job logs.
const (
	MsgQueued    = "Queued for translation."
	MsgStarted   = "Translation started."
	MsgCompleted = "Translation completed."
	MsgTimedOut  = "Translation timed out."
)

// Engine produces translations; *duplicator.Duplicator implements it.
type Engine interface {
	HasTranslation(ctx context.Context, documentID, language string) (bool, error)
	TranslateDocument(ctx context.Context, sourceID, targetLanguage string) (string, error)
}

// Documents resolves document ids; cms.Store implements it.
type Documents interface {
	GetDocument(ctx context.Context, id string) (models.Document, error)
}

// Archiver receives the queue snapshot right before it is cleared.
type Archiver interface {
	Archive(ctx context.Context, jobs []models.Job) error
}

// Options tunes a Queue. Zero values are usable.
//
// StaleRunningAfter fails running jobs untouched for longer than this; 0
// disables the sweep. While a job translates, its UpdatedAt is refreshed every
// HeartbeatInterval, which defaults to a third of StaleRunningAfter.
//
// TargetLanguages is the full set EnqueueSelection accepts. DefaultLanguage is
// never a target, even when listed, so a set holding only the default accepts
// nothing.
type Options struct {
	StaleRunningAfter time.Duration
	HeartbeatInterval time.Duration
	DefaultLanguage   string
	TargetLanguages   []string
	Archiver          Archiver
	Now               func() time.Time
	NewID             func() string
}

// Queue owns all writes to the persisted queue.
type Queue struct {
	store  store.QueueStore
	docs   Documents
	engine Engine
	log    *logger.Logger
	opts   Options
}

func New(st store.QueueStore, docs Documents, engine Engine, log *logger.Logger, opts Options) *Queue {
	if log == nil {
		log = logger.Nop()
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.HeartbeatInterval <= 0 && opts.StaleRunningAfter > 0 {
		opts.HeartbeatInterval = opts.StaleRunningAfter / 3
	}
	return &Queue{store: st, docs: docs, engine: engine, log: log, opts: opts}
}

// Enqueue appends a pending job unless a translation of documentID into
// language already exists; queued is false in that case. Pending or failed
// jobs for the same pair do not block a new one.
func (q *Queue) Enqueue(ctx context.Context, documentID, language string) (id string, queued bool, err error) {
	exists, err := q.engine.HasTranslation(ctx, documentID, language)
	if err != nil {
		return "", false, fmt.Errorf("check existing translation: %w", err)
	}
	if exists {
		telemetry.JobsSkipped.Inc()
		q.log.Debug("translation exists, skipping", "document_id", documentID, "language", language)
		return "", false, nil
	}

	now := q.opts.Now()
	job := models.Job{
		ID:               q.opts.NewID(),
		SourceDocumentID: documentID,
		TargetLanguage:   language,
		Status:           models.StatusPending,
		Message:          MsgQueued,
		Log:              []models.LogEntry{{Timestamp: now, Status: models.StatusPending, Message: MsgQueued}},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := q.store.Update(ctx, func(jobs []models.Job) ([]models.Job, error) {
		return append(jobs, job.Clone()), nil
	}); err != nil {
		return "", false, fmt.Errorf("persist job: %w", err)
	}
	telemetry.JobsEnqueued.Inc()
	q.log.Info("job enqueued", "job_id", job.ID, "document_id", documentID, "language", language)
	return job.ID, true, nil
}

// ProcessNext runs the oldest pending job to a terminal state and returns it.
// It returns nil, nil when nothing is pending. At most one job is touched.
func (q *Queue) ProcessNext(ctx context.Context) (*models.Job, error) {
	start := time.Now()
	defer func() { telemetry.TickDuration.Observe(time.Since(start).Seconds()) }()

	var claimed models.Job
	found := false
	err := q.store.Update(ctx, func(jobs []models.Job) ([]models.Job, error) {
		found = false
		for i := range jobs {
			if jobs[i].Status != models.StatusPending {
				continue
			}
			if err := jobs[i].Transition(models.StatusRunning, MsgStarted, q.opts.Now()); err != nil {
				return nil, err
			}
			claimed = jobs[i].Clone()
			found = true
			return jobs, nil
		}
		return nil, store.ErrNoChange
	})
	if err != nil {
		return nil, fmt.Errorf("claim job: %w", err)
	}
	if !found {
		return nil, nil
	}
	log := q.log.With("job_id", claimed.ID, "document_id", claimed.SourceDocumentID, "language", claimed.TargetLanguage)
	log.Info("job started")

	stop := q.heartbeat(ctx, claimed.ID, log)
	newID, runErr := q.engine.TranslateDocument(ctx, claimed.SourceDocumentID, claimed.TargetLanguage)
	stop()

	// The outcome is recorded even if the caller gave up meanwhile, otherwise
	// the job would stay running.
	persistCtx := context.WithoutCancel(ctx)
	var final models.Job
	err = q.store.Update(persistCtx, func(jobs []models.Job) ([]models.Job, error) {
		i := indexOf(jobs, claimed.ID)
		if i < 0 {
			return nil, models.ErrJobNotFound
		}
		if jobs[i].Status.Terminal() {
			return nil, errAlreadyFinished
		}
		now := q.opts.Now()
		if runErr != nil {
			if err := jobs[i].Transition(models.StatusFailed, runErr.Error(), now); err != nil {
				return nil, err
			}
		} else {
			id := newID
			jobs[i].NewDocumentID = &id
			if err := jobs[i].Transition(models.StatusCompleted, MsgCompleted, now); err != nil {
				return nil, err
			}
		}
		final = jobs[i].Clone()
		return jobs, nil
	})
	switch {
	case errors.Is(err, models.ErrJobNotFound):
		log.Warn("job left the queue while running", "new_document_id", newID)
		return nil, nil
	case errors.Is(err, errAlreadyFinished):
		log.Warn("job finished elsewhere while running", "new_document_id", newID)
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("record job outcome: %w", err)
	}

	if runErr != nil {
		telemetry.JobsFailed.WithLabelValues(failureReason(runErr)).Inc()
		log.Warn("job failed", "error", runErr.Error())
	} else {
		telemetry.JobsCompleted.Inc()
		log.Info("job completed", "new_document_id", newID)
	}
	return &final, nil
}

// errAlreadyFinished marks an outcome that arrived after the job was failed by
// the stale sweep.
var errAlreadyFinished = errors.New("job already finished")

// heartbeat keeps jobID's UpdatedAt fresh until the returned stop func runs.
// stop waits for an in-flight refresh to finish.
func (q *Queue) heartbeat(ctx context.Context, jobID string, log *logger.Logger) (stop func()) {
	if q.opts.HeartbeatInterval <= 0 {
		return func() {}
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(q.opts.HeartbeatInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := q.touch(ctx, jobID); err != nil && ctx.Err() == nil {
					log.Warn("heartbeat failed", "error", err.Error())
				}
			}
		}
	}()
	return func() {
		cancel()
		<-done
	}
}

// touch refreshes UpdatedAt of a running job. Other states are left alone.
func (q *Queue) touch(ctx context.Context, jobID string) error {
	return q.store.Update(ctx, func(jobs []models.Job) ([]models.Job, error) {
		i := indexOf(jobs, jobID)
		if i < 0 || jobs[i].Status != models.StatusRunning {
			return nil, store.ErrNoChange
		}
		jobs[i].UpdatedAt = q.opts.Now()
		return jobs, nil
	})
}

// List returns the queue after pruning jobs whose documents are gone.
func (q *Queue) List(ctx context.Context) ([]models.Job, error) {
	jobs, err := q.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load queue: %w", err)
	}
	jobs, err = q.sanitize(ctx, jobs)
	if err != nil {
		return nil, err
	}
	recordDepth(jobs)
	return jobs, nil
}

// Clear empties the queue. Translated documents are not touched. When an
// archiver is configured the snapshot is archived first and an archive
// failure aborts the clear.
func (q *Queue) Clear(ctx context.Context) error {
	if q.opts.Archiver != nil {
		jobs, err := q.store.Load(ctx)
		if err != nil {
			return fmt.Errorf("load queue: %w", err)
		}
		if len(jobs) > 0 {
			if err := q.opts.Archiver.Archive(ctx, jobs); err != nil {
				return fmt.Errorf("archive queue: %w", err)
			}
		}
	}
	if err := q.store.Update(ctx, func([]models.Job) ([]models.Job, error) {
		return []models.Job{}, nil
	}); err != nil {
		return fmt.Errorf("clear queue: %w", err)
	}
	recordDepth(nil)
	q.log.Info("queue cleared")
	return nil
}

func indexOf(jobs []models.Job, id string) int {
	for i := range jobs {
		if jobs[i].ID == id {
			return i
		}
	}
	return -1
}

func failureReason(err error) string {
	var perr *provider.Error
	switch {
	case errors.As(err, &perr):
		return string(perr.Kind)
	case errors.Is(err, models.ErrDocumentNotFound):
		return "document_not_found"
	default:
		return "other"
	}
}

func recordDepth(jobs []models.Job) {
	counts := map[models.JobStatus]int{}
	for _, j := range jobs {
		counts[j.Status]++
	}
	for _, s := range []models.JobStatus{models.StatusPending, models.StatusRunning, models.StatusCompleted, models.StatusFailed} {
		telemetry.QueueDepth.WithLabelValues(string(s)).Set(float64(counts[s]))
	}
}
