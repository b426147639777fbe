package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"translation-queue/internal/models"
	"translation-queue/internal/store"
	"translation-queue/internal/telemetry"
)

// pruneDecision is computed from a snapshot outside the store lock and then
// reapplied to whatever the queue holds at write time.
type pruneDecision struct {
	remove map[string]struct{}
	stale  map[string]struct{}
}

func (d pruneDecision) empty() bool { return len(d.remove) == 0 && len(d.stale) == 0 }

// sanitize drops jobs whose source document is gone, or whose completed
// translation was deleted, and fails running jobs older than the stale
// window. The queue is written back only when something changed.
func (q *Queue) sanitize(ctx context.Context, jobs []models.Job) ([]models.Job, error) {
	decision, err := q.decide(ctx, jobs)
	if err != nil {
		return nil, err
	}
	if decision.empty() {
		return jobs, nil
	}

	var (
		result  []models.Job
		removed int
		expired int
	)
	err = q.store.Update(ctx, func(current []models.Job) ([]models.Job, error) {
		removed, expired = 0, 0
		kept := make([]models.Job, 0, len(current))
		now := q.opts.Now()
		for _, job := range current {
			if _, ok := decision.remove[job.ID]; ok {
				removed++
				continue
			}
			if _, ok := decision.stale[job.ID]; ok && q.isStale(job, now) {
				if err := job.Transition(models.StatusFailed, MsgTimedOut, now); err != nil {
					return nil, err
				}
				expired++
			}
			kept = append(kept, job)
		}
		result = kept
		if removed == 0 && expired == 0 {
			return nil, store.ErrNoChange
		}
		return kept, nil
	})
	if err != nil {
		return nil, fmt.Errorf("prune queue: %w", err)
	}
	if removed > 0 {
		telemetry.JobsPruned.Add(float64(removed))
		q.log.Info("pruned jobs with missing documents", "count", removed)
	}
	if expired > 0 {
		telemetry.JobsFailed.WithLabelValues("timed_out").Add(float64(expired))
		q.log.Warn("failed stale running jobs", "count", expired, "after", q.opts.StaleRunningAfter.String())
	}
	return result, nil
}

// lookupConcurrency bounds parallel CMS lookups during one sanitize pass.
const lookupConcurrency = 8

func (q *Queue) decide(ctx context.Context, jobs []models.Job) (pruneDecision, error) {
	d := pruneDecision{remove: map[string]struct{}{}, stale: map[string]struct{}{}}

	var ids []string
	seen := map[string]bool{}
	want := func(id string) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, job := range jobs {
		want(job.SourceDocumentID)
		if job.Status == models.StatusCompleted && job.NewDocumentID != nil {
			want(*job.NewDocumentID)
		}
	}

	var mu sync.Mutex
	exists := make(map[string]bool, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(lookupConcurrency)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			_, err := q.docs.GetDocument(gctx, id)
			switch {
			case errors.Is(err, models.ErrDocumentNotFound):
				return nil
			case err != nil:
				return fmt.Errorf("look up document %s: %w", id, err)
			}
			mu.Lock()
			exists[id] = true
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return d, err
	}

	now := q.opts.Now()
	for _, job := range jobs {
		if !exists[job.SourceDocumentID] {
			d.remove[job.ID] = struct{}{}
			continue
		}
		if job.Status == models.StatusCompleted && job.NewDocumentID != nil && !exists[*job.NewDocumentID] {
			d.remove[job.ID] = struct{}{}
			continue
		}
		if q.isStale(job, now) {
			d.stale[job.ID] = struct{}{}
		}
	}
	return d, nil
}

// isStale is checked again at write time so a heartbeat that landed after the
// snapshot keeps the job alive.
func (q *Queue) isStale(job models.Job, now time.Time) bool {
	return q.opts.StaleRunningAfter > 0 && job.Status == models.StatusRunning &&
		now.Sub(job.UpdatedAt) > q.opts.StaleRunningAfter
}
