package queue

import (
	"context"
	"errors"

	"translation-queue/internal/models"
)

// SnapshotItem is the read-only view of one job handed to callers.
type SnapshotItem struct {
	ID            string            `json:"id"`
	DocumentID    string            `json:"document_id"`
	DocumentTitle string            `json:"document_title"`
	Language      string            `json:"language"`
	Status        models.JobStatus  `json:"status"`
	Message       string            `json:"message"`
	NewDocumentID *string           `json:"new_document_id,omitempty"`
	Log           []models.LogEntry `json:"log,omitempty"`
}

// Snapshot lists the pruned queue in enqueue order. The per-job log is only
// included when withHistory is set.
func (q *Queue) Snapshot(ctx context.Context, withHistory bool) ([]SnapshotItem, error) {
	jobs, err := q.List(ctx)
	if err != nil {
		return nil, err
	}
	titles := map[string]string{}
	items := make([]SnapshotItem, 0, len(jobs))
	for _, job := range jobs {
		title, ok := titles[job.SourceDocumentID]
		if !ok {
			doc, err := q.docs.GetDocument(ctx, job.SourceDocumentID)
			if err != nil && !errors.Is(err, models.ErrDocumentNotFound) {
				return nil, err
			}
			title = doc.Title
			titles[job.SourceDocumentID] = title
		}
		item := SnapshotItem{
			ID:            job.ID,
			DocumentID:    job.SourceDocumentID,
			DocumentTitle: title,
			Language:      job.TargetLanguage,
			Status:        job.Status,
			Message:       job.Message,
			NewDocumentID: job.NewDocumentID,
		}
		if withHistory {
			item.Log = job.Log
		}
		items = append(items, item)
	}
	return items, nil
}

// History returns the progress log of one job, oldest entry first.
func (q *Queue) History(ctx context.Context, jobID string) ([]models.LogEntry, error) {
	jobs, err := q.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	i := indexOf(jobs, jobID)
	if i < 0 {
		return nil, models.ErrJobNotFound
	}
	return jobs[i].Clone().Log, nil
}
