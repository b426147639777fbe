package queue

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"translation-queue/internal/models"
)

// Selection is a bulk enqueue request: every document in every language.
type Selection struct {
	DocumentIDs  []string
	Languages    []string
	DocumentType string
}

// EnqueueSelection validates sel against the allowed target languages and
// enqueues one job per (document, language) pair that is not translated yet.
// Unknown ids are skipped; it fails with ErrInvalidSelection when nothing
// usable remains.
func (q *Queue) EnqueueSelection(ctx context.Context, sel Selection) (int, error) {
	languages := q.allowedLanguages(sel.Languages)
	if len(sel.DocumentIDs) == 0 || len(languages) == 0 {
		return 0, fmt.Errorf("%w: no documents or target languages selected", models.ErrInvalidSelection)
	}

	var ids []string
	seen := map[string]bool{}
	for _, raw := range sel.DocumentIDs {
		id := strings.TrimSpace(raw)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		doc, err := q.docs.GetDocument(ctx, id)
		if errors.Is(err, models.ErrDocumentNotFound) {
			q.log.Debug("skipping unknown document", "document_id", id)
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("look up document %s: %w", id, err)
		}
		if sel.DocumentType != "" && doc.Type != sel.DocumentType {
			continue
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return 0, fmt.Errorf("%w: none of the selected documents exist", models.ErrInvalidSelection)
	}

	queued := 0
	for _, id := range ids {
		for _, lang := range languages {
			_, ok, err := q.Enqueue(ctx, id, lang)
			if err != nil {
				return queued, err
			}
			if ok {
				queued++
			}
		}
	}
	return queued, nil
}

// allowedLanguages keeps the requested codes that are configured targets.
// The default language is never a target.
func (q *Queue) allowedLanguages(requested []string) []string {
	def := strings.ToLower(strings.TrimSpace(q.opts.DefaultLanguage))
	allowed := map[string]bool{}
	for _, raw := range q.opts.TargetLanguages {
		if l := strings.ToLower(strings.TrimSpace(raw)); l != "" && l != def {
			allowed[l] = true
		}
	}
	var out []string
	seen := map[string]bool{}
	for _, raw := range requested {
		l := strings.ToLower(strings.TrimSpace(raw))
		if l == "" || seen[l] {
			continue
		}
		if !allowed[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	return out
}
