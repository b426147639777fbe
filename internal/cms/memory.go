package cms

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"translation-queue/internal/models"
)

// Memory is an in-process Store used by tests and the memory backend.
type Memory struct {
	mu   sync.RWMutex
	docs map[string]*memDoc
	seq  int
}

type memDoc struct {
	doc  models.Document
	meta map[string]string
	seq  int
}

func NewMemory() *Memory {
	return &Memory{docs: make(map[string]*memDoc)}
}

// Put inserts or replaces a document. Language and TranslationGroup are stored
// as metadata. An empty ID gets a generated one, which is returned.
func (m *Memory) Put(doc models.Document) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	m.seq++
	d := &memDoc{doc: doc, meta: map[string]string{}, seq: m.seq}
	if doc.Language != "" {
		d.meta[models.MetaLanguage] = doc.Language
	}
	if doc.TranslationGroup != "" {
		d.meta[models.MetaTranslationGroup] = doc.TranslationGroup
	}
	m.docs[doc.ID] = d
	return doc.ID
}

// Delete removes a document; unknown ids are ignored.
func (m *Memory) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, id)
}

// Len returns the number of stored documents.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}

func (m *Memory) GetDocument(_ context.Context, id string) (models.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.docs[id]
	if !ok {
		return models.Document{}, fmt.Errorf("%w: %s", models.ErrDocumentNotFound, id)
	}
	return d.view(), nil
}

func (m *Memory) FindByGroupAndLanguage(_ context.Context, group, language string) ([]models.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var hits []*memDoc
	for _, d := range m.docs {
		if d.meta[models.MetaTranslationGroup] != group {
			continue
		}
		if d.meta[models.MetaLanguage] != language {
			continue
		}
		hits = append(hits, d)
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].seq < hits[j].seq })
	out := make([]models.Document, 0, len(hits))
	for _, d := range hits {
		out = append(out, d.view())
	}
	return out, nil
}

func (m *Memory) CreateDocument(_ context.Context, nd NewDocument) (string, error) {
	id := m.Put(models.Document{
		Title:   nd.Title,
		Content: nd.Content,
		Status:  nd.Status,
		Type:    nd.Type,
		Slug:    nd.Slug,
	})
	return id, nil
}

func (m *Memory) SetMetadata(_ context.Context, id, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok {
		return fmt.Errorf("%w: %s", models.ErrDocumentNotFound, id)
	}
	d.meta[key] = value
	return nil
}

func (m *Memory) SetMetadataIfAbsent(_ context.Context, id, key, value string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok {
		return "", fmt.Errorf("%w: %s", models.ErrDocumentNotFound, id)
	}
	if cur := d.meta[key]; cur != "" {
		return cur, nil
	}
	d.meta[key] = value
	return value, nil
}

func (m *Memory) GetMetadata(_ context.Context, id, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.docs[id]
	if !ok {
		return "", fmt.Errorf("%w: %s", models.ErrDocumentNotFound, id)
	}
	return d.meta[key], nil
}

func (m *Memory) SlugExists(_ context.Context, docType, slug string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, d := range m.docs {
		if d.doc.Type == docType && d.doc.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (d *memDoc) view() models.Document {
	doc := d.doc
	doc.Language = d.meta[models.MetaLanguage]
	doc.TranslationGroup = d.meta[models.MetaTranslationGroup]
	return doc
}
