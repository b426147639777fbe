// Package duplicator produces language-tagged translated siblings of CMS
// documents.
package duplicator

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"translation-queue/internal/cms"
	"translation-queue/internal/logger"
	"translation-queue/internal/models"
	"translation-queue/internal/provider"
	"translation-queue/internal/splitter"
)

// Duplicator translates a document and stores the result as a new draft in
// the same translation group.
type Duplicator struct {
	docs            cms.Store
	translator      provider.Translator
	defaultLanguage string
	log             *logger.Logger
	newGroupID      func() string
}

func New(docs cms.Store, translator provider.Translator, defaultLanguage string, log *logger.Logger) *Duplicator {
	if log == nil {
		log = logger.Nop()
	}
	return &Duplicator{
		docs:            docs,
		translator:      translator,
		defaultLanguage: defaultLanguage,
		log:             log,
		newGroupID:      func() string { return "group_" + uuid.NewString() },
	}
}

// EnsureGroup returns the document's translation group, assigning a fresh one
// on first use. Later calls return the stored value unchanged, and concurrent
// first calls agree on a single group.
func (d *Duplicator) EnsureGroup(ctx context.Context, documentID string) (string, error) {
	group, err := d.docs.GetMetadata(ctx, documentID, models.MetaTranslationGroup)
	if err != nil {
		return "", fmt.Errorf("read translation group: %w", err)
	}
	if group != "" {
		return group, nil
	}
	candidate := d.newGroupID()
	group, err = d.docs.SetMetadataIfAbsent(ctx, documentID, models.MetaTranslationGroup, candidate)
	if err != nil {
		return "", fmt.Errorf("assign translation group: %w", err)
	}
	if group == candidate {
		d.log.Debug("translation group assigned", "document_id", documentID, "group", group)
	}
	return group, nil
}

// HasTranslation reports whether documentID already exists in language,
// either because it is written in it or because a group member is.
func (d *Duplicator) HasTranslation(ctx context.Context, documentID, language string) (bool, error) {
	doc, err := d.docs.GetDocument(ctx, documentID)
	if err != nil {
		return false, err
	}
	if doc.EffectiveLanguage(d.defaultLanguage) == language {
		return true, nil
	}
	if doc.TranslationGroup == "" {
		return false, nil
	}
	members, err := d.docs.FindByGroupAndLanguage(ctx, doc.TranslationGroup, language)
	if err != nil {
		return false, fmt.Errorf("lookup translations: %w", err)
	}
	if len(members) > 0 {
		return true, nil
	}
	if language != d.defaultLanguage {
		return false, nil
	}
	untagged, err := d.docs.FindByGroupAndLanguage(ctx, doc.TranslationGroup, "")
	if err != nil {
		return false, fmt.Errorf("lookup translations: %w", err)
	}
	return len(untagged) > 0, nil
}

// TranslateDocument creates a translated draft of sourceID and returns its id.
// Provider errors are returned unchanged and leave no document behind.
// Calling it twice creates two translations.
func (d *Duplicator) TranslateDocument(ctx context.Context, sourceID, targetLanguage string) (string, error) {
	src, err := d.docs.GetDocument(ctx, sourceID)
	if err != nil {
		return "", err
	}
	group, err := d.EnsureGroup(ctx, sourceID)
	if err != nil {
		return "", err
	}

	content, err := d.translateContent(ctx, src.Content, targetLanguage)
	if err != nil {
		return "", err
	}

	nd := cms.NewDocument{
		Title:   fmt.Sprintf("%s (%s)", src.Title, strings.ToUpper(targetLanguage)),
		Content: content,
		Status:  models.DocumentStatusDraft,
		Type:    src.Type,
	}
	if targetLanguage != d.defaultLanguage {
		base := src.Slug
		if base == "" {
			base = Slugify(src.Title)
		}
		slug, err := uniqueSlug(ctx, d.docs, src.Type, targetLanguage+"/"+base)
		if err != nil {
			return "", fmt.Errorf("localized slug: %w", err)
		}
		nd.Slug = slug
	}

	newID, err := d.docs.CreateDocument(ctx, nd)
	if err != nil {
		return "", fmt.Errorf("create document: %w", err)
	}
	if err := d.docs.SetMetadata(ctx, newID, models.MetaTranslationGroup, group); err != nil {
		return "", fmt.Errorf("tag translation group: %w", err)
	}
	if err := d.docs.SetMetadata(ctx, newID, models.MetaLanguage, targetLanguage); err != nil {
		return "", fmt.Errorf("tag language: %w", err)
	}
	d.log.Info("document translated", "source_id", sourceID, "new_id", newID, "language", targetLanguage)
	return newID, nil
}

// translateContent sends every non-blank text span to the provider and keeps
// tokens and blank spans verbatim.
func (d *Duplicator) translateContent(ctx context.Context, content, targetLanguage string) (string, error) {
	spans := splitter.Split(content)
	for i, span := range spans {
		if span.Kind == splitter.Token || splitter.IsBlank(span.Value) {
			continue
		}
		core := strings.TrimSpace(span.Value)
		translated, err := d.translator.Translate(ctx, core, targetLanguage)
		if err != nil {
			return "", err
		}
		lead := span.Value[:strings.Index(span.Value, core)]
		trail := span.Value[len(lead)+len(core):]
		spans[i].Value = lead + translated + trail
	}
	return splitter.Join(spans), nil
}
