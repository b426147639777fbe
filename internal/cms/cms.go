// Package cms defines the content-store collaborator the translation engine
// reads source documents from and writes translations into.
package cms

import (
	"context"

	"translation-queue/internal/models"
)

// NewDocument collects the fields needed to create a document.
type NewDocument struct {
	Title   string
	Content string
	Status  string
	Type    string
	Slug    string
}

// Store is the CMS surface the engine depends on.
type Store interface {
	// GetDocument returns models.ErrDocumentNotFound when id does not resolve.
	GetDocument(ctx context.Context, id string) (models.Document, error)
	// FindByGroupAndLanguage lists group members tagged with language;
	// an empty language selects untagged documents.
	FindByGroupAndLanguage(ctx context.Context, group, language string) ([]models.Document, error)
	CreateDocument(ctx context.Context, doc NewDocument) (string, error)
	SetMetadata(ctx context.Context, id, key, value string) error
	// SetMetadataIfAbsent stores value only when key is unset or empty and
	// returns whatever value the key holds afterwards.
	SetMetadataIfAbsent(ctx context.Context, id, key, value string) (string, error)
	GetMetadata(ctx context.Context, id, key string) (string, error)
	SlugExists(ctx context.Context, docType, slug string) (bool, error)
}
