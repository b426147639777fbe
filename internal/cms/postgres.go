package cms

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"translation-queue/internal/models"
)

// Postgres reads and writes documents in the documents/document_meta tables.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

const selectDocument = `
	SELECT d.id, d.title, d.content, d.status, d.type, d.slug,
	       COALESCE(lang.value, ''), COALESCE(grp.value, '')
	FROM documents d
	LEFT JOIN document_meta lang ON lang.document_id = d.id AND lang.key = 'language'
	LEFT JOIN document_meta grp  ON grp.document_id = d.id AND grp.key = 'translation_group'
`

// GetDocument fetches a document with its language and group metadata.
func (p *Postgres) GetDocument(ctx context.Context, id string) (models.Document, error) {
	row := p.pool.QueryRow(ctx, selectDocument+` WHERE d.id = $1`, id)
	doc, err := scanDocument(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Document{}, fmt.Errorf("%w: %s", models.ErrDocumentNotFound, id)
	}
	if err != nil {
		return models.Document{}, fmt.Errorf("scan document: %w", err)
	}
	return doc, nil
}

// FindByGroupAndLanguage lists documents of a group in creation order.
func (p *Postgres) FindByGroupAndLanguage(ctx context.Context, group, language string) ([]models.Document, error) {
	rows, err := p.pool.Query(ctx, selectDocument+`
		WHERE grp.value = $1 AND COALESCE(lang.value, '') = $2
		ORDER BY d.created_at, d.id
	`, group, language)
	if err != nil {
		return nil, fmt.Errorf("query group members: %w", err)
	}
	defer rows.Close()

	var out []models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

// CreateDocument inserts a document and returns its generated id.
func (p *Postgres) CreateDocument(ctx context.Context, nd NewDocument) (string, error) {
	id := uuid.New().String()
	_, err := p.pool.Exec(ctx, `
		INSERT INTO documents (id, title, content, status, type, slug, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`, id, nd.Title, nd.Content, nd.Status, nd.Type, nd.Slug)
	if err != nil {
		return "", fmt.Errorf("insert document: %w", err)
	}
	return id, nil
}

// SetMetadata upserts one metadata value.
func (p *Postgres) SetMetadata(ctx context.Context, id, key, value string) error {
	tag, err := p.pool.Exec(ctx, `
		INSERT INTO document_meta (document_id, key, value)
		SELECT id, $2, $3 FROM documents WHERE id = $1
		ON CONFLICT (document_id, key) DO UPDATE SET value = EXCLUDED.value
	`, id, key, value)
	if err != nil {
		return fmt.Errorf("set metadata %s: %w", key, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", models.ErrDocumentNotFound, id)
	}
	return nil
}

// SetMetadataIfAbsent lets the first writer win; concurrent callers all read
// back the same value.
func (p *Postgres) SetMetadataIfAbsent(ctx context.Context, id, key, value string) (string, error) {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO document_meta (document_id, key, value)
		SELECT id, $2, $3 FROM documents WHERE id = $1
		ON CONFLICT (document_id, key) DO UPDATE SET value = EXCLUDED.value
		WHERE document_meta.value = ''
	`, id, key, value)
	if err != nil {
		return "", fmt.Errorf("set metadata %s: %w", key, err)
	}
	stored, err := p.GetMetadata(ctx, id, key)
	if err != nil {
		return "", err
	}
	if stored == "" {
		return "", fmt.Errorf("%w: %s", models.ErrDocumentNotFound, id)
	}
	return stored, nil
}

// GetMetadata returns "" for unset keys.
func (p *Postgres) GetMetadata(ctx context.Context, id, key string) (string, error) {
	var value string
	err := p.pool.QueryRow(ctx, `
		SELECT value FROM document_meta WHERE document_id = $1 AND key = $2
	`, id, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get metadata %s: %w", key, err)
	}
	return value, nil
}

// SlugExists reports whether a document of docType already uses slug.
func (p *Postgres) SlugExists(ctx context.Context, docType, slug string) (bool, error) {
	var exists bool
	err := p.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM documents WHERE type = $1 AND slug = $2)
	`, docType, slug).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check slug: %w", err)
	}
	return exists, nil
}

func scanDocument(row pgx.Row) (models.Document, error) {
	var d models.Document
	err := row.Scan(&d.ID, &d.Title, &d.Content, &d.Status, &d.Type, &d.Slug, &d.Language, &d.TranslationGroup)
	return d, err
}
