package models

// Metadata keys the engine reads and writes on CMS documents.
const (
	MetaTranslationGroup = "translation_group"
	MetaLanguage         = "language"
)

// DocumentStatusDraft is the status given to freshly produced translations.
const DocumentStatusDraft = "draft"

// Document is the slice of a CMS document the translation engine cares about.
type Document struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	Content          string `json:"content"`
	Status           string `json:"status"`
	Type             string `json:"type"`
	Slug             string `json:"slug"`
	Language         string `json:"language,omitempty"`
	TranslationGroup string `json:"translation_group,omitempty"`
}

// EffectiveLanguage resolves an untagged document to the default language.
func (d Document) EffectiveLanguage(defaultLanguage string) string {
	if d.Language == "" {
		return defaultLanguage
	}
	return d.Language
}
