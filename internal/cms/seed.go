package cms

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"translation-queue/internal/models"
)

type seedDocument struct {
	ID               string `yaml:"id"`
	Title            string `yaml:"title"`
	Content          string `yaml:"content"`
	Status           string `yaml:"status"`
	Type             string `yaml:"type"`
	Slug             string `yaml:"slug"`
	Language         string `yaml:"language"`
	TranslationGroup string `yaml:"translation_group"`
}

// LoadSeed reads a YAML list of documents into m and returns how many were
// stored. Documents without an id get a generated one.
func (m *Memory) LoadSeed(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read cms seed: %w", err)
	}
	var docs []seedDocument
	if err := yaml.Unmarshal(data, &docs); err != nil {
		return 0, fmt.Errorf("parse cms seed: %w", err)
	}
	for _, d := range docs {
		status := d.Status
		if status == "" {
			status = "publish"
		}
		m.Put(models.Document{
			ID:               d.ID,
			Title:            d.Title,
			Content:          d.Content,
			Status:           status,
			Type:             d.Type,
			Slug:             d.Slug,
			Language:         d.Language,
			TranslationGroup: d.TranslationGroup,
		})
	}
	return len(docs), nil
}
