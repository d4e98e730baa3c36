package config

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed categories.yaml
var categoriesYAML []byte

// ContextCategory is one row of the category keyword table. Detection happens
// in the agent service; this table is reference data only.
type ContextCategory struct {
	Name     string   `yaml:"name" json:"name"`
	Buffer   int      `yaml:"buffer" json:"buffer"`
	Keywords []string `yaml:"keywords" json:"keywords"`
}

type categoryFile struct {
	Categories []ContextCategory `yaml:"categories"`
}

var (
	cachedCategories []ContextCategory
	categoriesErr    error
	categoriesOnce   sync.Once
)

// LoadCategories returns the embedded category keyword table.
func LoadCategories() ([]ContextCategory, error) {
	categoriesOnce.Do(func() {
		cachedCategories, categoriesErr = ParseCategories(categoriesYAML)
	})
	return cachedCategories, categoriesErr
}

// ParseCategories parses a category table document.
func ParseCategories(data []byte) ([]ContextCategory, error) {
	var file categoryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse category table: %w", err)
	}

	seen := make(map[string]bool, len(file.Categories))
	for _, c := range file.Categories {
		if strings.TrimSpace(c.Name) == "" {
			return nil, fmt.Errorf("category table: entry with empty name")
		}
		if c.Buffer < 0 {
			return nil, fmt.Errorf("category table: %s has negative buffer %d", c.Name, c.Buffer)
		}
		if seen[c.Name] {
			return nil, fmt.Errorf("category table: duplicate category %s", c.Name)
		}
		seen[c.Name] = true
	}
	return file.Categories, nil
}
