package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// defaultCategories is used whenever no categories file is configured
// or the file can't be read.
var defaultCategories = []string{"politics", "sports", "weather", "technology", "finance", "general"}

// categoriesFile holds the allow-list of market categories as a YAML
// list under a top-level categories key, e.g.:
//   categories:
//     - politics
//     - sports
type categoriesFile struct {
	Categories []string `yaml:"categories"`
}

// LoadCategories reads the allow-list of market categories from path.
// An empty path or unreadable file falls back to defaultCategories.
func LoadCategories(path string) []string {
	if path == "" {
		return defaultCategories
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return defaultCategories
	}
	var f categoriesFile
	if err := yaml.Unmarshal(data, &f); err != nil || len(f.Categories) == 0 {
		return defaultCategories
	}
	return f.Categories
}

// IsValidCategory reports whether category appears in categories
// (case-sensitive, matching the flat strings the YAML file lists).
func IsValidCategory(categories []string, category string) bool {
	for _, c := range categories {
		if c == category {
			return true
		}
	}
	return false
}
