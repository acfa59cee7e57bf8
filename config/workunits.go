package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/stylescrape/stylescrape/models"
)

// KeywordMap is the on-disk shape of the work-unit configuration:
// category -> gender -> search keywords.
type KeywordMap map[string]map[string][]string

// DefaultKeywords is the built-in unit set used when no file is supplied.
var DefaultKeywords = KeywordMap{
	"Shoes": {
		"Women": {
			"women+sneakers",
			"women+heels",
			"women+sandals",
			"women+boots",
		},
		"Men": {
			"men+sneakers",
			"men+formal+shoes",
			"men+sandals",
			"men+slippers",
		},
	},
}

// LoadWorkUnits reads a keyword map from a JSON file and flattens it. An empty
// path yields the built-in default set.
func LoadWorkUnits(path string) ([]models.WorkUnit, error) {
	if path == "" {
		return FlattenWorkUnits(DefaultKeywords), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read work units %s: %w", path, err)
	}
	var m KeywordMap
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parse work units %s: %w", path, err)
	}
	units := FlattenWorkUnits(m)
	if len(units) == 0 {
		return nil, fmt.Errorf("work units %s: no keywords defined", path)
	}
	return units, nil
}

// FlattenWorkUnits expands a keyword map into the ordered unit list. JSON
// objects carry no order, so categories and genders are walked sorted to keep
// the run order deterministic.
func FlattenWorkUnits(m KeywordMap) []models.WorkUnit {
	categories := make([]string, 0, len(m))
	for category := range m {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	var units []models.WorkUnit
	for _, category := range categories {
		genders := make([]string, 0, len(m[category]))
		for gender := range m[category] {
			genders = append(genders, gender)
		}
		sort.Strings(genders)
		for _, gender := range genders {
			for _, keyword := range m[category][gender] {
				if keyword == "" {
					continue
				}
				units = append(units, models.WorkUnit{
					Category: category,
					Gender:   gender,
					Keyword:  keyword,
				})
			}
		}
	}
	return units
}
