package sources

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/civicdata/transparencia/core"
)

// classifierRule maps a filename substring to a category. Rules are
// evaluated in order; the first match wins, so "conv" must come before
// "ayudas" or call files would be misread as award files.
type classifierRule struct {
	substring string
	category  core.Category
}

var classifierRules = []classifierRule{
	{"conv", core.CategoryGrantCall},
	{"ayudas", core.CategoryGrantAward},
	{"gastos", core.CategoryExpenditure},
	{"ingresos", core.CategoryRevenue},
	{"licitacion", core.CategoryTender},
}

// Manifest maps each entity category to the sorted list of absolute
// source file paths classified under it.
type Manifest map[core.Category][]string

// Classify returns the entity category for a filename, or false when the
// name matches no known pattern. Matching is case-insensitive and
// follows a fixed priority order.
func Classify(filename string) (core.Category, bool) {
	name := strings.ToLower(filepath.Base(filename))
	for _, rule := range classifierRules {
		if strings.Contains(name, rule.substring) {
			return rule.category, true
		}
	}
	return 0, false
}

// Discover scans dir for .csv files and classifies them into a
// Manifest. Each category's list is deduplicated, absolute and sorted,
// so repeated runs over the same directory see files in the same order.
// A missing directory is an error; a directory with no matching files
// yields an empty manifest.
func Discover(dir string) (Manifest, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDirNotFound, dir, err)
	}

	seen := make(map[string]bool)
	manifest := make(Manifest)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.EqualFold(filepath.Ext(name), ".csv") {
			continue
		}
		category, ok := Classify(name)
		if !ok {
			continue
		}
		path, err := filepath.Abs(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", name, err)
		}
		if seen[path] {
			continue
		}
		seen[path] = true
		manifest[category] = append(manifest[category], path)
	}

	for _, paths := range manifest {
		sort.Strings(paths)
	}
	return manifest, nil
}
