package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/skywise-ai/skywise/engine/policy"
)

var supportedExtensions = map[string]struct{}{
	".md":       {},
	".markdown": {},
	".txt":      {},
	".pdf":      {},
}

// ListPolicyFiles enumerates the policy files for one airline under
// <root>/<Airline>/, recursively, filtered to supported formats. The result
// is sorted so ingestion order is deterministic.
func ListPolicyFiles(root string, airline policy.Airline) ([]string, error) {
	airlineDir := filepath.Join(root, string(airline))
	info, err := os.Stat(airlineDir)
	if err != nil {
		return nil, fmt.Errorf("ingest: airline folder %q: %w", airlineDir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("ingest: airline path %q is not a directory", airlineDir)
	}
	pattern := filepath.Join(airlineDir, "**", "*")
	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("ingest: glob %q failed: %w", pattern, err)
	}
	files := make([]string, 0, len(matches))
	for _, match := range matches {
		stat, err := os.Stat(match)
		if err != nil || stat.IsDir() {
			continue
		}
		if _, ok := supportedExtensions[strings.ToLower(filepath.Ext(match))]; !ok {
			continue
		}
		files = append(files, match)
	}
	sort.Strings(files)
	return files, nil
}

// DeriveCategory tags a document by filename so queries can narrow results
// to a policy area. Anything unrecognized stays untagged.
func DeriveCategory(path string) policy.Category {
	name := strings.ToLower(filepath.Base(path))
	switch {
	case strings.Contains(name, "baggage"), strings.Contains(name, "luggage"):
		return policy.CategoryBaggage
	case strings.Contains(name, "children"), strings.Contains(name, "minor"), strings.Contains(name, "family"):
		return policy.CategoryChildren
	default:
		return ""
	}
}
