package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/scrypster/ashley/pkg/types"
)

// LoadIntentCatalog returns the intent catalog. When path is empty the
// built-in default catalog is returned; otherwise the YAML file at path is
// loaded and validated. The file is a list of {intent, patterns} entries.
//
// Validation enforces the catalog invariants: intent names must be unique
// and no intent may have an empty pattern set.
func LoadIntentCatalog(path string) (*types.IntentCatalog, error) {
	if path == "" {
		return types.DefaultIntentCatalog(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read intent catalog: %w", err)
	}

	var entries []types.CatalogEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("config: failed to parse intent catalog: %w", err)
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("config: intent catalog %s contains no entries", path)
	}

	seen := make(map[types.Intent]bool, len(entries))
	for _, e := range entries {
		if e.Intent == "" {
			return nil, fmt.Errorf("config: intent catalog %s has an entry with no intent name", path)
		}
		if seen[e.Intent] {
			return nil, fmt.Errorf("config: duplicate intent %q in catalog %s", e.Intent, path)
		}
		if len(e.Patterns) == 0 {
			return nil, fmt.Errorf("config: intent %q has an empty pattern set", e.Intent)
		}
		seen[e.Intent] = true
	}

	return types.NewIntentCatalog(entries), nil
}
