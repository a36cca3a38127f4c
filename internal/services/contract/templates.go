package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// templateRegistry holds the contract layouts loaded from disk. Keys come
// from file names: compra-venda.md registers as "compra-venda".
type templateRegistry struct {
	layouts map[string]string
}

// loadTemplates reads every .md file in dir into the registry.
func loadTemplates(dir string) (*templateRegistry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read templates dir %s: %w", dir, err)
	}

	reg := &templateRegistry{layouts: make(map[string]string)}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		content, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read template %s: %w", entry.Name(), err)
		}
		key := strings.TrimSuffix(entry.Name(), ".md")
		reg.layouts[key] = string(content)
	}

	if len(reg.layouts) == 0 {
		return nil, fmt.Errorf("no contract templates found in %s", dir)
	}
	return reg, nil
}

func (r *templateRegistry) layout(key string) (string, bool) {
	layout, ok := r.layouts[key]
	return layout, ok
}

func (r *templateRegistry) keys() []string {
	keys := make([]string, 0, len(r.layouts))
	for k := range r.layouts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
