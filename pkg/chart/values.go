package chart

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Values is the nested value tree rendered into a chart values file.
type Values map[string]any

// Set writes a value at a dotted path, creating intermediate maps.
// Set("hedera.nodes.node1.accountId", "0.0.3") produces the obvious nesting.
func (v Values) Set(path string, value any) {
	keys := splitPath(path)
	current := v
	for _, key := range keys[:len(keys)-1] {
		next, ok := current[key].(Values)
		if !ok {
			next = Values{}
			current[key] = next
		}
		current = next
	}
	current[keys[len(keys)-1]] = value
}

func splitPath(path string) []string {
	var keys []string
	start := 0
	for i := 0; i <= len(path); i++ {
		if i == len(path) || path[i] == '.' {
			if i > start {
				keys = append(keys, path[start:i])
			}
			start = i + 1
		}
	}
	return keys
}

// WriteValuesFile renders the values to a yaml file under dir, creating the
// directory if absent, and returns the file path.
func WriteValuesFile(dir, name string, values Values) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create values directory: %w", err)
	}

	data, err := yaml.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("failed to render values: %w", err)
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write values file: %w", err)
	}
	return path, nil
}
