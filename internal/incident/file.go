package incident

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// ExpandPatterns resolves glob patterns (with ** support) to a sorted,
// de-duplicated list of files. A pattern that matches nothing is an error.
func ExpandPatterns(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	for _, p := range patterns {
		matches, err := doublestar.FilepathGlob(p, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", p, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files match %q", p)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}
	sort.Strings(files)
	return files, nil
}

// LoadFile reads the incidents in a YAML or JSON file. A file holds either
// a single incident or a list of them.
func LoadFile(path string) ([]Incident, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	incidents, err := parseIncidents(data, strings.ToLower(filepath.Ext(path)) == ".json")
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return incidents, nil
}

func parseIncidents(data []byte, isJSON bool) ([]Incident, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	if isJSON {
		if trimmed[0] == '[' {
			var list []Incident
			err := json.Unmarshal(trimmed, &list)
			return list, err
		}
		var one Incident
		if err := json.Unmarshal(trimmed, &one); err != nil {
			return nil, err
		}
		return []Incident{one}, nil
	}

	var node yaml.Node
	if err := yaml.Unmarshal(trimmed, &node); err != nil {
		return nil, err
	}
	if len(node.Content) > 0 && node.Content[0].Kind == yaml.SequenceNode {
		var list []Incident
		err := node.Decode(&list)
		return list, err
	}
	var one Incident
	if err := node.Decode(&one); err != nil {
		return nil, err
	}
	return []Incident{one}, nil
}
