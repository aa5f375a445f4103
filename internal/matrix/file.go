package matrix

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ziadkadry99/auto-assign/internal/incident"
)

// fileLayout is the on-disk shape of a teams file:
//
//	teams:
//	  - name: backend
//	    members: [...]
//	routing:
//	  BACKEND_API: [backend]
type fileLayout struct {
	Teams   []incident.TeamStructure          `yaml:"teams"`
	Routing map[incident.ProblemType][]string `yaml:"routing"`
}

// LoadFile builds a matrix from a YAML teams file. When the file has no
// routing section the built-in routing is used, which then must only name
// teams present in the file.
func LoadFile(path string) (*Matrix, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading teams file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse builds a matrix from YAML bytes in the teams file format.
func Parse(data []byte) (*Matrix, error) {
	var layout fileLayout
	if err := yaml.Unmarshal(data, &layout); err != nil {
		return nil, fmt.Errorf("parsing teams file: %w", err)
	}
	if len(layout.Teams) == 0 {
		return nil, fmt.Errorf("teams file defines no teams")
	}
	routing := layout.Routing
	if routing == nil {
		routing = defaultRouting()
	}
	m, err := Build(layout.Teams, routing)
	if err != nil {
		return nil, fmt.Errorf("building matrix: %w", err)
	}
	return m, nil
}
