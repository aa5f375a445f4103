// Package matrix maps problem categories to the teams responsible for them.
// The tables are configuration, fixed once the matrix is built.
package matrix

import (
	"fmt"
	"sort"

	"github.com/ziadkadry99/auto-assign/internal/incident"
)

// Matrix is a read-only lookup over the routing and team tables.
type Matrix struct {
	routing map[incident.ProblemType][]string
	teams   map[string]incident.TeamStructure
	members map[string]incident.TeamMember
}

// New builds a matrix from the built-in tables.
func New() *Matrix {
	m, err := Build(defaultTeams(), defaultRouting())
	if err != nil {
		// The built-in tables are covered by tests.
		panic(fmt.Sprintf("matrix: invalid built-in tables: %v", err))
	}
	return m
}

// Build creates a matrix from explicit tables. Every team named in routing
// must exist in teams.
func Build(teams []incident.TeamStructure, routing map[incident.ProblemType][]string) (*Matrix, error) {
	m := &Matrix{
		routing: make(map[incident.ProblemType][]string, len(routing)),
		teams:   make(map[string]incident.TeamStructure, len(teams)),
		members: make(map[string]incident.TeamMember),
	}

	for _, t := range teams {
		if t.Name == "" {
			return nil, fmt.Errorf("team with empty name")
		}
		if _, dup := m.teams[t.Name]; dup {
			return nil, fmt.Errorf("duplicate team %q", t.Name)
		}
		m.teams[t.Name] = t.Clone()
		for _, member := range t.Members {
			if member.ID == "" {
				return nil, fmt.Errorf("team %q has a member without id", t.Name)
			}
			// First team wins for members listed in several teams.
			if _, seen := m.members[member.ID]; !seen {
				m.members[member.ID] = member.Clone()
			}
		}
	}

	for pt, names := range routing {
		if !pt.Valid() {
			return nil, fmt.Errorf("unknown problem type %q in routing", pt)
		}
		for _, name := range names {
			if _, ok := m.teams[name]; !ok {
				return nil, fmt.Errorf("routing for %s references unknown team %q", pt, name)
			}
		}
		m.routing[pt] = append([]string(nil), names...)
	}

	return m, nil
}

// IdentifyRelevantTeams returns the teams responsible for a problem type in
// routing order. Unknown types yield an empty slice.
func (m *Matrix) IdentifyRelevantTeams(pt incident.ProblemType) []incident.TeamStructure {
	names := m.routing[pt]
	teams := make([]incident.TeamStructure, 0, len(names))
	for _, name := range names {
		teams = append(teams, m.teams[name].Clone())
	}
	return teams
}

// GetMemberByID looks up a member across all teams.
func (m *Matrix) GetMemberByID(id string) (incident.TeamMember, bool) {
	member, ok := m.members[id]
	if !ok {
		return incident.TeamMember{}, false
	}
	return member.Clone(), true
}

// GetTeamStructure looks up a team by name.
func (m *Matrix) GetTeamStructure(name string) (incident.TeamStructure, bool) {
	t, ok := m.teams[name]
	if !ok {
		return incident.TeamStructure{}, false
	}
	return t.Clone(), true
}

// Teams returns every team sorted by name.
func (m *Matrix) Teams() []incident.TeamStructure {
	teams := make([]incident.TeamStructure, 0, len(m.teams))
	for _, t := range m.teams {
		teams = append(teams, t.Clone())
	}
	sort.Slice(teams, func(i, j int) bool { return teams[i].Name < teams[j].Name })
	return teams
}

// Routing returns the team names for a problem type.
func (m *Matrix) Routing(pt incident.ProblemType) []string {
	return append([]string(nil), m.routing[pt]...)
}
