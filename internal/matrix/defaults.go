package matrix

import "github.com/ziadkadry99/auto-assign/internal/incident"

func defaultTeams() []incident.TeamStructure {
	return []incident.TeamStructure{
		{
			Name:        "frontend",
			Specialties: []string{"react", "css", "ui", "accessibility"},
			Timezone:    "Europe/Berlin",
			Members: []incident.TeamMember{
				{ID: "fe-anna", Name: "Anna Keller", Email: "anna.keller@example.com", Specialties: []string{"react", "typescript", "ui"}, Timezone: "Europe/Berlin"},
				{ID: "fe-liam", Name: "Liam Ortiz", Email: "liam.ortiz@example.com", Specialties: []string{"css", "accessibility", "component"}, Timezone: "America/New_York"},
			},
		},
		{
			Name:        "backend",
			Specialties: []string{"api", "go", "services"},
			Timezone:    "Europe/London",
			Members: []incident.TeamMember{
				{ID: "be-sara", Name: "Sara Lindqvist", Email: "sara.lindqvist@example.com", Specialties: []string{"api", "rest", "auth", "go"}, Timezone: "Europe/Stockholm"},
				{ID: "be-omar", Name: "Omar Haddad", Email: "omar.haddad@example.com", Specialties: []string{"api", "grpc", "timeout", "queue"}, Timezone: "Europe/London"},
				{ID: "be-mei", Name: "Mei Tanaka", Email: "mei.tanaka@example.com", Specialties: []string{"integration", "webhook", "api"}, Timezone: "Asia/Tokyo"},
			},
		},
		{
			Name:        "database",
			Specialties: []string{"sql", "migrations", "replication"},
			Timezone:    "Europe/London",
			Members: []incident.TeamMember{
				{ID: "db-ravi", Name: "Ravi Menon", Email: "ravi.menon@example.com", Specialties: []string{"sql", "postgres", "index", "deadlock"}, Timezone: "Asia/Kolkata"},
				{ID: "db-jana", Name: "Jana Novak", Email: "jana.novak@example.com", Specialties: []string{"migration", "replication", "backup"}, Timezone: "Europe/Prague"},
			},
		},
		{
			Name:        "security",
			Specialties: []string{"vulnerability", "auth", "secrets"},
			Timezone:    "America/New_York",
			Members: []incident.TeamMember{
				{ID: "sec-nora", Name: "Nora Bakker", Email: "nora.bakker@example.com", Specialties: []string{"vulnerability", "cve", "injection", "xss"}, Timezone: "Europe/Amsterdam"},
				{ID: "sec-david", Name: "David Cho", Email: "david.cho@example.com", Specialties: []string{"auth", "token", "secrets", "tls"}, Timezone: "America/New_York"},
			},
		},
		{
			Name:        "platform",
			Specialties: []string{"kubernetes", "ci", "deploy", "observability"},
			Timezone:    "UTC",
			Members: []incident.TeamMember{
				{ID: "plat-ines", Name: "Ines Duarte", Email: "ines.duarte@example.com", Specialties: []string{"kubernetes", "deploy", "helm", "rollout"}, Timezone: "Europe/Lisbon"},
				{ID: "plat-tom", Name: "Tom Becker", Email: "tom.becker@example.com", Specialties: []string{"ci", "pipeline", "build", "docker"}, Timezone: "UTC"},
				{ID: "plat-ada", Name: "Ada Mensah", Email: "ada.mensah@example.com", Specialties: []string{"latency", "memory", "cpu", "profiling"}, Timezone: "Africa/Accra"},
			},
		},
		{
			Name:        "quality",
			Specialties: []string{"testing", "lint", "review"},
			Timezone:    "America/Los_Angeles",
			Members: []incident.TeamMember{
				{ID: "qa-ella", Name: "Ella Fischer", Email: "ella.fischer@example.com", Specialties: []string{"test", "flaky", "coverage"}, Timezone: "America/Los_Angeles"},
				{ID: "qa-yusuf", Name: "Yusuf Demir", Email: "yusuf.demir@example.com", Specialties: []string{"lint", "complexity", "refactor", "smell"}, Timezone: "Europe/Istanbul"},
			},
		},
	}
}

func defaultRouting() map[incident.ProblemType][]string {
	return map[incident.ProblemType][]string{
		incident.ProblemFrontendUI:     {"frontend"},
		incident.ProblemBackendAPI:     {"backend"},
		incident.ProblemDatabase:       {"database", "backend"},
		incident.ProblemSecurity:       {"security", "backend"},
		incident.ProblemPerformance:    {"platform", "backend"},
		incident.ProblemInfrastructure: {"platform"},
		incident.ProblemDeployment:     {"platform"},
		incident.ProblemCodeQuality:    {"quality"},
		incident.ProblemTesting:        {"quality", "platform"},
		incident.ProblemIntegration:    {"backend", "platform"},
	}
}
