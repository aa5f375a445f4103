package config

import "time"

// StorageDriver selects where assignments, workload and escalations live.
type StorageDriver string

const (
	StorageMemory StorageDriver = "memory"
	StorageSQLite StorageDriver = "sqlite"
)

// Config is the top-level autoassign configuration, corresponding to
// .autoassign.yml.
type Config struct {
	Server     ServerConfig     `yaml:"server" koanf:"server"`
	Storage    StorageConfig    `yaml:"storage" koanf:"storage"`
	Scoring    ScoringConfig    `yaml:"scoring" koanf:"scoring"`
	Escalation EscalationConfig `yaml:"escalation" koanf:"escalation"`
	Monitor    MonitorConfig    `yaml:"monitor" koanf:"monitor"`
	Log        LogConfig        `yaml:"log" koanf:"log"`
	// TeamsFile replaces the built-in responsibility matrix when set.
	TeamsFile string `yaml:"teams_file,omitempty" koanf:"teams_file"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Port        int      `yaml:"port" koanf:"port"`
	CORSOrigins []string `yaml:"cors_origins" koanf:"cors_origins"`
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	Driver StorageDriver `yaml:"driver" koanf:"driver"`
	Path   string        `yaml:"path" koanf:"path"`
}

// ScoringConfig tunes the workload balancer.
type ScoringConfig struct {
	Weights   WeightsConfig   `yaml:"weights" koanf:"weights"`
	MaxLoad   int             `yaml:"max_load" koanf:"max_load"`
	CoreHours CoreHoursConfig `yaml:"core_hours" koanf:"core_hours"`
}

// WeightsConfig are the candidate scoring weights; they must sum to 1.
type WeightsConfig struct {
	Expertise    float64 `yaml:"expertise" koanf:"expertise"`
	Availability float64 `yaml:"availability" koanf:"availability"`
	Load         float64 `yaml:"load" koanf:"load"`
	SuccessRate  float64 `yaml:"success_rate" koanf:"success_rate"`
}

// CoreHoursConfig is the working-hours window used for availability.
type CoreHoursConfig struct {
	Start  int `yaml:"start" koanf:"start"`
	End    int `yaml:"end" koanf:"end"`
	Buffer int `yaml:"buffer" koanf:"buffer"`
}

// EscalationConfig tunes level selection and customer service routing.
type EscalationConfig struct {
	AutoRetryLimit int  `yaml:"auto_retry_limit" koanf:"auto_retry_limit"`
	SmartRouting   bool `yaml:"smart_routing" koanf:"smart_routing"`
}

// MonitorConfig controls the background escalation sweep.
type MonitorConfig struct {
	Enabled  bool          `yaml:"enabled" koanf:"enabled"`
	Interval time.Duration `yaml:"interval" koanf:"interval"`
}

// LogConfig selects the zap logger.
type LogConfig struct {
	Level  string `yaml:"level" koanf:"level"`
	Format string `yaml:"format" koanf:"format"`
}
