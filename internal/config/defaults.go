package config

import (
	"time"

	"github.com/ziadkadry99/auto-assign/internal/escalation"
	"github.com/ziadkadry99/auto-assign/internal/workload"
)

// DefaultPath is the config file looked up in the working directory.
const DefaultPath = ".autoassign.yml"

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	wl := workload.DefaultConfig()
	esc := escalation.DefaultConfig()
	return &Config{
		Server: ServerConfig{
			Port:        8080,
			CORSOrigins: []string{"*"},
		},
		Storage: StorageConfig{
			Driver: StorageSQLite,
			Path:   ".autoassign/autoassign.db",
		},
		Scoring: ScoringConfig{
			Weights: WeightsConfig{
				Expertise:    wl.Weights.Expertise,
				Availability: wl.Weights.Availability,
				Load:         wl.Weights.Load,
				SuccessRate:  wl.Weights.SuccessRate,
			},
			MaxLoad: wl.MaxLoad,
			CoreHours: CoreHoursConfig{
				Start:  wl.CoreHours.Start,
				End:    wl.CoreHours.End,
				Buffer: wl.CoreHours.Buffer,
			},
		},
		Escalation: EscalationConfig{
			AutoRetryLimit: esc.AutoRetryLimit,
			SmartRouting:   esc.SmartRouting,
		},
		Monitor: MonitorConfig{
			Enabled:  true,
			Interval: time.Minute,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Workload converts the scoring section into balancer settings.
func (c ScoringConfig) Workload() workload.Config {
	return workload.Config{
		Weights: workload.Weights{
			Expertise:    c.Weights.Expertise,
			Availability: c.Weights.Availability,
			Load:         c.Weights.Load,
			SuccessRate:  c.Weights.SuccessRate,
		},
		MaxLoad: c.MaxLoad,
		CoreHours: workload.CoreHours{
			Start:  c.CoreHours.Start,
			End:    c.CoreHours.End,
			Buffer: c.CoreHours.Buffer,
		},
	}
}

// Engine converts the escalation section into engine settings.
func (c EscalationConfig) Engine() escalation.Config {
	return escalation.Config{
		AutoRetryLimit: c.AutoRetryLimit,
		SmartRouting:   c.SmartRouting,
	}
}
