package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard, saves the result to
// path and returns it.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to autoassign! Let's configure incident routing.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Storage.
	storagePrompt := promptui.Select{
		Label: "Where should assignments be stored",
		Items: []string{
			"sqlite - persistent, survives restarts",
			"memory - lost when the process exits",
		},
	}
	storageIdx, _, err := storagePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("storage selection: %w", err)
	}
	cfg.Storage.Driver = []StorageDriver{StorageSQLite, StorageMemory}[storageIdx]

	if cfg.Storage.Driver == StorageSQLite {
		pathPrompt := promptui.Prompt{
			Label:   "Database path",
			Default: cfg.Storage.Path,
		}
		cfg.Storage.Path, err = pathPrompt.Run()
		if err != nil {
			return nil, fmt.Errorf("database path: %w", err)
		}
	}

	// 2. Server port.
	portPrompt := promptui.Prompt{
		Label:    "HTTP port",
		Default:  strconv.Itoa(cfg.Server.Port),
		Validate: validatePort,
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	cfg.Server.Port, _ = strconv.Atoi(portStr)

	// 3. CORS origins.
	corsPrompt := promptui.Prompt{
		Label:   "Allowed CORS origins (comma-separated)",
		Default: strings.Join(cfg.Server.CORSOrigins, ","),
	}
	corsStr, err := corsPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("cors origins: %w", err)
	}
	cfg.Server.CORSOrigins = splitAndTrim(corsStr)

	// 4. Monitor interval.
	intervalPrompt := promptui.Prompt{
		Label:    "Escalation check interval",
		Default:  cfg.Monitor.Interval.String(),
		Validate: validateInterval,
	}
	intervalStr, err := intervalPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("monitor interval: %w", err)
	}
	cfg.Monitor.Interval, _ = time.ParseDuration(intervalStr)

	// 5. Customer service routing.
	routingPrompt := promptui.Select{
		Label: "Route L5 escalations to customer service agents automatically",
		Items: []string{"yes", "no"},
	}
	routingIdx, _, err := routingPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("smart routing: %w", err)
	}
	cfg.Escalation.SmartRouting = routingIdx == 0

	// 6. Teams file.
	teamsPrompt := promptui.Prompt{
		Label:   "Teams file (leave blank for the built-in matrix)",
		Default: "",
	}
	cfg.TeamsFile, err = teamsPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("teams file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}

func validatePort(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 || n > 65535 {
		return fmt.Errorf("port must be a number between 1 and 65535")
	}
	return nil
}

func validateInterval(s string) error {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fmt.Errorf("interval must be a positive duration such as 30s or 1m")
	}
	return nil
}

// splitAndTrim splits a comma-separated string and trims whitespace.
func splitAndTrim(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		if token := strings.TrimSpace(part); token != "" {
			result = append(result, token)
		}
	}
	return result
}
