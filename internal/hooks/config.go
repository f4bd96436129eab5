package hooks

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const envPrefix = "OHMYMKT_HOOKS_"

// Config selects which built-in handlers are registered.
type Config struct {
	// GateEnforcer blocks GatedTools until every gate passes.
	GateEnforcer bool     `json:"gate_enforcer"`
	GatedTools   []string `json:"gated_tools"`

	// P0Escalation appends the escalation protocol to P0 incident output.
	P0Escalation bool `json:"p0_escalation"`

	// DualTrackWarning flags cycle output that shows single-track drift.
	DualTrackWarning bool `json:"dual_track_warning"`

	// CycleReminder warns when the last weekly cycle is older than
	// CycleReminderDays.
	CycleReminder     bool `json:"cycle_reminder"`
	CycleReminderDays int  `json:"cycle_reminder_days"`
}

// ConfigFile represents the structure of the hooks file.
type ConfigFile struct {
	Hooks *Config `json:"hooks"`
}

// DefaultConfig enables every built-in handler.
func DefaultConfig() *Config {
	return &Config{
		GateEnforcer:      true,
		GatedTools:        []string{"ohmymkt_start_campaign"},
		P0Escalation:      true,
		DualTrackWarning:  true,
		CycleReminder:     true,
		CycleReminderDays: 7,
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.CycleReminderDays < 1 || c.CycleReminderDays > 365 {
		return fmt.Errorf("cycle_reminder_days must be between 1 and 365, got %d", c.CycleReminderDays)
	}
	for _, tool := range c.GatedTools {
		if strings.TrimSpace(tool) == "" {
			return fmt.Errorf("gated_tools must not contain empty names")
		}
	}
	return nil
}

// IsGated reports whether tool requires all gates to pass.
func (c *Config) IsGated(tool string) bool {
	for _, t := range c.GatedTools {
		if t == tool {
			return true
		}
	}
	return false
}

// CycleReminderAge is the weekly cycle age beyond which the reminder fires.
func (c *Config) CycleReminderAge() time.Duration {
	return time.Duration(c.CycleReminderDays) * 24 * time.Hour
}

// LoadConfig loads configuration from a JSON file. A missing file or a
// file without a hooks section yields the defaults; fields absent from the
// section keep their defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read hooks file: %w", err)
	}

	configFile := ConfigFile{Hooks: DefaultConfig()}
	if err := json.Unmarshal(data, &configFile); err != nil {
		return nil, fmt.Errorf("failed to parse hooks file: %w", err)
	}
	if configFile.Hooks == nil {
		return DefaultConfig(), nil
	}

	if err := configFile.Hooks.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return configFile.Hooks, nil
}

// LoadConfigWithEnvOverride loads the hooks file and applies OHMYMKT_HOOKS_*
// overrides. Unparseable values are ignored.
func LoadConfigWithEnvOverride(path string) (*Config, error) {
	config, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	overrideBool(&config.GateEnforcer, "GATE_ENFORCER")
	overrideBool(&config.P0Escalation, "P0_ESCALATION")
	overrideBool(&config.DualTrackWarning, "DUAL_TRACK_WARNING")
	overrideBool(&config.CycleReminder, "CYCLE_REMINDER")

	if val := os.Getenv(envPrefix + "CYCLE_REMINDER_DAYS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			config.CycleReminderDays = i
		}
	}
	if val := os.Getenv(envPrefix + "GATED_TOOLS"); val != "" {
		var tools []string
		for _, t := range strings.Split(val, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tools = append(tools, t)
			}
		}
		config.GatedTools = tools
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config after env override: %w", err)
	}
	return config, nil
}

func overrideBool(dst *bool, name string) {
	if val := os.Getenv(envPrefix + name); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}
