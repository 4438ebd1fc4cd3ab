package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mural-robotics/wallsweep/internal/robotlink"
	"github.com/mural-robotics/wallsweep/internal/units"
)

// DefaultConfigPath is the path to the canonical sweep defaults file.
// This is the single source of truth for all default configuration values.
const DefaultConfigPath = "config/wallsweep.defaults.json"

// SweepConfig represents the root configuration for the sweep service.
// The schema matches the /api/config endpoint so the same JSON can be
// used for both startup configuration and inspection at runtime.
type SweepConfig struct {
	// Planner params
	Resolution *float64 `json:"resolution,omitempty"`
	Units      *string  `json:"units,omitempty"`

	// Robot link params
	RobotBaudRate     *int    `json:"robot_baud_rate,omitempty"`
	RobotDataBits     *int    `json:"robot_data_bits,omitempty"`
	RobotStopBits     *int    `json:"robot_stop_bits,omitempty"`
	RobotParity       *string `json:"robot_parity,omitempty"`
	ReconnectInterval *string `json:"reconnect_interval,omitempty"` // duration string like "5s"

	// Notification params
	WebhookURL *string `json:"webhook_url,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptySweepConfig returns a SweepConfig with all fields set to nil.
// Use LoadSweepConfig to load actual values from a config file.
func EmptySweepConfig() *SweepConfig {
	return &SweepConfig{}
}

// DefaultSweepConfig returns a SweepConfig with every field populated
// with its default value.
func DefaultSweepConfig() *SweepConfig {
	return &SweepConfig{
		Resolution:        ptrFloat64(0.05),
		Units:             ptrString(units.Metres),
		RobotBaudRate:     ptrInt(115200),
		RobotDataBits:     ptrInt(8),
		RobotStopBits:     ptrInt(1),
		RobotParity:       ptrString("N"),
		ReconnectInterval: ptrString("5s"),
		WebhookURL:        ptrString(""),
	}
}

// LoadSweepConfig loads a SweepConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
// Fields omitted from the JSON file retain their default values, so
// partial configs are safe.
func LoadSweepConfig(path string) (*SweepConfig, error) {
	// Validate the config file path.
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse JSON into empty config. The Get* methods provide fallback
	// defaults for any fields not specified in the JSON.
	cfg := EmptySweepConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *SweepConfig) Validate() error {
	// Validate Resolution if set
	if c.Resolution != nil {
		if *c.Resolution <= 0 || *c.Resolution > 1 {
			return fmt.Errorf("resolution must be between 0 and 1 metres, got %f", *c.Resolution)
		}
	}

	// Validate Units if set
	if c.Units != nil && *c.Units != "" {
		if !units.IsValid(*c.Units) {
			return fmt.Errorf("invalid units '%s': valid units are %s", *c.Units, units.GetValidUnitsString())
		}
	}

	// Validate the robot port options as a group
	if _, err := c.GetRobotOptions().Normalize(); err != nil {
		return fmt.Errorf("invalid robot port options: %w", err)
	}

	// Validate ReconnectInterval can be parsed if set
	if c.ReconnectInterval != nil && *c.ReconnectInterval != "" {
		if _, err := time.ParseDuration(*c.ReconnectInterval); err != nil {
			return fmt.Errorf("invalid reconnect_interval '%s': %w", *c.ReconnectInterval, err)
		}
	}

	return nil
}

// GetResolution returns the resolution value or the default.
func (c *SweepConfig) GetResolution() float64 {
	if c.Resolution == nil {
		return 0.05 // default
	}
	return *c.Resolution
}

// GetUnits returns the units value or the default.
func (c *SweepConfig) GetUnits() string {
	if c.Units == nil || *c.Units == "" {
		return units.Metres // default
	}
	return *c.Units
}

// GetRobotOptions assembles the robot port fields into PortOptions.
// Unset fields are left zero; PortOptions.Normalize applies its own
// defaults when the port is opened.
func (c *SweepConfig) GetRobotOptions() robotlink.PortOptions {
	opts := robotlink.PortOptions{}
	if c.RobotBaudRate != nil {
		opts.BaudRate = *c.RobotBaudRate
	}
	if c.RobotDataBits != nil {
		opts.DataBits = *c.RobotDataBits
	}
	if c.RobotStopBits != nil {
		opts.StopBits = *c.RobotStopBits
	}
	if c.RobotParity != nil {
		opts.Parity = *c.RobotParity
	}
	return opts
}

// GetReconnectInterval parses and returns the ReconnectInterval as a time.Duration.
func (c *SweepConfig) GetReconnectInterval() time.Duration {
	if c.ReconnectInterval == nil || *c.ReconnectInterval == "" {
		return 5 * time.Second // default
	}
	d, err := time.ParseDuration(*c.ReconnectInterval)
	if err != nil {
		return 5 * time.Second // default on parse error
	}
	return d
}

// GetWebhookURL returns the webhook URL or an empty string when unset.
func (c *SweepConfig) GetWebhookURL() string {
	if c.WebhookURL == nil {
		return ""
	}
	return *c.WebhookURL
}
