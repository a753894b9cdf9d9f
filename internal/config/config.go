package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config represents the main application configuration structure
// containing all configuration sections
type Config struct {
	Server     ServerConfig     `toml:"server"`     // HTTP server settings
	Logging    LoggingConfig    `toml:"logging"`    // Application logging settings
	Storage    StorageConfig    `toml:"storage"`    // Data persistence settings
	Platforms  PlatformsConfig  `toml:"platforms"`  // Aircraft platform profile settings
	Trajectory TrajectoryConfig `toml:"trajectory"` // Kinematics and resampling settings
}

// ServerConfig contains HTTP server configuration settings
type ServerConfig struct {
	Port               int      `toml:"port"`                  // Primary HTTP port for the server
	Host               string   `toml:"host"`                  // Host address to bind to (e.g., 127.0.0.1 for localhost only, 0.0.0.0 for all interfaces)
	CORSAllowedOrigins []string `toml:"cors_allowed_origins"`  // List of origins allowed for CORS requests (use ["*"] for all origins)
	ReadTimeoutSecs    int      `toml:"read_timeout_seconds"`  // Maximum duration for reading the entire request (0 = no timeout)
	WriteTimeoutSecs   int      `toml:"write_timeout_seconds"` // Maximum duration for writing the response (0 = no timeout)
	IdleTimeoutSecs    int      `toml:"idle_timeout_seconds"`  // Maximum duration to wait for the next request when keep-alives are enabled
	AdditionalPorts    []int    `toml:"additional_ports"`      // Additional HTTP ports to listen on (useful for multiple interfaces)
}

// LoggingConfig contains application logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`  // Log level: "debug", "info", "warn", or "error"
	Format string `toml:"format"` // Log format: "json" (structured) or "console" (human-readable)
}

// StorageConfig contains data persistence configuration
type StorageConfig struct {
	Type       string `toml:"type"`        // Storage backend type (currently only "sqlite" is supported)
	SQLitePath string `toml:"sqlite_path"` // Path to the SQLite database file
}

// PlatformsConfig contains aircraft platform profile configuration
type PlatformsConfig struct {
	ProfilesPath    string `toml:"profiles_path"`    // Path to the platform profiles TOML file
	DefaultPlatform string `toml:"default_platform"` // Platform used when a flight path names none
}

// TrajectoryConfig contains kinematics tuning and resampling configuration
type TrajectoryConfig struct {
	SampleIntervalSecs float64 `toml:"sample_interval_seconds"` // Default spacing of the resampled trajectory

	// Turn classification thresholds in degrees of bearing change
	TurnStraightMaxDeg float64 `toml:"turn_straight_max_deg"` // Below this a turn costs nothing
	TurnWideMinDeg     float64 `toml:"turn_wide_min_deg"`     // At or above this a turn is flown as a 90-270
	TurnReversalMinDeg float64 `toml:"turn_reversal_min_deg"` // At or above this a turn is a course reversal
	TurnMinExtraDeg    float64 `toml:"turn_min_extra_deg"`    // Radius-based extra time only charged above this
	TurnMaxExtraSecs   float64 `toml:"turn_max_extra_seconds"` // Cap on the radius-based extra time
}

// Load loads the configuration from the specified file path
func Load(path string) (*Config, error) {
	var config Config

	// Check if the file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	// Read the config file
	if _, err := toml.DecodeFile(path, &config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	return &config, nil
}

// LoadWithFallback loads the configuration by checking multiple locations in order of preference
func LoadWithFallback(preferredPath string) (*Config, error) {
	// List of paths to check in order of preference
	searchPaths := []string{
		preferredPath,         // User-specified path (if provided)
		"configs/config.toml", // configs/ folder
		"config.toml",         // Root directory
	}

	// Remove duplicates while preserving order
	uniquePaths := make([]string, 0, len(searchPaths))
	seen := make(map[string]bool)
	for _, path := range searchPaths {
		if path != "" && !seen[path] {
			uniquePaths = append(uniquePaths, path)
			seen[path] = true
		}
	}

	var lastErr error
	for _, path := range uniquePaths {
		if _, err := os.Stat(path); err == nil {
			config, err := Load(path)
			if err != nil {
				lastErr = fmt.Errorf("failed to load config from %s: %w", path, err)
				continue
			}
			return config, nil
		}
		lastErr = fmt.Errorf("config file not found: %s", path)
	}

	return nil, fmt.Errorf("config file not found in any of the expected locations: %v. Last error: %w", uniquePaths, lastErr)
}

// Validate validates the configuration and fills in defaults for optional
// settings
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	portsSeen := make(map[int]bool)
	portsSeen[c.Server.Port] = true
	for _, p := range c.Server.AdditionalPorts {
		if p <= 0 || p > 65535 {
			return fmt.Errorf("invalid additional server port: %d", p)
		}
		if portsSeen[p] {
			return fmt.Errorf("duplicate port configured: %d (primary or additional)", p)
		}
		portsSeen[p] = true
	}
	if c.Server.Host == "" {
		c.Server.Host = "127.0.0.1"
	}
	if len(c.Server.CORSAllowedOrigins) == 0 {
		c.Server.CORSAllowedOrigins = []string{"*"}
	}

	// Validate logging config
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging level: %s (must be 'debug', 'info', 'warn', or 'error')", c.Logging.Level)
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("invalid logging format: %s (must be 'json' or 'console')", c.Logging.Format)
	}

	// Validate storage config
	if c.Storage.Type == "" {
		c.Storage.Type = "sqlite"
	}
	if c.Storage.Type != "sqlite" {
		return fmt.Errorf("invalid storage type: %s (only 'sqlite' is supported)", c.Storage.Type)
	}
	if c.Storage.SQLitePath == "" {
		c.Storage.SQLitePath = "skyplanner.db"
	}

	// Validate platforms config
	if c.Platforms.ProfilesPath == "" {
		return fmt.Errorf("platforms profiles_path is required")
	}
	if c.Platforms.DefaultPlatform == "" {
		return fmt.Errorf("platforms default_platform is required")
	}

	// Validate trajectory config, filling the tuning defaults
	if c.Trajectory.SampleIntervalSecs == 0 {
		c.Trajectory.SampleIntervalSecs = 60
	}
	if c.Trajectory.SampleIntervalSecs < 0 {
		return fmt.Errorf("invalid sample_interval_seconds: %f", c.Trajectory.SampleIntervalSecs)
	}
	if c.Trajectory.TurnStraightMaxDeg == 0 {
		c.Trajectory.TurnStraightMaxDeg = 2
	}
	if c.Trajectory.TurnWideMinDeg == 0 {
		c.Trajectory.TurnWideMinDeg = 105
	}
	if c.Trajectory.TurnReversalMinDeg == 0 {
		c.Trajectory.TurnReversalMinDeg = 160
	}
	if c.Trajectory.TurnMinExtraDeg == 0 {
		c.Trajectory.TurnMinExtraDeg = 15
	}
	if c.Trajectory.TurnMaxExtraSecs == 0 {
		c.Trajectory.TurnMaxExtraSecs = 1800
	}
	if !(c.Trajectory.TurnStraightMaxDeg < c.Trajectory.TurnWideMinDeg &&
		c.Trajectory.TurnWideMinDeg < c.Trajectory.TurnReversalMinDeg) {
		return fmt.Errorf("turn thresholds must be ordered: straight_max < wide_min < reversal_min")
	}

	return nil
}
