package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Load loads the configuration from file
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set default values
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Look for config in standard locations
		v.SetConfigName("config")
		v.SetConfigType("toml")

		// Check current directory first
		v.AddConfigPath(".")

		// Check home directory
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".requestarr"))
		}

		// Check /etc
		v.AddConfigPath("/etc/requestarr/")
	}

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil, fmt.Errorf("config file not found: %w", err)
		}
		return nil, fmt.Errorf("error reading config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Validate configuration
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("public_followup", true)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.color", true)
}

// validate checks if the configuration is valid
func validate(cfg *Config) error {
	if cfg.DiscordToken == "" {
		return fmt.Errorf("discord_token is required")
	}

	if len(cfg.Backends) == 0 {
		return fmt.Errorf("at least one [[backends]] entry is required")
	}

	seen := make(map[string]bool)
	for i, b := range cfg.Backends {
		if b.Media == "" {
			return fmt.Errorf("backends[%d]: media is required", i)
		}
		if seen[b.Media] {
			return fmt.Errorf("duplicate backend media name: %s", b.Media)
		}
		seen[b.Media] = true

		switch b.Type {
		case "radarr", "sonarr":
		default:
			return fmt.Errorf("backend %q: unknown type %q (must be 'radarr' or 'sonarr')", b.Media, b.Type)
		}

		if b.URL == "" {
			return fmt.Errorf("backend %q: url is required", b.Media)
		}
		if b.APIKey == "" {
			return fmt.Errorf("backend %q: api_key is required", b.Media)
		}

		// Settings that only exist on one family.
		if b.Type == "radarr" && (b.SeriesType != "" || b.SeasonFolders != nil) {
			return fmt.Errorf("backend %q: series settings are not valid for radarr", b.Media)
		}
		if b.Type == "sonarr" && b.MinimumAvailability != "" {
			return fmt.Errorf("backend %q: minimum_availability is not valid for sonarr", b.Media)
		}
	}

	// Validate logging level
	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s", cfg.Logging.Level)
	}

	// Validate logging format
	validFormats := map[string]bool{
		"console": true,
		"json":    true,
	}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("invalid logging format: %s", cfg.Logging.Format)
	}

	return nil
}
