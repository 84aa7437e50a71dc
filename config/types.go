package config

// Config represents the complete configuration structure
type Config struct {
	DiscordToken   string          `mapstructure:"discord_token"`
	PublicFollowup bool            `mapstructure:"public_followup"`
	Backends       []BackendConfig `mapstructure:"backends"`
	Logging        LoggingConfig   `mapstructure:"logging"`
}

// BackendConfig holds one configured media backend. Media is the slash
// command subcommand name and must be unique across the list. Settings
// left empty are collected from the user at request time.
type BackendConfig struct {
	Media  string `mapstructure:"media"`
	Type   string `mapstructure:"type"`
	URL    string `mapstructure:"url"`
	APIKey string `mapstructure:"api_key"`

	// Static overrides. An empty value means "ask the user".
	QualityProfile      string `mapstructure:"quality_profile"`
	RootFolder          string `mapstructure:"root_folder"`
	MonitorType         string `mapstructure:"monitor_type"`
	MinimumAvailability string `mapstructure:"minimum_availability"`
	SeriesType          string `mapstructure:"series_type"`
	SeasonFolders       *bool  `mapstructure:"season_folders"`

	// Optional restrictions on what users may pick when a setting is
	// left for runtime selection.
	AllowedMonitorTypes    []string `mapstructure:"allowed_monitor_types"`
	AllowedQualityProfiles []string `mapstructure:"allowed_quality_profiles"`
	AllowedRootFolders     []string `mapstructure:"allowed_root_folders"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}
