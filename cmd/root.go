package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/requestarr/requestarr/backend"
	"github.com/requestarr/requestarr/config"
	"github.com/requestarr/requestarr/discord"
	"github.com/requestarr/requestarr/radarr"
	"github.com/requestarr/requestarr/session"
	"github.com/requestarr/requestarr/sonarr"
	"github.com/requestarr/requestarr/workflow"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  zerolog.Logger

	version   = "dev"
	buildTime = "unknown"
)

// startupTimeout bounds connecting and validating all backends.
const startupTimeout = 2 * time.Minute

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "requestarr",
	Short: "A Discord bot for requesting media through Radarr and Sonarr",
	Long: `requestarr connects to Discord and lets users request movies and TV
series with a /request slash command. Requests are routed to the
configured Radarr or Sonarr instance after an interactive selection
and confirmation flow.`,
	PersistentPreRunE: initializeApp,
	RunE:              runServe,
}

// SetVersion stores build information injected by the linker.
func SetVersion(v, t string) {
	version = v
	buildTime = t
	rootCmd.Version = fmt.Sprintf("%s (built %s)", v, t)
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.toml)")
}

// initializeApp loads the configuration and sets up logging
func initializeApp(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger = setupLogger(cfg.Logging)
	return nil
}

// runServe connects to every configured backend, then runs the bot
// until interrupted.
func runServe(cmd *cobra.Command, args []string) error {
	logger.Info().Str("version", version).Msg("Starting requestarr")

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	factories := map[backend.Family]backend.AdapterFactory{
		backend.FamilyRadarr: radarr.NewAdapter,
		backend.FamilySonarr: sonarr.NewAdapter,
	}

	registry, err := backend.BuildRegistry(ctx, cfg.Backends, factories, logger)
	if err != nil {
		return fmt.Errorf("failed to build backend registry: %w", err)
	}

	store := session.NewStore(session.DefaultTTL, logger)
	engine := workflow.NewEngine(store, registry, cfg.PublicFollowup, logger)
	dispatcher := discord.NewDispatcher(engine, logger)

	bot, err := discord.NewBot(cfg.DiscordToken, dispatcher, registry, logger)
	if err != nil {
		return err
	}

	if err := bot.Open(); err != nil {
		return err
	}
	defer bot.Close()

	logger.Info().Strs("media", registry.MediaNames()).Msg("Bot is running, press Ctrl+C to exit")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Info().Msg("Shutting down")
	return nil
}

// setupLogger configures the zerolog logger
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	// Set log level
	level := zerolog.InfoLevel
	switch strings.ToLower(cfg.Level) {
	case "trace":
		level = zerolog.TraceLevel
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	// Configure output format
	if cfg.Format == "json" {
		return zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	// Console format
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    !cfg.Color,
	}

	return zerolog.New(output).With().Timestamp().Logger()
}
