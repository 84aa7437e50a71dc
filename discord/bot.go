package discord

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/requestarr/requestarr/backend"
)

const (
	commandName     = "request"
	queryOptionName = "query"
)

// Bot owns the gateway session. It registers the /request command in
// every guild it joins and forwards interaction events to the
// dispatcher.
type Bot struct {
	session    *discordgo.Session
	dispatcher *Dispatcher
	registry   *backend.Registry
	logger     zerolog.Logger
}

// NewBot creates the gateway session and wires up the event handlers.
func NewBot(token string, dispatcher *Dispatcher, registry *backend.Registry, logger zerolog.Logger) (*Bot, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}

	b := &Bot{
		session:    s,
		dispatcher: dispatcher,
		registry:   registry,
		logger:     logger,
	}

	// Interactions arrive without privileged intents; guilds are needed
	// only to know where to register commands.
	s.Identify.Intents = discordgo.IntentsGuilds

	s.AddHandler(b.onReady)
	s.AddHandler(b.onGuildCreate)
	s.AddHandler(b.dispatcher.HandleInteraction)

	return b, nil
}

// Open connects to the gateway. It returns once the connection is up;
// command registration happens as guilds announce themselves.
func (b *Bot) Open() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}
	return nil
}

// Close shuts the gateway connection down.
func (b *Bot) Close() error {
	return b.session.Close()
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.logger.Info().
		Str("user", r.User.Username).
		Int("guilds", len(r.Guilds)).
		Msg("Connected to Discord")
}

// onGuildCreate registers the slash command in each guild the bot is
// in. Guild commands are live immediately, unlike global ones.
func (b *Bot) onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	_, err := s.ApplicationCommandBulkOverwrite(s.State.User.ID, g.ID, b.commands())
	if err != nil {
		b.logger.Error().Err(err).Str("guild", g.ID).Msg("Failed to register commands")
		return
	}
	b.logger.Info().
		Str("guild", g.ID).
		Strs("media", b.registry.MediaNames()).
		Msg("Registered request command")
}

// commands builds the /request command with one subcommand per
// configured media name.
func (b *Bot) commands() []*discordgo.ApplicationCommand {
	names := b.registry.MediaNames()
	subs := make([]*discordgo.ApplicationCommandOption, 0, len(names))
	for _, media := range names {
		subs = append(subs, &discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        media,
			Description: "Request a " + media,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        queryOptionName,
					Description: "search query",
					Required:    true,
				},
			},
		})
	}

	return []*discordgo.ApplicationCommand{
		{
			Name:        commandName,
			Description: "Request media",
			Options:     subs,
		},
	}
}
