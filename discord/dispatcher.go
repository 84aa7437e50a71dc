package discord

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/requestarr/requestarr/workflow"
)

// workflowTimeout bounds all backend work for one interaction event,
// retries included.
const workflowTimeout = 90 * time.Second

// Dispatcher routes decoded interaction events into the workflow engine
// and turns the resulting directives into Discord responses. It holds
// no state of its own; everything lives in the session store behind the
// engine.
type Dispatcher struct {
	engine *workflow.Engine
	logger zerolog.Logger
}

// NewDispatcher creates the dispatcher.
func NewDispatcher(engine *workflow.Engine, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{engine: engine, logger: logger}
}

// HandleInteraction is the discordgo handler for interaction events.
// discordgo invokes it on a fresh goroutine per event.
func (d *Dispatcher) HandleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		d.onCommand(s, i)
	case discordgo.InteractionMessageComponent:
		d.onComponent(s, i)
	}
}

// onCommand starts a new workflow from a slash command invocation.
func (d *Dispatcher) onCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	if data.Name != commandName || len(data.Options) == 0 {
		return
	}
	sub := data.Options[0]
	if len(sub.Options) == 0 {
		return
	}
	media := sub.Name
	query := sub.Options[0].StringValue()
	user := interactionUser(i)
	if user == nil {
		return
	}

	// Ack immediately so the 3-second response window stops mattering;
	// everything after this edits the deferred message.
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	})
	if err != nil {
		d.logger.Error().Err(err).Msg("Failed to ack command interaction")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), workflowTimeout)
	defer cancel()

	directive := d.engine.Start(ctx, user.ID, media, i.ChannelID, i.Token, query)

	if _, err := s.InteractionResponseEdit(i.Interaction, webhookEdit(directive)); err != nil {
		d.logger.Error().Err(err).Msg("Failed to edit deferred response")
		return
	}
	d.deliverFollowup(s, directive)
}

// onComponent resumes an existing workflow from a component click.
func (d *Dispatcher) onComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.MessageComponentData()

	action, kind, sessionID, err := workflow.ParseCustomID(data.CustomID)
	if err != nil {
		// Some other bot's component, or a relic of an old build. Still
		// needs an ack or Discord shows a failure to the user.
		d.logger.Debug().Str("custom_id", data.CustomID).Msg("Unrecognized component custom id")
		d.respondNotice(s, i, "This control is no longer in use.")
		return
	}

	user := interactionUser(i)
	if user == nil {
		return
	}

	var value string
	if len(data.Values) > 0 {
		value = data.Values[0]
	}

	ctx, cancel := context.WithTimeout(context.Background(), workflowTimeout)
	defer cancel()

	directive := d.engine.Resume(ctx, sessionID, workflow.Event{
		UserID:  user.ID,
		Action:  action,
		Setting: kind,
		Value:   value,
	})

	if directive.Notice {
		d.respondNotice(s, i, directive.Content)
		return
	}

	err = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: responseData(directive),
	})
	if err != nil {
		d.logger.Error().Err(err).Msg("Failed to update workflow message")
		return
	}
	d.deliverFollowup(s, directive)
}

// respondNotice answers with a fresh ephemeral message, leaving the
// workflow message (and its components) untouched.
func (d *Dispatcher) respondNotice(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		d.logger.Error().Err(err).Msg("Failed to send notice")
	}
}

// deliverFollowup posts the public completion message when the
// directive asks for one. Failures are logged, not surfaced; the
// requester already has their confirmation.
func (d *Dispatcher) deliverFollowup(s *discordgo.Session, directive *workflow.Directive) {
	f := directive.PublicFollowup
	if f == nil {
		return
	}
	if _, err := s.ChannelMessageSendComplex(f.ChannelID, followupMessage(directive)); err != nil {
		d.logger.Error().Err(err).Str("channel", f.ChannelID).Msg("Failed to send public followup")
	}
}

// interactionUser returns the invoking user for both guild and DM
// interactions.
func interactionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil {
		return i.Member.User
	}
	return i.User
}
