package discord

import (
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"

	"github.com/requestarr/requestarr/workflow"
)

// Discord caps embed descriptions at 4096; stay comfortably under it.
const maxOverviewLength = 2000

// responseData renders a directive as interaction response data.
func responseData(d *workflow.Directive) *discordgo.InteractionResponseData {
	return &discordgo.InteractionResponseData{
		Content:    d.Content,
		Embeds:     embeds(d),
		Components: components(d),
		Flags:      discordgo.MessageFlagsEphemeral,
	}
}

// webhookEdit renders a directive as an edit of the deferred response.
func webhookEdit(d *workflow.Directive) *discordgo.WebhookEdit {
	content := d.Content
	emb := embeds(d)
	comp := components(d)
	return &discordgo.WebhookEdit{
		Content:    &content,
		Embeds:     &emb,
		Components: &comp,
	}
}

// followupMessage renders the public completion post.
func followupMessage(d *workflow.Directive) *discordgo.MessageSend {
	return &discordgo.MessageSend{
		Content: d.PublicFollowup.Content,
		Embeds:  embeds(d),
	}
}

// embeds builds the candidate display block: title, overview, poster
// thumbnail, and the resolved-settings summary fields.
func embeds(d *workflow.Directive) []*discordgo.MessageEmbed {
	c := d.Candidate
	if c == nil {
		return nil
	}

	e := &discordgo.MessageEmbed{
		Title:       c.Display(),
		Description: truncate(c.Overview, maxOverviewLength),
	}
	if c.PosterURL != "" {
		e.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: c.PosterURL}
	}
	for _, f := range d.Fields {
		e.Fields = append(e.Fields, &discordgo.MessageEmbedField{
			Name:   f.Name,
			Value:  f.Value,
			Inline: true,
		})
	}
	return []*discordgo.MessageEmbed{e}
}

// components renders the directive's select menu and buttons into
// action rows.
func components(d *workflow.Directive) []discordgo.MessageComponent {
	var rows []discordgo.MessageComponent

	if d.Select != nil {
		options := make([]discordgo.SelectMenuOption, len(d.Select.Options))
		for i, o := range d.Select.Options {
			options[i] = discordgo.SelectMenuOption{
				Label:       o.Label,
				Description: o.Description,
				Value:       o.Value,
			}
		}
		rows = append(rows, discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.SelectMenu{
					MenuType:    discordgo.StringSelectMenu,
					CustomID:    d.Select.CustomID,
					Placeholder: d.Select.Placeholder,
					Options:     options,
				},
			},
		})
	}

	if len(d.Buttons) > 0 {
		buttons := make([]discordgo.MessageComponent, len(d.Buttons))
		for i, b := range d.Buttons {
			buttons[i] = discordgo.Button{
				Label:    b.Label,
				Style:    buttonStyle(b.Style),
				CustomID: b.CustomID,
				Disabled: b.Disabled,
			}
		}
		rows = append(rows, discordgo.ActionsRow{Components: buttons})
	}

	return rows
}

func buttonStyle(style workflow.ButtonStyle) discordgo.ButtonStyle {
	switch style {
	case workflow.ButtonDanger:
		return discordgo.DangerButton
	case workflow.ButtonSecondary:
		return discordgo.SecondaryButton
	}
	return discordgo.PrimaryButton
}

// truncate caps s at limit bytes, cutting on a rune boundary so a
// multi-byte character is never split mid-sequence.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
