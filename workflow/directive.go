package workflow

import (
	"fmt"
	"strings"

	"github.com/requestarr/requestarr/backend"
)

// Component actions carried in custom ids.
const (
	ActionResult  = "result"
	ActionSetting = "setting"
	ActionConfirm = "confirm"
	ActionCancel  = "cancel"
)

// ButtonStyle selects the visual weight of a rendered button.
type ButtonStyle int

const (
	ButtonPrimary ButtonStyle = iota
	ButtonSecondary
	ButtonDanger
)

// SelectOption is one entry of a rendered select menu. Value is the
// position of the option in the prompt it belongs to.
type SelectOption struct {
	Label       string
	Description string
	Value       string
}

// SelectPrompt describes a select menu to present.
type SelectPrompt struct {
	CustomID    string
	Placeholder string
	Options     []SelectOption
}

// Button describes one button to present.
type Button struct {
	CustomID string
	Label    string
	Style    ButtonStyle
	Disabled bool
}

// SummaryField is one resolved setting shown in the confirmation view.
type SummaryField struct {
	Name  string
	Value string
}

// Followup asks the transport to post an additional public message.
type Followup struct {
	ChannelID string
	Content   string
}

// Directive is the output of a state transition: a structured
// description of the next prompt, consumed synchronously by the
// transport layer and never persisted.
type Directive struct {
	// Content is the message body.
	Content string
	// Candidate carries display info (poster, overview) when the view
	// centers on a selected title.
	Candidate *backend.Candidate
	// Fields are the resolved settings for a confirmation summary.
	Fields []SummaryField
	Select *SelectPrompt
	Buttons []Button

	// Notice means the transport should answer with a fresh ephemeral
	// message instead of editing the workflow message, used for
	// unauthorized or stale component clicks and transient errors that
	// must not clobber the current prompt.
	Notice bool
	// Terminal marks the workflow as finished.
	Terminal bool
	// PublicFollowup, when set, is posted publicly in addition to the
	// (ephemeral) workflow message.
	PublicFollowup *Followup
}

// CustomID builds the component custom id for an action in a session.
func CustomID(action, sessionID string) string {
	return action + ":" + sessionID
}

// SettingCustomID builds the custom id of a setting prompt.
func SettingCustomID(kind backend.SettingKind, sessionID string) string {
	return ActionSetting + ":" + string(kind) + ":" + sessionID
}

// ParseCustomID splits a component custom id into its action, optional
// setting kind, and session correlation id.
func ParseCustomID(customID string) (action string, kind backend.SettingKind, sessionID string, err error) {
	parts := strings.Split(customID, ":")
	switch {
	case len(parts) == 2 && parts[0] != ActionSetting:
		return parts[0], "", parts[1], nil
	case len(parts) == 3 && parts[0] == ActionSetting:
		return parts[0], backend.SettingKind(parts[1]), parts[2], nil
	}
	return "", "", "", fmt.Errorf("malformed custom id: %q", customID)
}
