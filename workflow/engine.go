package workflow

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/requestarr/requestarr/backend"
	"github.com/requestarr/requestarr/session"
)

// maxMenuOptions is Discord's cap on select menu entries.
const maxMenuOptions = 25

// Event is one decoded component interaction aimed at a session.
type Event struct {
	// UserID is the user who clicked, checked against the session's
	// requester before anything else happens.
	UserID string
	// Action is the component family parsed from the custom id.
	Action string
	// Setting is filled for ActionSetting events.
	Setting backend.SettingKind
	// Value is the selected menu value (a position index).
	Value string
}

// Engine drives the search → select → configure → confirm → submit
// workflow. It owns all session mutation and is the single place where
// backend errors become user-facing directives.
type Engine struct {
	store          *session.Store
	registry       *backend.Registry
	publicFollowup bool
	logger         zerolog.Logger
}

// NewEngine creates the workflow engine.
func NewEngine(store *session.Store, registry *backend.Registry, publicFollowup bool, logger zerolog.Logger) *Engine {
	return &Engine{
		store:          store,
		registry:       registry,
		publicFollowup: publicFollowup,
		logger:         logger,
	}
}

// Start handles a fresh slash command: resolve the backend, create the
// session, run the search, and hand back the first prompt.
func (e *Engine) Start(ctx context.Context, requester, media, channelID, token, query string) *Directive {
	entry, err := e.registry.Resolve(media)
	if err != nil {
		e.logger.Warn().Str("media", media).Msg("Command for unknown backend")
		return &Directive{Content: userMessage(err), Terminal: true}
	}

	sess := e.store.New(requester, media, channelID, token)
	if err := e.store.Create(sess); err != nil {
		// Duplicate delivery of the same command event.
		e.logger.Warn().Str("session", sess.ID).Err(err).Msg("Session collision")
		return &Directive{Content: msgExpired, Notice: true}
	}

	if !sess.Begin() {
		return &Directive{Content: msgBusy, Notice: true}
	}
	defer sess.End()

	e.logger.Info().
		Str("session", sess.ID).
		Str("media", media).
		Str("query", query).
		Msg("Starting request workflow")

	var candidates []backend.Candidate
	err = e.retryOnce(ctx, "search", func() error {
		var serr error
		candidates, serr = entry.Adapter.Search(ctx, query)
		return serr
	})
	if err != nil {
		return e.fail(sess, err)
	}

	if len(candidates) == 0 {
		e.logger.Info().Str("session", sess.ID).Str("query", query).Msg("No search results")
		sess.Advance(session.StageFailed)
		e.store.Remove(sess.ID)
		return &Directive{Content: fmt.Sprintf("%s Nothing called %q is known to the backend.", msgNoMatches, query), Terminal: true}
	}

	if len(candidates) > maxMenuOptions {
		candidates = candidates[:maxMenuOptions]
	}
	sess.Candidates = candidates

	// A single hit needs no disambiguation.
	if len(candidates) == 1 {
		return e.selectCandidate(ctx, sess, entry, 0)
	}

	sess.Advance(session.StageAwaitingSelection)

	options := make([]SelectOption, len(candidates))
	for i, c := range candidates {
		options[i] = SelectOption{
			Label:       c.Title,
			Description: candidateDescription(c),
			Value:       strconv.Itoa(i),
		}
	}
	return &Directive{
		Content: fmt.Sprintf("Found %d results for %q, pick one:", len(candidates), query),
		Select: &SelectPrompt{
			CustomID:    CustomID(ActionResult, sess.ID),
			Placeholder: "Select a result",
			Options:     options,
		},
	}
}

// Resume feeds a component interaction into an existing session.
// Missing, expired, and finished sessions all yield the expired notice
// without touching any backend.
func (e *Engine) Resume(ctx context.Context, sessionID string, ev Event) *Directive {
	sess, err := e.store.Get(sessionID)
	if err != nil {
		return &Directive{Content: msgExpired, Notice: true}
	}

	// Only the requester may operate the session's components. A
	// foreign click neither consumes nor mutates anything.
	if ev.UserID != sess.Requester {
		return &Directive{Content: msgUnauthorized, Notice: true}
	}

	if !sess.Begin() {
		return &Directive{Content: msgBusy, Notice: true}
	}
	defer sess.End()

	entry, err := e.registry.Resolve(sess.Media)
	if err != nil {
		return e.fail(sess, err)
	}

	switch sess.Stage {
	case session.StageAwaitingSelection:
		if ev.Action != ActionResult {
			return &Directive{Content: msgExpired, Notice: true}
		}
		idx, err := strconv.Atoi(ev.Value)
		if err != nil || idx < 0 || idx >= len(sess.Candidates) {
			e.logger.Warn().Str("session", sess.ID).Str("value", ev.Value).Msg("Selection out of range")
			return &Directive{Content: msgExpired, Notice: true}
		}
		return e.selectCandidate(ctx, sess, entry, idx)

	case session.StageConfiguringSettings:
		return e.applySetting(ctx, sess, entry, ev)

	case session.StageConfirming:
		switch ev.Action {
		case ActionCancel:
			sess.Advance(session.StageCancelled)
			e.store.Remove(sess.ID)
			e.logger.Info().Str("session", sess.ID).Msg("Request cancelled by user")
			return &Directive{Content: msgCancelled, Terminal: true}
		case ActionConfirm:
			return e.submit(ctx, sess, entry)
		}
		return &Directive{Content: msgExpired, Notice: true}
	}

	return &Directive{Content: msgExpired, Notice: true}
}

// selectCandidate records the chosen search result and moves on to
// settings, short-circuiting titles the backend already tracks.
func (e *Engine) selectCandidate(ctx context.Context, sess *session.Session, entry *backend.Entry, idx int) *Directive {
	c := sess.Candidates[idx]
	sess.Selected = &c

	e.logger.Info().
		Str("session", sess.ID).
		Str("title", c.Title).
		Int("year", c.Year).
		Msg("Candidate selected")

	if entry.Adapter.AlreadyTracked(c) {
		sess.Advance(session.StageCompleted)
		e.store.Remove(sess.ID)
		return &Directive{Content: msgAlreadyAdded, Candidate: &c, Terminal: true}
	}

	sess.Advance(session.StageConfiguringSettings)

	// Overrides resolve immediately; everything else queues for a
	// prompt, in the adapter's order.
	for _, kind := range entry.Adapter.RequiredSettings() {
		if value, ok := entry.Override(kind); ok {
			sess.Resolved[kind] = overrideOption(ctx, kind, value, entry)
			continue
		}
		sess.Remaining = append(sess.Remaining, kind)
	}

	return e.promptNext(ctx, sess, entry)
}

// overrideOption turns a statically configured value into a resolved
// option. Values were validated against the backend at startup. Profile
// and folder overrides stay name-only here, so no backend round trip
// happens per session; the adapter resolves the quality profile id at
// submit time.
func overrideOption(ctx context.Context, kind backend.SettingKind, value string, entry *backend.Entry) backend.Option {
	switch kind {
	case backend.SettingQualityProfile, backend.SettingRootFolder:
		return backend.Option{Label: value, Value: value}
	}
	// Enum-valued settings are answered locally by the adapter, so this
	// never leaves the process.
	if opts, err := entry.Adapter.Options(ctx, kind); err == nil {
		for _, o := range opts {
			if o.Value == value {
				return o
			}
		}
	}
	return backend.Option{Label: value, Value: value}
}

// promptNext renders the prompt for the next unresolved setting,
// auto-resolving settings whose (filtered) value set needs no user
// choice. When nothing remains it advances to confirmation.
func (e *Engine) promptNext(ctx context.Context, sess *session.Session, entry *backend.Entry) *Directive {
	for len(sess.Remaining) > 0 {
		kind := sess.Remaining[0]

		opts, ok := sess.CachedOptions(kind)
		if !ok {
			err := e.retryOnce(ctx, "options", func() error {
				var oerr error
				opts, oerr = entry.Adapter.Options(ctx, kind)
				return oerr
			})
			if err != nil {
				// No component is left to retry from at this point, so
				// tear the workflow down instead of stranding it.
				e.logger.Error().Err(err).Str("session", sess.ID).Str("setting", string(kind)).Msg("Failed to list setting values")
				return e.fail(sess, err)
			}
			sess.CacheOptions(kind, opts)
		}

		filtered := filterAllowed(opts, entry.Allowed(kind))
		switch {
		case len(filtered) == 0:
			// Nothing survived the whitelist; fall back rather than block.
			fallback := entry.Adapter.DefaultOption(kind)
			if fallback == (backend.Option{}) && len(opts) > 0 {
				fallback = opts[0]
			}
			e.logger.Warn().Str("session", sess.ID).Str("setting", string(kind)).Str("fallback", fallback.Value).
				Msg("Allowed choices filtered out every value, using default")
			sess.Resolved[kind] = fallback
			sess.Remaining = sess.Remaining[1:]

		case len(filtered) == 1:
			sess.Resolved[kind] = filtered[0]
			sess.Remaining = sess.Remaining[1:]

		default:
			options := make([]SelectOption, len(filtered))
			for i, o := range filtered {
				options[i] = SelectOption{Label: o.Label, Value: strconv.Itoa(i)}
			}
			return &Directive{
				Content:   fmt.Sprintf("**%s**: choose a %s", sess.Selected.Display(), kind.Title()),
				Candidate: sess.Selected,
				Select: &SelectPrompt{
					CustomID:    SettingCustomID(kind, sess.ID),
					Placeholder: kind.Title(),
					Options:     options,
				},
			}
		}
	}

	sess.Advance(session.StageConfirming)
	return e.confirmPrompt(sess, entry)
}

// applySetting records a setting choice and continues the prompt loop.
func (e *Engine) applySetting(ctx context.Context, sess *session.Session, entry *backend.Entry, ev Event) *Directive {
	if ev.Action != ActionSetting || len(sess.Remaining) == 0 || ev.Setting != sess.Remaining[0] {
		// Stale prompt (e.g. an earlier menu clicked after answering it).
		return &Directive{Content: msgExpired, Notice: true}
	}

	opts, ok := sess.CachedOptions(ev.Setting)
	if !ok {
		return &Directive{Content: msgExpired, Notice: true}
	}
	filtered := filterAllowed(opts, entry.Allowed(ev.Setting))

	idx, err := strconv.Atoi(ev.Value)
	if err != nil || idx < 0 || idx >= len(filtered) {
		e.logger.Warn().Str("session", sess.ID).Str("value", ev.Value).Msg("Setting choice out of range")
		return &Directive{Content: msgExpired, Notice: true}
	}

	sess.Resolved[ev.Setting] = filtered[idx]
	sess.Remaining = sess.Remaining[1:]

	e.logger.Debug().
		Str("session", sess.ID).
		Str("setting", string(ev.Setting)).
		Str("choice", filtered[idx].Value).
		Msg("Setting resolved")

	return e.promptNext(ctx, sess, entry)
}

// confirmPrompt renders the fully-resolved summary with Request/Cancel.
func (e *Engine) confirmPrompt(sess *session.Session, entry *backend.Entry) *Directive {
	fields := make([]SummaryField, 0, len(sess.Resolved))
	for _, kind := range entry.Adapter.RequiredSettings() {
		if opt, ok := sess.Resolved[kind]; ok {
			fields = append(fields, SummaryField{Name: kind.Title(), Value: opt.Label})
		}
	}

	return &Directive{
		Content:   fmt.Sprintf("Request **%s**?", sess.Selected.Display()),
		Candidate: sess.Selected,
		Fields:    fields,
		Buttons: []Button{
			{CustomID: CustomID(ActionConfirm, sess.ID), Label: "Request", Style: ButtonPrimary},
			{CustomID: CustomID(ActionCancel, sess.ID), Label: "Cancel", Style: ButtonDanger},
		},
	}
}

// submit issues the add call and closes out the session.
func (e *Engine) submit(ctx context.Context, sess *session.Session, entry *backend.Entry) *Directive {
	var result backend.SubmitResult
	err := e.retryOnce(ctx, "submit", func() error {
		var serr error
		result, serr = entry.Adapter.Submit(ctx, *sess.Selected, sess.Resolved)
		return serr
	})
	if err != nil {
		if errors.Is(err, backend.ErrUnreachable) {
			// Confirmation stays valid; the user can press Request again.
			e.logger.Error().Err(err).Str("session", sess.ID).Msg("Submit failed, backend unreachable")
			return &Directive{Content: userMessage(err), Notice: true}
		}
		return e.fail(sess, err)
	}

	sess.Advance(session.StageCompleted)
	e.store.Remove(sess.ID)

	if result.AlreadyRequested {
		e.logger.Info().Str("session", sess.ID).Str("title", sess.Selected.Title).Msg("Request completed, already tracked")
		return &Directive{Content: msgAlreadyAdded, Candidate: sess.Selected, Terminal: true}
	}

	e.logger.Info().Str("session", sess.ID).Str("title", sess.Selected.Title).Msg("Request completed")

	d := &Directive{
		Content:   fmt.Sprintf("**%s** has been requested and will be downloaded when available.", sess.Selected.Display()),
		Candidate: sess.Selected,
		Terminal:  true,
	}
	if e.publicFollowup {
		d.PublicFollowup = &Followup{
			ChannelID: sess.ChannelID,
			Content:   fmt.Sprintf("**%s** requested by <@%s>", sess.Selected.Display(), sess.Requester),
		}
	}
	return d
}

// fail tears the session down and returns the sanitized failure text.
// Full detail goes to the log only.
func (e *Engine) fail(sess *session.Session, err error) *Directive {
	e.logger.Error().Err(err).Str("session", sess.ID).Stringer("stage", sess.Stage).Msg("Workflow failed")
	sess.Advance(session.StageFailed)
	e.store.Remove(sess.ID)
	return &Directive{Content: userMessage(err), Terminal: true}
}

// retryOnce runs a backend call, retrying exactly once when the backend
// is unreachable. More retries would stack latency onto an interaction
// token that is already ticking.
func (e *Engine) retryOnce(ctx context.Context, op string, fn func() error) error {
	err := fn()
	if err != nil && errors.Is(err, backend.ErrUnreachable) && ctx.Err() == nil {
		e.logger.Warn().Err(err).Str("op", op).Msg("Backend call failed, retrying once")
		err = fn()
	}
	return err
}

// filterAllowed restricts options to the operator's whitelist, keeping
// backend order. An empty whitelist allows everything.
func filterAllowed(opts []backend.Option, allowed []string) []backend.Option {
	if len(allowed) == 0 {
		return opts
	}
	allowedSet := make(map[string]bool, len(allowed))
	for _, v := range allowed {
		allowedSet[v] = true
	}
	filtered := make([]backend.Option, 0, len(opts))
	for _, o := range opts {
		if allowedSet[o.Value] {
			filtered = append(filtered, o)
		}
	}
	return filtered
}

// candidateDescription is the menu subtitle disambiguating results with
// identical titles.
func candidateDescription(c backend.Candidate) string {
	if c.Year == 0 {
		return fmt.Sprintf("id %d", c.RemoteID)
	}
	return fmt.Sprintf("%d · id %d", c.Year, c.RemoteID)
}
