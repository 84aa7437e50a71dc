package session

import (
	"sync"
	"time"

	"github.com/requestarr/requestarr/backend"
)

// Stage is the workflow state a session is in. Stages only ever advance;
// the numeric order is the partial order transitions must respect.
type Stage int

const (
	StageSearching Stage = iota
	StageAwaitingSelection
	StageConfiguringSettings
	StageConfirming

	// Terminal stages. A session that reaches one is removed from the
	// store and never reused.
	StageCompleted
	StageFailed
	StageCancelled
	StageExpired
)

// Terminal reports whether the stage ends the workflow.
func (s Stage) Terminal() bool {
	return s >= StageCompleted
}

func (s Stage) String() string {
	switch s {
	case StageSearching:
		return "searching"
	case StageAwaitingSelection:
		return "awaiting_selection"
	case StageConfiguringSettings:
		return "configuring_settings"
	case StageConfirming:
		return "confirming"
	case StageCompleted:
		return "completed"
	case StageFailed:
		return "failed"
	case StageCancelled:
		return "cancelled"
	case StageExpired:
		return "expired"
	}
	return "unknown"
}

// Session is the in-memory record of one user's in-progress request
// workflow, keyed by its correlation id.
type Session struct {
	// ID is the correlation id embedded in every component custom id
	// belonging to this workflow.
	ID string
	// Requester is the Discord user id allowed to operate the session.
	Requester string
	// Media is the registry key of the backend driving the session.
	Media string
	// ChannelID and Token identify where follow-up messages go. Token is
	// the original interaction's response token.
	ChannelID string
	Token     string

	Stage      Stage
	Candidates []backend.Candidate
	Selected   *backend.Candidate
	// Resolved accumulates chosen option per setting as prompts are
	// answered or overrides applied.
	Resolved backend.Settings
	// Remaining holds the settings still waiting for a user choice, in
	// prompt order. The head is the setting currently being prompted.
	Remaining []backend.SettingKind
	// optionCache holds backend option lists already fetched for this
	// session, so each setting is queried at most once.
	optionCache map[backend.SettingKind][]backend.Option

	CreatedAt time.Time
	ExpiresAt time.Time

	mu       sync.Mutex
	inflight bool
}

// Begin claims the session for a single transition. It returns false if
// another transition is already running, which is how a double-click on
// the same component is prevented from racing two mutations. The claim
// is not a lock held across backend calls; it is ownership for the
// whole transition.
func (s *Session) Begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inflight || s.Stage.Terminal() {
		return false
	}
	s.inflight = true
	return true
}

// End releases the claim taken by Begin.
func (s *Session) End() {
	s.mu.Lock()
	s.inflight = false
	s.mu.Unlock()
}

// Advance moves the session to a later stage. Moving backwards is a
// programming error and panics so it cannot pass silently in tests.
func (s *Session) Advance(to Stage) {
	if to < s.Stage {
		panic("session: stage moved backwards from " + s.Stage.String() + " to " + to.String())
	}
	s.Stage = to
}

// CachedOptions returns the option list fetched earlier in this session
// for a setting, if any.
func (s *Session) CachedOptions(kind backend.SettingKind) ([]backend.Option, bool) {
	opts, ok := s.optionCache[kind]
	return opts, ok
}

// CacheOptions stores a fetched option list for the rest of the session.
func (s *Session) CacheOptions(kind backend.SettingKind, opts []backend.Option) {
	if s.optionCache == nil {
		s.optionCache = make(map[backend.SettingKind][]backend.Option)
	}
	s.optionCache[kind] = opts
}
