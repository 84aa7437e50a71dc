package session

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/requestarr/requestarr/backend"
)

// Common errors returned by the store.
var (
	// ErrDuplicateSession is returned when a session already exists for
	// a correlation id, which defends against duplicate event delivery.
	ErrDuplicateSession = errors.New("session already exists")

	// ErrSessionNotFound is returned for missing, expired, or finished
	// sessions. It is a normal outcome (stale button clicks) and maps to
	// a user-facing "request expired" notice, never a crash.
	ErrSessionNotFound = errors.New("session not found")
)

const (
	// DefaultTTL bounds a workflow to the window in which Discord still
	// accepts edits via the interaction token.
	DefaultTTL = 5 * time.Minute

	cleanupInterval = time.Minute
)

// Store is the process-wide table of in-flight workflows. Expired
// entries are evicted in the background; lookups also check expiry so
// behavior does not depend on janitor timing.
type Store struct {
	sessions *cache.Cache
	ttl      time.Duration
	now      func() time.Time
	logger   zerolog.Logger
}

// NewStore creates a session store whose entries live for ttl.
func NewStore(ttl time.Duration, logger zerolog.Logger) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		sessions: cache.New(ttl, cleanupInterval),
		ttl:      ttl,
		now:      time.Now,
		logger:   logger,
	}
}

// New mints a session for a freshly received command interaction.
func (s *Store) New(requester, media, channelID, token string) *Session {
	now := s.now()
	return &Session{
		ID:        uuid.NewString(),
		Requester: requester,
		Media:     media,
		ChannelID: channelID,
		Token:     token,
		Stage:     StageSearching,
		Resolved:  make(backend.Settings),
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
}

// Create registers a live session under its correlation id.
func (s *Store) Create(sess *Session) error {
	if err := s.sessions.Add(sess.ID, sess, cache.DefaultExpiration); err != nil {
		return ErrDuplicateSession
	}
	s.logger.Debug().Str("session", sess.ID).Str("media", sess.Media).Msg("Session created")
	return nil
}

// Get returns the live session for a correlation id. Expired and
// terminal sessions count as not found and are dropped on the spot.
func (s *Store) Get(id string) (*Session, error) {
	v, ok := s.sessions.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}

	sess := v.(*Session)
	if s.now().After(sess.ExpiresAt) || sess.Stage.Terminal() {
		s.sessions.Delete(id)
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Remove drops a session, called on terminal stages and cancellation.
// Removing an unknown id is a no-op.
func (s *Store) Remove(id string) {
	s.sessions.Delete(id)
}

// Len reports how many sessions are currently held, including entries
// the janitor has not evicted yet.
func (s *Store) Len() int {
	return s.sessions.ItemCount()
}
