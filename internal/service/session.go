// Package service manages map sessions: the per-page state and the command
// bus that carries drawing instructions to the browser.
package service

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/joeblew999/plat-map/internal/mapsurface"
	"github.com/joeblew999/plat-map/internal/search"
	"github.com/joeblew999/plat-map/internal/styles"
	"github.com/joeblew999/plat-map/internal/view"
)

// SessionConfig holds what every new map session starts from.
type SessionConfig struct {
	Surface mapsurface.Config
	Styles  []styles.Option
	Search  search.Options
	// MaxIdle is how long a session without an open map survives.
	MaxIdle time.Duration
}

// Session is the server side of one map page.
type Session struct {
	ID      string
	Bus     *Bus
	Surface *mapsurface.Surface
	Search  *search.Controller
	Styles  *styles.Switcher
	View    *view.Root

	lastSeen atomic.Int64

	// mu keeps the stream count and the renderer attachment in step.
	mu      sync.Mutex
	streams int
}

// Open attaches a renderer publishing to the session bus. The map page calls
// it when its command stream connects.
func (s *Session) Open() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.streams++
	s.Surface.Initialize(NewBusRenderer(s.Bus), s.Styles.Current().URL)
}

// Close detaches the renderer once the last command stream is gone.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.streams > 0 {
		s.streams--
	}
	if s.streams == 0 {
		s.Surface.Dispose()
	}
}

// Resync recreates the page's map after its stream missed commands. The new
// map reports loaded like the first one, which redeclares every overlay and
// places the markers again.
func (s *Session) Resync() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.streams == 0 {
		return
	}
	s.Surface.Dispose()
	s.Surface.Initialize(NewBusRenderer(s.Bus), s.Styles.Current().URL)
}

// Streaming reports whether a map page is connected.
func (s *Session) Streaming() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streams > 0
}

func (s *Session) touch(now time.Time) {
	s.lastSeen.Store(now.UnixNano())
}

// SessionService manages map sessions.
type SessionService struct {
	cfg    SessionConfig
	lookup search.Lookup
	log    zerolog.Logger
	now    func() time.Time

	sessions map[string]*Session
	mu       sync.RWMutex
}

// NewSessionService creates a new session service.
func NewSessionService(cfg SessionConfig, lookup search.Lookup, log zerolog.Logger) *SessionService {
	if cfg.MaxIdle <= 0 {
		cfg.MaxIdle = 30 * time.Minute
	}
	return &SessionService{
		cfg:      cfg,
		lookup:   lookup,
		log:      log,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Create starts a new session with the initial view: the first catalog
// style, a marker and the search radius at the initial center.
func (s *SessionService) Create() *Session {
	id := uuid.NewString()
	log := s.log.With().Str("session", id).Logger()

	surface := mapsurface.New(s.cfg.Surface, log)
	sess := &Session{
		ID:      id,
		Bus:     NewBus(log),
		Surface: surface,
		Search:  search.NewController(s.lookup, surface, s.cfg.Search, log),
		Styles:  styles.NewSwitcher(s.cfg.Styles, surface, log),
		View:    view.NewRoot(),
	}

	v := surface.View()
	surface.UpsertCircle(v.Center, v.RadiusMeters)
	surface.AddMarker(v.Center)
	sess.touch(s.now())

	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()

	log.Debug().Msg("session created")
	return sess
}

// Get returns a session by ID and marks it as used.
func (s *SessionService) Get(id string) (*Session, bool) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok {
		sess.touch(s.now())
	}
	return sess, ok
}

// Delete removes a session.
func (s *SessionService) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		sess.Surface.Dispose()
		delete(s.sessions, id)
	}
}

// Len returns the number of live sessions.
func (s *SessionService) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// IDs returns the ids of all live sessions.
func (s *SessionService) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	return ids
}

// Prune removes sessions that have no open map and were idle longer than
// MaxIdle. It returns the number removed.
func (s *SessionService) Prune() int {
	cutoff := s.now().Add(-s.cfg.MaxIdle).UnixNano()

	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, sess := range s.sessions {
		if sess.Streaming() || sess.lastSeen.Load() > cutoff {
			continue
		}
		delete(s.sessions, id)
		n++
	}
	if n > 0 {
		s.log.Debug().Int("pruned", n).Int("live", len(s.sessions)).Msg("pruned idle sessions")
	}
	return n
}
