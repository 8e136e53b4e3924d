package session

import (
	"cmp"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/cwbudde/curvefit/internal/fit"
	"github.com/cwbudde/curvefit/internal/metrics"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// NotFoundError is returned for an unknown or expired session ID.
// Use errors.Is(err, ErrNotFound) to check for it.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return "session not found: " + e.ID
	}
	return "session not found"
}

func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)
	return ok
}

// ErrNotFound matches any *NotFoundError.
var ErrNotFound = &NotFoundError{}

type entry struct {
	mu      sync.Mutex
	session *Session
}

// Manager keeps independent sessions keyed by ID. Sessions idle for longer
// than the TTL are dropped. Calls on one session are serialized; different
// sessions never share state.
type Manager struct {
	sessions    *cache.Cache
	defaults    fit.MethodConfig
	broadcaster *Broadcaster
}

// NewManager creates a manager. A ttl of zero or less keeps sessions forever.
func NewManager(ttl time.Duration, defaults fit.MethodConfig) *Manager {
	expiration, cleanup := cache.NoExpiration, time.Duration(0)
	if ttl > 0 {
		expiration, cleanup = ttl, max(ttl/2, time.Second)
	}

	m := &Manager{
		sessions:    cache.New(expiration, cleanup),
		defaults:    defaults,
		broadcaster: NewBroadcaster(),
	}
	m.sessions.OnEvicted(func(id string, _ interface{}) {
		metrics.ActiveSessions.Dec()
		m.broadcaster.Close(id)
		slog.Info("Session closed", "session_id", id)
	})
	return m
}

// Broadcaster returns the change feed of all sessions.
func (m *Manager) Broadcaster() *Broadcaster {
	return m.broadcaster
}

// Defaults returns the method selection used for new sessions.
func (m *Manager) Defaults() fit.MethodConfig {
	return m.defaults
}

// Create starts a new session. A nil cfg uses the manager defaults.
func (m *Manager) Create(cfg *fit.MethodConfig) (View, error) {
	c := m.defaults
	if cfg != nil {
		c = *cfg
	}

	s, err := New(uuid.New().String(), c)
	if err != nil {
		return View{}, err
	}

	m.sessions.Set(s.ID, &entry{session: s}, cache.DefaultExpiration)
	metrics.ActiveSessions.Inc()
	slog.Info("Session created", "session_id", s.ID, "method", c.String())
	return s.Snapshot(), nil
}

// Get returns a snapshot of a session.
func (m *Manager) Get(id string) (View, error) {
	e, err := m.lookup(id)
	if err != nil {
		return View{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.Snapshot(), nil
}

// Do runs fn with exclusive access to a session and returns the state
// afterwards. The session's idle timer is reset and subscribers are told
// about the change when fn succeeds.
func (m *Manager) Do(id string, fn func(*Session) error) (View, error) {
	e, err := m.lookup(id)
	if err != nil {
		return View{}, err
	}

	e.mu.Lock()
	fnErr := fn(e.session)
	view := e.session.Snapshot()
	e.mu.Unlock()

	if fnErr != nil {
		slog.Debug("Session operation failed", "session_id", id, "error", fnErr)
		m.touch(id, e)
		return view, fnErr
	}
	// A session deleted while fn ran stays gone and announces nothing.
	if !m.touch(id, e) {
		return view, &NotFoundError{ID: id}
	}
	m.broadcaster.Publish(Event{SessionID: id, Revision: view.Revision, Session: view, Timestamp: time.Now()})
	return view, nil
}

// Inspect runs fn with exclusive access to a session without announcing a
// change. fn must not mutate the session.
func (m *Manager) Inspect(id string, fn func(*Session) error) error {
	e, err := m.lookup(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	m.touch(id, e)
	return fn(e.session)
}

// List returns summaries of all live sessions, oldest first.
func (m *Manager) List() []Summary {
	items := m.sessions.Items()
	summaries := make([]Summary, 0, len(items))
	created := make(map[string]time.Time, len(items))
	for _, item := range items {
		e := item.Object.(*entry)
		e.mu.Lock()
		summaries = append(summaries, e.session.Summarize())
		created[e.session.ID] = e.session.CreatedAt
		e.mu.Unlock()
	}
	slices.SortFunc(summaries, func(a, b Summary) int {
		if c := created[a.ID].Compare(created[b.ID]); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return summaries
}

// Delete ends a session.
func (m *Manager) Delete(id string) error {
	if _, err := m.lookup(id); err != nil {
		return err
	}
	m.sessions.Delete(id)
	return nil
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	return m.sessions.ItemCount()
}

// touch resets the idle timer of a live session. Replace rather than Set so a
// deleted session is not brought back.
func (m *Manager) touch(id string, e *entry) bool {
	return m.sessions.Replace(id, e, cache.DefaultExpiration) == nil
}

func (m *Manager) lookup(id string) (*entry, error) {
	v, ok := m.sessions.Get(id)
	if !ok {
		return nil, &NotFoundError{ID: id}
	}
	return v.(*entry), nil
}
