package core

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/oklog/ulid/v2"

	"hopon/internal/dataset"
)

// Session holds one user's parameters and the last view they produced.
// Sessions never share mutable state.
type Session struct {
	id string

	mu      sync.Mutex
	snap    *dataset.Snapshot
	params  ViewParams
	view    View
	touched time.Time
}

func newSession(id string, snap *dataset.Snapshot, params ViewParams) *Session {
	return &Session{
		id:      id,
		snap:    snap,
		params:  params,
		view:    ComputeView(snap, params),
		touched: time.Now().UTC(),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Params returns the parameters behind the current view.
func (s *Session) Params() ViewParams {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params
}

// View returns the last valid view.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// ApplyProjectParams replaces the project filters. Invalid parameters leave
// the session untouched and return the previous view with the error.
func (s *Session) ApplyProjectParams(p ProjectParams) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := p.Validate(); err != nil {
		return s.view, err
	}
	s.params.Projects = p
	return s.recompute(), nil
}

// ApplyOrganizationParams replaces the organization filters.
func (s *Session) ApplyOrganizationParams(p OrganizationParams) View {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params.Organizations = p
	return s.recompute()
}

// Select changes the drill-down project. An empty id falls back to the
// first filtered project.
func (s *Session) Select(projectID string) View {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params.SelectedProjectID = projectID
	return s.recompute()
}

// Refresh recomputes the view against snap when it differs from the
// snapshot the session was built on.
func (s *Session) Refresh(snap *dataset.Snapshot) View {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap == snap || (s.snap != nil && snap != nil && s.snap.Key == snap.Key) {
		return s.view
	}
	s.snap = snap
	return s.recompute()
}

func (s *Session) recompute() View {
	s.view = ComputeView(s.snap, s.params)
	s.touched = time.Now().UTC()
	return s.view
}

// DefaultSessionTTL expires idle sessions.
const DefaultSessionTTL = 30 * time.Minute

// DefaultMaxSessions bounds the number of live sessions.
const DefaultMaxSessions = 1024

// SessionStore keeps live sessions with LRU eviction and idle expiry.
type SessionStore struct {
	sessions *expirable.LRU[string, *Session]
}

// NewSessionStore returns a store holding at most size sessions for ttl.
func NewSessionStore(size int, ttl time.Duration) *SessionStore {
	if size <= 0 {
		size = DefaultMaxSessions
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionStore{sessions: expirable.NewLRU[string, *Session](size, nil, ttl)}
}

// Create starts a session on snap with params.
func (st *SessionStore) Create(snap *dataset.Snapshot, params ViewParams) *Session {
	sess := newSession(ulid.Make().String(), snap, params)
	st.sessions.Add(sess.id, sess)
	return sess
}

// Get returns a live session and renews its expiry.
func (st *SessionStore) Get(id string) (*Session, bool) {
	sess, ok := st.sessions.Get(id)
	if ok {
		st.sessions.Add(id, sess)
	}
	return sess, ok
}

// Remove ends a session.
func (st *SessionStore) Remove(id string) bool { return st.sessions.Remove(id) }

// Len reports the number of live sessions.
func (st *SessionStore) Len() int { return st.sessions.Len() }
