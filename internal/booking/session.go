package booking

import (
	"sync"
	"time"
)

// FormState is the per-conversation state of the booking flow: the phase,
// the field currently being requested, the remaining attempt budget per
// field, and the record under construction. It is owned by exactly one
// session and mutated only by the turn currently holding that session.
type FormState struct {
	Phase    Phase
	Current  Field
	Attempts map[Field]int
	Record   Record
}

// Phase is the engine's state-machine position.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseCollecting
	PhaseConfirming
	PhaseConfirmed
	PhaseAbandoned
)

func (p Phase) Terminal() bool { return p == PhaseConfirmed || p == PhaseAbandoned }

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseCollecting:
		return "collecting"
	case PhaseConfirming:
		return "confirming"
	case PhaseConfirmed:
		return "confirmed"
	case PhaseAbandoned:
		return "abandoned"
	default:
		return "unknown"
	}
}

// Session holds one conversation's form state. Turns lock the session for
// their whole duration, so different sessions proceed in parallel while
// turns within one session are serialized.
type Session struct {
	mu       sync.Mutex
	ID       string
	State    FormState
	LastSeen time.Time
}

// SessionStore is the process-wide session table, keyed by conversation
// identifier. It is the only shared mutable state in the engine: entries
// are created on the first booking turn and removed on terminal states,
// with a capacity bound and idle-TTL eviction on top.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	capacity int
	idleTTL  time.Duration
}

// NewSessionStore creates a session table. capacity <= 0 means unbounded;
// idleTTL <= 0 disables idle eviction.
func NewSessionStore(capacity int, idleTTL time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
		capacity: capacity,
		idleTTL:  idleTTL,
	}
}

// Acquire returns the session for id, creating it if absent, with the
// session's turn lock held. Callers must Release when the turn is done.
func (s *SessionStore) Acquire(id string, now time.Time) (sess *Session, created bool) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if !ok {
		if s.capacity > 0 && len(s.sessions) >= s.capacity {
			s.evictOldestLocked()
		}
		sess = &Session{ID: id}
		s.sessions[id] = sess
		created = true
	}
	sess.LastSeen = now
	s.mu.Unlock()

	sess.mu.Lock()
	return sess, created
}

// Release ends the current turn on sess.
func (s *SessionStore) Release(sess *Session) {
	sess.mu.Unlock()
}

// Remove drops the session from the table. Safe to call while holding the
// session's turn lock.
func (s *SessionStore) Remove(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// Active reports whether id has a live, non-terminal session.
func (s *SessionStore) Active(id string) bool {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok {
		return false
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return !sess.State.Phase.Terminal()
}

// Len returns the number of tracked sessions.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep evicts sessions idle longer than the store's TTL and returns how
// many were removed. Intended to be called periodically by the host.
func (s *SessionStore) Sweep(now time.Time) int {
	if s.idleTTL <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, sess := range s.sessions {
		if now.Sub(sess.LastSeen) > s.idleTTL {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

func (s *SessionStore) evictOldestLocked() {
	var oldestID string
	var oldest time.Time
	for id, sess := range s.sessions {
		if oldestID == "" || sess.LastSeen.Before(oldest) {
			oldestID = id
			oldest = sess.LastSeen
		}
	}
	if oldestID != "" {
		delete(s.sessions, oldestID)
	}
}
