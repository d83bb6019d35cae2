package dashboard

import (
	"errors"
	"sync"
	"time"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
)

// Session is the server side of the session cookie.
type Session struct {
	ID                   string
	ManagerID            string
	ManagerName          string
	Email                string
	SelectedUniversity   string
	SelectedUniversityID string
	CreatedAt            time.Time
	ExpiresAt            time.Time
}

type SessionStore struct {
	sessions map[string]*Session
	mu       sync.RWMutex
	ttl      time.Duration
	done     chan struct{}
	once     sync.Once
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	store := &SessionStore{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		done:     make(chan struct{}),
	}

	go store.cleanup()

	return store
}

func (s *SessionStore) TTL() time.Duration {
	return s.ttl
}

func (s *SessionStore) Save(session *Session) error {
	if session == nil {
		return errors.New("session is nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *session
	s.sessions[session.ID] = &stored
	return nil
}

// Get returns a copy of the session.
func (s *SessionStore) Get(sessionID string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}

	if time.Now().After(session.ExpiresAt) {
		return nil, ErrSessionExpired
	}

	copied := *session
	return &copied, nil
}

// SelectUniversity stores both the name and the id of the chosen university.
func (s *SessionStore) SelectUniversity(sessionID, name, id string) error {
	return s.update(sessionID, func(session *Session) {
		session.SelectedUniversity = name
		session.SelectedUniversityID = id
	})
}

// ClearUniversity removes the selection and keeps the manager signed in.
func (s *SessionStore) ClearUniversity(sessionID string) error {
	return s.update(sessionID, func(session *Session) {
		session.SelectedUniversity = ""
		session.SelectedUniversityID = ""
	})
}

func (s *SessionStore) update(sessionID string, fn func(*Session)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	fn(session)
	return nil
}

func (s *SessionStore) Delete(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionID)
}

// Close stops the expiry sweeper.
func (s *SessionStore) Close() {
	s.once.Do(func() { close(s.done) })
}

func (s *SessionStore) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.sweep(time.Now())
		}
	}
}

func (s *SessionStore) sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, session := range s.sessions {
		if now.After(session.ExpiresAt) {
			delete(s.sessions, id)
		}
	}
}
