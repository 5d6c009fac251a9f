package main

import (
	"sync"
	"time"
)

const maxSessions = 100

// SessionIdleTimeout is how long a session may sit without activity before
// the janitor reaps it. Variable so tests can shorten it.
var SessionIdleTimeout = 5 * time.Minute

// Session is one single-player run that clients (player, controller) attach to
type Session struct {
	ID    string
	Pilot string
	Game  *Game

	mu         sync.Mutex
	lastActive time.Time
}

// MarkActive refreshes the idle clock
func (s *Session) MarkActive() {
	s.mu.Lock()
	s.lastActive = time.Now()
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// SessionManager handles creation and lookup of sessions
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionManager creates a new SessionManager
func NewSessionManager() *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*Session),
	}
}

// CreateSession starts a new run. Returns nil if the limit is reached.
func (sm *SessionManager) CreateSession(pilot string, cfg RunConfig, vp Viewport, db *DB, analytics *Analytics) *Session {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if len(sm.sessions) >= maxSessions {
		return nil
	}

	id := GenerateUUID()
	game := NewGame(cfg, vp, db, analytics)
	game.sessionID = id
	sess := &Session{
		ID:         id,
		Pilot:      pilot,
		Game:       game,
		lastActive: time.Now(),
	}
	sm.sessions[id] = sess
	go game.Run()
	if analytics != nil {
		analytics.Track(EvtSessionStart, 0, id, "")
	}
	return sess
}

// GetSession returns a session by ID
func (sm *SessionManager) GetSession(id string) *Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.sessions[id]
}

// RemoveSession stops a session's run and deletes it
func (sm *SessionManager) RemoveSession(id string) {
	sm.mu.Lock()
	sess, ok := sm.sessions[id]
	if ok {
		delete(sm.sessions, id)
	}
	sm.mu.Unlock()
	if ok {
		sess.Game.Stop()
	}
}

// SessionCount returns the number of live sessions
func (sm *SessionManager) SessionCount() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// Janitor periodically reaps idle sessions; run it in its own goroutine
func (sm *SessionManager) Janitor(stop <-chan struct{}) {
	ticker := time.NewTicker(SessionIdleTimeout / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			cutoff := time.Now().Add(-SessionIdleTimeout)
			sm.mu.Lock()
			var expired []*Session
			for id, sess := range sm.sessions {
				if sess.idleSince().Before(cutoff) {
					delete(sm.sessions, id)
					expired = append(expired, sess)
				}
			}
			sm.mu.Unlock()
			for _, sess := range expired {
				sess.Game.Stop()
			}
		case <-stop:
			return
		}
	}
}
