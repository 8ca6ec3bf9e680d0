package domain

import (
	"sync"
	"time"
)

// Session holds the per-connection state: the authenticated member and
// the set of rooms the connection has joined. A connection is owned by
// exactly one process and may be in any number of rooms at once.
type Session struct {
	ID            string
	MemberID      string
	Nickname      string
	Authenticated bool
	rooms         map[string]struct{}
	CreatedAt     time.Time
	LastActiveAt  time.Time
	mu            sync.RWMutex
}

func NewSession(id string) *Session {
	now := time.Now()
	return &Session{
		ID:           id,
		rooms:        make(map[string]struct{}),
		CreatedAt:    now,
		LastActiveAt: now,
	}
}

func (s *Session) Authenticate(memberID, nickname string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.MemberID = memberID
	s.Nickname = nickname
	s.Authenticated = true
	s.LastActiveAt = time.Now()
}

func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Authenticated
}

func (s *Session) JoinRoom(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[roomID] = struct{}{}
	s.LastActiveAt = time.Now()
}

// LeaveRoom removes the room from the session. It reports whether the
// session was actually in the room, so callers can keep leave idempotent.
func (s *Session) LeaveRoom(roomID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[roomID]; !ok {
		return false
	}
	delete(s.rooms, roomID)
	s.LastActiveAt = time.Now()
	return true
}

func (s *Session) InRoom(roomID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.rooms[roomID]
	return ok
}

// Rooms returns a snapshot of the joined room ids.
func (s *Session) Rooms() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.rooms))
	for id := range s.rooms {
		out = append(out, id)
	}
	return out
}

func (s *Session) GetMemberID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.MemberID
}

func (s *Session) GetNickname() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Nickname
}

func (s *Session) UpdateActivity() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LastActiveAt = time.Now()
}
