package lookup

import (
	"container/list"
	"sync"
)

// Store keeps sessions in memory, evicting the least recently used one once
// maxSessions is reached.
type Store struct {
	mu          sync.Mutex
	maxSessions int
	order       *list.List
	sessions    map[string]*list.Element
}

func NewStore(maxSessions int) *Store {
	if maxSessions <= 0 {
		maxSessions = 1
	}
	return &Store{
		maxSessions: maxSessions,
		order:       list.New(),
		sessions:    make(map[string]*list.Element),
	}
}

// Get returns the session for id, creating it if needed.
func (s *Store) Get(id string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if el, ok := s.sessions[id]; ok {
		s.order.MoveToFront(el)
		return el.Value.(*Session)
	}

	for s.order.Len() >= s.maxSessions {
		oldest := s.order.Back()
		s.order.Remove(oldest)
		delete(s.sessions, oldest.Value.(*Session).ID())
	}

	sess := NewSession(id)
	s.sessions[id] = s.order.PushFront(sess)
	return sess
}

// Peek returns the session for id without creating or touching it.
func (s *Store) Peek(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	return el.Value.(*Session), true
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order.Len()
}
