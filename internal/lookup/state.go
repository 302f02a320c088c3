package lookup

import (
	"sync"

	"github.com/vzahanych/ph-weather/internal/service"
)

// State is the UI state of one search surface. Observation and Error may
// both be set: a failed search leaves the previous observation in place.
type State struct {
	Observation *service.Observation `json:"observation,omitempty"`
	Error       string               `json:"error,omitempty"`
}

func (s State) validationFailed() State {
	return State{Error: service.MsgEmptyCity}
}

func (s State) searching() State {
	s.Error = ""
	return s
}

func (s State) failed(msg string) State {
	s.Error = msg
	return s
}

func (s State) displaying(obs *service.Observation) State {
	return State{Observation: obs}
}

type Outcome string

const (
	OutcomeValidationFailed Outcome = "validation_failed"
	OutcomeResolveFailed    Outcome = "resolve_failed"
	OutcomeFetchFailed      Outcome = "fetch_failed"
	OutcomeDisplayed        Outcome = "displayed"
)

// Session owns one State. Updates are serialized but interactions are not:
// two overlapping searches interleave their transitions and the last one to
// write wins.
type Session struct {
	id    string
	mu    sync.RWMutex
	state State
}

func NewSession(id string) *Session {
	return &Session{id: id}
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) apply(fn func(State) State) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = fn(s.state)
	return s.state
}
