// Package session keeps bounded per-session conversational memory. History
// lives only for the life of the process; the Store interface leaves room
// for a persistent backing without touching the orchestrator.
package session

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Exchange is one user query paired with its assistant answer, the unit of
// session history.
type Exchange struct {
	UserText      string
	AssistantText string
}

// Store manages per-session exchange history. Unknown ids read as empty;
// Clear empties a session but keeps its id usable.
type Store interface {
	Create() string
	History(id string) []Exchange
	Append(id, userText, assistantText string)
	Clear(id string)
}

type sessionState struct {
	mu        sync.Mutex
	exchanges []Exchange
}

// MemoryStore is the in-memory Store. Mutation is serialized per session
// id; unrelated sessions proceed independently.
type MemoryStore struct {
	mu         sync.RWMutex
	maxHistory int
	sessions   map[string]*sessionState
}

func NewMemoryStore(maxHistory int) *MemoryStore {
	if maxHistory <= 0 {
		maxHistory = 2
	}
	return &MemoryStore{maxHistory: maxHistory, sessions: make(map[string]*sessionState)}
}

func (s *MemoryStore) Create() string {
	id := uuid.NewString()
	s.mu.Lock()
	s.sessions[id] = &sessionState{}
	s.mu.Unlock()
	return id
}

func (s *MemoryStore) state(id string, create bool) *sessionState {
	s.mu.RLock()
	state, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok || !create {
		return state
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if state, ok = s.sessions[id]; ok {
		return state
	}
	state = &sessionState{}
	s.sessions[id] = state
	return state
}

// History returns the session's exchanges oldest-first, or nil for an
// unknown id.
func (s *MemoryStore) History(id string) []Exchange {
	state := s.state(id, false)
	if state == nil {
		return nil
	}
	state.mu.Lock()
	defer state.mu.Unlock()
	out := make([]Exchange, len(state.exchanges))
	copy(out, state.exchanges)
	return out
}

// Append records one exchange, then trims to the newest maxHistory entries.
// Appending to an id this store never issued creates the session, so
// cleared or caller-chosen ids keep working.
func (s *MemoryStore) Append(id, userText, assistantText string) {
	state := s.state(id, true)
	state.mu.Lock()
	defer state.mu.Unlock()
	state.exchanges = append(state.exchanges, Exchange{UserText: userText, AssistantText: assistantText})
	if len(state.exchanges) > s.maxHistory {
		state.exchanges = state.exchanges[len(state.exchanges)-s.maxHistory:]
	}
}

func (s *MemoryStore) Clear(id string) {
	state := s.state(id, false)
	if state == nil {
		return
	}
	state.mu.Lock()
	state.exchanges = nil
	state.mu.Unlock()
}

// FormatHistory renders exchanges for the model's prompt.
func FormatHistory(exchanges []Exchange) string {
	if len(exchanges) == 0 {
		return ""
	}
	parts := make([]string, 0, len(exchanges))
	for _, ex := range exchanges {
		parts = append(parts, "User: "+ex.UserText+"\nAssistant: "+ex.AssistantText)
	}
	return strings.Join(parts, "\n")
}
