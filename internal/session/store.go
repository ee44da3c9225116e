package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store persists incident sessions and their confirmation decisions.
// Implementations must scope all access by session ID; there is no
// cross-session visibility.
type Store interface {
	// Create assigns an ID if the session has none and persists it.
	Create(ctx context.Context, s *Session) error

	// Get returns the session with the given ID, or nil when absent.
	Get(ctx context.Context, id string) (*Session, error)

	// Save updates an existing session.
	Save(ctx context.Context, s *Session) error

	// RecordDecision appends a confirmation decision to the audit trail.
	RecordDecision(ctx context.Context, d Decision) error

	// Decisions returns the audit trail for one session, oldest first.
	Decisions(ctx context.Context, sessionID string) ([]Decision, error)

	// Close releases underlying resources.
	Close() error
}

// MemoryStore is an in-process Store used by tests and one-shot CLI
// invocations where nothing outlives the process.
type MemoryStore struct {
	mu        sync.RWMutex
	sessions  map[string]Session
	decisions map[string][]Decision
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions:  make(map[string]Session),
		decisions: make(map[string][]Decision),
	}
}

func (m *MemoryStore) Create(_ context.Context, s *Session) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	s.CreatedAt = now
	s.UpdatedAt = now

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = *s
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	s.UpdatedAt = time.Now().UTC()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = *s
	return nil
}

func (m *MemoryStore) RecordDecision(_ context.Context, d Decision) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	d.CreatedAt = time.Now().UTC()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.decisions[d.SessionID] = append(m.decisions[d.SessionID], d)
	return nil
}

func (m *MemoryStore) Decisions(_ context.Context, sessionID string) ([]Decision, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Decision, len(m.decisions[sessionID]))
	copy(out, m.decisions[sessionID])
	return out, nil
}

func (m *MemoryStore) Close() error { return nil }
