package store

import (
	"context"
	"sync"
	"time"
)

type MemoryStore struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	maxMessages int
}

// NewMemoryStore keeps transcripts in process. maxMessages caps each
// transcript; zero is unlimited.
func NewMemoryStore(maxMessages int) *MemoryStore {
	return &MemoryStore{
		sessions:    make(map[string]*Session),
		maxMessages: maxMessages,
	}
}

func (m *MemoryStore) Start(_ context.Context, sessionID, service string) error {
	if err := checkID(sessionID); err != nil {
		return err
	}
	now := time.Now().UTC()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sessionID] = &Session{ID: sessionID, Service: service, CreatedAt: now, UpdatedAt: now}
	return nil
}

func (m *MemoryStore) Append(_ context.Context, sessionID string, msgs ...Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	if !fits(m.maxMessages, len(s.Messages), len(msgs)) {
		return ErrTranscriptFull
	}
	for _, msg := range msgs {
		msg = stamp(msg)
		s.Messages = append(s.Messages, msg)
		s.UpdatedAt = msg.CreatedAt
	}
	return nil
}

func (m *MemoryStore) Session(_ context.Context, sessionID string) (Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	return copySession(*s), nil
}

func (m *MemoryStore) Reset(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	s.Messages = nil
	s.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MemoryStore) Purge(_ context.Context, cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, s := range m.sessions {
		if s.UpdatedAt.Before(cutoff) {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}

// Len returns the number of sessions held.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
