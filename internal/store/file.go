package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileStore persists one JSON document per session under dir.
type FileStore struct {
	mu          sync.Mutex
	dir         string
	maxMessages int
}

func NewFileStore(dir string, maxMessages int) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create transcript dir: %w", err)
	}
	return &FileStore{dir: dir, maxMessages: maxMessages}, nil
}

func (f *FileStore) path(sessionID string) string {
	return filepath.Join(f.dir, sessionID+".json")
}

func (f *FileStore) Start(_ context.Context, sessionID, service string) error {
	if err := checkID(sessionID); err != nil {
		return err
	}
	now := time.Now().UTC()
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.write(Session{ID: sessionID, Service: service, CreatedAt: now, UpdatedAt: now})
}

func (f *FileStore) Append(_ context.Context, sessionID string, msgs ...Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, err := f.read(sessionID)
	if err != nil {
		return err
	}
	if !fits(f.maxMessages, len(s.Messages), len(msgs)) {
		return ErrTranscriptFull
	}
	for _, msg := range msgs {
		msg = stamp(msg)
		s.Messages = append(s.Messages, msg)
		s.UpdatedAt = msg.CreatedAt
	}
	return f.write(s)
}

func (f *FileStore) Session(_ context.Context, sessionID string) (Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.read(sessionID)
}

func (f *FileStore) Reset(_ context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, err := f.read(sessionID)
	if err != nil {
		return err
	}
	s.Messages = nil
	s.UpdatedAt = time.Now().UTC()
	return f.write(s)
}

func (f *FileStore) read(sessionID string) (Session, error) {
	if err := checkID(sessionID); err != nil {
		return Session{}, err
	}
	b, err := os.ReadFile(f.path(sessionID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Session{}, ErrSessionNotFound
		}
		return Session{}, fmt.Errorf("read transcript %s: %w", sessionID, err)
	}
	var s Session
	if err := json.Unmarshal(b, &s); err != nil {
		return Session{}, fmt.Errorf("decode transcript %s: %w", sessionID, err)
	}
	return s, nil
}

// Purge removes session files whose modification time is before cutoff.
func (f *FileStore) Purge(_ context.Context, cutoff time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return 0, fmt.Errorf("list transcripts: %w", err)
	}
	n := 0
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		info, err := e.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(f.dir, e.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return n, fmt.Errorf("remove transcript %s: %w", e.Name(), err)
		}
		n++
	}
	return n, nil
}

// write replaces the session file atomically through a temp file and rename.
func (f *FileStore) write(s Session) error {
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode transcript %s: %w", s.ID, err)
	}
	target := f.path(s.ID)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("write transcript %s: %w", s.ID, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		return fmt.Errorf("replace transcript %s: %w", s.ID, err)
	}
	return nil
}
