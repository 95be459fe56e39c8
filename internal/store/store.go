// Package store persists intake transcripts. The conversation state itself
// is never stored; it is rebuilt from the transcript on every turn.
package store

import (
	"context"
	"errors"
	"regexp"
	"time"
)

var (
	// ErrSessionNotFound is returned for a session that was never started.
	ErrSessionNotFound = errors.New("session not found")
	// ErrTranscriptFull is returned when an append would exceed the
	// configured message cap.
	ErrTranscriptFull = errors.New("transcript is full")
	// ErrInvalidSessionID is returned for ids outside [A-Za-z0-9_-].
	ErrInvalidSessionID = errors.New("invalid session id")
)

type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Session is a transcript and the service it belongs to.
type Session struct {
	ID        string    `json:"id"`
	Service   string    `json:"service"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TranscriptStore is implemented by the memory, file and postgres backends.
// Start replaces any existing transcript for the id. Reset empties the
// transcript and keeps the service. Purge drops sessions not updated since
// cutoff and returns how many went.
type TranscriptStore interface {
	Start(ctx context.Context, sessionID, service string) error
	// Append adds msgs atomically: either all of them are stored or none.
	Append(ctx context.Context, sessionID string, msgs ...Message) error
	Session(ctx context.Context, sessionID string) (Session, error)
	Reset(ctx context.Context, sessionID string) error
	Purge(ctx context.Context, cutoff time.Time) (int, error)
}

var sessionIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// ValidSessionID reports whether id is safe to use as a storage key.
func ValidSessionID(id string) bool {
	return sessionIDRe.MatchString(id)
}

// fits reports whether n more messages fit under limit; limit <= 0 is unlimited.
func fits(limit, have, n int) bool {
	return limit <= 0 || have+n <= limit
}

func checkID(id string) error {
	if !ValidSessionID(id) {
		return ErrInvalidSessionID
	}
	return nil
}

func copySession(s Session) Session {
	s.Messages = append([]Message(nil), s.Messages...)
	return s
}

func stamp(msg Message) Message {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	return msg
}
