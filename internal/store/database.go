package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"intake-backend/internal/db"
)

// DatabaseStore stores transcripts in the intake_sessions and
// intake_messages tables.
type DatabaseStore struct {
	db          *db.DB
	maxMessages int
}

// NewDatabaseStore creates a new database store
func NewDatabaseStore(database *db.DB, maxMessages int) *DatabaseStore {
	return &DatabaseStore{db: database, maxMessages: maxMessages}
}

// Start upserts the session row and drops any earlier messages.
func (ds *DatabaseStore) Start(ctx context.Context, sessionID, service string) error {
	if err := checkID(sessionID); err != nil {
		return err
	}
	return ds.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO intake_sessions (session_id, service, created_at, updated_at)
			VALUES ($1, $2, NOW(), NOW())
			ON CONFLICT (session_id)
			DO UPDATE SET
				service = EXCLUDED.service,
				created_at = NOW(),
				updated_at = NOW()
		`, sessionID, service)
		if err != nil {
			return fmt.Errorf("failed to start session: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM intake_messages WHERE session_id = $1`, sessionID); err != nil {
			return fmt.Errorf("failed to clear messages: %w", err)
		}
		return nil
	})
}

// Append adds msgs after the session's last message in one transaction.
func (ds *DatabaseStore) Append(ctx context.Context, sessionID string, msgs ...Message) error {
	return ds.inTx(ctx, func(tx *sql.Tx) error {
		if err := touch(ctx, tx, sessionID); err != nil {
			return err
		}
		var last int
		if err := tx.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(seq), 0) FROM intake_messages WHERE session_id = $1`,
			sessionID,
		).Scan(&last); err != nil {
			return fmt.Errorf("failed to read transcript length: %w", err)
		}
		if !fits(ds.maxMessages, last, len(msgs)) {
			return ErrTranscriptFull
		}
		for i, msg := range msgs {
			msg = stamp(msg)
			_, err := tx.ExecContext(ctx, `
				INSERT INTO intake_messages (session_id, seq, role, content, created_at)
				VALUES ($1, $2, $3, $4, $5)
			`, sessionID, last+1+i, msg.Role, msg.Content, msg.CreatedAt)
			if err != nil {
				return fmt.Errorf("failed to append message: %w", err)
			}
		}
		return nil
	})
}

// Session loads the session row and its messages in order.
func (ds *DatabaseStore) Session(ctx context.Context, sessionID string) (Session, error) {
	var s Session
	err := ds.db.QueryRowContext(ctx, `
		SELECT session_id, service, created_at, updated_at
		FROM intake_sessions
		WHERE session_id = $1
	`, sessionID).Scan(&s.ID, &s.Service, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrSessionNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("failed to get session: %w", err)
	}

	rows, err := ds.db.QueryContext(ctx, `
		SELECT role, content, created_at
		FROM intake_messages
		WHERE session_id = $1
		ORDER BY seq
	`, sessionID)
	if err != nil {
		return Session{}, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.Role, &m.Content, &m.CreatedAt); err != nil {
			return Session{}, fmt.Errorf("failed to scan message: %w", err)
		}
		s.Messages = append(s.Messages, m)
	}
	if err := rows.Err(); err != nil {
		return Session{}, fmt.Errorf("failed to iterate messages: %w", err)
	}
	return s, nil
}

// Reset removes the session's messages and keeps the session row.
func (ds *DatabaseStore) Reset(ctx context.Context, sessionID string) error {
	return ds.inTx(ctx, func(tx *sql.Tx) error {
		if err := touch(ctx, tx, sessionID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM intake_messages WHERE session_id = $1`, sessionID); err != nil {
			return fmt.Errorf("failed to reset transcript: %w", err)
		}
		return nil
	})
}

// Purge deletes sessions last updated before cutoff. Messages go with
// them through the cascade.
func (ds *DatabaseStore) Purge(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := ds.db.ExecContext(ctx, `DELETE FROM intake_sessions WHERE updated_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to purge sessions: %w", err)
	}
	return int(n), nil
}

// touch bumps updated_at and reports ErrSessionNotFound for unknown ids.
func touch(ctx context.Context, tx *sql.Tx, sessionID string) error {
	res, err := tx.ExecContext(ctx, `UPDATE intake_sessions SET updated_at = NOW() WHERE session_id = $1`, sessionID)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	if n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (ds *DatabaseStore) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := ds.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}
