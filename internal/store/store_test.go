package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intake-backend/internal/db"
	"intake-backend/migrations"
)

func exerciseStore(t *testing.T, s TranscriptStore) {
	t.Helper()
	ctx := context.Background()
	sid := "s_" + uuid.NewString()

	_, err := s.Session(ctx, sid)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, s.Append(ctx, sid, Message{Role: "user", Content: "hi"}), ErrSessionNotFound)

	require.NoError(t, s.Start(ctx, sid, "website"))
	require.NoError(t, s.Append(ctx, sid, Message{Role: "assistant", Content: "What's your name?"}))
	require.NoError(t, s.Append(ctx, sid, Message{Role: "user", Content: "Rahul"}))

	sess, err := s.Session(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, sid, sess.ID)
	assert.Equal(t, "website", sess.Service)
	require.Len(t, sess.Messages, 2)
	assert.Equal(t, "assistant", sess.Messages[0].Role)
	assert.Equal(t, "Rahul", sess.Messages[1].Content)
	assert.False(t, sess.Messages[1].CreatedAt.IsZero())

	require.NoError(t, s.Reset(ctx, sid))
	sess, err = s.Session(ctx, sid)
	require.NoError(t, err)
	assert.Empty(t, sess.Messages)
	assert.Equal(t, "website", sess.Service)

	require.NoError(t, s.Append(ctx, sid, Message{Role: "user", Content: "again"}))
	require.NoError(t, s.Start(ctx, sid, "logo-design"))
	sess, err = s.Session(ctx, sid)
	require.NoError(t, err)
	assert.Empty(t, sess.Messages, "start replaces the transcript")
	assert.Equal(t, "logo-design", sess.Service)

	assert.ErrorIs(t, s.Reset(ctx, "s_"+uuid.NewString()), ErrSessionNotFound)
	assert.ErrorIs(t, s.Start(ctx, "../etc/passwd", "website"), ErrInvalidSessionID)
}

func exerciseCap(t *testing.T, s TranscriptStore) {
	t.Helper()
	ctx := context.Background()
	sid := "s_" + uuid.NewString()
	require.NoError(t, s.Start(ctx, sid, "general"))
	require.NoError(t, s.Append(ctx, sid, Message{Role: "assistant", Content: "one"}))

	// A pair that does not fit is rejected whole.
	err := s.Append(ctx, sid, Message{Role: "user", Content: "two"}, Message{Role: "assistant", Content: "three"})
	assert.ErrorIs(t, err, ErrTranscriptFull)
	sess, err := s.Session(ctx, sid)
	require.NoError(t, err)
	require.Len(t, sess.Messages, 1)

	require.NoError(t, s.Append(ctx, sid, Message{Role: "user", Content: "two"}))
	assert.ErrorIs(t, s.Append(ctx, sid, Message{Role: "assistant", Content: "three"}), ErrTranscriptFull)
	sess, err = s.Session(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, "two", sess.Messages[1].Content)
}

func TestAppendPairKeepsOrder(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore(0)
	require.NoError(t, m.Start(ctx, "pair", "general"))
	require.NoError(t, m.Append(ctx, "pair", Message{Role: "user", Content: "hi"}, Message{Role: "assistant", Content: "hello"}))
	sess, err := m.Session(ctx, "pair")
	require.NoError(t, err)
	require.Len(t, sess.Messages, 2)
	assert.Equal(t, "user", sess.Messages[0].Role)
	assert.Equal(t, "assistant", sess.Messages[1].Role)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore(0))
	exerciseCap(t, NewMemoryStore(2))
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore(0)
	require.NoError(t, m.Start(ctx, "abc", "general"))
	require.NoError(t, m.Append(ctx, "abc", Message{Role: "user", Content: "hello"}))

	sess, err := m.Session(ctx, "abc")
	require.NoError(t, err)
	sess.Messages[0].Content = "mutated"

	again, err := m.Session(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "hello", again.Messages[0].Content)
}

func TestMemoryStorePurge(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore(0)
	require.NoError(t, m.Start(ctx, "old", "general"))
	cutoff := time.Now().UTC().Add(time.Second)
	n, err := m.Purge(ctx, cutoff)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	_, err = m.Session(ctx, "old")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestFileStore(t *testing.T) {
	fs, err := NewFileStore(t.TempDir(), 0)
	require.NoError(t, err)
	exerciseStore(t, fs)

	capped, err := NewFileStore(t.TempDir(), 2)
	require.NoError(t, err)
	exerciseCap(t, capped)
}

func TestFileStoreLayout(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	fs, err := NewFileStore(dir, 0)
	require.NoError(t, err)
	require.NoError(t, fs.Start(ctx, "abc", "website"))
	require.NoError(t, fs.Append(ctx, "abc", Message{Role: "user", Content: "hi"}))

	_, err = os.Stat(filepath.Join(dir, "abc.json"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "abc.json.tmp"))
	assert.True(t, os.IsNotExist(err), "temp file is renamed away")

	reopened, err := NewFileStore(dir, 0)
	require.NoError(t, err)
	sess, err := reopened.Session(ctx, "abc")
	require.NoError(t, err)
	require.Len(t, sess.Messages, 1)

	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, "abc.json"), old, old))
	n, err := reopened.Purge(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	_, err = reopened.Session(ctx, "abc")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestFileStoreCorruptTranscript(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{not json"), 0o600))
	fs, err := NewFileStore(dir, 0)
	require.NoError(t, err)
	_, err = fs.Session(context.Background(), "bad")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSessionNotFound)
}

func TestValidSessionID(t *testing.T) {
	assert.True(t, ValidSessionID("s_1234"))
	assert.True(t, ValidSessionID(uuid.NewString()))
	assert.False(t, ValidSessionID(""))
	assert.False(t, ValidSessionID("a/b"))
	assert.False(t, ValidSessionID("a.json"))
}

func TestDatabaseStore(t *testing.T) {
	// Needs a running PostgreSQL; the schema is applied from the embedded migrations.
	dsn := os.Getenv("TEST_DB_URL")
	if dsn == "" {
		t.Skip("TEST_DB_URL not set")
	}
	ctx := context.Background()
	database, err := db.New(ctx, dsn)
	if err != nil {
		t.Skipf("postgres not available: %v", err)
	}
	defer database.Close()
	require.NoError(t, database.RunMigrations(ctx, migrations.FS))

	exerciseStore(t, NewDatabaseStore(database, 0))
	exerciseCap(t, NewDatabaseStore(database, 2))
}
