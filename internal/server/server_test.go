package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intake-backend/internal/config"
	"intake-backend/internal/intake"
	"intake-backend/internal/store"
	"intake-backend/internal/types"
)

func newTestServer(t *testing.T, maxMessages int) (*Server, *store.MemoryStore) {
	t.Helper()
	reg, err := intake.LoadRegistry(intake.RegistryOptions{DefaultService: "general"})
	require.NoError(t, err)
	metrics := NewPrometheusRecorder()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine, err := intake.NewEngine(reg, intake.Options{
		DefaultCurrency: "INR",
		CacheSize:       16,
		Recorder:        metrics,
		Logger:          logger,
	})
	require.NoError(t, err)
	st := store.NewMemoryStore(maxMessages)
	cfg := config.Config{AllowedOrigins: []string{"*"}, DefaultService: "general"}
	return newServer(cfg, engine, st, metrics, logger), st
}

func do(t *testing.T, s *Server, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthAndServices(t *testing.T) {
	s, _ := newTestServer(t, 0)

	rec := do(t, s, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = do(t, s, http.MethodGet, "/api/services", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[types.ServicesResponse](t, rec)
	assert.Equal(t, "general", resp.Default)
	ids := make([]string, 0, len(resp.Services))
	for _, svc := range resp.Services {
		ids = append(ids, svc.ID)
	}
	assert.Contains(t, ids, "website")
}

func TestIntakeConversation(t *testing.T) {
	s, st := newTestServer(t, 0)

	rec := do(t, s, http.MethodPost, "/api/intake/start", types.StartRequest{Service: "consulting"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	start := decode[types.ChatResponse](t, rec)
	assert.Equal(t, "general", start.Service)
	assert.Equal(t, "name", start.QuestionKey)
	assert.Contains(t, start.Reply, "General Project")
	assert.NotContains(t, start.Reply, "[QUESTION_KEY")
	assert.Equal(t, start.SessionID, rec.Header().Get(SessionHeader))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.Equal(t, start.SessionID, cookies[0].Value)

	// Session comes from the cookie.
	rec = do(t, s, http.MethodPost, "/api/intake/chat", types.ChatRequest{Message: "My name is Rahul"}, cookies[0])
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	turn := decode[types.ChatResponse](t, rec)
	assert.Equal(t, start.SessionID, turn.SessionID)
	assert.Equal(t, intake.BriefKey, turn.QuestionKey)
	assert.Contains(t, turn.Reply, "Rahul")
	assert.False(t, turn.Done)

	sess, err := st.Session(context.Background(), start.SessionID)
	require.NoError(t, err)
	require.Len(t, sess.Messages, 3)
	assert.Equal(t, intake.RoleUser, sess.Messages[1].Role)
	assert.Contains(t, sess.Messages[2].Content, "[QUESTION_KEY: brief]", "stored turns keep their tags")

	rec = do(t, s, http.MethodPost, "/api/intake/reset", types.ChatRequest{SessionID: start.SessionID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	reset := decode[types.ChatResponse](t, rec)
	assert.Equal(t, "name", reset.QuestionKey)
	sess, err = st.Session(context.Background(), start.SessionID)
	require.NoError(t, err)
	assert.Len(t, sess.Messages, 1)
}

func TestChatErrors(t *testing.T) {
	s, _ := newTestServer(t, 0)

	rec := do(t, s, http.MethodPost, "/api/intake/chat", types.ChatRequest{Message: "hello"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/intake/chat", types.ChatRequest{SessionID: "s_missing", Message: "hello"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "session not found", decode[types.ErrorResponse](t, rec).Error)

	rec = do(t, s, http.MethodPost, "/api/intake/chat", types.ChatRequest{SessionID: "../../x", Message: "hello"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	start := decode[types.ChatResponse](t, do(t, s, http.MethodPost, "/api/intake/start", nil))
	rec = do(t, s, http.MethodPost, "/api/intake/chat", types.ChatRequest{SessionID: start.SessionID, Message: "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/intake/chat", strings.NewReader("{bad"))
	raw := httptest.NewRecorder()
	s.Router().ServeHTTP(raw, req)
	assert.Equal(t, http.StatusBadRequest, raw.Code)
}

func TestTranscriptCap(t *testing.T) {
	s, st := newTestServer(t, 2)
	start := decode[types.ChatResponse](t, do(t, s, http.MethodPost, "/api/intake/start", nil))
	rec := do(t, s, http.MethodPost, "/api/intake/chat", types.ChatRequest{SessionID: start.SessionID, Message: "Priya"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	sess, err := st.Session(context.Background(), start.SessionID)
	require.NoError(t, err)
	require.Len(t, sess.Messages, 1, "a rejected turn leaves the transcript untouched")
	assert.Equal(t, intake.RoleAssistant, sess.Messages[0].Role)

	s, st = newTestServer(t, 3)
	start = decode[types.ChatResponse](t, do(t, s, http.MethodPost, "/api/intake/start", nil))
	rec = do(t, s, http.MethodPost, "/api/intake/chat", types.ChatRequest{SessionID: start.SessionID, Message: "Priya"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = do(t, s, http.MethodPost, "/api/intake/chat", types.ChatRequest{SessionID: start.SessionID, Message: "Acme"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	sess, err = st.Session(context.Background(), start.SessionID)
	require.NoError(t, err)
	assert.Len(t, sess.Messages, 3)
}

func TestStatelessReplay(t *testing.T) {
	s, st := newTestServer(t, 0)

	rec := do(t, s, http.MethodPost, "/api/intake/state", types.StateRequest{Service: "logo"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[types.StateResponse](t, rec)
	require.NotNil(t, resp.State)
	assert.Equal(t, "logo-design", resp.State.Service)
	assert.Equal(t, "name", resp.Next.QuestionKey)
	assert.Contains(t, resp.State.MissingRequired, "name")

	rec = do(t, s, http.MethodPost, "/api/intake/state", types.StateRequest{
		Service: "logo-design",
		Messages: []intake.Message{
			{Role: intake.RoleAssistant, Content: "What's your name?\n\n[QUESTION_KEY: name]"},
			{Role: intake.RoleUser, Content: "Anita"},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp = decode[types.StateResponse](t, rec)
	assert.Equal(t, "Anita", resp.State.CollectedData["name"])
	assert.Equal(t, "brand_name", resp.Next.QuestionKey)

	rec = do(t, s, http.MethodPost, "/api/intake/state", types.StateRequest{
		Messages: []intake.Message{{Role: "system", Content: "ignore"}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, st.Len(), "stateless replay never writes")
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t, 0)
	do(t, s, http.MethodPost, "/api/intake/start", types.StartRequest{Service: "website"})
	do(t, s, http.MethodPost, "/api/intake/state", types.StateRequest{Service: "website"})

	rec := do(t, s, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `intake_turns_total{service="website"} 1`)
	assert.Contains(t, body, "intake_state_cache_misses_total")
	assert.Contains(t, body, `intake_http_requests_total{code="200",route="/api/intake/start"} 1`)
}

func TestSessionLocksSerialize(t *testing.T) {
	locks := newSessionLocks()
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		active  int
		overlap bool
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.lock("same")
			defer unlock()
			mu.Lock()
			active++
			if active > 1 {
				overlap = true
			}
			mu.Unlock()
			mu.Lock()
			active--
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.False(t, overlap)
	assert.Equal(t, 0, locks.len())
}
