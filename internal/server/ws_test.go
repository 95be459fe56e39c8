package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intake-backend/internal/intake"
	"intake-backend/internal/types"
)

func dialWS(t *testing.T, srv *httptest.Server, sid string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/intake/ws?sessionId=" + sid
	return websocket.DefaultDialer.Dial(url, nil)
}

func readFrame(t *testing.T, conn *websocket.Conn) wsOutbound {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var out wsOutbound
	require.NoError(t, conn.ReadJSON(&out))
	return out
}

func TestChatWebsocket(t *testing.T) {
	s, st := newTestServer(t, 0)
	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	start := decode[types.ChatResponse](t, do(t, s, http.MethodPost, "/api/intake/start", nil))
	conn, _, err := dialWS(t, srv, start.SessionID)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(wsInbound{Type: "ping"}))
	assert.Equal(t, "pong", readFrame(t, conn).Type)

	require.NoError(t, conn.WriteJSON(wsInbound{Type: "message", Message: "My name is Rahul"}))
	out := readFrame(t, conn)
	require.Equal(t, "turn", out.Type, out.Message)
	require.NotNil(t, out.Turn)
	assert.Equal(t, start.SessionID, out.Turn.SessionID)
	assert.Equal(t, intake.BriefKey, out.Turn.QuestionKey)
	assert.Contains(t, out.Turn.Reply, "Rahul")

	require.NoError(t, conn.WriteJSON(wsInbound{Type: "message", Message: "  "}))
	out = readFrame(t, conn)
	assert.Equal(t, "error", out.Type)
	assert.Equal(t, "invalid_argument", out.Code)

	require.NoError(t, conn.WriteJSON(wsInbound{Type: "shout"}))
	out = readFrame(t, conn)
	assert.Equal(t, "error", out.Type)
	assert.Contains(t, out.Message, "unsupported type")

	sess, err := st.Session(context.Background(), start.SessionID)
	require.NoError(t, err)
	assert.Len(t, sess.Messages, 3)
}

func TestChatWebsocketUnknownSession(t *testing.T) {
	s, _ := newTestServer(t, 0)
	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	_, resp, err := dialWS(t, srv, "s_missing")
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAllowOrigin(t *testing.T) {
	s, _ := newTestServer(t, 0)
	s.cfg.AllowedOrigins = []string{"https://app.example"}

	req := httptest.NewRequest(http.MethodGet, "/api/intake/ws", nil)
	assert.True(t, s.allowOrigin(req), "no origin header")
	req.Header.Set("Origin", "https://APP.example")
	assert.True(t, s.allowOrigin(req))
	req.Header.Set("Origin", "https://evil.example")
	assert.False(t, s.allowOrigin(req))
}
